package main

import (
	"unicode"

	"github.com/gdamore/tcell/v2"

	"github.com/tubes-arcade/arcade-backend/internal/services/arcade"
)

// keyAction はキー入力をゲームの Action に変換します。
// 対応しないキーは空の Action を返し、q / Esc / Ctrl+C は quit=true を返します。
// 上下キーはテトリスでは回転とソフトドロップ、スネークでは向きの変更として各エンジンが解釈します。
func keyAction(ev *tcell.EventKey) (action arcade.Action, quit bool) {
	switch ev.Key() {
	case tcell.KeyEscape, tcell.KeyCtrlC:
		return "", true
	case tcell.KeyLeft:
		return arcade.ActionMoveLeft, false
	case tcell.KeyRight:
		return arcade.ActionMoveRight, false
	case tcell.KeyUp:
		return arcade.ActionUp, false
	case tcell.KeyDown:
		return arcade.ActionDown, false
	case tcell.KeyEnter:
		return arcade.ActionStart, false
	case tcell.KeyRune:
	default:
		return "", false
	}

	switch unicode.ToLower(ev.Rune()) {
	case 'q':
		return "", true
	case 'a':
		return arcade.ActionMoveLeft, false
	case 'd':
		return arcade.ActionMoveRight, false
	case 'w':
		return arcade.ActionUp, false
	case 's':
		return arcade.ActionDown, false
	case 'x':
		return arcade.ActionRotateCW, false
	case 'z':
		return arcade.ActionRotateCCW, false
	case ' ':
		return arcade.ActionHardDrop, false
	case 'p':
		return arcade.ActionPause, false
	case 'r':
		return arcade.ActionRestart, false
	}
	return "", false
}
