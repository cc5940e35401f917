package main

import (
	"fmt"
	"sync"

	"github.com/gdamore/tcell/v2"

	modelsnake "github.com/tubes-arcade/arcade-backend/internal/models/snake"
	modeltetris "github.com/tubes-arcade/arcade-backend/internal/models/tetris"
	"github.com/tubes-arcade/arcade-backend/internal/services/arcade"
	"github.com/tubes-arcade/arcade-backend/internal/services/snake"
	"github.com/tubes-arcade/arcade-backend/internal/services/tetris"
)

// ボードの左上の位置です。1マスは横2文字で描きます。
const (
	originX = 2
	originY = 1
	hudGap  = 4
)

var (
	styleText   = tcell.StyleDefault
	styleBorder = tcell.StyleDefault.Foreground(tcell.ColorGray)
	styleTitle  = tcell.StyleDefault.Foreground(tcell.ColorYellow).Bold(true)
	styleSnake  = tcell.StyleDefault.Background(tcell.ColorGreen)
	styleHead   = tcell.StyleDefault.Background(tcell.ColorLime)
	styleFood   = tcell.StyleDefault.Background(tcell.ColorRed)
)

// blockColors は BlockType ごとの色です。
var blockColors = map[modeltetris.BlockType]tcell.Color{
	modeltetris.BlockI: tcell.ColorAqua,
	modeltetris.BlockO: tcell.ColorYellow,
	modeltetris.BlockT: tcell.ColorPurple,
	modeltetris.BlockS: tcell.ColorGreen,
	modeltetris.BlockZ: tcell.ColorRed,
	modeltetris.BlockJ: tcell.ColorBlue,
	modeltetris.BlockL: tcell.ColorOrange,
}

// renderer はゲームのスナップショットを tcell の画面に描きます。
type renderer struct {
	screen tcell.Screen

	mu     sync.Mutex
	notice string // スコア送信結果など、HUDの最下行に出すメッセージ
}

func newRenderer(screen tcell.Screen) *renderer {
	return &renderer{screen: screen}
}

// setNotice は別のゴルーチンからでも呼べます。
func (r *renderer) setNotice(format string, args ...any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.notice = fmt.Sprintf(format, args...)
}

func (r *renderer) draw(g arcade.Game) {
	r.screen.Clear()
	var hud []string
	hudX := 0
	switch v := g.View().(type) {
	case tetris.Snapshot:
		hudX = r.drawTetris(v)
		hud = tetrisHUD(v)
	case snake.Snapshot:
		hudX = r.drawSnake(v)
		hud = snakeHUD(v)
	}

	y := originY
	r.text(hudX, y, styleTitle, g.Key())
	for _, line := range hud {
		y++
		r.text(hudX, y, styleText, line)
	}
	y += 2
	r.text(hudX, y, styleText, statusLine(g.Status()))

	r.mu.Lock()
	notice := r.notice
	r.mu.Unlock()
	if notice != "" {
		r.text(hudX, y+2, styleText, notice)
	}
	r.screen.Show()
}

// drawTetris は盤面と操作中のピースを描き、HUDの開始列を返します。
func (r *renderer) drawTetris(v tetris.Snapshot) int {
	r.border(v.Cols, v.Rows)
	for y, row := range v.Grid {
		for x, cell := range row {
			if cell != modeltetris.BlockEmpty {
				r.cell(x, y, tcell.StyleDefault.Background(blockColors[cell]))
			}
		}
	}
	if p := v.CurrentPiece; p != nil && v.Status != arcade.StatusGameOver {
		style := tcell.StyleDefault.Background(blockColors[modeltetris.BlockFor(p.Type)])
		for _, b := range p.Blocks() {
			if b[1] >= 0 {
				r.cell(b[0], b[1], style)
			}
		}
	}

	hudX := originX + v.Cols*2 + hudGap
	if p := v.NextPiece; p != nil {
		style := tcell.StyleDefault.Background(blockColors[modeltetris.BlockFor(p.Type)])
		for row, line := range p.Shape {
			for col, filled := range line {
				if filled {
					r.fill(hudX+col*2, originY+10+row, style)
				}
			}
		}
	}
	return hudX
}

func tetrisHUD(v tetris.Snapshot) []string {
	return []string{
		fmt.Sprintf("Score: %d", v.Score),
		fmt.Sprintf("Best:  %d", v.Best),
		fmt.Sprintf("Level: %d", v.Level),
		fmt.Sprintf("Lines: %d", v.Lines),
		fmt.Sprintf("Mode:  %s", v.Difficulty),
		"",
		"Next:",
	}
}

func (r *renderer) drawSnake(v snake.Snapshot) int {
	r.border(v.Cols, v.Rows)
	if v.Food != nil {
		r.cell(v.Food.X, v.Food.Y, styleFood)
	}
	for i, p := range v.Snake {
		style := styleSnake
		if i == 0 {
			style = styleHead
		}
		r.cell(p.X, p.Y, style)
	}
	return originX + v.Cols*2 + hudGap
}

func snakeHUD(v snake.Snapshot) []string {
	return []string{
		fmt.Sprintf("Score: %d", v.Score),
		fmt.Sprintf("Best:  %d", v.Best),
		fmt.Sprintf("Speed: %.1f", v.TPS),
		fmt.Sprintf("Mode:  %s", v.Difficulty),
		fmt.Sprintf("Size:  %d", len(v.Snake)),
		fmt.Sprintf("Dir:   %s", directionName(v.Direction)),
	}
}

func directionName(d modelsnake.Direction) string {
	switch d {
	case modelsnake.Up:
		return "up"
	case modelsnake.Down:
		return "down"
	case modelsnake.Left:
		return "left"
	case modelsnake.Right:
		return "right"
	}
	return "-"
}

func statusLine(s arcade.Status) string {
	switch s {
	case arcade.StatusReady:
		return "Enter: start   q: quit"
	case arcade.StatusPaused:
		return "PAUSED   p: resume"
	case arcade.StatusGameOver:
		return "GAME OVER   r: restart   q: quit"
	}
	return "p: pause   r: restart   q: quit"
}

// border はボードの外枠を描きます。
func (r *renderer) border(cols, rows int) {
	left, right := originX-1, originX+cols*2
	top, bottom := originY-1, originY+rows
	for x := left; x <= right; x++ {
		r.screen.SetContent(x, top, '─', nil, styleBorder)
		r.screen.SetContent(x, bottom, '─', nil, styleBorder)
	}
	for y := top; y <= bottom; y++ {
		r.screen.SetContent(left, y, '│', nil, styleBorder)
		r.screen.SetContent(right, y, '│', nil, styleBorder)
	}
	r.screen.SetContent(left, top, '┌', nil, styleBorder)
	r.screen.SetContent(right, top, '┐', nil, styleBorder)
	r.screen.SetContent(left, bottom, '└', nil, styleBorder)
	r.screen.SetContent(right, bottom, '┘', nil, styleBorder)
}

// cell はボード座標 (x, y) の1マスを塗ります。
func (r *renderer) cell(x, y int, style tcell.Style) {
	r.fill(originX+x*2, originY+y, style)
}

func (r *renderer) fill(sx, sy int, style tcell.Style) {
	r.screen.SetContent(sx, sy, ' ', nil, style)
	r.screen.SetContent(sx+1, sy, ' ', nil, style)
}

func (r *renderer) text(x, y int, style tcell.Style, s string) {
	for _, ch := range s {
		r.screen.SetContent(x, y, ch, nil, style)
		x++
	}
}
