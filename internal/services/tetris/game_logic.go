package tetris

import (
	"log"

	"github.com/tubes-arcade/arcade-backend/internal/models/tetris"
	"github.com/tubes-arcade/arcade-backend/internal/services/arcade"
)

// kickOffsets は回転が衝突した場合に順番に試す位置補正 (dx, dy) です。
// 最初に衝突しなかった補正が採用されます。
var kickOffsets = [...][2]int{
	{0, 0},
	{-1, 0},
	{1, 0},
	{-2, 0},
	{2, 0},
	{0, -1},
}

// HandleInput はプレイヤーの入力（アクション）に基づいてゲーム状態を更新します。
//
// Parameters:
//
//	action : プレイヤーが実行したアクション
//
// Returns:
//
//	bool: ゲーム状態が実際に変更された場合はtrue、変更されなかった場合はfalse
func (e *Engine) HandleInput(action arcade.Action) bool {
	switch action {
	case arcade.ActionStart:
		before := e.status
		e.Start()
		return before != e.status
	case arcade.ActionPause:
		before := e.status
		e.TogglePause()
		return before != e.status
	case arcade.ActionRestart:
		e.Restart()
		return true
	case arcade.ActionMoveLeft:
		return e.MoveLeft()
	case arcade.ActionMoveRight:
		return e.MoveRight()
	case arcade.ActionUp, arcade.ActionRotateCW:
		return e.RotateCW()
	case arcade.ActionRotateCCW:
		return e.RotateCCW()
	case arcade.ActionDown, arcade.ActionSoftDrop:
		return e.SoftDrop()
	case arcade.ActionHardDrop:
		return e.HardDrop()
	}
	return false
}

func (e *Engine) canAct() bool {
	return e.status == arcade.StatusPlaying && e.current != nil
}

// MoveLeft はピースを左に1マス移動します。衝突する場合は何もしません。
func (e *Engine) MoveLeft() bool {
	return e.shift(-1)
}

// MoveRight はピースを右に1マス移動します。衝突する場合は何もしません。
func (e *Engine) MoveRight() bool {
	return e.shift(1)
}

func (e *Engine) shift(dx int) bool {
	if !e.canAct() || e.detector.Check(e.current, dx, 0, nil) {
		return false
	}
	e.current.X += dx
	return true
}

// RotateCW はピースを時計回りに回転します。
func (e *Engine) RotateCW() bool {
	if !e.canAct() {
		return false
	}
	return e.rotate(e.current.RotateCW())
}

// RotateCCW はピースを反時計回りに回転します。
func (e *Engine) RotateCCW() bool {
	if !e.canAct() {
		return false
	}
	return e.rotate(e.current.RotateCCW())
}

// rotate は回転後の形状を kickOffsets の順に試し、最初に収まった位置で確定します。
// どの補正でも収まらない場合、ピースは一切変更されません。
func (e *Engine) rotate(rotated tetris.Shape) bool {
	for _, k := range kickOffsets {
		if e.detector.Check(e.current, k[0], k[1], rotated) {
			continue
		}
		e.current.Shape = rotated
		e.current.X += k[0]
		e.current.Y += k[1]
		return true
	}
	return false
}

// SoftDrop はピースを1マス下に移動し、1点を加算します。
// 下が塞がっている場合は何もせず、固定も行いません（固定は重力とハードドロップのみ）。
func (e *Engine) SoftDrop() bool {
	if !e.canAct() || e.detector.Check(e.current, 0, 1, nil) {
		return false
	}
	e.current.Y++
	e.score.AddSoftDrop()
	return true
}

// HardDrop はピースを衝突する直前まで一気に落下させ、距離×2点を加算して即座に固定します。
func (e *Engine) HardDrop() bool {
	if !e.canAct() {
		return false
	}
	d := 0
	for !e.detector.Check(e.current, 0, d+1, nil) {
		d++
	}
	e.current.Y += d
	e.score.AddHardDrop(d)
	e.lock()
	return true
}

// gravityStep は自動落下を1段進めます。下に移動できなければピースを固定します。
func (e *Engine) gravityStep() {
	if e.current == nil {
		return
	}
	if !e.detector.Check(e.current, 0, 1, nil) {
		e.current.Y++
		return
	}
	e.lock()
}

// lock は現在のピースをボードに固定し、ライン消去・得点計算を行ってから次のピースを出します。
// 新しいピースが出現位置で既に衝突している場合はゲームオーバーです。
func (e *Engine) lock() {
	e.grid.MergePiece(e.current)
	cleared := e.grid.ClearLines()
	e.emit(arcade.Event{Kind: arcade.EventLocked, Score: e.score.Score})

	if cleared > 0 {
		leveledUp := e.score.AddLines(cleared)
		e.emit(arcade.Event{Kind: arcade.EventLinesCleared, Lines: cleared, Level: e.score.Level, Score: e.score.Score})
		if leveledUp {
			e.emit(arcade.Event{Kind: arcade.EventLevelUp, Level: e.score.Level, Score: e.score.Score})
		}
	}
	e.score.UpdateBest()

	e.current = e.next
	e.next = e.randomPiece()

	if e.detector.Check(e.current, 0, 0, nil) {
		e.gameOver()
	}
}

func (e *Engine) gameOver() {
	e.status = arcade.StatusGameOver
	log.Printf("[TetrisEngine] Game over: score=%d lines=%d level=%d", e.score.Score, e.score.Lines, e.score.Level)
	e.emit(arcade.Event{Kind: arcade.EventGameOver, Lines: e.score.Lines, Level: e.score.Level, Score: e.score.Score})
}
