package tetris

import (
	"errors"
	"fmt"
)

const (
	BoardWidth  = 10 // テトリスボードの既定の幅
	BoardHeight = 20 // テトリスボードの既定の高さ（表示部分）
)

// ErrInvalidBoardSize はボードの行数・列数が正でない場合のエラーです。
var ErrInvalidBoardSize = errors.New("invalid board size")

// BlockType はボード上のブロックの種類を表します。
// 色の参照にのみ使われ、ゲームロジック上は「空かどうか」だけが意味を持ちます。
type BlockType int

const (
	BlockEmpty BlockType = iota // 0: 空のマス
	BlockI                      // 1: I-テトリミノ由来のブロック (PieceType 0 + 1)
	BlockO                      // 2: O-テトリミノ由来のブロック
	BlockT                      // 3: T-テトリミノ由来のブロック
	BlockS                      // 4: S-テトリミノ由来のブロック
	BlockZ                      // 5: Z-テトリミノ由来のブロック
	BlockJ                      // 6: J-テトリミノ由来のブロック
	BlockL                      // 7: L-テトリミノ由来のブロック
)

// BlockFor はPieceType (0-6) を BlockType (1-7) に変換します。
func BlockFor(t PieceType) BlockType {
	return BlockType(t + 1)
}

// Grid は固定済みブロックを保持するテトリスのゲームボードです。
// Cells[y][x] でアクセスします。yは行、xは列です。
type Grid struct {
	Rows  int           `json:"rows"`
	Cols  int           `json:"cols"`
	Cells [][]BlockType `json:"cells"`
}

// NewGrid は rows×cols の空のボードを生成します。
func NewGrid(rows, cols int) (*Grid, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: %dx%d", ErrInvalidBoardSize, rows, cols)
	}
	g := &Grid{Rows: rows, Cols: cols}
	g.Reset()
	return g, nil
}

func (g *Grid) emptyRow() []BlockType {
	return make([]BlockType, g.Cols)
}

// Reset は全てのマスを空に戻します。
func (g *Grid) Reset() {
	g.Cells = make([][]BlockType, g.Rows)
	for y := range g.Cells {
		g.Cells[y] = g.emptyRow()
	}
}

// IsInside は (x, y) が衝突判定上ボードの内側にあるかを返します。
// yには下限がなく、ボード上部の見えない領域は常に内側として扱います。
func (g *Grid) IsInside(x, y int) bool {
	return x >= 0 && x < g.Cols && y < g.Rows
}

// IsOccupied は (x, y) に固定済みブロックがあるかを返します。y < 0 は常に空です。
func (g *Grid) IsOccupied(x, y int) bool {
	if y < 0 {
		return false
	}
	return g.Cells[y][x] != BlockEmpty
}

// MergePiece は落下したピースをボードに固定します。
// ボード上部 (y < 0) や左右・下端の外にはみ出したセルは書き込まれずに捨てられます。
// この場合のゲームオーバー判定は次ピースのスポーン時に行われます。
func (g *Grid) MergePiece(p *Piece) {
	marker := BlockFor(p.Type)
	for _, block := range p.Blocks() {
		x, y := block[0], block[1]
		if y < 0 || !g.IsInside(x, y) {
			continue
		}
		g.Cells[y][x] = marker
	}
}

func (g *Grid) rowFull(y int) bool {
	for _, cell := range g.Cells[y] {
		if cell == BlockEmpty {
			return false
		}
	}
	return true
}

// ClearLines は揃ったラインを下から上へ走査して消去し、消去したライン数を返します。
// 消去した行の上にあった行は一段下がるため、同じ行インデックスを再検査してから上へ進みます。
func (g *Grid) ClearLines() int {
	cleared := 0
	for y := g.Rows - 1; y >= 0; {
		if !g.rowFull(y) {
			y--
			continue
		}
		rows := make([][]BlockType, 0, g.Rows)
		rows = append(rows, g.emptyRow())
		rows = append(rows, g.Cells[:y]...)
		rows = append(rows, g.Cells[y+1:]...)
		g.Cells = rows
		cleared++
	}
	return cleared
}

// Clone はボードのディープコピーを返します。
func (g *Grid) Clone() *Grid {
	out := &Grid{Rows: g.Rows, Cols: g.Cols, Cells: make([][]BlockType, g.Rows)}
	for y, row := range g.Cells {
		out.Cells[y] = append([]BlockType(nil), row...)
	}
	return out
}
