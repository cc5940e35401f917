package tetris

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fillRow(g *Grid, y int, b BlockType) {
	for x := 0; x < g.Cols; x++ {
		g.Cells[y][x] = b
	}
}

func TestNewGrid_RejectsInvalidSize(t *testing.T) {
	for _, tc := range []struct{ rows, cols int }{{0, 10}, {20, 0}, {-1, 5}} {
		_, err := NewGrid(tc.rows, tc.cols)
		assert.ErrorIs(t, err, ErrInvalidBoardSize)
	}

	g, err := NewGrid(BoardHeight, BoardWidth)
	require.NoError(t, err)
	assert.Len(t, g.Cells, BoardHeight)
	assert.Len(t, g.Cells[0], BoardWidth)
}

func TestGrid_IsInsideAndOccupied(t *testing.T) {
	g, _ := NewGrid(BoardHeight, BoardWidth)

	assert.True(t, g.IsInside(0, -5), "cells above the board count as inside")
	assert.True(t, g.IsInside(BoardWidth-1, BoardHeight-1))
	assert.False(t, g.IsInside(-1, 0))
	assert.False(t, g.IsInside(BoardWidth, 0))
	assert.False(t, g.IsInside(0, BoardHeight))

	g.Cells[5][3] = BlockT
	assert.True(t, g.IsOccupied(3, 5))
	assert.False(t, g.IsOccupied(4, 5))
	assert.False(t, g.IsOccupied(3, -1))
}

func TestGrid_MergePieceDropsCellsAboveBoard(t *testing.T) {
	g, _ := NewGrid(BoardHeight, BoardWidth)
	p, err := NewPiece(TypeJ, BoardWidth)
	require.NoError(t, err)
	p.Y = -1 // row 0 of the J shape is above the board

	g.MergePiece(p)

	filled := 0
	for _, row := range g.Cells {
		for _, cell := range row {
			if cell != BlockEmpty {
				assert.Equal(t, BlockJ, cell)
				filled++
			}
		}
	}
	assert.Equal(t, 3, filled)
	assert.Equal(t, BlockJ, g.Cells[0][p.X])
}

func TestGrid_MergePieceSkipsCellsOutsideBoard(t *testing.T) {
	g, err := NewGrid(4, 3)
	require.NoError(t, err)
	p, err := NewPiece(TypeI, 3)
	require.NoError(t, err)
	require.Equal(t, -1, p.X, "I piece overhangs a 3-wide board")
	p.Y = 0

	assert.NotPanics(t, func() { g.MergePiece(p) })
	assert.Equal(t, []BlockType{BlockI, BlockI, BlockI}, g.Cells[1])

	p.Y = 3 // the filled row lands below the floor
	assert.NotPanics(t, func() { g.MergePiece(p) })
}

func TestGrid_ClearLinesFullBoard(t *testing.T) {
	g, _ := NewGrid(BoardHeight, BoardWidth)
	for y := 0; y < g.Rows; y++ {
		fillRow(g, y, BlockI)
	}

	assert.Equal(t, BoardHeight, g.ClearLines())
	for y := 0; y < g.Rows; y++ {
		for x := 0; x < g.Cols; x++ {
			assert.Equal(t, BlockEmpty, g.Cells[y][x])
		}
	}
}

func TestGrid_ClearLinesNoFullRowIsIdempotent(t *testing.T) {
	g, _ := NewGrid(BoardHeight, BoardWidth)
	fillRow(g, BoardHeight-1, BlockS)
	g.Cells[BoardHeight-1][4] = BlockEmpty
	g.Cells[BoardHeight-2][0] = BlockZ
	before := g.Clone()

	assert.Equal(t, 0, g.ClearLines())
	assert.Equal(t, 0, g.ClearLines())
	assert.Equal(t, before.Cells, g.Cells)
}

func TestGrid_ClearLinesRescansShiftedRows(t *testing.T) {
	g, _ := NewGrid(6, 4)
	// rows 4 and 5 full, row 3 partial, row 2 full
	fillRow(g, 5, BlockI)
	fillRow(g, 4, BlockO)
	g.Cells[3][1] = BlockT
	fillRow(g, 2, BlockL)

	assert.Equal(t, 3, g.ClearLines())
	assert.Equal(t, BlockT, g.Cells[5][1], "partial row keeps its relative order")
	for y := 0; y < 5; y++ {
		for x := 0; x < 4; x++ {
			assert.Equal(t, BlockEmpty, g.Cells[y][x])
		}
	}
}
