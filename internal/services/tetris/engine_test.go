package tetris

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubes-arcade/arcade-backend/internal/models/tetris"
	"github.com/tubes-arcade/arcade-backend/internal/services/arcade"
)

// seqRand は決められた順番で値を返すテスト用の乱数源です。
type seqRand struct {
	seq []int
	i   int
}

func (r *seqRand) Intn(n int) int {
	if len(r.seq) == 0 {
		return 0
	}
	v := r.seq[r.i%len(r.seq)] % n
	r.i++
	return v
}

func newTestEngine(t *testing.T, store arcade.BestStore, seq ...int) *Engine {
	t.Helper()
	e, err := NewEngine(DefaultConfig(), store, &seqRand{seq: seq})
	require.NoError(t, err)
	return e
}

func placePiece(t *testing.T, e *Engine, pt tetris.PieceType, x, y int) {
	t.Helper()
	p, err := tetris.NewPiece(pt, e.cfg.Cols)
	require.NoError(t, err)
	p.X, p.Y = x, y
	e.current = p
}

func fillRowExcept(e *Engine, y int, skip ...int) {
	for x := 0; x < e.grid.Cols; x++ {
		e.grid.Cells[y][x] = tetris.BlockZ
	}
	for _, x := range skip {
		e.grid.Cells[y][x] = tetris.BlockEmpty
	}
}

func kinds(events []arcade.Event) []arcade.EventKind {
	out := make([]arcade.EventKind, 0, len(events))
	for _, ev := range events {
		out = append(out, ev.Kind)
	}
	return out
}

func TestNewEngine_RejectsInvalidConfig(t *testing.T) {
	for _, tc := range []struct{ rows, cols int }{{0, 10}, {1, 10}, {20, 3}, {20, 0}} {
		cfg := DefaultConfig()
		cfg.Rows, cfg.Cols = tc.rows, tc.cols
		_, err := NewEngine(cfg, nil, &seqRand{})
		assert.ErrorIs(t, err, tetris.ErrInvalidBoardSize, "%dx%d", tc.rows, tc.cols)
	}

	cfg := DefaultConfig()
	cfg.Rows, cfg.Cols = minRows, tetris.MaxShapeWidth()
	_, err := NewEngine(cfg, nil, &seqRand{})
	assert.NoError(t, err, "the narrowest board that fits every piece is accepted")

	cfg = DefaultConfig()
	cfg.Difficulty = "INSANE"
	_, err = NewEngine(cfg, nil, &seqRand{})
	assert.ErrorIs(t, err, arcade.ErrUnknownDifficulty)

	_, err = NewEngine(DefaultConfig(), nil, nil)
	assert.Error(t, err)
}

func TestEngine_StartsReady(t *testing.T) {
	e := newTestEngine(t, nil, 2, 1)
	assert.Equal(t, arcade.StatusReady, e.Status())
	assert.Equal(t, tetris.TypeT, e.current.Type)
	assert.Equal(t, tetris.TypeO, e.next.Type)
	assert.Equal(t, 0, e.Score())
	assert.Equal(t, 1, e.Level())
	assert.Equal(t, 700*time.Millisecond, e.Interval())
}

func TestEngine_InputIgnoredOutsidePlaying(t *testing.T) {
	e := newTestEngine(t, nil)
	x := e.current.X

	assert.False(t, e.MoveLeft())
	assert.False(t, e.RotateCW())
	assert.False(t, e.SoftDrop())
	assert.False(t, e.HardDrop())
	e.Tick(10 * time.Second)

	assert.Equal(t, x, e.current.X)
	assert.Equal(t, -1, e.current.Y)
	assert.Equal(t, 0, e.Score())
	assert.Equal(t, arcade.StatusReady, e.Status())
}

func TestEngine_TickAppliesGravity(t *testing.T) {
	e := newTestEngine(t, nil, 1)
	e.Start()
	require.Equal(t, arcade.StatusPlaying, e.Status())

	e.Tick(699 * time.Millisecond)
	assert.Equal(t, -1, e.current.Y)
	e.Tick(time.Millisecond)
	assert.Equal(t, 0, e.current.Y)

	// 3 intervals at once
	e.Tick(2100 * time.Millisecond)
	assert.Equal(t, 3, e.current.Y)
}

func TestEngine_TwoLineClearScoresAtCurrentLevel(t *testing.T) {
	e := newTestEngine(t, nil, 1)
	fillRowExcept(e, 18, 4, 5)
	fillRowExcept(e, 19, 4, 5)
	placePiece(t, e, tetris.TypeO, 4, 18)
	e.Start()

	e.Tick(700 * time.Millisecond)

	assert.Equal(t, 300, e.Score())
	assert.Equal(t, 2, e.Lines())
	assert.Equal(t, 1, e.Level())
	for y := 0; y < e.grid.Rows; y++ {
		for x := 0; x < e.grid.Cols; x++ {
			assert.Equal(t, tetris.BlockEmpty, e.grid.Cells[y][x], "cell (%d,%d)", x, y)
		}
	}
	assert.Equal(t, []arcade.EventKind{arcade.EventLocked, arcade.EventLinesCleared}, kinds(e.DrainEvents()))
	assert.Empty(t, e.DrainEvents())
	assert.Equal(t, arcade.StatusPlaying, e.Status())
}

func TestEngine_LevelUpShortensInterval(t *testing.T) {
	e := newTestEngine(t, nil, 1)
	e.score.Lines = 9
	fillRowExcept(e, 19, 4, 5)
	placePiece(t, e, tetris.TypeO, 4, 18)
	e.Start()

	e.Tick(700 * time.Millisecond)

	assert.Equal(t, 100, e.Score())
	assert.Equal(t, 2, e.Level())
	assert.Equal(t, 640*time.Millisecond, e.Interval())
	events := e.DrainEvents()
	assert.Equal(t, []arcade.EventKind{arcade.EventLocked, arcade.EventLinesCleared, arcade.EventLevelUp}, kinds(events))
	assert.Equal(t, 1, events[1].Lines)
	assert.Equal(t, 2, events[2].Level)
}

func TestEngine_PauseFreezesClock(t *testing.T) {
	e := newTestEngine(t, nil, 1)
	e.Start()

	e.Tick(500 * time.Millisecond)
	assert.Equal(t, -1, e.current.Y)

	e.TogglePause()
	assert.Equal(t, arcade.StatusPaused, e.Status())
	e.Tick(5 * time.Second)
	assert.False(t, e.MoveLeft())
	assert.Equal(t, -1, e.current.Y)

	e.TogglePause()
	e.Tick(200 * time.Millisecond)
	assert.Equal(t, 0, e.current.Y, "time accumulated before the pause is kept")
}

func TestEngine_SpawnCollisionEndsGame(t *testing.T) {
	store := arcade.NewMemoryBestStore(nil)
	e := newTestEngine(t, store, 0)
	fillRowExcept(e, 0, 9)
	fillRowExcept(e, 1, 9)
	e.Start()

	require.True(t, e.HardDrop())

	assert.Equal(t, arcade.StatusGameOver, e.Status())
	events := e.DrainEvents()
	require.NotEmpty(t, events)
	last := events[len(events)-1]
	assert.Equal(t, arcade.EventGameOver, last.Kind)
	assert.Equal(t, e.Score(), last.Score)

	before := e.Snapshot()
	e.Tick(10 * time.Second)
	assert.False(t, e.MoveRight())
	assert.False(t, e.HardDrop())
	assert.Equal(t, before, e.Snapshot(), "no further ticks after game over")
	assert.True(t, e.Snapshot().GameOver)
}

func TestEngine_StartAfterGameOverResets(t *testing.T) {
	e := newTestEngine(t, nil, 0)
	e.score.Best = 40
	fillRowExcept(e, 0, 9)
	fillRowExcept(e, 1, 9)
	e.Start()
	e.score.Score = 25
	e.HardDrop()
	require.Equal(t, arcade.StatusGameOver, e.Status())

	e.Start()

	assert.Equal(t, arcade.StatusPlaying, e.Status())
	assert.Equal(t, 0, e.Score())
	assert.Equal(t, 0, e.Lines())
	assert.Equal(t, 40, e.Best())
	assert.Equal(t, tetris.BlockEmpty, e.grid.Cells[0][0])
	assert.Empty(t, e.DrainEvents())
}

func TestEngine_SetDifficulty(t *testing.T) {
	e := newTestEngine(t, nil)
	require.NoError(t, e.SetDifficulty(arcade.Hard))
	assert.Equal(t, 500*time.Millisecond, e.Interval())

	e.Start()
	assert.ErrorIs(t, e.SetDifficulty(arcade.Easy), ErrGameRunning)
	e.TogglePause()
	assert.ErrorIs(t, e.SetDifficulty(arcade.Easy), ErrGameRunning)
	assert.Equal(t, arcade.Hard, e.Difficulty())
}

func TestEngine_SnapshotIsDeepCopy(t *testing.T) {
	e := newTestEngine(t, nil, 2)
	e.Start()

	s := e.Snapshot()
	assert.Equal(t, GameKey, s.Game)
	assert.True(t, s.Running)
	assert.False(t, s.Paused)
	assert.Equal(t, int64(700), s.DropIntervalMs)

	s.Grid[5][5] = tetris.BlockI
	s.CurrentPiece.Shape[0][0] = true
	s.CurrentPiece.X = 99

	assert.Equal(t, tetris.BlockEmpty, e.grid.Cells[5][5])
	assert.False(t, e.current.Shape[0][0])
	assert.NotEqual(t, 99, e.current.X)

	v, ok := e.View().(Snapshot)
	require.True(t, ok)
	assert.Equal(t, tetris.TypeT, v.CurrentPiece.Type)
}

func TestEngine_BestPersistedDuringPlay(t *testing.T) {
	store := arcade.NewMemoryBestStore(nil)
	e := newTestEngine(t, store, 1)
	placePiece(t, e, tetris.TypeO, 4, 13)
	e.Start()

	require.True(t, e.HardDrop())

	assert.Equal(t, 10, e.Score())
	assert.Equal(t, 10, e.Best())
	v, err := store.Get(GameKey)
	require.NoError(t, err)
	assert.Equal(t, 10, v)
}
