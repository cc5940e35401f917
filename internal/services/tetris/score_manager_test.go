package tetris

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubes-arcade/arcade-backend/internal/services/arcade"
)

type failingStore struct{ sets int }

func (f *failingStore) Get(string) (int, error) { return 0, errors.New("storage offline") }
func (f *failingStore) Set(string, int) error {
	f.sets++
	return errors.New("storage offline")
}

func TestScoreManager_LevelFormula(t *testing.T) {
	for _, tc := range []struct{ lines, level int }{{0, 1}, {9, 1}, {10, 2}, {19, 2}, {20, 3}} {
		sm := NewScoreManager(arcade.Normal, nil, nil, GameKey)
		remaining := tc.lines
		for remaining > 0 {
			n := 4
			if remaining < n {
				n = remaining
			}
			sm.AddLines(n)
			remaining -= n
		}
		assert.Equal(t, tc.lines, sm.Lines)
		assert.Equal(t, tc.lines/LinesPerLevel+1, sm.Level, "lines=%d", tc.lines)
		assert.Equal(t, tc.level, sm.Level, "lines=%d", tc.lines)
	}
}

func TestScoreManager_AddLinesUsesCurrentLevel(t *testing.T) {
	sm := NewScoreManager(arcade.Normal, nil, nil, GameKey)
	assert.False(t, sm.AddLines(0))
	assert.Equal(t, 0, sm.Score)

	sm.AddLines(2)
	assert.Equal(t, 300, sm.Score)

	sm.Lines = 9
	assert.True(t, sm.AddLines(1), "crossing 10 lines levels up")
	assert.Equal(t, 400, sm.Score, "single scored at the level in force before the clear")
	assert.Equal(t, 2, sm.Level)

	sm.AddLines(4)
	assert.Equal(t, 400+800*2, sm.Score)
}

func TestScoreManager_DropInterval(t *testing.T) {
	sm := NewScoreManager(arcade.Normal, nil, nil, GameKey)
	assert.Equal(t, 700*time.Millisecond, sm.DropInterval())

	sm.Level = 10
	assert.Equal(t, 160*time.Millisecond, sm.DropInterval())

	sm.Level = 20
	assert.Equal(t, 120*time.Millisecond, sm.DropInterval())
	sm.Level = 35
	assert.Equal(t, 120*time.Millisecond, sm.DropInterval())

	require.NoError(t, sm.SetDifficulty(arcade.Hard))
	sm.Level = 1
	assert.Equal(t, 500*time.Millisecond, sm.DropInterval())
	require.NoError(t, sm.SetDifficulty(arcade.Easy))
	sm.Level = 100
	assert.Equal(t, 200*time.Millisecond, sm.DropInterval())

	assert.ErrorIs(t, sm.SetDifficulty("INSANE"), arcade.ErrUnknownDifficulty)
}

func TestScoreManager_BestIsMonotonicAndPersisted(t *testing.T) {
	store := arcade.NewMemoryBestStore(map[string]int{GameKey: 50})
	sm := NewScoreManager(arcade.Normal, nil, store, GameKey)
	assert.Equal(t, 50, sm.Best)

	sm.AddHardDrop(10)
	assert.Equal(t, 20, sm.Score)
	assert.Equal(t, 50, sm.Best)

	sm.AddLines(1)
	assert.Equal(t, 120, sm.Score)
	assert.Equal(t, 120, sm.Best)
	persisted, _ := store.Get(GameKey)
	assert.Equal(t, 120, persisted)

	sm.Reset()
	assert.Equal(t, 0, sm.Score)
	assert.Equal(t, 1, sm.Level)
	assert.Equal(t, 120, sm.Best, "reset keeps best")

	sm.AddSoftDrop()
	assert.Equal(t, 1, sm.Score)
	assert.GreaterOrEqual(t, sm.Best, sm.Score)
}

func TestScoreManager_StoreFailuresDoNotAbort(t *testing.T) {
	store := &failingStore{}
	sm := NewScoreManager(arcade.Normal, nil, store, GameKey)
	assert.Equal(t, 0, sm.Best)

	sm.AddSoftDrop()
	assert.Equal(t, 1, sm.Best)
	assert.Equal(t, 1, store.sets)
}
