package main

import (
	"math/rand"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubes-arcade/arcade-backend/internal/services/arcade"
	"github.com/tubes-arcade/arcade-backend/internal/services/games"
)

func newSimScreen(t *testing.T) tcell.SimulationScreen {
	t.Helper()
	screen := tcell.NewSimulationScreen("UTF-8")
	require.NoError(t, screen.Init())
	screen.SetSize(80, 30)
	t.Cleanup(screen.Fini)
	return screen
}

// screenText は画面の内容を行ごとの文字列にします。
func screenText(screen tcell.SimulationScreen) string {
	cells, width, height := screen.GetContents()
	var sb strings.Builder
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			runes := cells[y*width+x].Runes
			if len(runes) == 0 {
				sb.WriteRune(' ')
				continue
			}
			sb.WriteRune(runes[0])
		}
		sb.WriteRune('\n')
	}
	return sb.String()
}

func TestRendererDrawsHUD(t *testing.T) {
	for _, key := range games.Keys() {
		t.Run(key, func(t *testing.T) {
			screen := newSimScreen(t)
			g, err := games.New(key, games.DefaultTuning(), arcade.Hard, nil, rand.New(rand.NewSource(3)))
			require.NoError(t, err)

			r := newRenderer(screen)
			r.draw(g)
			text := screenText(screen)
			assert.Contains(t, text, key)
			assert.Contains(t, text, "Score: 0")
			assert.Contains(t, text, "Mode:  HARD")
			assert.Contains(t, text, "Enter: start")

			g.HandleInput(arcade.ActionStart)
			r.setNotice("Score %d submitted", 40)
			r.draw(g)
			text = screenText(screen)
			assert.Contains(t, text, "p: pause")
			assert.Contains(t, text, "Score 40 submitted")
		})
	}
}
