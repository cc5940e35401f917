package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"math/rand"
	"os"
	"path/filepath"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/tubes-arcade/arcade-backend/internal/client"
	"github.com/tubes-arcade/arcade-backend/internal/config"
	"github.com/tubes-arcade/arcade-backend/internal/services/arcade"
	"github.com/tubes-arcade/arcade-backend/internal/services/games"
	"github.com/tubes-arcade/arcade-backend/internal/storage"
)

// frameInterval は描画と Tick の間隔です（約60fps）。
const frameInterval = 16 * time.Millisecond

type options struct {
	game       string
	difficulty string
	apiURL     string
	token      string
	configPath string
}

func main() {
	var opts options
	flag.StringVar(&opts.game, "game", "tetris", "game to play (tetris|snake)")
	flag.StringVar(&opts.difficulty, "difficulty", "NORMAL", "EASY, NORMAL or HARD")
	flag.StringVar(&opts.apiURL, "api", "", "API server URL for submitting scores (optional)")
	flag.StringVar(&opts.token, "token", os.Getenv("ARCADE_TOKEN"), "JWT used when submitting scores")
	flag.StringVar(&opts.configPath, "config", os.Getenv("GAME_CONFIG"), "YAML tuning file (optional)")
	flag.Parse()

	if err := run(opts); err != nil {
		fmt.Fprintf(os.Stderr, "arcade: %v\n", err)
		os.Exit(1)
	}
}

func run(opts options) error {
	if !games.Known(opts.game) {
		return fmt.Errorf("%w: %q (choose from %v)", games.ErrUnknownGame, opts.game, games.Keys())
	}
	difficulty, err := arcade.ParseDifficulty(opts.difficulty)
	if err != nil {
		return err
	}
	tuning := games.DefaultTuning()
	if opts.configPath != "" {
		if tuning, err = config.LoadTuning(opts.configPath); err != nil {
			return err
		}
	}

	bestPath, err := storage.DefaultPath()
	if err != nil {
		return err
	}
	// 画面を壊さないようにログはファイルへ書く
	logDir := filepath.Dir(bestPath)
	if err := os.MkdirAll(logDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", logDir, err)
	}
	logFile, err := os.OpenFile(filepath.Join(logDir, "arcade.log"), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer logFile.Close()
	log.SetOutput(logFile)

	store, err := storage.NewFileBestStore(bestPath)
	if err != nil {
		return err
	}

	game, err := games.New(opts.game, tuning, difficulty, store, rand.New(rand.NewSource(time.Now().UnixNano())))
	if err != nil {
		return err
	}

	var sink arcade.ScoreSink
	if opts.apiURL != "" {
		sink = client.NewScoreClient(opts.apiURL, opts.token)
	}

	screen, err := tcell.NewScreen()
	if err != nil {
		return fmt.Errorf("failed to create screen: %w", err)
	}
	if err := screen.Init(); err != nil {
		return fmt.Errorf("failed to initialize screen: %w", err)
	}
	defer screen.Fini()

	return play(screen, game, sink)
}

// play は入力を読みながら arcade.Loop でゲームを進めます。q / Esc で終了します。
func play(screen tcell.Screen, game arcade.Game, sink arcade.ScoreSink) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	r := newRenderer(screen)
	actions := make(chan arcade.Action, 16)
	go pollInput(screen, actions, cancel)

	err := arcade.Loop(ctx, game, frameInterval, actions, func(g arcade.Game, events []arcade.Event) {
		for _, ev := range events {
			if ev.Kind == arcade.EventGameOver {
				submit(ctx, r, sink, g.Key(), ev.Score)
			}
		}
		r.draw(g)
	})
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// pollInput はキー入力を Action に変換して actions へ送ります。
func pollInput(screen tcell.Screen, actions chan<- arcade.Action, quit context.CancelFunc) {
	for {
		switch ev := screen.PollEvent().(type) {
		case nil:
			// Fini 後
			return
		case *tcell.EventKey:
			action, stop := keyAction(ev)
			if stop {
				quit()
				return
			}
			if action == "" {
				continue
			}
			select {
			case actions <- action:
			default:
				log.Printf("[Arcade] input queue full, dropping %s", action)
			}
		case *tcell.EventResize:
			screen.Sync()
		}
	}
}

// submit は最終スコアをAPIへ送信します。送信結果はHUDに表示し、ゲームは待たせません。
func submit(ctx context.Context, r *renderer, sink arcade.ScoreSink, game string, score int) {
	if sink == nil {
		return
	}
	r.setNotice("Submitting score %d...", score)
	go func() {
		ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()
		if err := sink.Submit(ctx, game, score); err != nil {
			log.Printf("[Arcade] Failed to submit %s score %d: %v", game, score, err)
			r.setNotice("Score not submitted: %v", err)
			return
		}
		r.setNotice("Score %d submitted", score)
	}()
}
