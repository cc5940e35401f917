package tetris

import (
	"errors"
	"fmt"
	"time"

	"github.com/tubes-arcade/arcade-backend/internal/models/tetris"
	"github.com/tubes-arcade/arcade-backend/internal/services/arcade"
)

// ErrGameRunning はプレイ中・一時停止中に変更できない設定を変えようとした場合のエラーです。
var ErrGameRunning = errors.New("game is running")

// Engine は単一プレイヤーのテトリスのゲーム状態です。
// 内部にタイマーやゴルーチンを持たず、ドライバーが Tick と各操作を呼び出して進めます。
type Engine struct {
	cfg      Config
	grid     *tetris.Grid
	detector *tetris.CollisionDetector
	score    *ScoreManager
	rng      arcade.Randomizer

	current *tetris.Piece
	next    *tetris.Piece

	status arcade.Status
	clock  arcade.Clock
	events []arcade.Event
}

// Snapshot は描画層・HUD層に渡す読み取り専用のゲーム状態です。
type Snapshot struct {
	Game           string               `json:"game"`
	Status         arcade.Status        `json:"status"`
	Difficulty     arcade.Difficulty    `json:"difficulty"`
	Rows           int                  `json:"rows"`
	Cols           int                  `json:"cols"`
	Grid           [][]tetris.BlockType `json:"grid"`
	CurrentPiece   *tetris.Piece        `json:"current_piece"`
	NextPiece      *tetris.Piece        `json:"next_piece"`
	Score          int                  `json:"score"`
	Lines          int                  `json:"lines"`
	Level          int                  `json:"level"`
	Best           int                  `json:"best"`
	DropIntervalMs int64                `json:"drop_interval_ms"`
	Running        bool                 `json:"running"`
	Paused         bool                 `json:"paused"`
	GameOver       bool                 `json:"game_over"`
}

// NewEngine は新しいテトリスエンジンを Ready 状態で生成します。
//
// Parameters:
//
//	cfg   : ボードサイズと難易度の設定
//	store : ハイスコアの永続化先 (nil可)
//	rng   : ピース抽選用の乱数源
//
// Returns:
//
//	*Engine: 初期化されたエンジン
//	error  : 設定が不正な場合
func NewEngine(cfg Config, store arcade.BestStore, rng arcade.Randomizer) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, errors.New("randomizer is required")
	}
	grid, err := tetris.NewGrid(cfg.Rows, cfg.Cols)
	if err != nil {
		return nil, err
	}
	e := &Engine{
		cfg:      cfg,
		grid:     grid,
		detector: tetris.NewCollisionDetector(grid),
		score:    NewScoreManager(cfg.Difficulty, cfg.profiles(), store, GameKey),
		rng:      rng,
	}
	e.Reset()
	return e, nil
}

// randomPiece は7種類から一様に（独立に）1つを選び、スポーン位置に生成します。
func (e *Engine) randomPiece() *tetris.Piece {
	t := tetris.Bag[e.rng.Intn(len(tetris.Bag))]
	p, err := tetris.NewPiece(t, e.cfg.Cols)
	if err != nil {
		// Bag には定義済みの種類しか入っていない
		panic(fmt.Sprintf("spawn %v: %v", t, err))
	}
	return p
}

// Reset はボード・スコア・ピースを初期化し、Ready 状態に戻します。Bestは保持されます。
func (e *Engine) Reset() {
	e.grid.Reset()
	e.score.Reset()
	e.clock.Reset()
	e.events = nil
	e.current = e.randomPiece()
	e.next = e.randomPiece()
	e.status = arcade.StatusReady
}

// Start は Ready または GameOver から Playing へ遷移します。GameOver からの場合は先にリセットします。
func (e *Engine) Start() {
	if e.status == arcade.StatusGameOver {
		e.Reset()
	}
	if e.status != arcade.StatusReady {
		return
	}
	e.clock.Reset()
	e.status = arcade.StatusPlaying
}

// Restart はリセットしてすぐに開始します。
func (e *Engine) Restart() {
	e.Reset()
	e.Start()
}

// TogglePause は Playing と Paused を切り替えます。それ以外の状態では何もしません。
// 一時停止中は蓄積済みの時間を保持したまま凍結します。
func (e *Engine) TogglePause() {
	switch e.status {
	case arcade.StatusPlaying:
		e.status = arcade.StatusPaused
	case arcade.StatusPaused:
		e.status = arcade.StatusPlaying
	}
}

// SetDifficulty は難易度を変更します。実行中（Playing / Paused）は変更できません。
func (e *Engine) SetDifficulty(d arcade.Difficulty) error {
	if e.status == arcade.StatusPlaying || e.status == arcade.StatusPaused {
		return ErrGameRunning
	}
	if err := e.score.SetDifficulty(d); err != nil {
		return err
	}
	e.cfg.Difficulty = d
	return nil
}

// Tick は経過時間を蓄積し、落下間隔に達するたびに1段の重力ステップを実行します。
// 重力ステップでゲームオーバーになった時点で打ち切ります。
func (e *Engine) Tick(dt time.Duration) {
	if e.status != arcade.StatusPlaying {
		return
	}
	e.clock.Advance(dt, e.score.DropInterval, func() bool {
		e.gravityStep()
		return e.status == arcade.StatusPlaying
	})
}

func (e *Engine) emit(ev arcade.Event) {
	e.events = append(e.events, ev)
}

// DrainEvents は溜まっているイベントを返し、キューを空にします。
func (e *Engine) DrainEvents() []arcade.Event {
	out := e.events
	e.events = nil
	return out
}

func (e *Engine) Key() string { return GameKey }
func (e *Engine) Status() arcade.Status { return e.status }
func (e *Engine) Score() int { return e.score.Score }
func (e *Engine) Best() int { return e.score.Best }
func (e *Engine) Lines() int { return e.score.Lines }
func (e *Engine) Level() int { return e.score.Level }
func (e *Engine) Interval() time.Duration { return e.score.DropInterval() }
func (e *Engine) Difficulty() arcade.Difficulty { return e.score.Difficulty }

// Snapshot は現在のゲーム状態のディープコピーを返します。
func (e *Engine) Snapshot() Snapshot {
	return Snapshot{
		Game:           GameKey,
		Status:         e.status,
		Difficulty:     e.score.Difficulty,
		Rows:           e.grid.Rows,
		Cols:           e.grid.Cols,
		Grid:           e.grid.Clone().Cells,
		CurrentPiece:   e.current.Clone(),
		NextPiece:      e.next.Clone(),
		Score:          e.score.Score,
		Lines:          e.score.Lines,
		Level:          e.score.Level,
		Best:           e.score.Best,
		DropIntervalMs: e.score.DropInterval().Milliseconds(),
		Running:        e.status == arcade.StatusPlaying || e.status == arcade.StatusPaused,
		Paused:         e.status == arcade.StatusPaused,
		GameOver:       e.status == arcade.StatusGameOver,
	}
}

// View は arcade.Game 用に Snapshot を返します。
func (e *Engine) View() any {
	return e.Snapshot()
}

var _ arcade.Game = (*Engine)(nil)
