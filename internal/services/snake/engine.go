package snake

import (
	"errors"
	"log"
	"time"

	"github.com/tubes-arcade/arcade-backend/internal/models/snake"
	"github.com/tubes-arcade/arcade-backend/internal/services/arcade"
)

// ErrGameRunning はプレイ中・一時停止中に変更できない設定を変えようとした場合のエラーです。
var ErrGameRunning = errors.New("game is running")

// Engine はスネークのゲーム状態です。テトリスと同じ状態遷移と時間の進め方を持ちます。
type Engine struct {
	cfg   Config
	board snake.Board
	rng   arcade.Randomizer
	store arcade.BestStore

	snake *snake.Snake
	food  *snake.Point

	score      int
	best       int
	tps        float64
	difficulty arcade.Difficulty

	status arcade.Status
	clock  arcade.Clock
	events []arcade.Event
}

// Snapshot は描画層に渡す読み取り専用のゲーム状態です。
type Snapshot struct {
	Game           string            `json:"game"`
	Status         arcade.Status     `json:"status"`
	Difficulty     arcade.Difficulty `json:"difficulty"`
	Rows           int               `json:"rows"`
	Cols           int               `json:"cols"`
	Snake          []snake.Point     `json:"snake"`
	Direction      snake.Direction   `json:"direction"`
	Food           *snake.Point      `json:"food"`
	Score          int               `json:"score"`
	Best           int               `json:"best"`
	TPS            float64           `json:"tps"`
	TickIntervalMs int64             `json:"tick_interval_ms"`
	Running        bool              `json:"running"`
	Paused         bool              `json:"paused"`
	GameOver       bool              `json:"game_over"`
}

// NewEngine は新しいスネークエンジンを Ready 状態で生成します。
// ハイスコアはこの時点で一度だけストアから読み込みます。
func NewEngine(cfg Config, store arcade.BestStore, rng arcade.Randomizer) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if rng == nil {
		return nil, errors.New("randomizer is required")
	}
	e := &Engine{
		cfg:        cfg,
		board:      snake.Board{Rows: cfg.Rows, Cols: cfg.Cols},
		rng:        rng,
		store:      store,
		difficulty: cfg.Difficulty,
	}
	if store != nil {
		best, err := store.Get(GameKey)
		if err != nil {
			log.Printf("[SnakeEngine] failed to load best score: %v", err)
		} else {
			e.best = best
		}
	}
	e.Reset()
	return e, nil
}

func (e *Engine) profile() SpeedProfile {
	return e.cfg.profiles()[e.difficulty]
}

// Reset はヘビ・餌・スコア・速度を初期化し、Ready 状態に戻します。
func (e *Engine) Reset() {
	e.snake = snake.NewSnake(e.board.Cols/2, e.board.Rows/2)
	e.score = 0
	e.tps = e.profile().BaseTPS
	e.clock.Reset()
	e.events = nil
	e.spawnFood()
	e.status = arcade.StatusReady
}

// spawnFood はヘビと重ならないマスに一様に餌を置きます。空きマスがない場合は餌を置きません。
func (e *Engine) spawnFood() {
	free := e.board.FreeCells(e.snake)
	if len(free) == 0 {
		e.food = nil
		return
	}
	p := free[e.rng.Intn(len(free))]
	e.food = &p
}

// Start は Ready または GameOver から Playing へ遷移します。
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

// TogglePause は Playing と Paused を切り替えます。
func (e *Engine) TogglePause() {
	switch e.status {
	case arcade.StatusPlaying:
		e.status = arcade.StatusPaused
	case arcade.StatusPaused:
		e.status = arcade.StatusPlaying
	}
}

// SetDifficulty は難易度を変更します。実行中は変更できません。
func (e *Engine) SetDifficulty(d arcade.Difficulty) error {
	if e.status == arcade.StatusPlaying || e.status == arcade.StatusPaused {
		return ErrGameRunning
	}
	if _, ok := e.cfg.profiles()[d]; !ok {
		return arcade.ErrUnknownDifficulty
	}
	e.difficulty = d
	e.tps = e.profile().BaseTPS
	return nil
}

// SetDirection は次の移動方向を予約します。Playing 以外、または真逆の方向は無視します。
func (e *Engine) SetDirection(d snake.Direction) bool {
	if e.status != arcade.StatusPlaying {
		return false
	}
	return e.snake.SetDirection(d)
}

// HandleInput は入力を適用します。回転・ドロップ系の入力はスネークでは意味を持ちません。
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
	case arcade.ActionUp:
		return e.SetDirection(snake.Up)
	case arcade.ActionDown:
		return e.SetDirection(snake.Down)
	case arcade.ActionMoveLeft:
		return e.SetDirection(snake.Left)
	case arcade.ActionMoveRight:
		return e.SetDirection(snake.Right)
	}
	return false
}

// Tick は経過時間を蓄積し、ステップ間隔に達するたびにヘビを1マス進めます。
func (e *Engine) Tick(dt time.Duration) {
	if e.status != arcade.StatusPlaying {
		return
	}
	e.clock.Advance(dt, e.Interval, func() bool {
		e.step()
		return e.status == arcade.StatusPlaying
	})
}

// step はヘビを1マス進めます。壁と自分自身への衝突は尻尾を削除する前に判定します。
func (e *Engine) step() {
	e.snake.Move()
	head := e.snake.Head()
	if !e.board.IsInside(head) || e.snake.HitsSelf() {
		e.gameOver()
		return
	}

	if e.food != nil && *e.food == head {
		e.eat()
		return
	}
	e.snake.RemoveTail()
}

func (e *Engine) eat() {
	e.score += ScorePerFood
	if e.score%ScoreForSpeedUp == 0 {
		p := e.profile()
		e.tps = min(e.tps+p.Increment, p.MaxTPS)
	}
	e.updateBest()
	e.emit(arcade.Event{Kind: arcade.EventFoodEaten, Score: e.score})
	e.spawnFood()
}

func (e *Engine) updateBest() {
	if e.score <= e.best {
		return
	}
	e.best = e.score
	if e.store == nil {
		return
	}
	if err := e.store.Set(GameKey, e.best); err != nil {
		log.Printf("[SnakeEngine] failed to persist best score: %v", err)
	}
}

func (e *Engine) gameOver() {
	e.status = arcade.StatusGameOver
	e.updateBest()
	log.Printf("[SnakeEngine] Game over: score=%d length=%d", e.score, len(e.snake.Segments))
	e.emit(arcade.Event{Kind: arcade.EventGameOver, Score: e.score})
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
func (e *Engine) Score() int { return e.score }
func (e *Engine) Best() int { return e.best }
func (e *Engine) TPS() float64 { return e.tps }
func (e *Engine) Difficulty() arcade.Difficulty { return e.difficulty }

// Interval は現在の速度での1ステップの間隔です。
func (e *Engine) Interval() time.Duration {
	return interval(e.tps)
}

// Snapshot は現在のゲーム状態のディープコピーを返します。
func (e *Engine) Snapshot() Snapshot {
	var food *snake.Point
	if e.food != nil {
		f := *e.food
		food = &f
	}
	return Snapshot{
		Game:           GameKey,
		Status:         e.status,
		Difficulty:     e.difficulty,
		Rows:           e.board.Rows,
		Cols:           e.board.Cols,
		Snake:          append([]snake.Point(nil), e.snake.Segments...),
		Direction:      e.snake.Direction,
		Food:           food,
		Score:          e.score,
		Best:           e.best,
		TPS:            e.tps,
		TickIntervalMs: e.Interval().Milliseconds(),
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
