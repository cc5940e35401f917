// Package arcade はポータル上の全ゲームが共有する能力セット（状態遷移、入力、
// 時間の進め方、スコアの外部連携）を定義します。
package arcade

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Status はゲームエンジンの状態です。
type Status string

const (
	StatusReady    Status = "ready"
	StatusPlaying  Status = "playing"
	StatusPaused   Status = "paused"
	StatusGameOver Status = "game_over"
)

// Action はプレイヤーの入力を描画層から独立した語彙で表します。
type Action string

const (
	ActionMoveLeft  Action = "move_left"
	ActionMoveRight Action = "move_right"
	ActionUp        Action = "up"
	ActionDown      Action = "down"
	ActionRotateCW  Action = "rotate_cw"
	ActionRotateCCW Action = "rotate_ccw"
	ActionSoftDrop  Action = "soft_drop"
	ActionHardDrop  Action = "hard_drop"
	ActionPause     Action = "pause"
	ActionRestart   Action = "restart"
	ActionStart     Action = "start"
)

var actions = map[Action]struct{}{
	ActionMoveLeft: {}, ActionMoveRight: {}, ActionUp: {}, ActionDown: {},
	ActionRotateCW: {}, ActionRotateCCW: {}, ActionSoftDrop: {}, ActionHardDrop: {},
	ActionPause: {}, ActionRestart: {}, ActionStart: {},
}

// ParseAction はクライアントから受け取った文字列をActionに変換します。
// 旧クライアントの "rotate" / "rotate_right" / "rotate_left" も受け付けます。
func ParseAction(s string) (Action, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "rotate", "rotate_right":
		return ActionRotateCW, nil
	case "rotate_left":
		return ActionRotateCCW, nil
	}
	a := Action(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := actions[a]; !ok {
		return "", fmt.Errorf("unknown action %q", s)
	}
	return a, nil
}

// EventKind はエンジンが描画層・HUD層へ通知するイベントの種類です。
type EventKind string

const (
	EventLocked       EventKind = "locked"
	EventLinesCleared EventKind = "lines_cleared"
	EventLevelUp      EventKind = "level_up"
	EventFoodEaten    EventKind = "food_eaten"
	EventGameOver     EventKind = "game_over"
)

// Event はエンジン内部で発生した出来事です。
type Event struct {
	Kind  EventKind `json:"kind"`
	Lines int       `json:"lines,omitempty"`
	Level int       `json:"level,omitempty"`
	Score int       `json:"score"`
}

// Game は各ゲーム（Tetris, Snake）が実装する能力セットです。
// エンジンは単一スレッドで動作し、内部にタイマーを持ちません。
type Game interface {
	// Key はスコア保存やランキングで使うゲーム識別子 ("tetris", "snake") です。
	Key() string
	Start()
	Restart()
	TogglePause()
	// Tick は経過時間を蓄積し、間隔に達した分だけゲームを進めます。
	Tick(dt time.Duration)
	// HandleInput は入力を適用し、状態が変化した場合にtrueを返します。
	HandleInput(a Action) bool
	Interval() time.Duration
	Status() Status
	Score() int
	Best() int
	// DrainEvents は前回の呼び出し以降に溜まったイベントを返し、キューを空にします。
	DrainEvents() []Event
	// View はJSON送信・描画用の読み取り専用スナップショットを返します。
	View() any
}

// BestStore はゲームごとのハイスコアを永続化する外部ストアです。
type BestStore interface {
	Get(key string) (int, error)
	Set(key string, value int) error
}

// Randomizer はピースや餌の抽選に使う一様乱数源です。*rand.Rand が満たします。
type Randomizer interface {
	Intn(n int) int
}

// ScoreSink はゲームオーバー時の最終スコアを送信する外部の受け口です。
// エンジンからは呼ばれず、ドライバーがGameOverイベントを受けて呼び出します。
type ScoreSink interface {
	Submit(ctx context.Context, game string, score int) error
}

// ErrUnknownDifficulty は定義されていない難易度が指定された場合のエラーです。
var ErrUnknownDifficulty = errors.New("unknown difficulty")

// Difficulty はゲーム開始時に固定される難易度です。
type Difficulty string

const (
	Easy   Difficulty = "EASY"
	Normal Difficulty = "NORMAL"
	Hard   Difficulty = "HARD"
)

// ParseDifficulty は "easy" / "NORMAL" などの文字列をDifficultyに変換します。
func ParseDifficulty(s string) (Difficulty, error) {
	switch d := Difficulty(strings.ToUpper(strings.TrimSpace(s))); d {
	case Easy, Normal, Hard:
		return d, nil
	case "":
		return Normal, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownDifficulty, s)
	}
}
