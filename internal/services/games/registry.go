// Package games はゲーム識別子から各ゲームエンジンを生成するレジストリです。
package games

import (
	"errors"
	"fmt"

	"github.com/tubes-arcade/arcade-backend/internal/services/arcade"
	"github.com/tubes-arcade/arcade-backend/internal/services/snake"
	"github.com/tubes-arcade/arcade-backend/internal/services/tetris"
)

// ErrUnknownGame は登録されていないゲーム識別子が指定された場合のエラーです。
var ErrUnknownGame = errors.New("unknown game")

// Tuning はゲームごとの調整値です。GAME_CONFIG のYAMLファイルから読み込まれます。
type Tuning struct {
	Tetris tetris.Config `yaml:"tetris"`
	Snake  snake.Config  `yaml:"snake"`
}

// DefaultTuning は標準の調整値を返します。
func DefaultTuning() Tuning {
	return Tuning{
		Tetris: tetris.DefaultConfig(),
		Snake:  snake.DefaultConfig(),
	}
}

// Keys は登録されているゲーム識別子の一覧です。
func Keys() []string {
	return []string{snake.GameKey, tetris.GameKey}
}

// Titles はゲーム識別子と表示名の対応です。games テーブルの初期データに使います。
func Titles() map[string]string {
	return map[string]string{
		snake.GameKey:  "Snake",
		tetris.GameKey: "Tetris",
	}
}

// Known は key が登録済みのゲームかどうかを返します。
func Known(key string) bool {
	for _, k := range Keys() {
		if k == key {
			return true
		}
	}
	return false
}

// New は key に対応するゲームエンジンを生成します。
//
// Parameters:
//
//	key        : ゲーム識別子 ("tetris", "snake")
//	tuning     : 調整値
//	difficulty : 開始時の難易度
//	store      : ハイスコアの永続化先 (nil可)
//	rng        : 乱数源
//
// Returns:
//
//	arcade.Game: 生成されたゲーム（Ready 状態）
//	error      : 不明なゲーム、または設定が不正な場合
func New(key string, tuning Tuning, difficulty arcade.Difficulty, store arcade.BestStore, rng arcade.Randomizer) (arcade.Game, error) {
	switch key {
	case tetris.GameKey:
		cfg := tuning.Tetris
		cfg.Difficulty = difficulty
		e, err := tetris.NewEngine(cfg, store, rng)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s engine: %w", key, err)
		}
		return e, nil
	case snake.GameKey:
		cfg := tuning.Snake
		cfg.Difficulty = difficulty
		e, err := snake.NewEngine(cfg, store, rng)
		if err != nil {
			return nil, fmt.Errorf("failed to create %s engine: %w", key, err)
		}
		return e, nil
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownGame, key)
}
