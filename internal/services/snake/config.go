package snake

import (
	"errors"
	"fmt"
	"time"

	"github.com/tubes-arcade/arcade-backend/internal/models/snake"
	"github.com/tubes-arcade/arcade-backend/internal/services/arcade"
)

// GameKey はスコア保存・ランキングで使うスネークの識別子です。
const GameKey = "snake"

const (
	ScorePerFood    = 10 // 餌1つあたりの得点
	ScoreForSpeedUp = 50 // この得点の倍数に達するたびに加速
)

// ErrInvalidBoardSize はボードの大きさが不正な場合のエラーです。
var ErrInvalidBoardSize = errors.New("invalid board size")

// SpeedProfile は難易度ごとの速度設定です（1秒あたりのステップ数）。
type SpeedProfile struct {
	BaseTPS   float64 `yaml:"base_tps"`
	MaxTPS    float64 `yaml:"max_tps"`
	Increment float64 `yaml:"increment"`
}

// DefaultProfiles は標準の難易度プロファイルです。
var DefaultProfiles = map[arcade.Difficulty]SpeedProfile{
	arcade.Easy:   {BaseTPS: 8, MaxTPS: 15, Increment: 0.5},
	arcade.Normal: {BaseTPS: 10, MaxTPS: 20, Increment: 1},
	arcade.Hard:   {BaseTPS: 13, MaxTPS: 25, Increment: 1.5},
}

// Config はエンジン生成時に渡す設定です。
type Config struct {
	Rows       int                                `yaml:"rows"`
	Cols       int                                `yaml:"cols"`
	Difficulty arcade.Difficulty                  `yaml:"difficulty"`
	Profiles   map[arcade.Difficulty]SpeedProfile `yaml:"profiles"`
}

// DefaultConfig は 21×21 ボード、NORMAL 難易度の設定を返します。
func DefaultConfig() Config {
	return Config{
		Rows:       snake.BoardHeight,
		Cols:       snake.BoardWidth,
		Difficulty: arcade.Normal,
	}
}

func (c Config) profiles() map[arcade.Difficulty]SpeedProfile {
	if len(c.Profiles) == 0 {
		return DefaultProfiles
	}
	return c.Profiles
}

// minCols は中央から右向きに置いた長さ3の初期ヘビが尾まで収まる最小列数です。
const minCols = 4

// Validate は設定を検査します。初期状態のヘビが収まらないボードは拒否します。
func (c Config) Validate() error {
	if c.Rows <= 0 || c.Cols < minCols {
		return fmt.Errorf("%w: %dx%d", ErrInvalidBoardSize, c.Rows, c.Cols)
	}
	if _, ok := c.profiles()[c.Difficulty]; !ok {
		return fmt.Errorf("%w: %q", arcade.ErrUnknownDifficulty, c.Difficulty)
	}
	for d, p := range c.profiles() {
		if p.BaseTPS <= 0 || p.MaxTPS < p.BaseTPS || p.Increment < 0 {
			return fmt.Errorf("difficulty %s: invalid speed profile %+v", d, p)
		}
	}
	return nil
}

// interval は TPS から1ステップの間隔を計算します。
func interval(tps float64) time.Duration {
	return time.Duration(float64(time.Second) / tps)
}
