package tetris

import (
	"fmt"
	"time"

	"github.com/tubes-arcade/arcade-backend/internal/models/tetris"
	"github.com/tubes-arcade/arcade-backend/internal/services/arcade"
)

// GameKey はスコア保存・ランキングで使うテトリスの識別子です。
const GameKey = "tetris"

// ゲーム全体に影響する定数です。
const (
	LinesPerLevel     = 10                    // レベルアップに必要なライン数
	DropSpeedDecrease = 60 * time.Millisecond // レベルごとの落下間隔の短縮量
)

// LineScores は同時に消したライン数 (1-4) ごとの基本点です。レベルを掛けて加算します。
var LineScores = [5]int{0, 100, 300, 500, 800}

// DifficultyProfile は難易度ごとの落下間隔の初期値と下限です。
type DifficultyProfile struct {
	BaseDrop time.Duration `yaml:"base_drop"`
	MinDrop  time.Duration `yaml:"min_drop"`
}

// DefaultProfiles は標準の難易度プロファイルです。
var DefaultProfiles = map[arcade.Difficulty]DifficultyProfile{
	arcade.Easy:   {BaseDrop: 900 * time.Millisecond, MinDrop: 200 * time.Millisecond},
	arcade.Normal: {BaseDrop: 700 * time.Millisecond, MinDrop: 120 * time.Millisecond},
	arcade.Hard:   {BaseDrop: 500 * time.Millisecond, MinDrop: 80 * time.Millisecond},
}

// Config はエンジン生成時に渡す設定です。
type Config struct {
	Rows       int                                     `yaml:"rows"`
	Cols       int                                     `yaml:"cols"`
	Difficulty arcade.Difficulty                       `yaml:"difficulty"`
	Profiles   map[arcade.Difficulty]DifficultyProfile `yaml:"profiles"` // nil の場合は DefaultProfiles
}

// DefaultConfig は 20×10 ボード、NORMAL 難易度の設定を返します。
func DefaultConfig() Config {
	return Config{
		Rows:       tetris.BoardHeight,
		Cols:       tetris.BoardWidth,
		Difficulty: arcade.Normal,
	}
}

func (c Config) profiles() map[arcade.Difficulty]DifficultyProfile {
	if len(c.Profiles) == 0 {
		return DefaultProfiles
	}
	return c.Profiles
}

// minRows はスポーン直後のピースが1行は盤面に入るための最小行数です。
const minRows = 2

// Validate は設定が構築時に拒否すべき誤りを含んでいないかを検査します。
// 最も広いピースが収まらないボードは拒否します。
func (c Config) Validate() error {
	if c.Rows < minRows || c.Cols < tetris.MaxShapeWidth() {
		return fmt.Errorf("%w: %dx%d", tetris.ErrInvalidBoardSize, c.Rows, c.Cols)
	}
	if _, ok := c.profiles()[c.Difficulty]; !ok {
		return fmt.Errorf("%w: %q", arcade.ErrUnknownDifficulty, c.Difficulty)
	}
	for d, p := range c.profiles() {
		if p.BaseDrop <= 0 || p.MinDrop <= 0 {
			return fmt.Errorf("difficulty %s: drop intervals must be positive", d)
		}
	}
	return nil
}
