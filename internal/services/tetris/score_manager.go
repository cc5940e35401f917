package tetris

import (
	"log"
	"time"

	"github.com/tubes-arcade/arcade-backend/internal/services/arcade"
)

// ScoreManager はスコア・ライン数・レベルと、そこから導かれる落下間隔を管理します。
// Best は外部ストアに永続化され、セッションをまたいで保持されます。
type ScoreManager struct {
	Score      int               `json:"score"`
	Lines      int               `json:"lines"`
	Level      int               `json:"level"`
	Best       int               `json:"best"`
	Difficulty arcade.Difficulty `json:"difficulty"`

	profiles map[arcade.Difficulty]DifficultyProfile
	store    arcade.BestStore
	key      string
}

// NewScoreManager はScoreManagerを生成し、ストアからハイスコアを一度だけ読み込みます。
// ストアの読み込みに失敗してもゲームは続行できるため、ログを出してBest=0で開始します。
func NewScoreManager(difficulty arcade.Difficulty, profiles map[arcade.Difficulty]DifficultyProfile, store arcade.BestStore, key string) *ScoreManager {
	if len(profiles) == 0 {
		profiles = DefaultProfiles
	}
	sm := &ScoreManager{
		Level:      1,
		Difficulty: difficulty,
		profiles:   profiles,
		store:      store,
		key:        key,
	}
	if store != nil {
		best, err := store.Get(key)
		if err != nil {
			log.Printf("[ScoreManager] failed to load best score for %s: %v", key, err)
		} else {
			sm.Best = best
		}
	}
	return sm
}

// Reset はスコア・ライン数・レベルを初期値に戻します。Bestは変更しません。
func (sm *ScoreManager) Reset() {
	sm.Score = 0
	sm.Lines = 0
	sm.Level = 1
}

// AddLines はラインクリアによる得点を加算し、レベルを再計算します。
//
// Parameters:
//
//	cleared : 一度に消したライン数 (0-4)
//
// Returns:
//
//	bool: レベルが上がった場合はtrue
func (sm *ScoreManager) AddLines(cleared int) bool {
	if cleared <= 0 {
		return false
	}
	lineScore := 0
	if cleared < len(LineScores) {
		lineScore = LineScores[cleared]
	}
	sm.Score += lineScore * sm.Level
	sm.Lines += cleared

	newLevel := sm.Lines/LinesPerLevel + 1
	leveledUp := newLevel != sm.Level
	sm.Level = newLevel
	sm.UpdateBest()
	return leveledUp
}

// AddSoftDrop はソフトドロップ1マス分のボーナスを加算します。
func (sm *ScoreManager) AddSoftDrop() {
	sm.Score++
	sm.UpdateBest()
}

// AddHardDrop はハードドロップの落下距離に応じたボーナス (距離×2) を加算します。
func (sm *ScoreManager) AddHardDrop(distance int) {
	if distance > 0 {
		sm.Score += distance * 2
	}
	sm.UpdateBest()
}

// UpdateBest は現在のスコアがハイスコアを超えた場合に更新し、ストアへ書き込みます。
// 書き込みの失敗はゲームを中断させません。
func (sm *ScoreManager) UpdateBest() {
	if sm.Score <= sm.Best {
		return
	}
	sm.Best = sm.Score
	if sm.store == nil {
		return
	}
	if err := sm.store.Set(sm.key, sm.Best); err != nil {
		log.Printf("[ScoreManager] failed to persist best score for %s: %v", sm.key, err)
	}
}

// DropInterval は現在のレベルと難易度から自動落下の間隔を計算します。
// max(MinDrop, BaseDrop - (level-1)*60ms)
func (sm *ScoreManager) DropInterval() time.Duration {
	p := sm.profiles[sm.Difficulty]
	interval := p.BaseDrop - time.Duration(sm.Level-1)*DropSpeedDecrease
	if interval < p.MinDrop {
		interval = p.MinDrop
	}
	return interval
}

// SetDifficulty は難易度を変更します。プロファイルが存在しない難易度はエラーです。
// 実行中の変更可否はエンジン側で判定します。
func (sm *ScoreManager) SetDifficulty(d arcade.Difficulty) error {
	if _, ok := sm.profiles[d]; !ok {
		return arcade.ErrUnknownDifficulty
	}
	sm.Difficulty = d
	return nil
}
