package database

import (
	"context"
	"log"

	"github.com/tubes-arcade/arcade-backend/internal/models"
	"github.com/tubes-arcade/arcade-backend/internal/services/arcade"
)

// UserScoreSink は特定ユーザーの最終スコアをリポジトリに保存する arcade.ScoreSink です。
type UserScoreSink struct {
	repo   ScoreRepository
	userID string
}

// NewUserScoreSink は userID のスコアを repo に保存する ScoreSink を生成します。
func NewUserScoreSink(repo ScoreRepository, userID string) *UserScoreSink {
	return &UserScoreSink{repo: repo, userID: userID}
}

// Submit はスコアを検証してから保存します。
func (s *UserScoreSink) Submit(ctx context.Context, game string, score int) error {
	if err := models.ValidateScore(score); err != nil {
		return err
	}
	saved, err := s.repo.SaveScore(ctx, s.userID, game, score)
	if err != nil {
		return err
	}
	log.Printf("[ScoreSink] saved %s score %d for user %s (best %d)", game, score, s.userID, saved.Score)
	return nil
}

var _ arcade.ScoreSink = (*UserScoreSink)(nil)
