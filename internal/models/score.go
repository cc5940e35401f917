package models

import (
	"errors"
	"time"
)

// スコアとして受け付ける範囲です。
const (
	MinScore = 0
	MaxScore = 1000000
)

// ErrInvalidScore は受け付け範囲外のスコアが送信された場合のエラーです。
var ErrInvalidScore = errors.New("invalid score")

// ValidateScore はスコアが [MinScore, MaxScore] の範囲内かを検査します。
func ValidateScore(score int) error {
	if score < MinScore || score > MaxScore {
		return ErrInvalidScore
	}
	return nil
}

// Score はscoresテーブルのレコードに対応する構造体です。ユーザー×ゲームごとに最高スコアを1件保持します。
type Score struct {
	UserID    string    `json:"user_id"` // UUID
	GameKey   string    `json:"game"`
	Score     int       `json:"score"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ScoreRequest はスコア保存リクエスト用の構造体です。
// score が省略されたリクエストを区別するためにポインタで受け取ります。
type ScoreRequest struct {
	Game  string `json:"game"`
	Score *int   `json:"score"`
}

// ScoreResponse はスコア保存APIのレスポンスです。
type ScoreResponse struct {
	Success bool   `json:"success"`
	Game    string `json:"game"`
	Score   int    `json:"score"`
	Best    int    `json:"best"`
}

// LeaderboardType はランキングの集計方法です。
type LeaderboardType string

const (
	LeaderboardOverall LeaderboardType = "overall" // ゲームごとの最高スコアの合計
	LeaderboardGame    LeaderboardType = "game"    // 指定ゲームの最高スコア
)

// LeaderboardEntry はランキングの1行です。
type LeaderboardEntry struct {
	Rank     int    `json:"rank"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Photo    string `json:"photo,omitempty"`
	Score    int    `json:"score"`
}

// LeaderboardResponse はランキングAPIのレスポンスです。
type LeaderboardResponse struct {
	Success bool               `json:"success"`
	Type    LeaderboardType    `json:"type"`
	Game    string             `json:"game,omitempty"`
	Data    []LeaderboardEntry `json:"data"`
	Count   int                `json:"count"`
}

// BestScoreResponse はユーザーの最高スコア取得APIのレスポンスです。
type BestScoreResponse struct {
	Success bool   `json:"success"`
	Game    string `json:"game"`
	Best    int    `json:"best"`
}
