package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/tubes-arcade/arcade-backend/internal/models"
)

// ErrGameNotFound は games テーブルに存在しないゲームが指定された場合のエラーです。
var ErrGameNotFound = errors.New("game not found")

// ScoreRepository はスコア関連のデータベース操作を定義するインターフェースです。
type ScoreRepository interface {
	// GameExists は game_key が games テーブルに登録されているかを返します
	GameExists(ctx context.Context, gameKey string) (bool, error)

	// SaveScore はスコアを保存します。既存の記録より低いスコアでは記録を更新しません
	SaveScore(ctx context.Context, userID, gameKey string, score int) (*models.Score, error)

	// GetUserBestScore は指定したユーザーの指定ゲームの最高スコアを取得します
	GetUserBestScore(ctx context.Context, userID, gameKey string) (*models.Score, error)

	// GetGameLeaderboard はゲームごとのランキングを取得します
	GetGameLeaderboard(ctx context.Context, gameKey string, limit int) ([]models.LeaderboardEntry, error)

	// GetOverallLeaderboard は全ゲームの合計スコアによるランキングを取得します
	GetOverallLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error)
}

// scoreRepositoryImpl はScoreRepositoryインターフェースの実装です。
type scoreRepositoryImpl struct {
	db  *sql.DB
	now func() time.Time
}

// NewScoreRepository はScoreRepositoryの新しいインスタンスを作成します。
func NewScoreRepository(db *sql.DB) ScoreRepository {
	return &scoreRepositoryImpl{db: db, now: time.Now}
}

// GameExists は game_key が登録されているかを返します。
func (r *scoreRepositoryImpl) GameExists(ctx context.Context, gameKey string) (bool, error) {
	var id int64
	err := r.db.QueryRowContext(ctx, "SELECT id FROM games WHERE game_key = $1", gameKey).Scan(&id)
	if err == sql.ErrNoRows {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("ゲームの取得に失敗しました: %w", err)
	}
	return true, nil
}

// SaveScore はスコアを保存し、保存後の最高スコアを返します。
// (user_id, game_id) ごとに1行だけ保持し、GREATEST で既存の記録と比較して高い方を残します。
//
// Parameters:
//
//	userID  : スコアを記録するユーザーのUUID
//	gameKey : ゲーム識別子
//	score   : 今回のスコア
//
// Returns:
//
//	*models.Score: 保存後の最高スコア
//	error        : ゲームが存在しない場合は ErrGameNotFound
func (r *scoreRepositoryImpl) SaveScore(ctx context.Context, userID, gameKey string, score int) (*models.Score, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	var gameID int64
	err = tx.QueryRowContext(ctx, "SELECT id FROM games WHERE game_key = $1", gameKey).Scan(&gameID)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", ErrGameNotFound, gameKey)
	}
	if err != nil {
		return nil, fmt.Errorf("ゲームの取得に失敗しました: %w", err)
	}

	// JWT で認証されたユーザーがまだ users に存在しない場合に備えて行を作る
	if _, err := tx.ExecContext(ctx, "INSERT INTO users (id) VALUES ($1) ON CONFLICT (id) DO NOTHING", userID); err != nil {
		return nil, fmt.Errorf("ユーザーレコードの作成に失敗しました: %w", err)
	}

	saved := models.Score{UserID: userID, GameKey: gameKey}
	err = tx.QueryRowContext(ctx, `
		INSERT INTO scores (user_id, game_id, score, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, game_id) DO UPDATE SET
			score = GREATEST(scores.score, EXCLUDED.score),
			updated_at = CASE WHEN EXCLUDED.score > scores.score THEN EXCLUDED.updated_at ELSE scores.updated_at END
		RETURNING score, updated_at
	`, userID, gameID, score, r.now()).Scan(&saved.Score, &saved.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("スコアの保存に失敗しました: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return &saved, nil
}

// GetUserBestScore は指定したユーザーの最高スコアを取得します。記録が無い場合は nil を返します。
func (r *scoreRepositoryImpl) GetUserBestScore(ctx context.Context, userID, gameKey string) (*models.Score, error) {
	query := `
		SELECT s.score, s.updated_at
		FROM scores s
		INNER JOIN games g ON s.game_id = g.id
		WHERE s.user_id = $1 AND g.game_key = $2
	`
	result := models.Score{UserID: userID, GameKey: gameKey}
	err := r.db.QueryRowContext(ctx, query, userID, gameKey).Scan(&result.Score, &result.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil // ユーザーのスコアが存在しない場合はnilを返す
	}
	if err != nil {
		return nil, fmt.Errorf("ユーザーの最高スコア取得に失敗しました: %w", err)
	}
	return &result, nil
}

// GetGameLeaderboard はユーザーごとの最高スコアでランキングを作ります。
func (r *scoreRepositoryImpl) GetGameLeaderboard(ctx context.Context, gameKey string, limit int) ([]models.LeaderboardEntry, error) {
	query := `
		SELECT
			u.id, COALESCE(u.username, ''), COALESCE(u.photo, ''),
			MAX(s.score) AS best_score
		FROM users u
		INNER JOIN scores s ON u.id = s.user_id
		INNER JOIN games g ON s.game_id = g.id
		WHERE g.game_key = $1
		GROUP BY u.id, u.username, u.photo
		ORDER BY best_score DESC, u.id ASC
		LIMIT $2
	`
	rows, err := r.db.QueryContext(ctx, query, gameKey, limit)
	if err != nil {
		return nil, fmt.Errorf("ゲーム別ランキングの取得に失敗しました: %w", err)
	}
	return scanLeaderboard(rows)
}

// GetOverallLeaderboard はユーザーごとに各ゲームの最高スコアを合計してランキングを作ります。
func (r *scoreRepositoryImpl) GetOverallLeaderboard(ctx context.Context, limit int) ([]models.LeaderboardEntry, error) {
	query := `
		SELECT
			u.id, COALESCE(u.username, ''), COALESCE(u.photo, ''),
			SUM(s.score) AS total_score
		FROM users u
		INNER JOIN scores s ON u.id = s.user_id
		GROUP BY u.id, u.username, u.photo
		ORDER BY total_score DESC, u.id ASC
		LIMIT $1
	`
	rows, err := r.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("総合ランキングの取得に失敗しました: %w", err)
	}
	return scanLeaderboard(rows)
}

// scanLeaderboard は並び順どおりに1から順位を振ります。
func scanLeaderboard(rows *sql.Rows) ([]models.LeaderboardEntry, error) {
	defer rows.Close()

	entries := []models.LeaderboardEntry{}
	for rows.Next() {
		var e models.LeaderboardEntry
		if err := rows.Scan(&e.UserID, &e.Username, &e.Photo, &e.Score); err != nil {
			return nil, fmt.Errorf("ランキングデータのスキャンに失敗しました: %w", err)
		}
		e.Rank = len(entries) + 1
		if e.Username == "" {
			e.Username = GuestName
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ランキング取得中にエラーが発生しました: %w", err)
	}
	return entries, nil
}
