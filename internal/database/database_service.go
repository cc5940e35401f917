package database

import (
	"context"
	"database/sql"
	"fmt"
	"log"

	_ "github.com/lib/pq" // PostgreSQLドライバー
)

// GuestName はユーザー名が未登録のユーザーに表示する名前です。
const GuestName = "ゲスト"

// schema はアプリケーションが使うテーブル定義です。何度実行しても結果は変わりません。
var schema = []string{
	`CREATE TABLE IF NOT EXISTS games (
		id SERIAL PRIMARY KEY,
		game_key TEXT NOT NULL UNIQUE,
		name TEXT NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS users (
		id UUID PRIMARY KEY,
		username TEXT,
		photo TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS scores (
		user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		game_id INTEGER NOT NULL REFERENCES games(id) ON DELETE CASCADE,
		score INTEGER NOT NULL CHECK (score >= 0),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		PRIMARY KEY (user_id, game_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_scores_game_score ON scores (game_id, score DESC)`,
}

// DatabaseService はデータベース接続と、リポジトリに属さない管理用の操作を提供します。
type DatabaseService struct {
	DB *sql.DB
}

// NewDatabaseService はPostgreSQLへの接続を確立し、DatabaseServiceを生成します。
func NewDatabaseService(databaseURL string) (*DatabaseService, error) {
	log.Printf("データベース接続を試行中: URLの最初の50文字: %s...", databaseURL[:min(len(databaseURL), 50)])
	db, err := sql.Open("postgres", databaseURL)
	if err != nil {
		log.Printf("DatabaseService Error: sql.Openに失敗しました: %v", err)
		return nil, fmt.Errorf("データベースへの接続オブジェクト作成に失敗しました: %w", err)
	}

	if err := db.Ping(); err != nil {
		log.Printf("DatabaseService Error: db.Pingに失敗しました: %v", err)
		db.Close()
		return nil, fmt.Errorf("データベースのPingに失敗しました。接続情報やネットワークを確認してください: %w", err)
	}

	log.Println("データベースに正常に接続しました。")
	return &DatabaseService{DB: db}, nil
}

// Close はデータベース接続を閉じます。
func (s *DatabaseService) Close() error {
	return s.DB.Close()
}

// Ping はデータベースが応答するかを確認します。ヘルスチェック用です。
func (s *DatabaseService) Ping(ctx context.Context) error {
	return s.DB.PingContext(ctx)
}

// Migrate はテーブルを作成し、ゲーム識別子を登録します。
//
// Parameters:
//
//	ctx   : コンテキスト
//	games : 登録するゲーム識別子と表示名
//
// Returns:
//
//	error: エラーが発生した場合
func (s *DatabaseService) Migrate(ctx context.Context, games map[string]string) error {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("トランザクションの開始に失敗しました: %w", err)
	}
	defer tx.Rollback()

	for _, stmt := range schema {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("スキーマの作成に失敗しました: %w", err)
		}
	}

	for key, name := range games {
		_, err := tx.ExecContext(ctx,
			"INSERT INTO games (game_key, name) VALUES ($1, $2) ON CONFLICT (game_key) DO UPDATE SET name = EXCLUDED.name",
			key, name,
		)
		if err != nil {
			return fmt.Errorf("ゲーム %s の登録に失敗しました: %w", key, err)
		}
		log.Printf("DatabaseService Info: ゲーム '%s' を登録しました", key)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("トランザクションのコミットに失敗しました: %w", err)
	}
	return nil
}

// GetUserDisplayNameByUserID はユーザーIDに対応する表示名を取得します。
// ユーザーが存在しない、またはユーザー名が空の場合は GuestName を返します。
func (s *DatabaseService) GetUserDisplayNameByUserID(ctx context.Context, userID string) string {
	var userName sql.NullString
	err := s.DB.QueryRowContext(ctx, "SELECT username FROM users WHERE id = $1", userID).Scan(&userName)
	if err != nil {
		if err == sql.ErrNoRows {
			log.Printf("DatabaseService Info: ユーザーID %s が見つからないため、「%s」を返します", userID, GuestName)
			return GuestName
		}
		log.Printf("DatabaseService Error: ユーザー名の取得に失敗しました: %v, 「%s」を返します", err, GuestName)
		return GuestName
	}
	if !userName.Valid || userName.String == "" {
		return GuestName
	}
	return userName.String
}
