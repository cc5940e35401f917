package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/tubes-arcade/arcade-backend/internal/config"
	"github.com/tubes-arcade/arcade-backend/internal/database"
	"github.com/tubes-arcade/arcade-backend/internal/services/games"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("エラー: 設定の読み込みに失敗しました: %v", err)
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("エラー: DATABASE_URL 環境変数が設定されていません。")
	}

	// NewDatabaseService の中で Ping まで行う
	dbService, err := database.NewDatabaseService(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("エラー: %v", err)
	}
	defer dbService.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var version string
	if err := dbService.DB.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		log.Printf("警告: SELECT version() クエリの実行に失敗しました: %v", err)
	} else {
		fmt.Printf("データベースバージョン: %s\n", version)
	}

	if err := dbService.Migrate(ctx, games.Titles()); err != nil {
		log.Fatalf("エラー: マイグレーションに失敗しました: %v", err)
	}
	fmt.Println("成功: テーブルを作成し、ゲームを登録しました。")
}
