// Package config は環境変数とゲーム調整用YAMLファイルからアプリケーション設定を読み込みます。
package config

import (
	"fmt"
	"log"
	"maps"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/tubes-arcade/arcade-backend/internal/services/games"
	"github.com/tubes-arcade/arcade-backend/internal/services/snake"
	"github.com/tubes-arcade/arcade-backend/internal/services/tetris"
)

// DefaultPort はPORTが未設定の場合に使うポートです。
const DefaultPort = "8080"

// DefaultAllowedOrigins はALLOWED_ORIGINSが未設定の場合に許可するオリジンです。
var DefaultAllowedOrigins = []string{"http://localhost:3000"}

// Config はAPIサーバーの設定です。
type Config struct {
	Port           string
	DatabaseURL    string
	JWTSecret      string
	BypassAuth     bool
	AllowedOrigins []string
	Tuning         games.Tuning
}

// LoadEnv は本番環境以外で .env ファイルを読み込みます。ファイルが無くてもエラーにはしません。
func LoadEnv() {
	if os.Getenv("APP_ENV") == "production" {
		return
	}
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: Error loading .env file (this is fine in production): %v", err)
	}
}

// Load は環境変数から設定を組み立てます。GAME_CONFIG が指定されていればYAMLの調整値を読み込みます。
//
// Returns:
//
//	*Config: 読み込んだ設定
//	error  : GAME_CONFIG の読み込みに失敗した場合
func Load() (*Config, error) {
	LoadEnv()

	cfg := &Config{
		Port:           os.Getenv("PORT"),
		DatabaseURL:    os.Getenv("DATABASE_URL"),
		JWTSecret:      os.Getenv("JWT_SECRET"),
		BypassAuth:     os.Getenv("BYPASS_AUTH") == "true",
		AllowedOrigins: splitList(os.Getenv("ALLOWED_ORIGINS")),
		Tuning:         games.DefaultTuning(),
	}
	if cfg.Port == "" {
		cfg.Port = DefaultPort
	}
	if len(cfg.AllowedOrigins) == 0 {
		cfg.AllowedOrigins = DefaultAllowedOrigins
	}

	if path := os.Getenv("GAME_CONFIG"); path != "" {
		tuning, err := LoadTuning(path)
		if err != nil {
			return nil, err
		}
		cfg.Tuning = tuning
	}
	return cfg, nil
}

// LoadTuning はYAMLファイルからゲームの調整値を読み込みます。
// ファイルに書かれていない項目は標準値のままです。
func LoadTuning(path string) (games.Tuning, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return games.Tuning{}, fmt.Errorf("ゲーム設定ファイルの読み込みに失敗しました: %w", err)
	}
	return ParseTuning(data)
}

// ParseTuning はYAMLバイト列を標準値の上に重ねて調整値を作ります。
func ParseTuning(data []byte) (games.Tuning, error) {
	tuning := games.DefaultTuning()
	// 指定されなかった難易度は標準プロファイルのまま残す
	tuning.Tetris.Profiles = maps.Clone(tetris.DefaultProfiles)
	tuning.Snake.Profiles = maps.Clone(snake.DefaultProfiles)
	if err := yaml.Unmarshal(data, &tuning); err != nil {
		return games.Tuning{}, fmt.Errorf("ゲーム設定ファイルのパースに失敗しました: %w", err)
	}
	if err := tuning.Tetris.Validate(); err != nil {
		return games.Tuning{}, fmt.Errorf("tetris: %w", err)
	}
	if err := tuning.Snake.Validate(); err != nil {
		return games.Tuning{}, fmt.Errorf("snake: %w", err)
	}
	return tuning, nil
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
