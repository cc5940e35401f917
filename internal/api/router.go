// Package api はHTTPルーティングを組み立てます。
package api

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tubes-arcade/arcade-backend/internal/api/handlers"
	"github.com/tubes-arcade/arcade-backend/internal/api/middleware"
	"github.com/tubes-arcade/arcade-backend/internal/database"
	"github.com/tubes-arcade/arcade-backend/internal/services/games"
	"github.com/tubes-arcade/arcade-backend/internal/services/session"
)

// Dependencies はルーターが必要とするサービス群です。
type Dependencies struct {
	Scores         database.ScoreRepository
	Users          handlers.UserDirectory
	Sessions       *session.SessionManager
	Auth           *middleware.Authenticator
	Tuning         games.Tuning
	AllowedOrigins []string
}

// NewRouter は全エンドポイントを登録し、CORSを適用したハンドラーを返します。
func NewRouter(deps Dependencies) http.Handler {
	publicHandler := handlers.NewPublicHandler(deps.Users)
	scoreHandler := handlers.NewScoreHandler(deps.Scores)
	leaderboardHandler := handlers.NewLeaderboardHandler(deps.Scores)
	gameHandler := handlers.NewGameHandler(deps.Sessions, deps.Scores, deps.Auth, deps.Tuning, deps.AllowedOrigins)

	r := mux.NewRouter()

	// 認証不要な公開エンドポイント
	r.HandleFunc("/api/health", publicHandler.Health).Methods(http.MethodGet)
	r.HandleFunc("/api/leaderboard", leaderboardHandler.GetLeaderboard).Methods(http.MethodGet)
	r.HandleFunc("/api/user/{userID}/display-name", publicHandler.GetUserDisplayNameHandler).Methods(http.MethodGet)

	// /api/protected/ で始まる全てのパスにAuthMiddlewareを適用します。
	protectedRouter := r.PathPrefix("/api/protected").Subrouter()
	protectedRouter.Use(deps.Auth.Middleware)
	protectedRouter.HandleFunc("/scores", scoreHandler.PostScore).Methods(http.MethodPost)
	protectedRouter.HandleFunc("/scores/{game}/best", scoreHandler.GetBestScore).Methods(http.MethodGet)

	// WebSocketはブラウザがヘッダーを付けられないため、ハンドラー内で token クエリも含めて認証する
	r.HandleFunc("/ws/play/{game}", gameHandler.Play).Methods(http.MethodGet)

	return middleware.CORSHandler(deps.AllowedOrigins)(r)
}
