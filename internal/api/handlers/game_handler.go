package handlers

import (
	"log"
	"math/rand"
	"net/http"
	"slices"
	"time"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/tubes-arcade/arcade-backend/internal/api/middleware"
	"github.com/tubes-arcade/arcade-backend/internal/database"
	"github.com/tubes-arcade/arcade-backend/internal/services/arcade"
	"github.com/tubes-arcade/arcade-backend/internal/services/games"
	"github.com/tubes-arcade/arcade-backend/internal/services/session"
)

// GameHandler はWebSocketでのゲームプレイを受け付けます。
type GameHandler struct {
	sessionManager *session.SessionManager  // ゲームセッションの管理サービス
	scoreRepo      database.ScoreRepository // 最高スコアの読み込みと最終スコアの保存先
	auth           *middleware.Authenticator
	tuning         games.Tuning
	upgrader       websocket.Upgrader
}

// NewGameHandler は新しい GameHandler インスタンスを作成します。
//
// Parameters:
//
//	sm             : セッションマネージャーへのポインタ
//	repo           : スコアリポジトリ
//	auth           : トークンの検証に使う Authenticator
//	tuning         : ゲームの調整値
//	allowedOrigins : WebSocket接続を許可するブラウザのオリジン
//
// Returns:
//
//	*GameHandler: 新しく作成された GameHandler のポインタ
func NewGameHandler(sm *session.SessionManager, repo database.ScoreRepository, auth *middleware.Authenticator, tuning games.Tuning, allowedOrigins []string) *GameHandler {
	return &GameHandler{
		sessionManager: sm,
		scoreRepo:      repo,
		auth:           auth,
		tuning:         tuning,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				// ブラウザ以外のクライアント（ターミナル版など）は Origin を送らない
				origin := r.Header.Get("Origin")
				return origin == "" || slices.Contains(allowedOrigins, "*") || slices.Contains(allowedOrigins, origin)
			},
		},
	}
}

// Play はHTTP接続をWebSocketプロトコルにアップグレードし、新しいゲームセッションを開始します。
// GET /ws/play/{game}?difficulty=NORMAL&token=<jwt>
func (h *GameHandler) Play(w http.ResponseWriter, r *http.Request) {
	gameKey := mux.Vars(r)["game"]
	if !games.Known(gameKey) {
		WriteErrorResponse(w, http.StatusNotFound, "Game not found")
		return
	}
	difficulty, err := arcade.ParseDifficulty(r.URL.Query().Get("difficulty"))
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	// アップグレード前に認証し、失敗はHTTPのエラーとして返す
	userID, err := h.auth.Authenticate(r)
	if err != nil {
		log.Printf("[GameHandler] WebSocket auth failed: %v", err)
		WriteErrorResponse(w, http.StatusUnauthorized, err.Error())
		return
	}

	best := 0
	if saved, err := h.scoreRepo.GetUserBestScore(r.Context(), userID, gameKey); err != nil {
		log.Printf("[GameHandler] Failed to load best score for user %s: %v", userID, err)
	} else if saved != nil {
		best = saved.Score
	}
	store := arcade.NewMemoryBestStore(map[string]int{gameKey: best})
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))

	game, err := games.New(gameKey, h.tuning, difficulty, store, rng)
	if err != nil {
		log.Printf("[GameHandler] Failed to create %s game: %v", gameKey, err)
		WriteErrorResponse(w, http.StatusInternalServerError, "ゲームの作成に失敗しました")
		return
	}

	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[GameHandler] Failed to upgrade to websocket for user %s: %v", userID, err)
		return // アップグレード失敗時はエラーログのみ
	}

	s, err := h.sessionManager.RegisterClient(userID, conn, game, database.NewUserScoreSink(h.scoreRepo, userID))
	if err != nil {
		log.Printf("[GameHandler] Failed to register client %s: %v", userID, err)
		conn.Close()
		return
	}
	log.Printf("[GameHandler] WebSocket session %s started (user: %s, game: %s, difficulty: %s)", s.ID, userID, gameKey, difficulty)
}
