package handlers

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/gorilla/mux"
)

// healthTimeout はヘルスチェック時のDB疎通確認のタイムアウトです。
const healthTimeout = 2 * time.Second

// UserDirectory はユーザー情報とDBの疎通確認を提供します。*database.DatabaseService が満たします。
type UserDirectory interface {
	Ping(ctx context.Context) error
	GetUserDisplayNameByUserID(ctx context.Context, userID string) string
}

// PublicHandler handles public API endpoints
type PublicHandler struct {
	users UserDirectory
}

// NewPublicHandler creates a new instance of PublicHandler
func NewPublicHandler(users UserDirectory) *PublicHandler {
	return &PublicHandler{users: users}
}

// Health はサーバーとデータベースの生存確認を行います。
// GET /api/health
func (h *PublicHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
	defer cancel()

	if err := h.users.Ping(ctx); err != nil {
		log.Printf("[PublicHandler] Health check failed: %v", err)
		WriteJSONResponse(w, http.StatusServiceUnavailable, map[string]any{"success": false, "status": "unavailable"})
		return
	}
	WriteJSONResponse(w, http.StatusOK, map[string]any{"success": true, "status": "ok"})
}

// GetUserDisplayNameHandler fetches the display name for a given user ID.
// GET /api/user/{userID}/display-name
func (h *PublicHandler) GetUserDisplayNameHandler(w http.ResponseWriter, r *http.Request) {
	userID := mux.Vars(r)["userID"]
	if userID == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "ユーザーIDが指定されていません")
		return
	}

	WriteJSONResponse(w, http.StatusOK, map[string]string{
		"userID":      userID,
		"displayName": h.users.GetUserDisplayNameByUserID(r.Context(), userID),
	})
}
