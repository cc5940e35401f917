package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/tubes-arcade/arcade-backend/internal/database"
	"github.com/tubes-arcade/arcade-backend/internal/models"
)

// ScoreHandler はスコア関連のハンドラーを管理する構造体です。
type ScoreHandler struct {
	scoreRepo database.ScoreRepository
}

// NewScoreHandler は新しいScoreHandlerインスタンスを作成します。
func NewScoreHandler(scoreRepo database.ScoreRepository) *ScoreHandler {
	return &ScoreHandler{
		scoreRepo: scoreRepo,
	}
}

// PostScore はスコアを保存するハンドラーです。
// POST /api/protected/scores
func (h *ScoreHandler) PostScore(w http.ResponseWriter, r *http.Request) {
	userID, err := ExtractUserIDFromContext(r)
	if err != nil {
		WriteErrorResponse(w, http.StatusUnauthorized, "Not logged in")
		return
	}

	var req models.ScoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid data")
		return
	}

	// バリデーション
	if req.Game == "" || req.Score == nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid data")
		return
	}
	if err := models.ValidateScore(*req.Score); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid score")
		return
	}

	saved, err := h.scoreRepo.SaveScore(r.Context(), userID, req.Game, *req.Score)
	if errors.Is(err, database.ErrGameNotFound) {
		WriteErrorResponse(w, http.StatusNotFound, "Game not found")
		return
	}
	if err != nil {
		log.Printf("[ScoreHandler] スコア保存エラー: %v", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "スコア保存に失敗しました")
		return
	}

	WriteJSONResponse(w, http.StatusOK, models.ScoreResponse{
		Success: true,
		Game:    req.Game,
		Score:   *req.Score,
		Best:    saved.Score,
	})
}

// GetBestScore はログイン中のユーザーの最高スコアを取得するハンドラーです。
// 記録が無い場合は 0 を返します。
// GET /api/protected/scores/{game}/best
func (h *ScoreHandler) GetBestScore(w http.ResponseWriter, r *http.Request) {
	userID, err := ExtractUserIDFromContext(r)
	if err != nil {
		WriteErrorResponse(w, http.StatusUnauthorized, "Not logged in")
		return
	}

	game := mux.Vars(r)["game"]
	exists, err := h.scoreRepo.GameExists(r.Context(), game)
	if err != nil {
		log.Printf("[ScoreHandler] ゲーム存在確認エラー: %v", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "最高スコアの取得に失敗しました")
		return
	}
	if !exists {
		WriteErrorResponse(w, http.StatusNotFound, "Game not found")
		return
	}

	best, err := h.scoreRepo.GetUserBestScore(r.Context(), userID, game)
	if err != nil {
		log.Printf("[ScoreHandler] 最高スコア取得エラー: %v", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "最高スコアの取得に失敗しました")
		return
	}

	resp := models.BestScoreResponse{Success: true, Game: game}
	if best != nil {
		resp.Best = best.Score
	}
	WriteJSONResponse(w, http.StatusOK, resp)
}
