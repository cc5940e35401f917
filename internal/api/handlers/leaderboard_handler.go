package handlers

import (
	"log"
	"net/http"
	"strconv"

	"github.com/tubes-arcade/arcade-backend/internal/database"
	"github.com/tubes-arcade/arcade-backend/internal/models"
	"github.com/tubes-arcade/arcade-backend/internal/services/games"
)

// ランキングの取得件数の範囲です。
const (
	defaultLeaderboardLimit = 10
	maxLeaderboardLimit     = 10
)

// LeaderboardHandler はランキングのハンドラーです。
type LeaderboardHandler struct {
	scoreRepo database.ScoreRepository
}

// NewLeaderboardHandler は新しいLeaderboardHandlerインスタンスを作成します。
func NewLeaderboardHandler(scoreRepo database.ScoreRepository) *LeaderboardHandler {
	return &LeaderboardHandler{scoreRepo: scoreRepo}
}

// GetLeaderboard はランキングを取得するハンドラーです。
// GET /api/leaderboard?type=overall|game&game=<key>&limit=n
//
// type=overall はユーザーごとの各ゲーム最高スコアの合計、type=game は指定ゲームの最高スコアで並べます。
// limit は 1..10 に丸められます。
func (h *LeaderboardHandler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()

	limit := defaultLeaderboardLimit
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			WriteErrorResponse(w, http.StatusBadRequest, "Invalid limit")
			return
		}
		limit = min(max(parsed, 1), maxLeaderboardLimit)
	}

	lbType := models.LeaderboardType(query.Get("type"))
	if lbType == "" {
		lbType = models.LeaderboardOverall
	}
	game := query.Get("game")

	var (
		data []models.LeaderboardEntry
		err  error
	)
	switch {
	case lbType == models.LeaderboardOverall:
		game = ""
		data, err = h.scoreRepo.GetOverallLeaderboard(r.Context(), limit)
	case lbType == models.LeaderboardGame && game != "":
		if !games.Known(game) {
			WriteErrorResponse(w, http.StatusBadRequest, "Invalid game key")
			return
		}
		data, err = h.scoreRepo.GetGameLeaderboard(r.Context(), game, limit)
	default:
		WriteErrorResponse(w, http.StatusBadRequest, "Invalid request parameters")
		return
	}
	if err != nil {
		log.Printf("[LeaderboardHandler] ランキング取得エラー: %v", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "Database error")
		return
	}

	WriteJSONResponse(w, http.StatusOK, models.LeaderboardResponse{
		Success: true,
		Type:    lbType,
		Game:    game,
		Data:    data,
		Count:   len(data),
	})
}
