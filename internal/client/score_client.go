// Package client はAPIサーバーへスコアを送信するHTTPクライアントです。
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/tubes-arcade/arcade-backend/internal/models"
	"github.com/tubes-arcade/arcade-backend/internal/services/arcade"
)

const defaultTimeout = 10 * time.Second

// ScoreClient は POST /api/protected/scores にスコアを送信する arcade.ScoreSink です。
type ScoreClient struct {
	baseURL    string
	token      string
	httpClient *http.Client
}

// NewScoreClient は新しい ScoreClient を作成します。
//
// Parameters:
//
//	baseURL : APIサーバーのURL (例: http://localhost:8080)
//	token   : Authorization ヘッダーに付けるJWT（空なら付けない）
func NewScoreClient(baseURL, token string) *ScoreClient {
	return &ScoreClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}
}

// Submit はスコアを送信し、サーバーが200以外を返した場合はエラーにします。
func (c *ScoreClient) Submit(ctx context.Context, game string, score int) error {
	body, err := json.Marshal(models.ScoreRequest{Game: game, Score: &score})
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/protected/scores", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("リクエストの作成に失敗しました: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("スコアの送信に失敗しました: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		var failure struct {
			Message string `json:"message"`
		}
		json.NewDecoder(resp.Body).Decode(&failure)
		return fmt.Errorf("スコアの送信に失敗しました: status %d: %s", resp.StatusCode, failure.Message)
	}
	return nil
}

var _ arcade.ScoreSink = (*ScoreClient)(nil)
