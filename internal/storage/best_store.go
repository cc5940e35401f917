// Package storage はターミナル版のハイスコアをローカルファイルに保存します。
package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"path/filepath"
	"sync"

	"github.com/tubes-arcade/arcade-backend/internal/services/arcade"
)

// DefaultDir は $HOME 以下の保存先ディレクトリ名です。
const DefaultDir = ".arcade"

// FileBestStore はゲームごとのハイスコアを1つのJSONファイル ({"tetris": 1200, "snake": 90}) に保存します。
type FileBestStore struct {
	path   string
	mu     sync.Mutex
	scores map[string]int
}

// DefaultPath は $HOME/.arcade/best.json を返します。
func DefaultPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("ホームディレクトリの取得に失敗しました: %w", err)
	}
	return filepath.Join(home, DefaultDir, "best.json"), nil
}

// NewFileBestStore は path のファイルを読み込みます。
// ファイルが無い場合や中身が壊れている場合は空の状態から始め、次の Set で書き直します。
//
// Returns:
//
//	*FileBestStore: 読み込んだストア
//	error         : ファイルが読めない場合
func NewFileBestStore(path string) (*FileBestStore, error) {
	s := &FileBestStore{path: path, scores: map[string]int{}}
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("ハイスコアファイルの読み込みに失敗しました: %w", err)
	}
	var scores map[string]int
	if err := json.Unmarshal(data, &scores); err != nil {
		log.Printf("[FileBestStore] ハイスコアファイルが壊れているため空の状態から始めます (%s): %v", path, err)
		return s, nil
	}
	if scores != nil {
		s.scores = scores
	}
	return s, nil
}

// Path は保存先のパスを返します。
func (s *FileBestStore) Path() string { return s.path }

func (s *FileBestStore) Get(key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scores[key], nil
}

// Set は値を更新し、ファイル全体を書き直します。一時ファイルに書いてから置き換えます。
func (s *FileBestStore) Set(key string, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[key] = value

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("保存先ディレクトリの作成に失敗しました: %w", err)
	}
	data, err := json.MarshalIndent(s.scores, "", "  ")
	if err != nil {
		return err
	}
	data = append(data, '\n')

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("ハイスコアの書き込みに失敗しました: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("ハイスコアの書き込みに失敗しました: %w", err)
	}
	return nil
}

var _ arcade.BestStore = (*FileBestStore)(nil)
