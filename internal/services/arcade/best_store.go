package arcade

import "sync"

// MemoryBestStore はプロセス内でハイスコアを保持するBestStoreです。
// サーバー側のセッションではDBから読み込んだ値で初期化し、ゲーム中の更新はここに溜めます。
type MemoryBestStore struct {
	mu     sync.Mutex
	scores map[string]int
}

// NewMemoryBestStore は初期値を持つMemoryBestStoreを生成します。
func NewMemoryBestStore(initial map[string]int) *MemoryBestStore {
	s := &MemoryBestStore{scores: make(map[string]int, len(initial))}
	for k, v := range initial {
		s.scores[k] = v
	}
	return s
}

func (s *MemoryBestStore) Get(key string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.scores[key], nil
}

func (s *MemoryBestStore) Set(key string, value int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.scores[key] = value
	return nil
}
