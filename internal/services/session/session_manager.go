package session

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/tubes-arcade/arcade-backend/internal/services/arcade"
)

// DefaultTickInterval は全セッションの Tick を呼ぶ間隔です（約60fps）。
const DefaultTickInterval = 16 * time.Millisecond

// submitTimeout はゲームオーバー時のスコア送信のタイムアウトです。
const submitTimeout = 10 * time.Second

// ErrManagerClosed はシャットダウン後にセッションを登録しようとした場合のエラーです。
var ErrManagerClosed = errors.New("session manager is shut down")

// クライアントから受け取るメッセージの種類です。
const (
	MessageInput      = "input"
	MessageStart      = "start"
	MessagePause      = "pause"
	MessageRestart    = "restart"
	MessageDifficulty = "difficulty"
)

// サーバーから送るメッセージの種類です。
const (
	MessageSession = "session"
	MessageState   = "state"
	MessageError   = "error"
)

// ClientMessage はクライアントから届くWebSocketメッセージです。
type ClientMessage struct {
	Type       string `json:"type"`
	Action     string `json:"action,omitempty"`
	Difficulty string `json:"difficulty,omitempty"`
}

// ServerMessage はクライアントへ送るWebSocketメッセージです。
type ServerMessage struct {
	Type      string         `json:"type"`
	SessionID string         `json:"session_id,omitempty"`
	Game      string         `json:"game,omitempty"`
	State     any            `json:"state,omitempty"`
	Events    []arcade.Event `json:"events,omitempty"`
	Error     string         `json:"error,omitempty"`
}

// difficultySetter は実行中でないときに難易度を変更できるゲームです。
type difficultySetter interface {
	SetDifficulty(d arcade.Difficulty) error
}

// Client はWebSocket接続を持つ単一のクライアントを表します。
type Client struct {
	SessionID string          // このクライアントが操作しているセッションのID
	UserID    string          // このクライアントに紐づくユーザーのID
	Conn      *websocket.Conn // クライアントとの実際のWebSocketコネクション
	Send      chan []byte     // クライアントへメッセージを送信するためのバッファ付きチャネル
	closed    bool
	mu        sync.Mutex
}

// NewClient は送信バッファ付きのクライアントを生成します。
func NewClient(userID string, conn *websocket.Conn) *Client {
	return &Client{
		UserID: userID,
		Conn:   conn,
		Send:   make(chan []byte, 256),
	}
}

// SafeSend は安全にチャネルにメッセージを送信します（closedチェック付き）
func (c *Client) SafeSend(message []byte) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed {
		return false
	}
	select {
	case c.Send <- message:
		return true
	default:
		return false // チャネルがフル
	}
}

// SafeClose は安全にチャネルを閉じます
func (c *Client) SafeClose() {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !c.closed {
		close(c.Send)
		c.closed = true
	}
}

// Session は1つの接続で遊ばれている1ゲーム分の状態です。
// Game はイベントループのゴルーチンからのみ操作されます。
type Session struct {
	ID        string
	UserID    string
	Game      arcade.Game
	Sink      arcade.ScoreSink // nil の場合はスコアを送信しない
	CreatedAt time.Time

	client    *Client
	lastTick  time.Time
	lastState []byte
}

type inputEvent struct {
	SessionID string
	Message   ClientMessage
}

// SessionManager はゲームセッションとWebSocketクライアント接続の全体を管理します。
// すべてのゲームの進行は Run のゴルーチン1つで行われます。
type SessionManager struct {
	sessions    map[string]*Session
	register    chan *Session
	unregister  chan string
	inputEvents chan inputEvent
	quit        chan struct{}
	quitOnce    sync.Once
	done        chan struct{} // Run の終了で閉じられる
	mu          sync.RWMutex
	submissions sync.WaitGroup
	tick        time.Duration
}

// NewSessionManager は新しい SessionManager を作成し、そのメインイベントループをバックグラウンドで開始します。
//
// Parameters:
//
//	tick : Tick を呼ぶ間隔（0以下なら DefaultTickInterval）
//
// Returns:
//
//	*SessionManager: 初期化されたセッションマネージャーのポインタ
func NewSessionManager(tick time.Duration) *SessionManager {
	if tick <= 0 {
		tick = DefaultTickInterval
	}
	sm := &SessionManager{
		sessions:    make(map[string]*Session),
		register:    make(chan *Session),
		unregister:  make(chan string),
		inputEvents: make(chan inputEvent, 512),
		quit:        make(chan struct{}),
		done:        make(chan struct{}),
		tick:        tick,
	}
	go sm.Run()
	return sm
}

// Run は SessionManager のメインイベントループです。
// セッションの登録/解除、プレイヤー入力の処理、Tick による時間の進行、状態の送信をすべてここで行います。
func (sm *SessionManager) Run() {
	defer close(sm.done)
	ticker := time.NewTicker(sm.tick)
	defer ticker.Stop()

	for {
		select {
		case s := <-sm.register:
			sm.mu.Lock()
			sm.sessions[s.ID] = s
			sm.mu.Unlock()
			s.lastTick = time.Now()
			log.Printf("[SessionManager] Session registered: %s (user: %s, game: %s)", s.ID, s.UserID, s.Game.Key())
			sm.send(s, ServerMessage{Type: MessageSession, SessionID: s.ID, Game: s.Game.Key()})
			sm.flush(s)

		case id := <-sm.unregister:
			sm.mu.Lock()
			s, ok := sm.sessions[id]
			delete(sm.sessions, id)
			sm.mu.Unlock()
			if !ok {
				continue
			}
			s.client.SafeClose()
			log.Printf("[SessionManager] Session unregistered: %s (user: %s, score: %d)", id, s.UserID, s.Game.Score())

		case ev := <-sm.inputEvents:
			sm.mu.RLock()
			s, ok := sm.sessions[ev.SessionID]
			sm.mu.RUnlock()
			if !ok {
				log.Printf("[SessionManager] Received input for non-existent session %s", ev.SessionID)
				continue
			}
			sm.apply(s, ev.Message)

		case now := <-ticker.C:
			sm.mu.RLock()
			active := make([]*Session, 0, len(sm.sessions))
			for _, s := range sm.sessions {
				active = append(active, s)
			}
			sm.mu.RUnlock()

			for _, s := range active {
				if s.Game.Status() == arcade.StatusPlaying {
					s.Game.Tick(now.Sub(s.lastTick))
				}
				// 一時停止・待機中も基準時刻を進め、再開時に追いつき分の落下が起きないようにする
				s.lastTick = now
				sm.flush(s)
			}

		case <-sm.quit:
			log.Printf("[SessionManager] シャットダウンシグナルを受信、メインループを終了します")
			return
		}
	}
}

// apply はクライアントのメッセージをゲームに適用します。
func (sm *SessionManager) apply(s *Session, msg ClientMessage) {
	var action arcade.Action
	switch msg.Type {
	case MessageStart:
		action = arcade.ActionStart
	case MessagePause:
		action = arcade.ActionPause
	case MessageRestart:
		action = arcade.ActionRestart
	case MessageInput:
		a, err := arcade.ParseAction(msg.Action)
		if err != nil {
			sm.send(s, ServerMessage{Type: MessageError, SessionID: s.ID, Error: err.Error()})
			return
		}
		action = a
	case MessageDifficulty:
		sm.setDifficulty(s, msg.Difficulty)
		return
	default:
		sm.send(s, ServerMessage{Type: MessageError, SessionID: s.ID, Error: fmt.Sprintf("unknown message type %q", msg.Type)})
		return
	}

	before := s.Game.Status()
	if !s.Game.HandleInput(action) {
		return
	}
	if before != arcade.StatusPlaying && s.Game.Status() == arcade.StatusPlaying {
		s.lastTick = time.Now()
	}
	sm.flush(s)
}

func (sm *SessionManager) setDifficulty(s *Session, raw string) {
	setter, ok := s.Game.(difficultySetter)
	if !ok {
		sm.send(s, ServerMessage{Type: MessageError, SessionID: s.ID, Error: "difficulty cannot be changed for this game"})
		return
	}
	d, err := arcade.ParseDifficulty(raw)
	if err == nil {
		err = setter.SetDifficulty(d)
	}
	if err != nil {
		sm.send(s, ServerMessage{Type: MessageError, SessionID: s.ID, Error: err.Error()})
		return
	}
	s.lastState = nil
	sm.flush(s)
}

// flush は溜まったイベントを取り出し、状態が変わっていればクライアントへ送信します。
// ゲームオーバーのイベントがあれば最終スコアを非同期で送信します。
func (sm *SessionManager) flush(s *Session) {
	events := s.Game.DrainEvents()
	for _, ev := range events {
		if ev.Kind == arcade.EventGameOver {
			sm.submitScore(s, ev.Score)
		}
	}

	state, err := json.Marshal(s.Game.View())
	if err != nil {
		log.Printf("[SessionManager] Error marshaling game state for session %s: %v", s.ID, err)
		return
	}
	if len(events) == 0 && bytes.Equal(state, s.lastState) {
		return
	}
	s.lastState = state
	sm.send(s, ServerMessage{Type: MessageState, SessionID: s.ID, Game: s.Game.Key(), State: json.RawMessage(state), Events: events})
}

func (sm *SessionManager) send(s *Session, msg ServerMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		log.Printf("[SessionManager] Error marshaling message for session %s: %v", s.ID, err)
		return
	}
	if !s.client.SafeSend(data) {
		log.Printf("[SessionManager] Failed to send to client %s (channel closed or full)", s.UserID)
	}
}

// submitScore はスコア送信をイベントループの外で行います。送信の失敗はゲームに影響しません。
func (sm *SessionManager) submitScore(s *Session, score int) {
	if s.Sink == nil {
		return
	}
	game := s.Game.Key()
	sm.submissions.Add(1)
	go func() {
		defer sm.submissions.Done()
		ctx, cancel := context.WithTimeout(context.Background(), submitTimeout)
		defer cancel()
		if err := s.Sink.Submit(ctx, game, score); err != nil {
			log.Printf("[SessionManager] Failed to submit %s score %d for user %s: %v", game, score, s.UserID, err)
		}
	}()
}

// Attach はクライアントに新しいセッションを割り当ててイベントループに登録します。
// WebSocketのポンプは開始しません。
//
// Returns:
//
//	*Session: 登録されたセッション
//	error   : シャットダウン済みの場合
func (sm *SessionManager) Attach(client *Client, game arcade.Game, sink arcade.ScoreSink) (*Session, error) {
	s := &Session{
		ID:        uuid.New().String(),
		UserID:    client.UserID,
		Game:      game,
		Sink:      sink,
		CreatedAt: time.Now(),
		client:    client,
	}
	client.SessionID = s.ID
	select {
	case sm.register <- s:
		return s, nil
	case <-sm.quit:
		return nil, ErrManagerClosed
	}
}

// RegisterClient はWebSocket接続にセッションを割り当て、読み書きのポンプを開始します。
func (sm *SessionManager) RegisterClient(userID string, conn *websocket.Conn, game arcade.Game, sink arcade.ScoreSink) (*Session, error) {
	client := NewClient(userID, conn)
	s, err := sm.Attach(client, game, sink)
	if err != nil {
		return nil, err
	}

	conn.SetReadLimit(1024)
	conn.SetReadDeadline(time.Now().Add(300 * time.Second))
	conn.SetPongHandler(func(string) error {
		conn.SetReadDeadline(time.Now().Add(300 * time.Second))
		return nil
	})

	go sm.readPump(client)
	go client.writePump()

	log.Printf("[SessionManager] Client %s registered for session %s", userID, s.ID)
	return s, nil
}

// Input はクライアントからのメッセージをイベントループへ渡します。キューが満杯の場合は破棄します。
func (sm *SessionManager) Input(sessionID string, msg ClientMessage) {
	select {
	case sm.inputEvents <- inputEvent{SessionID: sessionID, Message: msg}:
	default:
		log.Printf("[SessionManager] Input events channel is full, dropping message for session %s", sessionID)
	}
}

// Detach はセッションを登録解除します。
func (sm *SessionManager) Detach(sessionID string) {
	select {
	case sm.unregister <- sessionID:
	case <-sm.quit:
	}
}

// SessionCount は現在登録されているセッション数を返します。
func (sm *SessionManager) SessionCount() int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.sessions)
}

// readPump はクライアントからのメッセージを読み続け、イベントループへ渡します。
func (sm *SessionManager) readPump(client *Client) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("[SessionManager] Panic in readPump for user %s: %v", client.UserID, r)
		}
		log.Printf("[SessionManager] Client %s disconnecting from session %s", client.UserID, client.SessionID)
		sm.Detach(client.SessionID)
		if err := client.Conn.Close(); err != nil {
			log.Printf("[SessionManager] Error closing WebSocket connection for user %s: %v", client.UserID, err)
		}
	}()

	for {
		_, message, err := client.Conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure, websocket.CloseNormalClosure) {
				log.Printf("[SessionManager] WebSocket unexpected close error for user %s: %v", client.UserID, err)
			}
			return
		}
		if len(message) == 0 {
			continue
		}

		var msg ClientMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			log.Printf("[SessionManager] Failed to unmarshal input message from %s: %v, message: %s", client.UserID, err, message)
			continue
		}
		sm.Input(client.SessionID, msg)
	}
}

// writePump は Send チャネルのメッセージをWebSocketへ書き込み、定期的にPingを送ります。
func (c *Client) writePump() {
	ticker := time.NewTicker(60 * time.Second)
	defer func() {
		ticker.Stop()
		if err := c.Conn.Close(); err != nil {
			log.Printf("[Client] Error closing WebSocket connection for user %s: %v", c.UserID, err)
		}
	}()

	consecutiveErrors := 0
	const maxConsecutiveErrors = 3

	for {
		select {
		case message, ok := <-c.Send:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, message); err != nil {
				consecutiveErrors++
				log.Printf("[Client] Error writing message for user %s (attempt %d/%d): %v", c.UserID, consecutiveErrors, maxConsecutiveErrors, err)
				if consecutiveErrors >= maxConsecutiveErrors {
					return
				}
				continue
			}
			consecutiveErrors = 0

		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				log.Printf("[Client] Error sending ping for user %s: %v", c.UserID, err)
				return
			}
		}
	}
}

// Shutdown はイベントループを止め、全クライアントを切断し、送信中のスコアを待ちます。
func (sm *SessionManager) Shutdown() {
	log.Printf("[SessionManager] シャットダウン開始...")
	sm.quitOnce.Do(func() { close(sm.quit) })
	// submitScore は Run からしか呼ばれないため、Run の終了後は送信が増えない
	<-sm.done

	sm.mu.Lock()
	for id, s := range sm.sessions {
		if s.client.Conn != nil {
			s.client.Conn.Close()
		}
		s.client.SafeClose()
		delete(sm.sessions, id)
	}
	sm.mu.Unlock()

	sm.submissions.Wait()
	log.Printf("[SessionManager] シャットダウン完了")
}
