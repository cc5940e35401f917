package session

import (
	"context"
	"encoding/json"
	"math/rand"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tubes-arcade/arcade-backend/internal/services/arcade"
	"github.com/tubes-arcade/arcade-backend/internal/services/tetris"
)

type fakeView struct {
	Status arcade.Status `json:"status"`
	Score  int           `json:"score"`
}

// fakeGame はハードドロップで即座にゲームオーバーになるテスト用のゲームです。
type fakeGame struct {
	status arcade.Status
	score  int
	events []arcade.Event
	ticks  atomic.Int32
}

func (g *fakeGame) Key() string { return "fake" }
func (g *fakeGame) Start() { g.status = arcade.StatusPlaying }

func (g *fakeGame) Restart() {
	g.status = arcade.StatusPlaying
	g.score = 0
}

func (g *fakeGame) TogglePause() {}
func (g *fakeGame) Tick(time.Duration) { g.ticks.Add(1) }
func (g *fakeGame) Interval() time.Duration { return time.Second }
func (g *fakeGame) Status() arcade.Status { return g.status }
func (g *fakeGame) Score() int { return g.score }
func (g *fakeGame) Best() int { return 0 }
func (g *fakeGame) View() any { return fakeView{Status: g.status, Score: g.score} }

func (g *fakeGame) DrainEvents() []arcade.Event {
	out := g.events
	g.events = nil
	return out
}

func (g *fakeGame) HandleInput(a arcade.Action) bool {
	switch a {
	case arcade.ActionStart:
		g.Start()
		return true
	case arcade.ActionHardDrop:
		if g.status != arcade.StatusPlaying {
			return false
		}
		g.score = 42
		g.status = arcade.StatusGameOver
		g.events = append(g.events, arcade.Event{Kind: arcade.EventGameOver, Score: g.score})
		return true
	}
	return false
}

type submission struct {
	game  string
	score int
}

type chanSink chan submission

func (c chanSink) Submit(_ context.Context, game string, score int) error {
	c <- submission{game: game, score: score}
	return nil
}

// slowSink は送信に時間がかかるスコアの受け口です。
type slowSink struct {
	delay time.Duration
	done  atomic.Int32
}

func (s *slowSink) Submit(ctx context.Context, _ string, _ int) error {
	select {
	case <-time.After(s.delay):
		s.done.Add(1)
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

type wireMessage struct {
	Type      string          `json:"type"`
	SessionID string          `json:"session_id"`
	Game      string          `json:"game"`
	State     json.RawMessage `json:"state"`
	Events    []arcade.Event  `json:"events"`
	Error     string          `json:"error"`
}

func readMessage(t *testing.T, c *Client) wireMessage {
	t.Helper()
	select {
	case data, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		var msg wireMessage
		require.NoError(t, json.Unmarshal(data, &msg))
		return msg
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for message")
	}
	return wireMessage{}
}

func attach(t *testing.T, sm *SessionManager, g arcade.Game, sink arcade.ScoreSink) (*Session, *Client) {
	t.Helper()
	client := NewClient("user-1", nil)
	s, err := sm.Attach(client, g, sink)
	require.NoError(t, err)

	msg := readMessage(t, client)
	assert.Equal(t, MessageSession, msg.Type)
	assert.Equal(t, s.ID, msg.SessionID)
	assert.Equal(t, g.Key(), msg.Game)

	msg = readMessage(t, client)
	assert.Equal(t, MessageState, msg.Type)
	return s, client
}

func TestSessionManager_GameOverSubmitsScore(t *testing.T) {
	sm := NewSessionManager(5 * time.Millisecond)
	defer sm.Shutdown()
	sink := make(chanSink, 1)
	g := &fakeGame{status: arcade.StatusReady}

	s, client := attach(t, sm, g, sink)
	assert.Equal(t, 1, sm.SessionCount())

	sm.Input(s.ID, ClientMessage{Type: MessageStart})
	msg := readMessage(t, client)
	var view fakeView
	require.NoError(t, json.Unmarshal(msg.State, &view))
	assert.Equal(t, arcade.StatusPlaying, view.Status)

	sm.Input(s.ID, ClientMessage{Type: MessageInput, Action: "hard_drop"})
	msg = readMessage(t, client)
	require.Len(t, msg.Events, 1)
	assert.Equal(t, arcade.EventGameOver, msg.Events[0].Kind)
	assert.Equal(t, 42, msg.Events[0].Score)

	select {
	case got := <-sink:
		assert.Equal(t, submission{game: "fake", score: 42}, got)
	case <-time.After(2 * time.Second):
		t.Fatal("score was not submitted")
	}
}

func TestSessionManager_ShutdownWaitsForPendingSubmission(t *testing.T) {
	sm := NewSessionManager(5 * time.Millisecond)
	sink := &slowSink{delay: 50 * time.Millisecond}
	s, client := attach(t, sm, &fakeGame{status: arcade.StatusReady}, sink)

	sm.Input(s.ID, ClientMessage{Type: MessageStart})
	readMessage(t, client)
	sm.Input(s.ID, ClientMessage{Type: MessageInput, Action: "hard_drop"})
	msg := readMessage(t, client)
	require.Len(t, msg.Events, 1)

	sm.Shutdown()
	assert.Equal(t, int32(1), sink.done.Load(), "shutdown returns only after the final score is sent")

	// 二重のシャットダウンは即座に戻る
	assert.NotPanics(t, sm.Shutdown)
}

func TestSessionManager_TicksOnlyWhilePlaying(t *testing.T) {
	sm := NewSessionManager(5 * time.Millisecond)
	defer sm.Shutdown()
	g := &fakeGame{status: arcade.StatusReady}
	s, client := attach(t, sm, g, nil)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, int32(0), g.ticks.Load())

	sm.Input(s.ID, ClientMessage{Type: MessageStart})
	readMessage(t, client)
	assert.Eventually(t, func() bool { return g.ticks.Load() > 0 }, 2*time.Second, 5*time.Millisecond)
}

func TestSessionManager_RejectsBadMessages(t *testing.T) {
	sm := NewSessionManager(5 * time.Millisecond)
	defer sm.Shutdown()
	s, client := attach(t, sm, &fakeGame{status: arcade.StatusReady}, nil)

	sm.Input(s.ID, ClientMessage{Type: MessageInput, Action: "fly"})
	msg := readMessage(t, client)
	assert.Equal(t, MessageError, msg.Type)
	assert.Contains(t, msg.Error, "fly")

	sm.Input(s.ID, ClientMessage{Type: "chat"})
	msg = readMessage(t, client)
	assert.Equal(t, MessageError, msg.Type)

	sm.Input(s.ID, ClientMessage{Type: MessageDifficulty, Difficulty: "HARD"})
	msg = readMessage(t, client)
	assert.Equal(t, MessageError, msg.Type, "fake game has no difficulty")
}

func TestSessionManager_DifficultyChange(t *testing.T) {
	sm := NewSessionManager(5 * time.Millisecond)
	defer sm.Shutdown()
	engine, err := tetris.NewEngine(tetris.DefaultConfig(), nil, rand.New(rand.NewSource(7)))
	require.NoError(t, err)
	s, client := attach(t, sm, engine, nil)

	sm.Input(s.ID, ClientMessage{Type: MessageDifficulty, Difficulty: "hard"})
	msg := readMessage(t, client)
	require.Equal(t, MessageState, msg.Type)
	var snap tetris.Snapshot
	require.NoError(t, json.Unmarshal(msg.State, &snap))
	assert.Equal(t, arcade.Hard, snap.Difficulty)
	assert.Equal(t, int64(500), snap.DropIntervalMs)

	sm.Input(s.ID, ClientMessage{Type: MessageStart})
	msg = readMessage(t, client)
	require.NoError(t, json.Unmarshal(msg.State, &snap))
	assert.Equal(t, arcade.StatusPlaying, snap.Status)

	sm.Input(s.ID, ClientMessage{Type: MessageDifficulty, Difficulty: "easy"})
	for {
		msg = readMessage(t, client)
		if msg.Type == MessageError {
			break
		}
	}
	assert.Contains(t, msg.Error, "running")
}

func TestSessionManager_Detach(t *testing.T) {
	sm := NewSessionManager(5 * time.Millisecond)
	defer sm.Shutdown()
	s, client := attach(t, sm, &fakeGame{status: arcade.StatusReady}, nil)

	sm.Detach(s.ID)
	assert.Eventually(t, func() bool { return sm.SessionCount() == 0 }, 2*time.Second, 5*time.Millisecond)
	_, ok := <-client.Send
	assert.False(t, ok, "send channel is closed on detach")
}

func TestSessionManager_AttachAfterShutdown(t *testing.T) {
	sm := NewSessionManager(5 * time.Millisecond)
	sm.Shutdown()

	_, err := sm.Attach(NewClient("user-1", nil), &fakeGame{}, nil)
	assert.ErrorIs(t, err, ErrManagerClosed)
}
