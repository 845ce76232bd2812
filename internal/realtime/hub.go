package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/aura-quiz/backend/internal/lifecycle"
	"github.com/aura-quiz/backend/internal/models"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Events sent to quiz owners.
const (
	EventFriendStarted = "friend_started"
	EventFriendResult  = "friend_result"
	EventPong          = "pong"
)

// FriendStarted is sent when someone other than the owner opens the quiz.
type FriendStarted struct {
	QuizID string    `json:"quiz_id"`
	At     time.Time `json:"at"`
}

// FriendResult is sent when someone other than the owner finishes the quiz.
type FriendResult struct {
	QuizID  string         `json:"quiz_id"`
	Score   int            `json:"score"`
	Correct int            `json:"correct"`
	Total   int            `json:"total"`
	Message models.Message `json:"message"`
	At      time.Time      `json:"at"`
}

// Hub maintains quiz_id -> set of owner connections and broadcasts events to them.
// Uses Redis pub/sub for horizontal scaling: the friend's session may live on another instance.
type Hub struct {
	// quizID -> map[clientID]*Client
	quizzes  map[string]map[string]*Client
	subs     map[string]func() // cancel Redis subscription per quiz
	mu       sync.RWMutex
	logger   *zap.Logger
	redis    RedisPublisher
	redisSub RedisSubscriber
	now      func() time.Time
}

// RedisPublisher is the interface for publishing to Redis (for cross-instance broadcast).
type RedisPublisher interface {
	PublishQuizEvent(quizID string, event string, payload []byte) error
}

// RedisSubscriber subscribes to quiz channels and invokes handler for incoming events.
type RedisSubscriber interface {
	SubscribeQuiz(quizID string, handler func(event string, payload []byte)) (cancel func(), err error)
}

// NewHub creates a new WebSocket hub. Without Redis, events only reach local connections.
func NewHub(logger *zap.Logger, redisPub RedisPublisher, redisSub RedisSubscriber) *Hub {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Hub{
		quizzes:  make(map[string]map[string]*Client),
		subs:     make(map[string]func()),
		logger:   logger,
		redis:    redisPub,
		redisSub: redisSub,
		now:      time.Now,
	}
}

// Register adds a client to a quiz room. Starts Redis subscription for this quiz if first client.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	first := h.quizzes[c.QuizID] == nil
	if first {
		h.quizzes[c.QuizID] = make(map[string]*Client)
	}
	h.quizzes[c.QuizID][c.ID] = c
	h.mu.Unlock()
	if first && h.redisSub != nil {
		h.subscribe(c.QuizID)
	}
	h.logger.Debug("owner connected", zap.String("client_id", c.ID), zap.String("quiz_id", c.QuizID))
}

// subscribe runs the Redis round-trip without h.mu held. The subscription is dropped if the
// room emptied meanwhile or a concurrent Register already subscribed.
func (h *Hub) subscribe(quizID string) {
	cancel, err := h.redisSub.SubscribeQuiz(quizID, func(event string, payload []byte) {
		h.Broadcast(quizID, event, json.RawMessage(payload))
	})
	if err != nil {
		h.logger.Warn("subscribe quiz events", zap.String("quiz_id", quizID), zap.Error(err))
		return
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	_, active := h.quizzes[quizID]
	_, subscribed := h.subs[quizID]
	if !active || subscribed {
		cancel()
		return
	}
	h.subs[quizID] = cancel
}

// Unregister removes a client from a quiz room. Cancels Redis subscription when last client leaves.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.quizzes[c.QuizID]; ok {
		if _, ok := m[c.ID]; ok {
			delete(m, c.ID)
			close(c.send)
		}
		if len(m) == 0 {
			delete(h.quizzes, c.QuizID)
			if cancel, ok := h.subs[c.QuizID]; ok {
				cancel()
				delete(h.subs, c.QuizID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("owner disconnected", zap.String("client_id", c.ID), zap.String("quiz_id", c.QuizID))
}

// Broadcast sends a message to all clients of a quiz (local only).
func (h *Hub) Broadcast(quizID string, event string, payload interface{}) {
	var data []byte
	switch v := payload.(type) {
	case []byte:
		data = v
	case json.RawMessage:
		data = v
	default:
		data, _ = json.Marshal(payload)
	}
	msg := WSMessage{Event: event, Data: data}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.quizzes[quizID] {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}

// Publish delivers an event to every instance's clients for the quiz. With Redis the subscriber
// callback performs the broadcast once per instance (including this one).
func (h *Hub) Publish(quizID string, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		return
	}
	if h.redis != nil {
		if err := h.redis.PublishQuizEvent(quizID, event, data); err != nil {
			h.logger.Warn("publish quiz event", zap.String("quiz_id", quizID), zap.String("event", event), zap.Error(err))
		}
		return
	}
	h.Broadcast(quizID, event, json.RawMessage(data))
}

// Connected returns the number of connected owner clients for a quiz on this instance.
func (h *Hub) Connected(quizID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.quizzes[quizID])
}

// OnTransition forwards friends' progress to the quiz owner.
func (h *Hub) OnTransition(t lifecycle.Transition) {
	if t.Owner || t.QuizID == "" || t.Err != nil {
		return
	}
	switch {
	case t.Op == lifecycle.OpOpen && t.To == lifecycle.StageTest:
		h.Publish(t.QuizID, EventFriendStarted, FriendStarted{QuizID: t.QuizID, At: h.now().UTC()})
	case t.To == lifecycle.StageResult && t.Outcome != nil:
		h.Publish(t.QuizID, EventFriendResult, FriendResult{
			QuizID:  t.QuizID,
			Score:   t.Outcome.Score,
			Correct: t.Outcome.Correct,
			Total:   t.Outcome.Total,
			Message: t.Outcome.Message,
			At:      h.now().UTC(),
		})
	}
}
