package stream

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"

	"github.com/Jayshxd/Open-Feast/internal/foodspot"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const feedChannel = "food-spots:events"

// Hub fans listing events out to websocket clients. With Redis configured the
// events are also relayed between replicas; each hub ignores its own echoes.
type Hub struct {
	id      string
	redis   *redis.Client
	log     *slog.Logger
	clients map[*Client]struct{}
	mu      sync.RWMutex

	ready     chan struct{}
	readyOnce sync.Once
	cancel    context.CancelFunc
}

type Client struct {
	Send chan []byte
}

type envelope struct {
	Origin  string          `json:"origin"`
	Payload json.RawMessage `json:"payload"`
}

var _ foodspot.Publisher = (*Hub)(nil)

func NewHub(redisClient *redis.Client, log *slog.Logger) *Hub {
	if log == nil {
		log = slog.Default()
	}
	ctx, cancel := context.WithCancel(context.Background())
	h := &Hub{
		id:      uuid.NewString(),
		redis:   redisClient,
		log:     log.With("component", "stream"),
		clients: map[*Client]struct{}{},
		ready:   make(chan struct{}),
		cancel:  cancel,
	}

	if redisClient != nil {
		go h.subscribeRedis(ctx)
	} else {
		h.markReady()
	}
	return h
}

// Ready is closed once the Redis subscription is live (immediately without Redis).
func (h *Hub) Ready() <-chan struct{} {
	return h.ready
}

func (h *Hub) Close() {
	h.cancel()
}

func (h *Hub) Register() *Client {
	client := &Client{Send: make(chan []byte, 64)}

	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
	return client
}

func (h *Hub) Unregister(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client]; !ok {
		return
	}
	delete(h.clients, client)
	close(client.Send)
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

func (h *Hub) Publish(evt foodspot.Event) {
	payload, err := json.Marshal(evt)
	if err != nil {
		h.log.Error("encode event failed", "error", err, "type", evt.Type)
		return
	}
	h.Broadcast(payload)
}

func (h *Hub) Broadcast(payload []byte) {
	h.deliver(payload)

	if h.redis == nil {
		return
	}
	msg, _ := json.Marshal(envelope{Origin: h.id, Payload: payload})
	if err := h.redis.Publish(context.Background(), feedChannel, msg).Err(); err != nil {
		h.log.Warn("redis publish failed", "error", err)
	}
}

// deliver drops the message for clients whose buffer is full.
func (h *Hub) deliver(payload []byte) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	for client := range h.clients {
		select {
		case client.Send <- payload:
		default:
		}
	}
}

func (h *Hub) subscribeRedis(ctx context.Context) {
	defer h.markReady()

	pubsub := h.redis.Subscribe(ctx, feedChannel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(ctx); err != nil {
		h.log.Warn("redis subscribe failed, live feed is local only", "error", err)
		return
	}
	h.markReady()

	for msg := range pubsub.Channel() {
		var env envelope
		if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
			h.log.Warn("dropping malformed feed message", "error", err)
			continue
		}
		if env.Origin == h.id {
			continue
		}
		h.deliver(env.Payload)
	}
}

func (h *Hub) markReady() {
	h.readyOnce.Do(func() { close(h.ready) })
}
