package realtime

import (
	"context"
	"errors"

	"github.com/goccy/go-json"

	"github.com/anonto42/socialpulse/backend/internal/logging"
	"github.com/anonto42/socialpulse/backend/internal/metrics"
)

// ErrHubStopped is returned by queries issued after Run has returned.
var ErrHubStopped = errors.New("realtime: hub stopped")

// Hub owns the connection registry and the rooms, and drives presence.
//
// Every transport event (attach, setup, detach), every publish and every
// presence query is a task run to completion on the Run goroutine, in the
// order it was submitted. A detach therefore never interleaves between a
// registration and its online broadcast, and publishes resolve room
// membership at delivery time.
//
// Delivery is at-most-once: a frame that does not fit a client's send queue
// is dropped for that client and never retried.
type Hub struct {
	registry *Registry
	rooms    rooms
	clients  map[ConnID]*Client

	tasks   chan func()
	stopped chan struct{}
}

// NewHub creates an idle Hub. Call Run in a goroutine to start it.
func NewHub() *Hub {
	return &Hub{
		registry: NewRegistry(),
		rooms:    make(rooms),
		clients:  make(map[ConnID]*Client),
		tasks:    make(chan func(), 256),
		stopped:  make(chan struct{}),
	}
}

// Run processes hub tasks until ctx is cancelled. On shutdown every client
// send queue is closed, which makes the write pumps close their sockets.
func (h *Hub) Run(ctx context.Context) error {
	defer close(h.stopped)

	for {
		select {
		case <-ctx.Done():
			h.shutdown()
			logging.Info().Msg("realtime hub stopped")
			return ctx.Err()
		case task := <-h.tasks:
			task()
		}
	}
}

func (h *Hub) submit(ctx context.Context, task func()) error {
	select {
	case h.tasks <- task:
		return nil
	case <-h.stopped:
		return ErrHubStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Hub) attach(c *Client) {
	_ = h.submit(context.Background(), func() {
		h.clients[c.id] = c
		metrics.WSConnections.Set(float64(len(h.clients)))
		logging.Debug().Str("conn", string(c.id)).Msg("websocket attached")
	})
}

func (h *Hub) detach(c *Client) {
	_ = h.submit(context.Background(), func() { h.handleDetach(c) })
}

func (h *Hub) setup(c *Client, user UserID) {
	_ = h.submit(context.Background(), func() { h.handleSetup(c, user) })
}

func (h *Hub) reply(c *Client, env Envelope) {
	_ = h.submit(context.Background(), func() {
		if _, ok := h.clients[c.id]; ok {
			h.deliver([]*Client{c}, env)
		}
	})
}

// PublishToUser queues an event for every connection currently in the
// user's room. Nothing happens if the user is offline.
func (h *Hub) PublishToUser(userID string, eventType string, data any) {
	env := Envelope{Type: eventType, Data: data}
	room := RoomNameFor(UserID(userID))
	_ = h.submit(context.Background(), func() {
		h.deliver(h.rooms.members(room), env)
	})
}

// Broadcast queues an event for every open connection.
func (h *Hub) Broadcast(eventType string, data any) {
	env := Envelope{Type: eventType, Data: data}
	_ = h.submit(context.Background(), func() { h.broadcast(env) })
}

// OnlineUsers returns a snapshot of present user identities.
func (h *Hub) OnlineUsers(ctx context.Context) ([]string, error) {
	result := make(chan []string, 1)
	err := h.submit(ctx, func() {
		users := h.registry.ListPresentUsers()
		out := make([]string, len(users))
		for i, u := range users {
			out[i] = string(u)
		}
		result <- out
	})
	if err != nil {
		return nil, err
	}
	return awaitResult(ctx, h, result)
}

// IsOnline reports whether userID has at least one open connection.
func (h *Hub) IsOnline(ctx context.Context, userID string) (bool, error) {
	result := make(chan bool, 1)
	err := h.submit(ctx, func() { result <- h.registry.IsPresent(UserID(userID)) })
	if err != nil {
		return false, err
	}
	return awaitResult(ctx, h, result)
}

// ConnectionCount returns the number of attached connections.
func (h *Hub) ConnectionCount(ctx context.Context) (int, error) {
	result := make(chan int, 1)
	if err := h.submit(ctx, func() { result <- len(h.clients) }); err != nil {
		return 0, err
	}
	return awaitResult(ctx, h, result)
}

func awaitResult[T any](ctx context.Context, h *Hub, result <-chan T) (T, error) {
	var zero T
	select {
	case v := <-result:
		return v, nil
	case <-h.stopped:
		return zero, ErrHubStopped
	case <-ctx.Done():
		return zero, ctx.Err()
	}
}

func (h *Hub) handleSetup(c *Client, user UserID) {
	if _, ok := h.clients[c.id]; !ok {
		return
	}

	if prev, ok := h.registry.Owner(c.id); ok && prev != user {
		logging.Info().
			Str("conn", string(c.id)).
			Str("from", string(prev)).
			Str("to", string(user)).
			Msg("connection changed identity")
		h.release(c)
	}

	h.registry.Register(user, c.id)
	h.rooms.join(RoomNameFor(user), c)
	metrics.OnlineUsers.Set(float64(h.registry.Len()))

	h.deliver([]*Client{c}, Envelope{Type: EventConnected})
	h.deliver([]*Client{c}, Envelope{Type: EventOnlineUsers, Data: h.registry.ListPresentUsers()})
	h.broadcast(Envelope{Type: EventUserStatus, Data: UserStatus{UserID: user, Status: StatusOnline}})

	logging.Info().
		Str("user", string(user)).
		Str("conn", string(c.id)).
		Int("connections", h.registry.Connections(user)).
		Msg("user online")
}

func (h *Hub) handleDetach(c *Client) {
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	delete(h.clients, c.id)
	close(c.send)
	metrics.WSConnections.Set(float64(len(h.clients)))

	h.release(c)
	logging.Debug().Str("conn", string(c.id)).Msg("websocket detached")
}

// release drops c's registration and announces the owner offline if c was
// its last connection.
func (h *Hub) release(c *Client) {
	user, last := h.registry.Unregister(c.id)
	if user == "" {
		return
	}
	h.rooms.leave(RoomNameFor(user), c)
	metrics.OnlineUsers.Set(float64(h.registry.Len()))

	if !last {
		return
	}
	h.broadcast(Envelope{Type: EventUserStatus, Data: UserStatus{UserID: user, Status: StatusOffline}})
	logging.Info().Str("user", string(user)).Msg("user offline")
}

func (h *Hub) broadcast(env Envelope) {
	targets := make([]*Client, 0, len(h.clients))
	for _, c := range h.clients {
		targets = append(targets, c)
	}
	h.deliver(targets, env)
}

func (h *Hub) deliver(targets []*Client, env Envelope) {
	if len(targets) == 0 {
		return
	}

	frame, err := json.Marshal(env)
	if err != nil {
		logging.Error().Err(err).Str("type", env.Type).Msg("failed to encode event")
		return
	}

	for _, c := range targets {
		select {
		case c.send <- frame:
			metrics.WSEventsSent.WithLabelValues(env.Type).Inc()
		default:
			metrics.WSEventsDropped.WithLabelValues(env.Type).Inc()
			logging.Warn().Str("conn", string(c.id)).Str("type", env.Type).Msg("send queue full, event dropped")
		}
	}
}

func (h *Hub) shutdown() {
	for id, c := range h.clients {
		close(c.send)
		delete(h.clients, id)
	}
	h.registry = NewRegistry()
	h.rooms = make(rooms)
	metrics.WSConnections.Set(0)
	metrics.OnlineUsers.Set(0)
}
