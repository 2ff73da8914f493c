package notify

import (
	"context"
	"errors"
	"sync"

	"github.com/anonto42/socialpulse/backend/internal/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// memoryStore is an in-memory Store with the same upsert semantics as the
// Mongo repository.
type memoryStore struct {
	mu   sync.Mutex
	docs []*models.Notification
	err  error
}

func (s *memoryStore) Create(_ context.Context, n *models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	n.ID = primitive.NewObjectID()
	s.docs = append(s.docs, n)
	return nil
}

func (s *memoryStore) CreateMany(_ context.Context, ns []*models.Notification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for _, n := range ns {
		n.ID = primitive.NewObjectID()
		s.docs = append(s.docs, n)
	}
	return nil
}

func (s *memoryStore) UpsertUnreadMessage(_ context.Context, n *models.Notification) (*models.Notification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return nil, s.err
	}
	for _, d := range s.docs {
		if d.Category == models.CategoryNewMessage && !d.Read &&
			d.Recipient == n.Recipient && sameSender(d.Sender, n.Sender) &&
			d.RefID == n.RefID && d.RefKind == n.RefKind {
			d.Title, d.Body, d.Link, d.ExpiresAt = n.Title, n.Body, n.Link, n.ExpiresAt
			copied := *d
			return &copied, nil
		}
	}
	n.ID = primitive.NewObjectID()
	s.docs = append(s.docs, n)
	copied := *n
	return &copied, nil
}

func (s *memoryStore) markAllRead(recipient string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, d := range s.docs {
		if d.Recipient == recipient {
			d.Read = true
		}
	}
}

func (s *memoryStore) forRecipient(recipient string) []*models.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []*models.Notification
	for _, d := range s.docs {
		if d.Recipient == recipient {
			out = append(out, d)
		}
	}
	return out
}

func (s *memoryStore) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.docs)
}

func sameSender(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

type published struct {
	room  string // "" for broadcasts
	event string
	data  any
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []published
}

func (p *recordingPublisher) PublishToUser(userID, eventType string, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{room: userID, event: eventType, data: data})
}

func (p *recordingPublisher) Broadcast(eventType string, data any) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, published{event: eventType, data: data})
}

func (p *recordingPublisher) all() []published {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]published(nil), p.events...)
}

type staticDirectory map[string]models.UserCompact

func (d staticDirectory) Compact(_ context.Context, identity string) (*models.UserCompact, error) {
	u, ok := d[identity]
	if !ok {
		return nil, errors.New("unknown user")
	}
	return &u, nil
}
