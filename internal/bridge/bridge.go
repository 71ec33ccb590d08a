// Package bridge translates inbound event channel messages into store
// mutations and orchestrator actions.
package bridge

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/alghazaly/storesync/internal/events"
	"github.com/alghazaly/storesync/internal/store"
)

// DefaultSyncDecay is how long a push-triggered sync displays its success
// outcome before decaying back to idle
const DefaultSyncDecay = 2 * time.Second

// Message kinds recognized by the bridge
const (
	messageTypeNotification = "notification"
	messageTypeSync         = "sync"
	messageTypePing         = "ping"
	messageTypePong         = "pong"
)

// StateStore is the slice of the store contract the bridge mutates
type StateStore interface {
	AddNotification(n store.Notification)
	SyncStatus() store.Status
	SetSyncStatus(status store.Status)
}

// Syncer triggers an immediate sync cycle. Satisfied by sync.Orchestrator.
type Syncer interface {
	ForceSync(ctx context.Context) error
}

// Sender replies on the event channel. Satisfied by *events.Manager.
type Sender interface {
	Send(v any) error
}

// Bridge is a message handler wiring the event channel to the store and the
// sync orchestrator
type Bridge struct {
	store     StateStore
	syncer    Syncer
	sender    Sender
	logger    *slog.Logger
	syncDecay time.Duration
}

// Option configures the bridge
type Option func(*Bridge)

// WithLogger sets the logger
func WithLogger(logger *slog.Logger) Option {
	return func(b *Bridge) {
		b.logger = logger
	}
}

// WithSyncDecay overrides the push-triggered sync decay window
func WithSyncDecay(d time.Duration) Option {
	return func(b *Bridge) {
		if d > 0 {
			b.syncDecay = d
		}
	}
}

// New creates a bridge
func New(st StateStore, syncer Syncer, sender Sender, opts ...Option) *Bridge {
	b := &Bridge{
		store:     st,
		syncer:    syncer,
		sender:    sender,
		logger:    slog.Default(),
		syncDecay: DefaultSyncDecay,
	}

	for _, opt := range opts {
		opt(b)
	}

	return b
}

// Attach registers the bridge on the manager and returns the removal
// capability. Call the returned function when the consuming context ends.
func (b *Bridge) Attach(m *events.Manager) func() {
	return m.AddMessageHandler(b.Handle)
}

// Handle dispatches one inbound message by type
func (b *Bridge) Handle(msg events.Message) {
	switch msg.Type {
	case messageTypeNotification:
		b.handleNotification(msg.Data)
	case messageTypeSync:
		go b.handleSyncRequest()
	case messageTypePing:
		if err := b.sender.Send(events.Message{Type: messageTypePong}); err != nil {
			b.logger.Warn("Failed to reply to ping", "error", err)
		}
	default:
		b.logger.Debug("Ignoring unrecognized event channel message", "type", msg.Type)
	}
}

// notificationPayload is the inbound shape of a pushed notification. Missing
// id, type and created_at fields are defaulted before handoff to the store.
type notificationPayload struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Message   string    `json:"message"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`
}

func (b *Bridge) handleNotification(data json.RawMessage) {
	var payload notificationPayload
	if err := json.Unmarshal(data, &payload); err != nil {
		b.logger.Warn("Dropping malformed notification payload", "error", err)
		return
	}

	n := store.Notification{
		ID:        payload.ID,
		Title:     payload.Title,
		Message:   payload.Message,
		Type:      store.NotificationType(payload.Type),
		Read:      false,
		CreatedAt: payload.CreatedAt,
	}
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.Type == "" {
		n.Type = store.NotificationInfo
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now()
	}

	b.store.AddNotification(n)
}

// handleSyncRequest runs a push-triggered sync cycle. The cycle itself moves
// the status through syncing to its outcome; on success the outcome decays
// back to idle after the bridge's shorter window, guarded so a newer cycle's
// result is not clobbered.
func (b *Bridge) handleSyncRequest() {
	if err := b.syncer.ForceSync(context.Background()); err != nil {
		// the orchestrator already surfaced the error status
		b.logger.Error("Push-triggered sync failed", "error", err)
		return
	}

	time.AfterFunc(b.syncDecay, func() {
		if b.store.SyncStatus() == store.StatusSuccess {
			b.store.SetSyncStatus(store.StatusIdle)
		}
	})
}
