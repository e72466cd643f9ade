package sse

import (
	"io"
	"log/slog"
	"testing"

	"github.com/bookhavenapp/bookhaven-server/internal/domain"
)

func newTestManager() *Manager {
	return NewManager(slog.New(slog.NewTextHandler(io.Discard, nil)))
}

func TestBroadcast_UserFiltering(t *testing.T) {
	m := newTestManager()

	alice, err := m.Connect("user-alice")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	bob, err := m.Connect("user-bob")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}

	// A notification event only reaches its owner.
	n := &domain.Notification{UserID: "user-alice", Type: domain.NotificationLoanBorrowed, Title: "Borrowed"}
	m.broadcast(NewNotificationEvent(n))

	select {
	case evt := <-alice.EventChan:
		if evt.Type != EventNotificationCreated {
			t.Errorf("alice got %s, want notification.created", evt.Type)
		}
	default:
		t.Error("alice should have received the notification")
	}

	select {
	case evt := <-bob.EventChan:
		t.Errorf("bob should not have received %s", evt.Type)
	default:
	}

	// Broadcast events reach everyone.
	m.broadcast(NewBookCreatedEvent(&domain.Book{Title: "New Arrival"}))

	for _, c := range []*Client{alice, bob} {
		select {
		case evt := <-c.EventChan:
			if evt.Type != EventBookCreated {
				t.Errorf("got %s, want book.created", evt.Type)
			}
		default:
			t.Errorf("client %s should have received the broadcast", c.ID)
		}
	}
}

func TestDisconnect(t *testing.T) {
	m := newTestManager()

	client, err := m.Connect("")
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if m.ClientCount() != 1 {
		t.Fatalf("ClientCount: got %d, want 1", m.ClientCount())
	}

	m.Disconnect(client.ID)
	if m.ClientCount() != 0 {
		t.Errorf("ClientCount after disconnect: got %d, want 0", m.ClientCount())
	}

	select {
	case <-client.Done:
	default:
		t.Error("Done channel should be closed")
	}

	// Disconnecting twice is harmless.
	m.Disconnect(client.ID)
}

func TestEmit_AfterShutdown(t *testing.T) {
	m := newTestManager()

	m.shutdownMu.Lock()
	m.shutdown = true
	close(m.events)
	m.shutdownMu.Unlock()

	// Must not panic on the closed channel.
	m.Emit(NewHeartbeatEvent())
}
