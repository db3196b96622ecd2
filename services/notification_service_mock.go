package services

import (
	"context"
	"sync"
)

// MockNotifier is a Notifier that records notifications for testing
type MockNotifier struct {
	sent []Notification
	err  error
	mu   sync.Mutex
}

// NewMockNotifier creates a new mock notifier
func NewMockNotifier() *MockNotifier {
	return &MockNotifier{}
}

// FailWith makes every subsequent Notify call return err
func (m *MockNotifier) FailWith(err error) {
	m.mu.Lock()
	m.err = err
	m.mu.Unlock()
}

// Notify records the notification
func (m *MockNotifier) Notify(ctx context.Context, n Notification) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, n)
	return nil
}

// Sent returns a copy of all recorded notifications
func (m *MockNotifier) Sent() []Notification {
	m.mu.Lock()
	defer m.mu.Unlock()
	sent := make([]Notification, len(m.sent))
	copy(sent, m.sent)
	return sent
}

// Clear forgets all recorded notifications
func (m *MockNotifier) Clear() {
	m.mu.Lock()
	m.sent = nil
	m.mu.Unlock()
}
