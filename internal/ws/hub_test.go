package ws

import (
	"errors"
	"testing"
	"time"
)

type testSubscriber struct {
	received chan []byte
	fail     bool
	closed   chan struct{}
}

func newTestSubscriber(fail bool) *testSubscriber {
	return &testSubscriber{
		received: make(chan []byte, 8),
		fail:     fail,
		closed:   make(chan struct{}, 1),
	}
}

func (s *testSubscriber) Send(payload []byte) error {
	if s.fail {
		return errors.New("send failed")
	}
	s.received <- payload
	return nil
}

func (s *testSubscriber) Close() {
	select {
	case s.closed <- struct{}{}:
	default:
	}
}

func waitFor[T any](t *testing.T, ch chan T, what string) T {
	t.Helper()
	select {
	case v := <-ch:
		return v
	case <-time.After(time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
	var zero T
	return zero
}

func TestHubBroadcastReachesTopicSubscribers(t *testing.T) {
	hub := NewHub()
	sub := newTestSubscriber(false)
	other := newTestSubscriber(false)

	hub.Register("workspace", sub)
	hub.Register("elsewhere", other)
	hub.Broadcast("workspace", []byte("hello"))

	payload := waitFor(t, sub.received, "broadcast payload")
	if string(payload) != "hello" {
		t.Errorf("payload = %q, want hello", payload)
	}
	select {
	case <-other.received:
		t.Fatal("subscriber on another topic received the payload")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestHubDropsFailingSubscriber(t *testing.T) {
	hub := NewHub()
	failing := newTestSubscriber(true)
	healthy := newTestSubscriber(false)

	hub.Register("workspace", failing)
	hub.Register("workspace", healthy)

	hub.Broadcast("workspace", []byte("one"))
	waitFor(t, failing.closed, "failing subscriber to close")
	waitFor(t, healthy.received, "healthy subscriber payload")

	hub.Broadcast("workspace", []byte("two"))
	payload := waitFor(t, healthy.received, "second payload")
	if string(payload) != "two" {
		t.Errorf("payload = %q, want two", payload)
	}
}

func TestHubUnregisterStopsDelivery(t *testing.T) {
	hub := NewHub()
	sub := newTestSubscriber(false)

	hub.Register("workspace", sub)
	hub.Broadcast("workspace", []byte("one"))
	waitFor(t, sub.received, "first payload")

	hub.Unregister("workspace", sub)
	hub.Broadcast("workspace", []byte("two"))
	select {
	case payload := <-sub.received:
		t.Fatalf("received %q after unregister", payload)
	case <-time.After(50 * time.Millisecond):
	}
}
