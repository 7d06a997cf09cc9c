package command

import (
	"testing"
)

func TestPublish_FanOut(t *testing.T) {
	h := NewHub()

	_, ch1 := h.Subscribe()
	_, ch2 := h.Subscribe()

	if delivered := h.Publish(RefreshAll); delivered != 2 {
		t.Errorf("delivered = %d, want 2", delivered)
	}

	for i, ch := range []<-chan string{ch1, ch2} {
		select {
		case cmd := <-ch:
			if cmd != RefreshAll {
				t.Errorf("subscriber %d got %q, want %q", i, cmd, RefreshAll)
			}
		default:
			t.Errorf("subscriber %d got nothing", i)
		}
	}
}

func TestPublish_NoSubscribers(t *testing.T) {
	h := NewHub()

	if delivered := h.Publish("close_tab:1"); delivered != 0 {
		t.Errorf("delivered = %d, want 0", delivered)
	}
}

func TestUnsubscribe_ClosesChannel(t *testing.T) {
	h := NewHub()

	id, ch := h.Subscribe()
	h.Unsubscribe(id)

	if _, open := <-ch; open {
		t.Error("channel should be closed after Unsubscribe")
	}
	if h.Subscribers() != 0 {
		t.Errorf("Subscribers = %d, want 0", h.Subscribers())
	}

	h.Unsubscribe(id) // second call is a no-op
}

func TestPublish_SlowSubscriberSkipped(t *testing.T) {
	h := NewHub()

	_, slow := h.Subscribe()

	// Fill the slow subscriber's buffer
	for i := 0; i < cap(slow); i++ {
		h.Publish(RefreshAll)
	}

	if delivered := h.Publish("one more"); delivered != 0 {
		t.Errorf("delivered = %d, want 0 (full buffer is skipped, not blocked on)", delivered)
	}
}
