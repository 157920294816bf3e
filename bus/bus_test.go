// bus/bus_test.go
package bus

import (
	"testing"
	"time"
)

func TestBasicPubSub(t *testing.T) {
	b := NewBus(4)
	conn := b.NewConnection("test")

	sub := conn.Subscribe(T("cui", "input"))
	conn.Publish(NewMessage(T("cui", "input"), "hello", false))

	select {
	case got := <-sub.Channel():
		if got.Payload.(string) != "hello" {
			t.Errorf("expected payload 'hello', got %v", got.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for message")
	}
}

func TestRetainedMessage(t *testing.T) {
	b := NewBus(2)
	conn := b.NewConnection("test")

	conn.Publish(NewMessage(T("config", "heartbeat"), "persist", true))
	sub := conn.Subscribe(T("config", "heartbeat"))

	select {
	case got := <-sub.Channel():
		if got.Payload.(string) != "persist" {
			t.Errorf("expected retained payload 'persist', got %v", got.Payload)
		}
	case <-time.After(100 * time.Millisecond):
		t.Fatal("timeout waiting for retained message")
	}
}

func TestRetainedClear(t *testing.T) {
	b := NewBus(4)
	c := b.NewConnection("test")

	c.Publish(NewMessage(T("a", "b"), "keep", true))
	c.Publish(NewMessage(T("a", "y"), "other", true))
	c.Publish(NewMessage(T("a", "b"), nil, true))

	s := c.Subscribe(T("a", "#"))
	got := drainPayloads(t, s, 1)
	if len(got) != 1 || got[0] != "other" {
		t.Errorf("expected only 'other', got %v", got)
	}
	expectNoMessage(t, s)
}

func TestWildcards(t *testing.T) {
	b := NewBus(16)
	c := b.NewConnection("test")

	sBtn := c.Subscribe(T("cui", "button", "+"))
	sAll := c.Subscribe(T("cui", "#"))
	sExact := c.Subscribe(T("cui", "input"))

	c.Publish(NewMessage(T("cui", "button", "0"), "b0", false))
	expectOneOf(t, sBtn, "b0")
	expectOneOf(t, sAll, "b0")
	expectNoMessage(t, sExact)

	c.Publish(NewMessage(T("cui", "input"), "in", false))
	expectNoMessage(t, sBtn)
	expectOneOf(t, sAll, "in")
	expectOneOf(t, sExact, "in")
}

func TestMatch(t *testing.T) {
	cases := []struct {
		f, t Topic
		want bool
	}{
		{T("a"), T("a"), true},
		{T("a"), T("a", "b"), false},
		{T("a", "+"), T("a", "b"), true},
		{T("a", "+"), T("a"), false},
		{T("#"), T(), true},
		{T("a", "#"), T("a"), true},
		{T("a", "#"), T("b"), false},
	}
	for _, c := range cases {
		if got := Match(c.f, c.t); got != c.want {
			t.Errorf("Match(%v,%v)=%v want %v", c.f, c.t, got, c.want)
		}
	}
}

func TestQueueDropsOldest(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("test")
	s := c.Subscribe(T("q"))

	for _, p := range []string{"1", "2", "3"} {
		c.Publish(NewMessage(T("q"), p, false))
	}
	got := drainPayloads(t, s, 2)
	if len(got) != 2 || got[0] != "2" || got[1] != "3" {
		t.Errorf("expected [2 3], got %v", got)
	}
}

func TestDisconnectClosesChannels(t *testing.T) {
	b := NewBus(2)
	c := b.NewConnection("test")
	s1 := c.Subscribe(T("x"))
	s2 := c.Subscribe(T("y"))
	c.Disconnect()

	for _, s := range []*Subscription{s1, s2} {
		select {
		case _, ok := <-s.Channel():
			if ok {
				t.Errorf("expected closed channel")
			}
		case <-time.After(100 * time.Millisecond):
			t.Errorf("channel not closed")
		}
	}
	// Publishing after disconnect must not panic.
	c.Publish(NewMessage(T("x"), "late", false))
}

// -----------------------------------------------------------------------------
// helpers
// -----------------------------------------------------------------------------

func expectOneOf(t *testing.T, s *Subscription, want string) {
	t.Helper()
	select {
	case m := <-s.Channel():
		if m.Payload.(string) != want {
			t.Errorf("got %v want %v", m.Payload, want)
		}
	case <-time.After(100 * time.Millisecond):
		t.Errorf("timeout waiting for %q", want)
	}
}

func expectNoMessage(t *testing.T, s *Subscription) {
	t.Helper()
	select {
	case m := <-s.Channel():
		t.Errorf("unexpected message %v", m.Payload)
	case <-time.After(20 * time.Millisecond):
	}
}

func drainPayloads(t *testing.T, s *Subscription, n int) []string {
	t.Helper()
	var out []string
	for i := 0; i < n; i++ {
		select {
		case m := <-s.Channel():
			out = append(out, m.Payload.(string))
		case <-time.After(100 * time.Millisecond):
			return out
		}
	}
	return out
}
