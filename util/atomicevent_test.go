package util

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNewAtomicEvent(t *testing.T) {
	ae := NewAtomicEvent[int]()
	assert.NotNil(t, ae)
	assert.NotNil(t, ae.notify)
	assert.False(t, ae.HasPending())
}

func TestSendAndValue(t *testing.T) {
	ae := NewAtomicEvent[string]()
	ae.Send("hello")
	assert.Equal(t, "hello", ae.Value())

	ae.Send("world")
	assert.Equal(t, "world", ae.Value(), "only the latest value is retained")
}

func TestNotificationChannelCoalesces(t *testing.T) {
	ae := NewAtomicEvent[int]()

	ae.Send(1)
	ae.Send(2)
	ae.Send(3)

	// A burst of sends produces exactly one pending notification.
	select {
	case <-ae.Channel():
	default:
		t.Fatal("should have received a notification")
	}
	select {
	case <-ae.Channel():
		t.Fatal("burst must coalesce into one notification")
	default:
	}

	assert.Equal(t, 3, ae.Value())
}

func TestHasPending(t *testing.T) {
	ae := NewAtomicEvent[int]()
	assert.False(t, ae.HasPending())

	ae.Send(1)
	assert.True(t, ae.HasPending())

	<-ae.Channel()
	assert.False(t, ae.HasPending())
}

// A consumer that skips stale reads while HasPending reports a newer
// send still ends up rendering the latest value. The TUI watch loops
// lean on this to drop outdated strip buffers.
func TestHasPendingSkipsStaleReads(t *testing.T) {
	ae := NewAtomicEvent[string]()

	ae.Send("stale")
	<-ae.Channel()
	ae.Send("fresh")

	// A newer send arrived after the receive, so the skipped read
	// loses nothing: another notification is already queued.
	assert.True(t, ae.HasPending())

	<-ae.Channel()
	assert.False(t, ae.HasPending())
	assert.Equal(t, "fresh", ae.Value())
}

func TestConcurrentSends(t *testing.T) {
	ae := NewAtomicEvent[int]()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(v int) {
			defer wg.Done()
			ae.Send(v)
		}(i)
	}
	wg.Wait()

	// Whatever arrived last, the mailbox is consistent and pending.
	assert.True(t, ae.HasPending())
	v := ae.Value()
	assert.GreaterOrEqual(t, v, 0)
	assert.Less(t, v, 50)
}
