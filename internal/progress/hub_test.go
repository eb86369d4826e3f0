package progress

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch <-chan Snapshot) Snapshot {
	t.Helper()
	select {
	case snap := <-ch:
		return snap
	case <-time.After(time.Second):
		t.Fatal("no snapshot received")
		return Snapshot{}
	}
}

func TestPublishReachesSubscribers(t *testing.T) {
	hub := NewHub()

	first, cancelFirst := hub.Subscribe("a-1")
	defer cancelFirst()
	second, cancelSecond := hub.Subscribe("a-1")
	defer cancelSecond()

	hub.Publish(Snapshot{AssessmentID: "a-1", Answered: 3, Total: 5})

	for _, ch := range []<-chan Snapshot{first, second} {
		snap := receive(t, ch)
		assert.Equal(t, "a-1", snap.AssessmentID)
		assert.Equal(t, 3, snap.Answered)
	}
}

func TestPublishScopedToAssessment(t *testing.T) {
	hub := NewHub()

	mine, cancelMine := hub.Subscribe("a-1")
	defer cancelMine()
	other, cancelOther := hub.Subscribe("a-2")
	defer cancelOther()

	hub.Publish(Snapshot{AssessmentID: "a-1", Answered: 1})

	receive(t, mine)
	select {
	case snap := <-other:
		t.Fatalf("subscriber of a-2 received %+v", snap)
	default:
	}
}

func TestSubscribers(t *testing.T) {
	hub := NewHub()
	assert.Equal(t, 0, hub.Subscribers("a-1"))

	_, cancelFirst := hub.Subscribe("a-1")
	_, cancelSecond := hub.Subscribe("a-1")
	assert.Equal(t, 2, hub.Subscribers("a-1"))

	cancelFirst()
	assert.Equal(t, 1, hub.Subscribers("a-1"))

	cancelSecond()
	assert.Equal(t, 0, hub.Subscribers("a-1"))
}

func TestCancelClosesChannel(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("a-1")

	cancel()

	_, open := <-ch
	assert.False(t, open)

	// Cancelling twice must not panic or close twice.
	cancel()
	assert.Equal(t, 0, hub.Subscribers("a-1"))
}

func TestPublishNeverBlocks(t *testing.T) {
	hub := NewHub()
	ch, cancel := hub.Subscribe("a-1")
	defer cancel()

	// Overfill the subscriber buffer; the extra publishes are dropped.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 20; i++ {
			hub.Publish(Snapshot{AssessmentID: "a-1", Answered: i})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}

	require.Equal(t, 8, len(ch), "buffer holds the first snapshots, later ones drop")
	snap := receive(t, ch)
	assert.Equal(t, 0, snap.Answered)
}

func TestPublishWithoutSubscribers(t *testing.T) {
	hub := NewHub()
	hub.Publish(Snapshot{AssessmentID: "nobody-listening"})
	assert.Equal(t, 0, hub.Subscribers("nobody-listening"))
}
