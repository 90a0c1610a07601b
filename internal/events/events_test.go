package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/yoruboku/alarm2/internal/domain"
)

// TestBus_FanOutAndFilter delivers to all subscribers honouring kind filters.
func TestBus_FanOutAndFilter(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	all, unsubAll := bus.Subscribe(4)
	rings, unsubRings := bus.Subscribe(4, KindAlarmFiring)

	defer unsubAll()
	defer unsubRings()

	now := time.Now()
	bus.Publish(TimerFinished{TimerID: "t1", At: now})
	bus.Publish(AlarmFiring{Alarm: domain.Alarm{ID: "a1"}, CodeLength: 4, At: now})

	require.Equal(t, KindTimerFinished, (<-all).Kind())
	require.Equal(t, KindAlarmFiring, (<-all).Kind())

	got := <-rings
	firing, ok := got.(AlarmFiring)
	require.True(t, ok)
	require.Equal(t, "a1", firing.Alarm.ID)
	require.Equal(t, now, firing.OccurredAt())
	require.Empty(t, rings)
}

// TestBus_DropsWhenFull never blocks the publisher.
func TestBus_DropsWhenFull(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	ch, unsubscribe := bus.Subscribe(1)

	bus.Publish(TimerTick{TimerID: "t"})
	bus.Publish(TimerTick{TimerID: "t"})

	require.Len(t, ch, 1)
	require.Equal(t, 1, bus.Dropped())

	unsubscribe()
	unsubscribe()

	_, open := <-ch
	require.True(t, open, "buffered event is still readable")

	_, open = <-ch
	require.False(t, open)
}

// TestBus_Close closes every subscriber.
func TestBus_Close(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	ch, unsubscribe := bus.Subscribe(1)
	require.Equal(t, 1, bus.Subscribers())

	bus.Close()
	require.Zero(t, bus.Subscribers())
	unsubscribe()

	_, open := <-ch
	require.False(t, open)

	late, _ := bus.Subscribe(1)
	_, open = <-late
	require.False(t, open)

	// Publishing after close is a no-op.
	bus.Publish(TimerTick{})
}
