package events

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery-dispatch-service/internal/ports"
)

func testRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func testLog() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func TestRedisBusFanOut(t *testing.T) {
	rdb := testRedis(t)
	defer rdb.Close()

	bus := NewRedisBus(rdb, "", testLog())
	ctx := context.Background()

	received := make(chan ports.Change, 4)
	unsub, err := bus.Subscribe(ctx, func(ch ports.Change) { received <- ch })
	require.NoError(t, err)
	defer unsub()

	want := ports.NewChange(ports.EntityTask, 42)
	require.NoError(t, bus.Publish(ctx, want))

	select {
	case got := <-received:
		assert.Equal(t, want, got)
	case <-time.After(2 * time.Second):
		t.Fatal("change event not delivered")
	}
}

func TestRedisBusMultipleSubscribers(t *testing.T) {
	rdb := testRedis(t)
	defer rdb.Close()

	bus := NewRedisBus(rdb, "", testLog())
	ctx := context.Background()

	a := make(chan ports.Change, 1)
	b := make(chan ports.Change, 1)

	unsubA, err := bus.Subscribe(ctx, func(ch ports.Change) { a <- ch })
	require.NoError(t, err)
	defer unsubA()
	unsubB, err := bus.Subscribe(ctx, func(ch ports.Change) { b <- ch })
	require.NoError(t, err)
	defer unsubB()

	require.NoError(t, bus.Publish(ctx, ports.NewChange(ports.EntityRoute, 7)))

	for name, c := range map[string]chan ports.Change{"a": a, "b": b} {
		select {
		case got := <-c:
			assert.Equal(t, ports.EntityRoute, got.Entity)
			assert.Equal(t, int64(7), got.ID)
		case <-time.After(2 * time.Second):
			t.Fatalf("subscriber %s missed the event", name)
		}
	}
}

func TestMemoryBusDeliversAndUnsubscribes(t *testing.T) {
	bus := NewMemoryBus()
	ctx := context.Background()

	var got []ports.Change
	unsub, err := bus.Subscribe(ctx, func(ch ports.Change) { got = append(got, ch) })
	require.NoError(t, err)

	require.NoError(t, bus.Publish(ctx, ports.NewChange(ports.EntityTask, 1)))
	require.Len(t, got, 1)

	unsub()
	require.NoError(t, bus.Publish(ctx, ports.NewChange(ports.EntityTask, 2)))
	assert.Len(t, got, 1, "no delivery after unsubscribe")
}
