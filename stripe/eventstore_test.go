package stripe

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	qt "github.com/frankban/quicktest"
	goredis "github.com/redis/go-redis/v9"
)

func TestMemoryEventStoreClaimRelease(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	store := NewMemoryEventStore(time.Hour)

	claimed, err := store.Claim(ctx, "evt_1")
	c.Assert(err, qt.IsNil)
	c.Assert(claimed, qt.IsTrue)

	// second delivery of the same event must not win the claim
	claimed, err = store.Claim(ctx, "evt_1")
	c.Assert(err, qt.IsNil)
	c.Assert(claimed, qt.IsFalse)
	c.Assert(store.Size(), qt.Equals, 1)

	c.Assert(store.Release(ctx, "evt_1"), qt.IsNil)
	claimed, err = store.Claim(ctx, "evt_1")
	c.Assert(err, qt.IsNil)
	c.Assert(claimed, qt.IsTrue)
}

func TestMemoryEventStoreClose(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	store := NewMemoryEventStore(time.Hour)

	claimed, err := store.Claim(ctx, "evt_1")
	c.Assert(err, qt.IsNil)
	c.Assert(claimed, qt.IsTrue)

	store.Close()
	// Close is idempotent and the store stays usable for claims
	store.Close()

	claimed, err = store.Claim(ctx, "evt_2")
	c.Assert(err, qt.IsNil)
	c.Assert(claimed, qt.IsTrue)
}

func newMiniRedisClient(t *testing.T) (*miniredis.Miniredis, *goredis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	return mr, goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
}

func TestRedisEventStoreClaimRelease(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	_, client := newMiniRedisClient(t)
	defer func() { _ = client.Close() }()

	store := NewRedisEventStore(client, time.Hour)

	claimed, err := store.Claim(ctx, "evt_1")
	c.Assert(err, qt.IsNil)
	c.Assert(claimed, qt.IsTrue)

	claimed, err = store.Claim(ctx, "evt_1")
	c.Assert(err, qt.IsNil)
	c.Assert(claimed, qt.IsFalse)

	c.Assert(store.Release(ctx, "evt_1"), qt.IsNil)
	claimed, err = store.Claim(ctx, "evt_1")
	c.Assert(err, qt.IsNil)
	c.Assert(claimed, qt.IsTrue)
}

func TestRedisEventStoreClaimExpires(t *testing.T) {
	c := qt.New(t)
	ctx := context.Background()
	mr, client := newMiniRedisClient(t)
	defer func() { _ = client.Close() }()

	store := NewRedisEventStore(client, time.Minute)

	claimed, err := store.Claim(ctx, "evt_1")
	c.Assert(err, qt.IsNil)
	c.Assert(claimed, qt.IsTrue)

	mr.FastForward(2 * time.Minute)

	// after the retention window the id can be claimed again; by then the
	// provider has stopped redelivering
	claimed, err = store.Claim(ctx, "evt_1")
	c.Assert(err, qt.IsNil)
	c.Assert(claimed, qt.IsTrue)
}
