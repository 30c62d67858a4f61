package cache

import (
	"context"
	"driver-batching-service/internal/domain"
	"errors"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/shopspring/decimal"
)

type countingSource struct {
	calls  int
	orders []*domain.DeliverableOrder
	err    error
}

func (s *countingSource) ListAvailableOrders(context.Context, string) ([]*domain.DeliverableOrder, error) {
	s.calls++
	return s.orders, s.err
}

func newTestCache(t *testing.T, src *countingSource) (*RedisOrderCache, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewRedisOrderCache(client, src, 3*time.Second), mr
}

func testOrders() []*domain.DeliverableOrder {
	return []*domain.DeliverableOrder{
		{
			ID:               "o1",
			RestaurantID:     "r1",
			RestaurantName:   "Dosa Point",
			CreatedAt:        time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC),
			DeliveryLocation: &domain.Coordinates{Lat: 12.9716, Lon: 77.5946},
			ItemCount:        2,
			TotalAmount:      decimal.RequireFromString("18.50"),
		},
		{
			ID:           "o2",
			RestaurantID: "r2",
			CreatedAt:    time.Date(2026, 1, 1, 12, 5, 0, 0, time.UTC),
		},
	}
}

func TestRedisOrderCacheHitAndMiss(t *testing.T) {
	src := &countingSource{orders: testOrders()}
	c, _ := newTestCache(t, src)
	ctx := context.Background()

	first, err := c.ListAvailableOrders(ctx, "d1")
	if err != nil {
		t.Fatalf("first read: %v", err)
	}
	second, err := c.ListAvailableOrders(ctx, "d2")
	if err != nil {
		t.Fatalf("second read: %v", err)
	}

	if src.calls != 1 {
		t.Fatalf("source calls = %d, want 1", src.calls)
	}
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("lengths = %d,%d want 2,2", len(first), len(second))
	}

	got := second[0]
	if got.ID != "o1" || got.DeliveryLocation == nil || got.DeliveryLocation.Lat != 12.9716 {
		t.Fatalf("cached order = %+v", got)
	}
	if !got.TotalAmount.Equal(decimal.RequireFromString("18.5")) {
		t.Fatalf("cached amount = %s", got.TotalAmount)
	}
	if !got.CreatedAt.Equal(first[0].CreatedAt) {
		t.Fatalf("cached created_at = %s", got.CreatedAt)
	}
	if second[1].DeliveryLocation != nil {
		t.Fatal("missing location must stay missing after a round trip")
	}
}

func TestRedisOrderCacheExpires(t *testing.T) {
	src := &countingSource{orders: testOrders()}
	c, mr := newTestCache(t, src)
	ctx := context.Background()

	if _, err := c.ListAvailableOrders(ctx, "d1"); err != nil {
		t.Fatalf("read: %v", err)
	}
	mr.FastForward(4 * time.Second)
	if _, err := c.ListAvailableOrders(ctx, "d1"); err != nil {
		t.Fatalf("read: %v", err)
	}

	if src.calls != 2 {
		t.Fatalf("source calls = %d, want 2 after ttl", src.calls)
	}
}

func TestRedisOrderCacheInvalidate(t *testing.T) {
	src := &countingSource{orders: testOrders()}
	c, mr := newTestCache(t, src)
	ctx := context.Background()

	if _, err := c.ListAvailableOrders(ctx, "d1"); err != nil {
		t.Fatalf("read: %v", err)
	}
	if err := c.Invalidate(ctx, "d1"); err != nil {
		t.Fatalf("invalidate: %v", err)
	}
	if mr.Exists(DefaultPoolKey) {
		t.Fatal("key still present after invalidate")
	}
	if _, err := c.ListAvailableOrders(ctx, "d1"); err != nil {
		t.Fatalf("read: %v", err)
	}
	if src.calls != 2 {
		t.Fatalf("source calls = %d, want 2", src.calls)
	}
}

func TestRedisOrderCacheDegradesWhenRedisDown(t *testing.T) {
	src := &countingSource{orders: testOrders()}
	c, mr := newTestCache(t, src)
	mr.Close()

	orders, err := c.ListAvailableOrders(context.Background(), "d1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders) != 2 || src.calls != 1 {
		t.Fatalf("orders=%d calls=%d, want a direct read", len(orders), src.calls)
	}
}

func TestRedisOrderCacheSourceError(t *testing.T) {
	boom := errors.New("db down")
	c, mr := newTestCache(t, &countingSource{err: boom})

	if _, err := c.ListAvailableOrders(context.Background(), "d1"); !errors.Is(err, boom) {
		t.Fatalf("err = %v, want wrapped source error", err)
	}
	if mr.Exists(DefaultPoolKey) {
		t.Fatal("failed load must not be cached")
	}
}

func TestRedisOrderCacheDiscardsCorruptSnapshot(t *testing.T) {
	src := &countingSource{orders: testOrders()}
	c, mr := newTestCache(t, src)
	if err := mr.Set(DefaultPoolKey, "{not json"); err != nil {
		t.Fatalf("seed corrupt value: %v", err)
	}

	orders, err := c.ListAvailableOrders(context.Background(), "d1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(orders) != 2 || src.calls != 1 {
		t.Fatalf("orders=%d calls=%d", len(orders), src.calls)
	}
}
