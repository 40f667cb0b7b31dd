package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newRedisPersistenceTest(t *testing.T, clientID string) (*RedisPersistence, *miniredis.Miniredis, func()) {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis start: %v", err)
	}
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	p := NewRedisPersistence(rdb, "mk", clientID, time.Hour)
	return p, mr, func() {
		_ = rdb.Close()
		mr.Close()
	}
}

func TestRedisPersistenceWriteReadRemove(t *testing.T) {
	p, mr, done := newRedisPersistenceTest(t, "c-1")
	defer done()
	ctx := context.Background()

	payload, _ := EncodeUser(testUser(Seller))
	if err := p.Write(ctx, Record{Token: "tok", User: payload}); err != nil {
		t.Fatalf("write failed: %v", err)
	}
	if got, _ := mr.Get("mk:c-1:token"); got != "tok" {
		t.Fatalf("expected token slot, got %q", got)
	}
	if ttl := mr.TTL("mk:c-1:user"); ttl != time.Hour {
		t.Fatalf("expected user slot ttl 1h, got %v", ttl)
	}

	rec, err := p.Read(ctx)
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if rec.Token != "tok" || rec.User != payload {
		t.Fatalf("unexpected record %+v", rec)
	}

	if err := p.Remove(ctx); err != nil {
		t.Fatalf("remove failed: %v", err)
	}
	if mr.Exists("mk:c-1:token") || mr.Exists("mk:c-1:user") {
		t.Fatal("expected both slots removed")
	}
	if err := p.Remove(ctx); err != nil {
		t.Fatalf("second remove failed: %v", err)
	}
}

func TestRedisPersistenceReadMissingIsEmpty(t *testing.T) {
	p, _, done := newRedisPersistenceTest(t, "c-2")
	defer done()

	rec, err := p.Read(context.Background())
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if !rec.Empty() {
		t.Fatalf("expected empty record, got %+v", rec)
	}
}

func TestStoreHydratePurgesCorruptRedisRecord(t *testing.T) {
	p, mr, done := newRedisPersistenceTest(t, "c-3")
	defer done()

	_ = mr.Set("mk:c-3:token", "tok")
	_ = mr.Set("mk:c-3:user", "garbage")

	s := newTestStore(t, p)
	s.Hydrate(context.Background())

	if s.IsAuthenticated() {
		t.Fatal("expected empty session")
	}
	if mr.Exists("mk:c-3:token") || mr.Exists("mk:c-3:user") {
		t.Fatal("expected corrupt record purged from redis")
	}
}

func TestStoreSurvivesRedisOutage(t *testing.T) {
	p, mr, done := newRedisPersistenceTest(t, "c-4")
	defer done()

	s := newTestStore(t, p)
	s.Hydrate(context.Background())
	mr.Close()

	if err := s.Login(context.Background(), testUser(Buyer), "tok"); err != nil {
		t.Fatalf("login must not fail on outage: %v", err)
	}
	if !s.IsAuthenticated() {
		t.Fatal("expected in-memory session during outage")
	}
	s.Logout(context.Background())
	if s.IsAuthenticated() {
		t.Fatal("expected logout during outage")
	}
}
