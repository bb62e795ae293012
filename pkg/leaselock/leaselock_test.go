package leaselock

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

type row struct {
	key string
	err error
}

func (r row) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.key
	return nil
}

// memDB keeps lock holders in memory and mimics the three statements.
type memDB struct {
	mu      sync.Mutex
	holders map[string]string
	renews  int
}

func newMemDB() *memDB {
	return &memDB{holders: map[string]string{}}
}

func (m *memDB) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	m.mu.Lock()
	defer m.mu.Unlock()

	key := args[0].(string)
	token := args[1].(string)
	holder, held := m.holders[key]

	switch sql {
	case tryAcquireSQL:
		if held && holder != token {
			return row{err: pgx.ErrNoRows}
		}
		m.holders[key] = token
		return row{key: key}
	case renewSQL:
		m.renews++
		if !held || holder != token {
			return row{err: pgx.ErrNoRows}
		}
		return row{key: key}
	}
	return row{err: errors.New("unexpected statement")}
}

func (m *memDB) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if sql != releaseSQL {
		return pgconn.CommandTag{}, errors.New("unexpected statement")
	}
	key := args[0].(string)
	if m.holders[key] == args[1].(string) {
		delete(m.holders, key)
		return pgconn.NewCommandTag("DELETE 1"), nil
	}
	return pgconn.NewCommandTag("DELETE 0"), nil
}

func (m *memDB) steal(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.holders[key] = "someone-else"
}

func TestAcquire_BusyWhileHeld(t *testing.T) {
	db := newMemDB()
	c := New(db)
	ctx := context.Background()

	lease, err := c.Acquire(ctx, GraphBuildKey, Options{})
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	if _, err := c.Acquire(ctx, GraphBuildKey, Options{}); !errors.Is(err, ErrBusy) {
		t.Fatalf("second Acquire() error = %v, want ErrBusy", err)
	}

	if err := lease.Release(ctx); err != nil {
		t.Fatalf("Release() error = %v", err)
	}
	if lease.Context.Err() == nil {
		t.Errorf("lease context not cancelled after release")
	}

	again, err := c.Acquire(ctx, GraphBuildKey, Options{})
	if err != nil {
		t.Fatalf("Acquire() after release error = %v", err)
	}
	_ = again.Release(ctx)
}

func TestAcquire_EmptyKey(t *testing.T) {
	if _, err := New(newMemDB()).Acquire(context.Background(), "", Options{}); err == nil {
		t.Fatalf("Acquire() expected error for empty key")
	}
}

func TestAcquire_TokenPrefix(t *testing.T) {
	lease, err := New(newMemDB()).Acquire(context.Background(), "k", Options{TokenPrefix: "worker-"})
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	defer lease.Release(context.Background())

	if len(lease.Token) <= len("worker-") || lease.Token[:7] != "worker-" {
		t.Errorf("token %q missing prefix", lease.Token)
	}
}

func TestAcquire_WaitStopsOnContext(t *testing.T) {
	db := newMemDB()
	db.steal("k")

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := New(db).Acquire(ctx, "k", Options{Wait: true, WaitInterval: 5 * time.Millisecond})
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Fatalf("Acquire() error = %v, want deadline exceeded", err)
	}
}

func TestWithLease_ReleasesAfterRun(t *testing.T) {
	db := newMemDB()
	c := New(db)

	ran := false
	err := c.WithLease(context.Background(), GraphBuildKey, Options{}, func(ctx context.Context) error {
		ran = true
		if ctx.Err() != nil {
			t.Errorf("lease context cancelled during run")
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WithLease() error = %v", err)
	}
	if !ran {
		t.Fatalf("WithLease() did not run fn")
	}
	if _, held := db.holders[GraphBuildKey]; held {
		t.Errorf("lock still held after WithLease")
	}
}

func TestWithLease_ReportsLostLease(t *testing.T) {
	db := newMemDB()
	c := New(db)

	opts := Options{TTL: 2 * time.Second, RenewEvery: 10 * time.Millisecond}
	err := c.WithLease(context.Background(), "k", opts, func(ctx context.Context) error {
		db.steal("k")
		<-ctx.Done()
		return ctx.Err()
	})
	if !errors.Is(err, ErrLost) {
		t.Fatalf("WithLease() error = %v, want ErrLost", err)
	}
}

func TestOptionsDefaults(t *testing.T) {
	o := Options{TTL: time.Minute, RenewEvery: 2 * time.Minute}.withDefaults()
	if o.RenewEvery != 30*time.Second {
		t.Errorf("RenewEvery = %v, want 30s", o.RenewEvery)
	}
	if o.WaitInterval != 250*time.Millisecond {
		t.Errorf("WaitInterval = %v, want 250ms", o.WaitInterval)
	}

	d := Options{}.withDefaults()
	if d.TTL != 5*time.Minute || d.RenewEvery != 150*time.Second {
		t.Errorf("defaults = %+v", d)
	}
}
