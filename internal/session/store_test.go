package session

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return NewRedisStore(rdb)
}

func testStores(t *testing.T) map[string]Store {
	return map[string]Store{
		"redis":  newTestRedisStore(t),
		"memory": NewMemoryStore(),
	}
}

func TestStoreAnchorIsStable(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			first := time.Date(2025, 4, 7, 10, 0, 0, 0, time.UTC)

			got, err := store.GetOrCreateAnchor(ctx, "quiz-1", 42, first)
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(first) {
				t.Fatalf("seeded anchor = %v, want %v", got, first)
			}

			// A later call with a different instant must not move the anchor.
			later := first.Add(10 * time.Minute)
			got, err = store.GetOrCreateAnchor(ctx, "quiz-1", 42, later)
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(first) {
				t.Fatalf("anchor moved to %v after reseed attempt", got)
			}

			// Other participants and quizzes are independent.
			got, err = store.GetOrCreateAnchor(ctx, "quiz-1", 43, later)
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(later) {
				t.Fatalf("second participant's anchor = %v, want %v", got, later)
			}
		})
	}
}

func TestStoreStateRoundTrip(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()

			st, err := store.State(ctx, "quiz-1", 42)
			if err != nil {
				t.Fatal(err)
			}
			if !st.Anchor.IsZero() || st.WarningBudget != InitialWarningBudget || st.ReloadCount != 0 {
				t.Fatalf("fresh state = %+v", st)
			}

			anchor := time.Date(2025, 4, 7, 10, 0, 0, 0, time.UTC)
			if _, err := store.GetOrCreateAnchor(ctx, "quiz-1", 42, anchor); err != nil {
				t.Fatal(err)
			}
			if err := store.SetWarningBudget(ctx, "quiz-1", 42, 2.5); err != nil {
				t.Fatal(err)
			}
			if n, err := store.IncrementReload(ctx, "quiz-1", 42); err != nil || n != 1 {
				t.Fatalf("IncrementReload = %d, %v", n, err)
			}

			st, err = store.State(ctx, "quiz-1", 42)
			if err != nil {
				t.Fatal(err)
			}
			if !st.Anchor.Equal(anchor) {
				t.Fatalf("anchor = %v, want %v", st.Anchor, anchor)
			}
			if st.WarningBudget != 2.5 {
				t.Fatalf("budget = %v, want 2.5", st.WarningBudget)
			}
			if st.ReloadCount != 1 {
				t.Fatalf("reloads = %d, want 1", st.ReloadCount)
			}
		})
	}
}

func TestStoreResetClearsState(t *testing.T) {
	for name, store := range testStores(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			anchor := time.Date(2025, 4, 7, 10, 0, 0, 0, time.UTC)

			if _, err := store.GetOrCreateAnchor(ctx, "quiz-1", 42, anchor); err != nil {
				t.Fatal(err)
			}
			if err := store.SetWarningBudget(ctx, "quiz-1", 42, 0.5); err != nil {
				t.Fatal(err)
			}
			if err := store.Reset(ctx, "quiz-1", 42); err != nil {
				t.Fatal(err)
			}

			st, err := store.State(ctx, "quiz-1", 42)
			if err != nil {
				t.Fatal(err)
			}
			if !st.Anchor.IsZero() {
				t.Fatalf("anchor survived reset: %v", st.Anchor)
			}
			if st.WarningBudget != InitialWarningBudget {
				t.Fatalf("budget after reset = %v, want %v", st.WarningBudget, InitialWarningBudget)
			}

			// A fresh attempt can seed a brand-new anchor.
			next := anchor.Add(time.Hour)
			got, err := store.GetOrCreateAnchor(ctx, "quiz-1", 42, next)
			if err != nil {
				t.Fatal(err)
			}
			if !got.Equal(next) {
				t.Fatalf("post-reset anchor = %v, want %v", got, next)
			}
		})
	}
}
