package foodspot

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestMemoryStoreInsertUsesClock(t *testing.T) {
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	store := NewMemoryStore().WithClock(func() time.Time { return fixed })

	l, err := store.Insert(context.Background(), Listing{Title: "Soup", Status: StatusActive})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}
	if !l.CreatedAt.Equal(fixed) || l.ID == "" {
		t.Fatalf("unexpected listing %+v", l)
	}
}

func TestMemoryStoreUpdateKeepsCreatedAt(t *testing.T) {
	created := time.Now().Add(-time.Hour)
	store := NewMemoryStore(Listing{ID: "spot-1", Status: StatusActive, CreatedAt: created})

	if err := store.Update(context.Background(), Listing{ID: "spot-1", Status: StatusFinished, CreatedAt: time.Now()}); err != nil {
		t.Fatalf("update: %v", err)
	}
	l, _ := store.GetByID(context.Background(), "spot-1")
	if !l.CreatedAt.Equal(created) || l.Status != StatusFinished {
		t.Fatalf("unexpected listing %+v", l)
	}
	if err := store.Update(context.Background(), Listing{ID: "missing"}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreBatchUpdateWritesStatusOnly(t *testing.T) {
	created := time.Now().Add(-4 * time.Hour)
	store := NewMemoryStore(Listing{ID: "spot-1", Status: StatusActive, CreatedAt: created, VerificationCount: 2})

	err := store.BatchUpdate(context.Background(), []Listing{{ID: "spot-1", Status: StatusExpired, VerificationCount: 0}})
	if err != nil {
		t.Fatalf("batch update: %v", err)
	}
	l, _ := store.GetByID(context.Background(), "spot-1")
	if l.Status != StatusExpired || l.VerificationCount != 2 {
		t.Fatalf("unexpected listing %+v", l)
	}

	err = store.BatchUpdate(context.Background(), []Listing{{ID: "spot-1", Status: StatusFinished}, {ID: "missing"}})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	l, _ = store.GetByID(context.Background(), "spot-1")
	if l.Status != StatusExpired {
		t.Fatalf("failed batch must not apply partially")
	}
}

func TestMemoryStoreFindByStatusCreatedBefore(t *testing.T) {
	now := time.Now()
	store := NewMemoryStore(
		Listing{ID: "old-active", Status: StatusActive, CreatedAt: now.Add(-4 * time.Hour)},
		Listing{ID: "new-active", Status: StatusActive, CreatedAt: now.Add(-2 * time.Hour)},
		Listing{ID: "old-finished", Status: StatusFinished, CreatedAt: now.Add(-4 * time.Hour)},
	)

	found, err := store.FindByStatusCreatedBefore(context.Background(), StatusActive, now.Add(-3*time.Hour))
	if err != nil {
		t.Fatalf("find: %v", err)
	}
	if len(found) != 1 || found[0].ID != "old-active" {
		t.Fatalf("unexpected result %+v", found)
	}
}

func TestMemoryStoreMutateCallbackErrorLeavesRecord(t *testing.T) {
	store := NewMemoryStore(Listing{ID: "spot-1", Status: StatusActive, VerificationCount: 1})
	boom := errors.New("boom")

	_, err := store.Mutate(context.Background(), "spot-1", func(l *Listing) error {
		l.VerificationCount = 99
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected callback error, got %v", err)
	}
	l, _ := store.GetByID(context.Background(), "spot-1")
	if l.VerificationCount != 1 {
		t.Fatalf("record must be unchanged, got %d", l.VerificationCount)
	}
}
