package memory

import (
	"context"
	"testing"
	"time"

	"cardquery/internal/domain/models"
)

func TestIdentityStore_Contract(t *testing.T) {
	ctx := context.Background()
	store := NewIdentityStore("trial-key")

	if ok, _ := store.IsValid(ctx, "trial-key"); !ok {
		t.Error("seeded key should be valid")
	}
	if ok, _ := store.IsValid(ctx, "missing"); ok {
		t.Error("unknown key reported valid")
	}

	lic := &models.License{Key: "k1", Email: "a@example.com", SessionID: "cs_1", CreatedAt: time.Now()}
	added, err := store.Add(ctx, lic)
	if err != nil || !added {
		t.Fatalf("Add = %v, %v", added, err)
	}
	if added, _ := store.Add(ctx, lic); added {
		t.Error("duplicate key must not be added twice")
	}

	if key, _ := store.FindByEmail(ctx, "a@example.com"); key != "k1" {
		t.Errorf("FindByEmail = %q", key)
	}
	if key, _ := store.FindByEmail(ctx, "b@example.com"); key != "" {
		t.Errorf("FindByEmail unknown = %q", key)
	}
	if key, _ := store.FindBySession(ctx, "cs_1"); key != "k1" {
		t.Errorf("FindBySession = %q", key)
	}

	if err := store.LinkSession(ctx, "cs_2", "k1"); err != nil {
		t.Fatalf("LinkSession: %v", err)
	}
	if key, _ := store.FindBySession(ctx, "cs_2"); key != "k1" {
		t.Errorf("linked session = %q", key)
	}

	if n, _ := store.Count(ctx); n != 2 {
		t.Errorf("Count = %d, want 2", n)
	}
	if err := store.Ping(ctx); err != nil {
		t.Errorf("Ping: %v", err)
	}
}

func TestIdentityStore_FirstEmailWins(t *testing.T) {
	ctx := context.Background()
	store := NewIdentityStore()

	_, _ = store.Add(ctx, &models.License{Key: "k1", Email: "a@example.com"})
	added, err := store.Add(ctx, &models.License{Key: "k2", Email: "a@example.com"})
	if err != nil || added {
		t.Fatalf("second license for the same email: Add = %v, %v", added, err)
	}

	if key, _ := store.FindByEmail(ctx, "a@example.com"); key != "k1" {
		t.Errorf("FindByEmail = %q, want k1", key)
	}
	if ok, _ := store.IsValid(ctx, "k2"); ok {
		t.Error("losing key must not become valid")
	}
}

func TestIdentityStore_EmptyEmailsDoNotCollide(t *testing.T) {
	ctx := context.Background()
	store := NewIdentityStore()

	for _, k := range []string{"t1", "t2"} {
		if added, _ := store.Add(ctx, &models.License{Key: k}); !added {
			t.Errorf("license %s without email was rejected", k)
		}
	}
}
