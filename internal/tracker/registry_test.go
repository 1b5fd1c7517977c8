package tracker

import (
	"context"
	"testing"
	"time"
)

func TestMemoryRegistryAdmitOnce(t *testing.T) {
	r := NewMemoryRegistry(100)
	ctx := context.Background()

	ok, err := r.Admit(ctx, "k1", time.Hour)
	if err != nil || !ok {
		t.Fatalf("first Admit = %v, %v; want true", ok, err)
	}
	ok, err = r.Admit(ctx, "k1", time.Hour)
	if err != nil || ok {
		t.Fatalf("second Admit = %v, %v; want false", ok, err)
	}
}

func TestMemoryRegistryExpiry(t *testing.T) {
	r := NewMemoryRegistry(100)
	now := time.Unix(1714000000, 0)
	r.now = func() time.Time { return now }
	ctx := context.Background()

	if ok, _ := r.Admit(ctx, "k1", time.Minute); !ok {
		t.Fatal("first Admit = false")
	}

	now = now.Add(30 * time.Second)
	if ok, _ := r.Admit(ctx, "k1", time.Minute); ok {
		t.Fatal("Admit before expiry = true")
	}

	now = now.Add(31 * time.Second)
	if ok, _ := r.Admit(ctx, "k1", time.Minute); !ok {
		t.Fatal("Admit after expiry = false, want readmitted")
	}
}

func TestMemoryRegistryEvictionSkipsReadmittedKeys(t *testing.T) {
	r := NewMemoryRegistry(2)
	now := time.Unix(1714000000, 0)
	r.now = func() time.Time { return now }
	ctx := context.Background()

	if ok, _ := r.Admit(ctx, "a", time.Minute); !ok {
		t.Fatal("Admit(a) = false")
	}
	if ok, _ := r.Admit(ctx, "b", time.Hour); !ok {
		t.Fatal("Admit(b) = false")
	}

	// "a" expires and is admitted again, leaving a stale slot ahead of "b".
	now = now.Add(2 * time.Minute)
	if ok, _ := r.Admit(ctx, "a", time.Hour); !ok {
		t.Fatal("Admit(a) after expiry = false")
	}

	// At capacity the eviction victim must be "b", the oldest live key, not
	// the freshly re-admitted "a" behind its stale slot.
	if ok, _ := r.Admit(ctx, "c", time.Hour); !ok {
		t.Fatal("Admit(c) = false")
	}
	if ok, _ := r.Admit(ctx, "a", time.Hour); ok {
		t.Error("fresh key was evicted through its stale slot")
	}
	if ok, _ := r.Admit(ctx, "b", time.Hour); !ok {
		t.Error("oldest live key survived eviction")
	}
}

func TestMemoryRegistryCapacityEviction(t *testing.T) {
	r := NewMemoryRegistry(3)
	ctx := context.Background()

	for _, k := range []string{"a", "b", "c"} {
		if ok, _ := r.Admit(ctx, k, time.Hour); !ok {
			t.Fatalf("Admit(%q) = false", k)
		}
	}
	if r.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", r.Len())
	}

	// Fourth key evicts the oldest.
	if ok, _ := r.Admit(ctx, "d", time.Hour); !ok {
		t.Fatal("Admit(d) = false")
	}
	if r.Len() != 3 {
		t.Fatalf("Len() after eviction = %d, want 3", r.Len())
	}
	if ok, _ := r.Admit(ctx, "a", time.Hour); !ok {
		t.Error("evicted key not readmittable")
	}
	if ok, _ := r.Admit(ctx, "c", time.Hour); ok {
		t.Error("recent key was evicted")
	}
}
