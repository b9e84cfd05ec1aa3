package keys

import (
	"errors"
	"sync"
	"testing"
)

func TestRegistry_Empty(t *testing.T) {
	r := NewRegistry()
	if r.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", r.Len())
	}
	if _, err := r.Get("any"); !errors.Is(err, ErrUndefinedKey) {
		t.Fatalf("expected ErrUndefinedKey, got %v", err)
	}
}

func TestRegistry_SetAndGet(t *testing.T) {
	r := NewRegistry()
	state := r.Set(map[string]string{"userToken": "u-secret", "adminToken": "a-secret"})
	if len(state) != 2 {
		t.Fatalf("expected 2 entries in returned state, got %d", len(state))
	}
	got, err := r.Get("adminToken")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != "a-secret" {
		t.Errorf("expected a-secret, got %q", got)
	}
}

func TestRegistry_ReplaceNotMerge(t *testing.T) {
	r := NewRegistry()
	r.Set(map[string]string{"A": "x"})
	r.Set(map[string]string{"B": "y"})

	if r.Has("A") {
		t.Error("A should be gone after replacement")
	}
	if !r.Has("B") {
		t.Error("B should be registered")
	}
}

func TestRegistry_EmptySecretIsUndefined(t *testing.T) {
	r := NewRegistry()
	r.Set(map[string]string{"blank": ""})
	if _, err := r.Get("blank"); !errors.Is(err, ErrUndefinedKey) {
		t.Fatalf("expected ErrUndefinedKey for empty secret, got %v", err)
	}
}

func TestRegistry_InputIsCopied(t *testing.T) {
	r := NewRegistry()
	in := map[string]string{"A": "x"}
	r.Set(in)
	in["A"] = "mutated"
	in["B"] = "added"

	if got, _ := r.Get("A"); got != "x" {
		t.Errorf("expected x, got %q", got)
	}
	if r.Has("B") {
		t.Error("caller mutation leaked into registry")
	}
}

func TestRegistry_SnapshotIsCopy(t *testing.T) {
	r := NewRegistry()
	r.Set(map[string]string{"A": "x"})
	snap := r.Snapshot()
	snap["A"] = "changed"
	if got, _ := r.Get("A"); got != "x" {
		t.Errorf("snapshot mutation leaked, got %q", got)
	}
}

func TestRegistry_Names(t *testing.T) {
	r := NewRegistry()
	r.Set(map[string]string{"c": "1", "a": "2", "b": "3"})
	names := r.Names()
	want := []string{"a", "b", "c"}
	if len(names) != len(want) {
		t.Fatalf("expected %v, got %v", want, names)
	}
	for i := range want {
		if names[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, names)
		}
	}
}

func TestRegistry_SetNil(t *testing.T) {
	r := NewRegistry()
	r.Set(map[string]string{"A": "x"})
	r.Set(nil)
	if r.Len() != 0 {
		t.Errorf("expected empty registry, got %d", r.Len())
	}
}

func TestRegistry_ConcurrentReadersSeeWholeTables(t *testing.T) {
	r := NewRegistry()
	r.Set(map[string]string{"A": "1", "B": "1"})

	var wg sync.WaitGroup
	stop := make(chan struct{})
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				snap := r.Snapshot()
				if snap["A"] != snap["B"] {
					t.Errorf("observed torn table: %v", snap)
					return
				}
			}
		}()
	}
	for i := 0; i < 200; i++ {
		v := string(rune('a' + i%26))
		r.Set(map[string]string{"A": v, "B": v})
	}
	close(stop)
	wg.Wait()
}
