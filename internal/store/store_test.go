package store

import (
	"context"
	"path/filepath"
	"testing"
	"time"
)

// kvContract exercises the KV behaviors every backend must share.
func kvContract(t *testing.T, kv KV) {
	t.Helper()
	ctx := context.Background()

	_, found, err := kv.Get(ctx, "missing")
	if err != nil {
		t.Fatal(err)
	}
	if found {
		t.Error("missing key reported found")
	}

	if err := kv.Put(ctx, "doc", []byte(`{"v":1}`)); err != nil {
		t.Fatal(err)
	}
	raw, found, err := kv.Get(ctx, "doc")
	if err != nil {
		t.Fatal(err)
	}
	if !found || string(raw) != `{"v":1}` {
		t.Errorf("got %q found=%v", raw, found)
	}

	// Put is an upsert.
	if err := kv.Put(ctx, "doc", []byte(`{"v":2}`)); err != nil {
		t.Fatal(err)
	}
	raw, _, _ = kv.Get(ctx, "doc")
	if string(raw) != `{"v":2}` {
		t.Errorf("after upsert got %q", raw)
	}

	if err := kv.Delete(ctx, "doc"); err != nil {
		t.Fatal(err)
	}
	_, found, _ = kv.Get(ctx, "doc")
	if found {
		t.Error("deleted key still found")
	}

	// Deleting an absent key succeeds.
	if err := kv.Delete(ctx, "doc"); err != nil {
		t.Errorf("delete of absent key: %v", err)
	}
}

func TestMemory_Contract(t *testing.T) {
	kvContract(t, NewMemory())
}

func TestSQLite_Contract(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sage.db")
	kv, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer kv.Close()
	kvContract(t, kv)
}

func TestSQLite_PersistsAcrossReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sage.db")
	ctx := context.Background()

	kv, err := OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	if err := kv.Put(ctx, "knowledge/amy", []byte(`{"learner_id":"amy"}`)); err != nil {
		t.Fatal(err)
	}
	if err := kv.Close(); err != nil {
		t.Fatal(err)
	}

	kv, err = OpenSQLite(path)
	if err != nil {
		t.Fatal(err)
	}
	defer kv.Close()
	raw, found, err := kv.Get(ctx, "knowledge/amy")
	if err != nil {
		t.Fatal(err)
	}
	if !found || string(raw) != `{"learner_id":"amy"}` {
		t.Errorf("got %q found=%v after reopen", raw, found)
	}
}

func TestCache_TypedRoundTrip(t *testing.T) {
	type entry struct{ N int }
	c := NewCache[*entry](time.Minute, time.Minute)

	if _, ok := c.Get("a"); ok {
		t.Error("empty cache reported a hit")
	}
	c.Set("a", &entry{N: 7})
	got, ok := c.Get("a")
	if !ok || got.N != 7 {
		t.Errorf("got %+v ok=%v", got, ok)
	}

	c.Delete("a")
	if _, ok := c.Get("a"); ok {
		t.Error("deleted entry still cached")
	}
}

func TestCache_Expiry(t *testing.T) {
	c := NewCache[int](10*time.Millisecond, time.Minute)
	c.Set("a", 1)
	time.Sleep(30 * time.Millisecond)
	if _, ok := c.Get("a"); ok {
		t.Error("expired entry still returned")
	}
}
