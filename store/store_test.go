package store

import (
	"errors"
	"sync"
	"testing"

	"github.com/ardnew/runmd/attr"
)

func TestKeyTransmute(t *testing.T) {
	host := NewHost()

	textKey := KeyOf("app/example.resource", attr.TypeText)
	if err := host.Put(textKey, attr.NewText("payload")); err != nil {
		t.Fatalf("put: %v", err)
	}

	binKey := textKey.Transmute(attr.TypeBin)
	if binKey.Hash() != textKey.Hash() {
		t.Fatal("transmute must preserve the identity hash")
	}

	if err := host.Put(binKey, attr.NewBin([]byte{1, 2, 3})); err != nil {
		t.Fatalf("put transmuted: %v", err)
	}

	// Original-type readers stay valid.
	got, err := host.Get(textKey)
	if err != nil {
		t.Fatalf("get original: %v", err)
	}

	if got.Str != "payload" {
		t.Errorf("expected %q, got %q", "payload", got.Str)
	}

	got, err = host.Get(binKey)
	if err != nil {
		t.Fatalf("get transmuted: %v", err)
	}

	if len(got.Bin) != 3 {
		t.Errorf("expected 3 bytes, got %d", len(got.Bin))
	}
}

func TestGetErrors(t *testing.T) {
	node := NewNode()

	key := KeyOf("present", attr.TypeInt)
	if err := node.Put(key, attr.NewInt(7)); err != nil {
		t.Fatalf("put: %v", err)
	}

	// Same identity, unstored type: the typed slot is its own binding, so
	// the read misses rather than mismatching.
	if _, err := node.Get(key.Transmute(attr.TypeFloat)); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}

	// Unknown identity.
	if _, err := node.Get(KeyOf("absent", attr.TypeInt)); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestPutTypeMismatch(t *testing.T) {
	node := NewNode()

	key := KeyOf("slot", attr.TypeInt)

	err := node.Put(key, attr.NewText("not an int"))
	if !errors.Is(err, ErrTypeMismatch) {
		t.Errorf("expected type mismatch, got %v", err)
	}
}

func TestLastWriteWins(t *testing.T) {
	host := NewHost()

	key := KeyOf("counter", attr.TypeInt)

	for _, n := range []int32{1, 2, 3} {
		if err := host.Put(key, attr.NewInt(n)); err != nil {
			t.Fatalf("put %d: %v", n, err)
		}
	}

	got, err := host.Get(key)
	if err != nil {
		t.Fatalf("get: %v", err)
	}

	if got.Int[0] != 3 {
		t.Errorf("expected last write 3, got %d", got.Int[0])
	}
}

func TestDeleteIsolatesType(t *testing.T) {
	node := NewNode()

	textKey := KeyOf("shared", attr.TypeText)
	intKey := textKey.Transmute(attr.TypeInt)

	_ = node.Put(textKey, attr.NewText("keep"))
	_ = node.Put(intKey, attr.NewInt(1))

	node.Delete(intKey)

	if _, err := node.Get(intKey); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected deleted slot gone, got %v", err)
	}

	if _, err := node.Get(textKey); err != nil {
		t.Errorf("sibling type must survive delete: %v", err)
	}
}

func TestTransientReset(t *testing.T) {
	tr := NewTransient()

	key := KeyOf("scratch", attr.TypeSymbol)
	if err := tr.Put(key, attr.NewSymbol("tmp")); err != nil {
		t.Fatalf("put: %v", err)
	}

	tr.Reset()

	if _, err := tr.Get(key); !errors.Is(err, ErrNotFound) {
		t.Errorf("expected empty scope after reset, got %v", err)
	}
}

func TestHostConcurrent(t *testing.T) {
	host := NewHost()
	key := KeyOf("contended", attr.TypeInt)

	var wg sync.WaitGroup

	for i := range 16 {
		wg.Add(1)

		go func() {
			defer wg.Done()

			_ = host.Put(key, attr.NewInt(int32(i)))
			_, _ = host.Get(key)
		}()
	}

	wg.Wait()

	if _, err := host.Get(key); err != nil {
		t.Fatalf("get after concurrent writes: %v", err)
	}
}

func TestEach(t *testing.T) {
	node := NewNode()

	for _, name := range []string{"a", "b", "c"} {
		_ = node.Put(KeyOf(name, attr.TypeSymbol), attr.NewSymbol(name))
	}

	count := 0
	node.Each(func(Key, attr.Value) bool {
		count++

		return true
	})

	if count != 3 {
		t.Errorf("expected 3 slots, got %d", count)
	}
}
