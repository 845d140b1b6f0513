package storage

import (
	"bytes"
	"errors"
	"testing"
)

func TestMemDBGetMissingKey(t *testing.T) {
	db := NewMemDB()
	if _, err := db.Get([]byte("missing")); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemDBPutGetHas(t *testing.T) {
	db := NewMemDB()
	if err := db.Put([]byte("k"), []byte("v")); err != nil {
		t.Fatalf("put: %v", err)
	}
	value, err := db.Get([]byte("k"))
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if !bytes.Equal(value, []byte("v")) {
		t.Fatalf("unexpected value: %q", value)
	}
	ok, err := db.Has([]byte("k"))
	if err != nil || !ok {
		t.Fatalf("has: ok=%v err=%v", ok, err)
	}
	ok, err = db.Has([]byte("missing"))
	if err != nil || ok {
		t.Fatalf("has missing: ok=%v err=%v", ok, err)
	}
}

func TestMemDBWriteBatch(t *testing.T) {
	db := NewMemDB()
	err := db.WriteBatch([]KeyValue{
		{Key: []byte("a"), Value: []byte("1")},
		{Key: []byte("b"), Value: []byte("2")},
	})
	if err != nil {
		t.Fatalf("write batch: %v", err)
	}
	for key, want := range map[string]string{"a": "1", "b": "2"} {
		value, err := db.Get([]byte(key))
		if err != nil {
			t.Fatalf("get %q: %v", key, err)
		}
		if string(value) != want {
			t.Fatalf("key %q: got %q, want %q", key, value, want)
		}
	}
}
