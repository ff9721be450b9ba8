package flat_test

import (
	"errors"
	"reflect"
	"testing"

	"github.com/jacentio/strata/flat"
)

func strPtr(s string) *string { return &s }

func TestMap_CaseInsensitiveLookup(t *testing.T) {
	m := flat.NewMap()
	if err := m.Set("Database:Host", strPtr("localhost")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	for _, key := range []string{"Database:Host", "database:host", "DATABASE:HOST"} {
		value, found := m.Get(key)
		if !found {
			t.Fatalf("expected %q to be found", key)
		}
		if value == nil || *value != "localhost" {
			t.Errorf("key %q: unexpected value %v", key, value)
		}
	}
}

func TestMap_DuplicateSet(t *testing.T) {
	m := flat.NewMap()
	if err := m.Set("a:b", strPtr("1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	err := m.Set("A:B", strPtr("2"))
	if !errors.Is(err, flat.ErrDuplicateKey) {
		t.Fatalf("expected ErrDuplicateKey, got %v", err)
	}

	// Original entry is untouched.
	value, _ := m.Get("a:b")
	if value == nil || *value != "1" {
		t.Errorf("expected original value to survive, got %v", value)
	}
}

func TestMap_Delete(t *testing.T) {
	m := flat.NewMap()
	if err := m.Set("a", strPtr("1")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if !m.Delete("A") {
		t.Error("expected case-insensitive delete to report true")
	}
	if m.Delete("a") {
		t.Error("expected second delete to report false")
	}
	if m.Len() != 0 {
		t.Errorf("expected empty map, got %d entries", m.Len())
	}
}

func TestMap_KeysSortedWithOriginalCasing(t *testing.T) {
	m := flat.NewMap()
	for _, key := range []string{"Zeta", "Alpha:One", "alpha:two"} {
		if err := m.Set(key, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	expected := []string{"Alpha:One", "Zeta", "alpha:two"}
	if keys := m.Keys(); !reflect.DeepEqual(keys, expected) {
		t.Errorf("expected %v, got %v", expected, keys)
	}
}

func TestMap_EachStopsEarly(t *testing.T) {
	m := flat.NewMap()
	for _, key := range []string{"a", "b", "c"} {
		if err := m.Set(key, nil); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	}

	seen := 0
	m.Each(func(key string, value *string) bool {
		seen++
		return false
	})
	if seen != 1 {
		t.Errorf("expected iteration to stop after 1 entry, got %d", seen)
	}
}
