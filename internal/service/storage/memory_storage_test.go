package storage

import "testing"

func TestMemoryStorageBasics(t *testing.T) {
	s := NewMemoryStorage[string, string]()

	s.Set("a", "x")
	if v, ok := s.Get("a"); !ok || v != "x" {
		t.Fatalf("get = %q, %v", v, ok)
	}

	dirty := s.GetDirty()
	if len(dirty) != 1 || dirty["a"] != "x" {
		t.Fatalf("dirty = %v", dirty)
	}

	s.ClearDirty([]string{"a"})
	if len(s.GetDirty()) != 0 {
		t.Fatal("dirty flag survived clear")
	}

	s.Delete("a")
	if s.Count() != 0 {
		t.Fatalf("count = %d after delete", s.Count())
	}
	if len(s.GetDirty()) != 0 {
		t.Fatal("delete left a dirty flag behind")
	}
}
