package store

import (
	"fmt"
	"testing"
	"time"
)

func TestMemoryStoreGetMissingKey(t *testing.T) {
	s := NewMemoryStore()
	val, err := s.Get("missing")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if val != nil {
		t.Errorf("Get missing = %v, want nil", val)
	}
}

func TestMemoryStoreSetWithTTL(t *testing.T) {
	s := NewMemoryStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	if err := s.Set("k", []byte("v"), time.Hour); err != nil {
		t.Fatalf("Set: %v", err)
	}

	val, err := s.Get("k")
	if err != nil || string(val) != "v" {
		t.Fatalf("Get = %q, %v, want v", val, err)
	}

	now = now.Add(2 * time.Hour)
	val, err = s.Get("k")
	if err != nil {
		t.Fatalf("Get after expiry: %v", err)
	}
	if val != nil {
		t.Errorf("Get after expiry = %q, want nil", val)
	}
}

func TestMemoryStoreExpireWholeList(t *testing.T) {
	s := NewMemoryStore()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s.SetClock(func() time.Time { return now })

	if err := s.ListPush("log", []byte("a"), []byte("b")); err != nil {
		t.Fatalf("ListPush: %v", err)
	}
	if err := s.Expire("log", time.Minute); err != nil {
		t.Fatalf("Expire: %v", err)
	}

	now = now.Add(30 * time.Second)
	if n, _ := s.ListLen("log"); n != 2 {
		t.Errorf("ListLen before expiry = %d, want 2", n)
	}

	now = now.Add(time.Minute)
	if n, _ := s.ListLen("log"); n != 0 {
		t.Errorf("ListLen after expiry = %d, want 0", n)
	}
}

func TestMemoryStoreListRangeRedisSemantics(t *testing.T) {
	s := NewMemoryStore()
	for i := 0; i < 5; i++ {
		s.ListPush("l", []byte(fmt.Sprintf("m%d", i)))
	}

	tests := []struct {
		start, stop int64
		want        []string
	}{
		{0, -1, []string{"m0", "m1", "m2", "m3", "m4"}},
		{-2, -1, []string{"m3", "m4"}},
		{1, 3, []string{"m1", "m2", "m3"}},
		{0, 100, []string{"m0", "m1", "m2", "m3", "m4"}},
		{3, 1, nil},
		{-100, 1, []string{"m0", "m1"}},
	}
	for _, tt := range tests {
		got, err := s.ListRange("l", tt.start, tt.stop)
		if err != nil {
			t.Fatalf("ListRange(%d, %d): %v", tt.start, tt.stop, err)
		}
		if len(got) != len(tt.want) {
			t.Errorf("ListRange(%d, %d) len = %d, want %d", tt.start, tt.stop, len(got), len(tt.want))
			continue
		}
		for i := range got {
			if string(got[i]) != tt.want[i] {
				t.Errorf("ListRange(%d, %d)[%d] = %q, want %q", tt.start, tt.stop, i, got[i], tt.want[i])
			}
		}
	}
}

func TestMemoryStoreListIndex(t *testing.T) {
	s := NewMemoryStore()
	s.ListPush("l", []byte("a"), []byte("b"), []byte("c"))

	last, err := s.ListIndex("l", -1)
	if err != nil || string(last) != "c" {
		t.Errorf("ListIndex(-1) = %q, %v, want c", last, err)
	}
	first, _ := s.ListIndex("l", 0)
	if string(first) != "a" {
		t.Errorf("ListIndex(0) = %q, want a", first)
	}
	oob, err := s.ListIndex("l", 10)
	if err != nil {
		t.Fatalf("ListIndex(10): %v", err)
	}
	if oob != nil {
		t.Errorf("ListIndex(10) = %q, want nil", oob)
	}
}

func TestMemoryStoreSets(t *testing.T) {
	s := NewMemoryStore()
	s.SetAdd("s", "a", "b")
	s.SetAdd("s", "a")

	if n, _ := s.SetCard("s"); n != 2 {
		t.Errorf("SetCard = %d, want 2", n)
	}
	if ok, _ := s.SetIsMember("s", "a"); !ok {
		t.Errorf("SetIsMember(a) = false, want true")
	}

	s.SetRemove("s", "a", "b")
	if exists, _ := s.Exists("s"); exists {
		t.Errorf("Exists after removing all members = true, want false")
	}
}

func TestMemoryStoreHash(t *testing.T) {
	s := NewMemoryStore()
	s.HashSet("h", "f1", []byte("v1"))
	s.HashSet("h", "f1", []byte("v2"))
	s.HashSet("h", "f2", []byte("v3"))

	all, err := s.HashGetAll("h")
	if err != nil {
		t.Fatalf("HashGetAll: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("HashGetAll len = %d, want 2", len(all))
	}
	if string(all["f1"]) != "v2" {
		t.Errorf("f1 = %q, want v2 (overwritten)", all["f1"])
	}
}
