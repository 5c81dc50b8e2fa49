package cmap

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
)

func TestNew_ShardCount(t *testing.T) {
	tests := []struct {
		input, want int
	}{
		{0, DefaultShardCount},
		{-1, DefaultShardCount},
		{3, DefaultShardCount},
		{1, 1},
		{8, 8},
		{64, 64},
	}
	for _, tt := range tests {
		t.Run(fmt.Sprintf("shards=%d", tt.input), func(t *testing.T) {
			if got := len(New[int](tt.input).shards); got != tt.want {
				t.Errorf("New(%d) shards = %d, want %d", tt.input, got, tt.want)
			}
		})
	}
}

func TestMap_GetOrCreate(t *testing.T) {
	m := New[int](4)
	calls := 0
	create := func() int { calls++; return 42 }

	if v := m.GetOrCreate("a", create); v != 42 {
		t.Errorf("first GetOrCreate = %d", v)
	}
	if v := m.GetOrCreate("a", create); v != 42 {
		t.Errorf("second GetOrCreate = %d", v)
	}
	if calls != 1 {
		t.Errorf("create called %d times, want 1", calls)
	}
	if v, ok := m.Get("a"); !ok || v != 42 {
		t.Errorf("Get(a) = %d, %v", v, ok)
	}
	if _, ok := m.Get("b"); ok {
		t.Error("Get(b) should miss")
	}
}

func TestMap_Delete(t *testing.T) {
	m := New[string](0)
	m.GetOrCreate("k", func() string { return "v" })
	m.Delete("k")
	m.Delete("missing")
	if m.Len() != 0 {
		t.Errorf("Len() = %d, want 0", m.Len())
	}
}

func TestMap_DeleteFunc(t *testing.T) {
	m := New[int](4)
	for i := 0; i < 20; i++ {
		i := i
		m.GetOrCreate(fmt.Sprintf("key-%d", i), func() int { return i })
	}

	removed := m.DeleteFunc(func(key string, v int) bool { return v%2 == 0 })
	if removed != 10 {
		t.Errorf("removed = %d, want 10", removed)
	}
	if m.Len() != 10 {
		t.Errorf("Len() = %d, want 10", m.Len())
	}
	m.DeleteFunc(func(key string, v int) bool {
		if v%2 == 0 {
			t.Errorf("even value %d survived", v)
		}
		return strings.HasSuffix(key, "-1")
	})
	if _, ok := m.Get("key-1"); ok {
		t.Error("key-1 should be removed")
	}
}

func TestMap_ConcurrentGetOrCreate(t *testing.T) {
	m := New[*int64](8)
	var created atomic.Int64
	var wg sync.WaitGroup

	for g := 0; g < 16; g++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 100; i++ {
				p := m.GetOrCreate(fmt.Sprintf("k%d", i%10), func() *int64 {
					created.Add(1)
					return new(int64)
				})
				atomic.AddInt64(p, 1)
			}
		}()
	}
	wg.Wait()

	if created.Load() != 10 {
		t.Errorf("created = %d, want 10", created.Load())
	}
	var total int64
	for i := 0; i < 10; i++ {
		p, _ := m.Get(fmt.Sprintf("k%d", i))
		total += atomic.LoadInt64(p)
	}
	if total != 1600 {
		t.Errorf("total = %d, want 1600", total)
	}
}
