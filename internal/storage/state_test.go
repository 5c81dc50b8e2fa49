package storage

import (
	"context"
	"testing"
)

func TestStateStore(t *testing.T) {
	store := NewStateStore(newTestEngine(t))
	ctx := context.Background()

	if _, ok, err := store.Get(ctx, "theme"); err != nil || ok {
		t.Fatalf("Get(absent) = ok %v, err %v; want false, nil", ok, err)
	}

	if err := store.Set(ctx, "theme", "dark"); err != nil {
		t.Fatal(err)
	}
	if err := store.Set(ctx, "MD__posts", "[]"); err != nil {
		t.Fatal(err)
	}

	got, ok, err := store.Get(ctx, "theme")
	if err != nil || !ok || got != "dark" {
		t.Fatalf("Get(theme) = %q, %v, %v", got, ok, err)
	}

	keys, err := store.Keys(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(keys) != 2 || keys[0] != "MD__posts" || keys[1] != "theme" {
		t.Errorf("Keys() = %v", keys)
	}

	if err := store.Delete(ctx, "theme"); err != nil {
		t.Fatal(err)
	}
	if _, ok, _ := store.Get(ctx, "theme"); ok {
		t.Error("expected theme to be deleted")
	}
}

func TestStateStore_EmptyValue(t *testing.T) {
	store := NewStateStore(newTestEngine(t))
	ctx := context.Background()

	if err := store.Set(ctx, "legend", ""); err != nil {
		t.Fatal(err)
	}
	got, ok, err := store.Get(ctx, "legend")
	if err != nil || !ok || got != "" {
		t.Errorf("Get(legend) = %q, %v, %v; want empty present value", got, ok, err)
	}
}
