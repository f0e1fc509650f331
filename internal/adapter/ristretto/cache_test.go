package ristretto

import (
	"context"
	"testing"
	"time"

	"github.com/Strob0t/crmlite/internal/port/cache"
)

var _ cache.Cache = (*Cache)(nil)

type row struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

func TestCache_SetGetDelete(t *testing.T) {
	c, err := New(1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()
	ctx := context.Background()

	if err := cache.SetJSON(ctx, c, "user:u-1", &row{ID: "u-1", Email: "a@example.com"}, time.Minute); err != nil {
		t.Fatalf("SetJSON: %v", err)
	}
	c.Wait()

	got, ok := cache.GetJSON[row](ctx, c, "user:u-1")
	if !ok {
		t.Fatal("expected hit")
	}
	if got.Email != "a@example.com" {
		t.Fatalf("got email %q", got.Email)
	}

	if err := c.Delete(ctx, "user:u-1"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, ok, _ := c.Get(ctx, "user:u-1"); ok {
		t.Fatal("expected miss after delete")
	}
}

func TestCache_Miss(t *testing.T) {
	c, err := New(1)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	defer c.Close()

	if _, ok, err := c.Get(context.Background(), "absent"); ok || err != nil {
		t.Fatalf("expected clean miss, got ok=%v err=%v", ok, err)
	}
}

func TestNew_RejectsZeroSize(t *testing.T) {
	if _, err := New(0); err == nil {
		t.Fatal("expected error for zero size")
	}
}
