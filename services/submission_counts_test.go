package services

import (
	"context"
	"encoding/json"
	"testing"
)

func TestAttemptCounterUnseenKeyIsZero(t *testing.T) {
	counter := NewAttemptCounter(newFakeObjectStore())

	count, err := counter.Get(context.Background(), "teacher01_2학년_3반_7_김철수_세특_화학")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if count != 0 {
		t.Errorf("Get on unseen key = %d, want 0", count)
	}
}

func TestAttemptCounterIncrement(t *testing.T) {
	store := newFakeObjectStore()
	counter := NewAttemptCounter(store)
	ctx := context.Background()
	key := "teacher01_2학년_3반_7_김철수_세특_화학"

	for want := 1; want <= 3; want++ {
		if err := counter.Increment(ctx, key); err != nil {
			t.Fatalf("Increment failed: %v", err)
		}
		got, err := counter.Get(ctx, key)
		if err != nil {
			t.Fatalf("Get failed: %v", err)
		}
		if got != want {
			t.Errorf("count after %d increments = %d", want, got)
		}
	}

	// Other keys are unaffected.
	other, err := counter.Get(ctx, "someone_else")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if other != 0 {
		t.Errorf("unrelated key = %d, want 0", other)
	}
}

func TestAttemptCounterStoredShape(t *testing.T) {
	store := newFakeObjectStore()
	counter := NewAttemptCounter(store)
	ctx := context.Background()

	if err := counter.Increment(ctx, "key_a"); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}
	if err := counter.Increment(ctx, "key_b"); err != nil {
		t.Fatalf("Increment failed: %v", err)
	}

	body, ok := store.objects[CountsObjectKey]
	if !ok {
		t.Fatalf("counts not stored under %q", CountsObjectKey)
	}

	counts := map[string]int{}
	if err := json.Unmarshal(body, &counts); err != nil {
		t.Fatalf("stored counts are not valid JSON: %v", err)
	}
	if counts["key_a"] != 1 || counts["key_b"] != 1 {
		t.Errorf("stored counts = %v", counts)
	}
}

func TestAttemptCounterCorruptStore(t *testing.T) {
	store := newFakeObjectStore()
	store.objects[CountsObjectKey] = []byte("not json")
	counter := NewAttemptCounter(store)

	if _, err := counter.Get(context.Background(), "any"); err == nil {
		t.Fatal("Get on corrupt store succeeded, want error")
	}
}
