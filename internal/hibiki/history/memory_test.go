package history

import (
	"context"
	"fmt"
	"testing"
	"time"
)

func TestMemoryStore_AppendAndRecent(t *testing.T) {
	s := NewMemoryStore(10)
	ctx := context.Background()

	for i := 1; i <= 3; i++ {
		err := s.Append(ctx, "user-a", Turn{
			UserText: fmt.Sprintf("q%d", i),
			BotText:  fmt.Sprintf("a%d", i),
		})
		if err != nil {
			t.Fatalf("Append: %v", err)
		}
	}

	turns, err := s.Recent(ctx, "user-a", 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(turns) != 3 {
		t.Fatalf("got %d turns, want 3", len(turns))
	}
	for i, turn := range turns {
		if want := fmt.Sprintf("q%d", i+1); turn.UserText != want {
			t.Errorf("turn %d UserText = %q, want %q (oldest first)", i, turn.UserText, want)
		}
		if turn.ID == "" {
			t.Errorf("turn %d has no generated ID", i)
		}
		if turn.Timestamp.IsZero() {
			t.Errorf("turn %d has no generated timestamp", i)
		}
	}
}

func TestMemoryStore_Eviction(t *testing.T) {
	s := NewMemoryStore(3)
	ctx := context.Background()

	for i := 1; i <= 5; i++ {
		s.Append(ctx, "user-a", Turn{UserText: fmt.Sprintf("q%d", i)})
	}

	n, err := s.Count(ctx, "user-a")
	if err != nil {
		t.Fatalf("Count: %v", err)
	}
	if n != 3 {
		t.Fatalf("Count = %d, want 3", n)
	}

	turns, _ := s.Recent(ctx, "user-a", 0)
	if turns[0].UserText != "q3" || turns[2].UserText != "q5" {
		t.Errorf("retained window = %q..%q, want q3..q5", turns[0].UserText, turns[2].UserText)
	}
}

func TestMemoryStore_RecentLimit(t *testing.T) {
	s := NewMemoryStore(10)
	ctx := context.Background()

	for i := 1; i <= 6; i++ {
		s.Append(ctx, "user-a", Turn{UserText: fmt.Sprintf("q%d", i)})
	}

	turns, err := s.Recent(ctx, "user-a", 2)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if len(turns) != 2 {
		t.Fatalf("got %d turns, want 2", len(turns))
	}
	if turns[0].UserText != "q5" || turns[1].UserText != "q6" {
		t.Errorf("limited window = %q,%q, want q5,q6", turns[0].UserText, turns[1].UserText)
	}
}

func TestMemoryStore_RecentReturnsCopy(t *testing.T) {
	s := NewMemoryStore(10)
	ctx := context.Background()
	s.Append(ctx, "user-a", Turn{UserText: "original"})

	turns, _ := s.Recent(ctx, "user-a", 0)
	turns[0].UserText = "mutated"

	again, _ := s.Recent(ctx, "user-a", 0)
	if again[0].UserText != "original" {
		t.Error("Recent exposed internal storage to the caller")
	}
}

func TestMemoryStore_UserIsolation(t *testing.T) {
	s := NewMemoryStore(10)
	ctx := context.Background()

	s.Append(ctx, "user-a", Turn{UserText: "from a"})
	s.Append(ctx, "user-b", Turn{UserText: "from b"})

	if n, _ := s.Count(ctx, "user-a"); n != 1 {
		t.Errorf("user-a count = %d, want 1", n)
	}
	if err := s.Clear(ctx, "user-a"); err != nil {
		t.Fatalf("Clear: %v", err)
	}
	if n, _ := s.Count(ctx, "user-a"); n != 0 {
		t.Errorf("user-a count after clear = %d, want 0", n)
	}
	if n, _ := s.Count(ctx, "user-b"); n != 1 {
		t.Errorf("clearing user-a touched user-b: count = %d, want 1", n)
	}
}

func TestMemoryStore_UnknownUser(t *testing.T) {
	s := NewMemoryStore(10)
	ctx := context.Background()

	turns, err := s.Recent(ctx, "nobody", 0)
	if err != nil {
		t.Fatalf("Recent: %v", err)
	}
	if turns != nil {
		t.Errorf("Recent for unknown user = %v, want nil", turns)
	}
	if err := s.Clear(ctx, "nobody"); err != nil {
		t.Errorf("Clear for unknown user: %v", err)
	}
}

func TestMemoryStore_PreservesExplicitFields(t *testing.T) {
	s := NewMemoryStore(10)
	ctx := context.Background()

	ts := time.Date(2026, 2, 3, 4, 5, 6, 0, time.UTC)
	s.Append(ctx, "user-a", Turn{ID: "fixed-id", UserText: "hi", BotText: "hey", Timestamp: ts})

	turns, _ := s.Recent(ctx, "user-a", 0)
	if turns[0].ID != "fixed-id" {
		t.Errorf("ID = %q, want fixed-id", turns[0].ID)
	}
	if !turns[0].Timestamp.Equal(ts) {
		t.Errorf("Timestamp = %v, want %v", turns[0].Timestamp, ts)
	}
}

func TestNew_BackendSelection(t *testing.T) {
	if _, ok := New(nil, 0).(*MemoryStore); !ok {
		t.Error("New(nil, ...) should select the in-memory backend")
	}
}
