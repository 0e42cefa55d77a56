package intake

import (
	"errors"
	"sync"
	"testing"
)

func TestStoreCapacity(t *testing.T) {
	st := NewStore(10)
	for i := int64(1); i <= 10; i++ {
		if err := st.Begin(i); err != nil {
			t.Fatalf("Begin(%d): %v", i, err)
		}
	}
	if err := st.Begin(11); !errors.Is(err, ErrCapacity) {
		t.Fatalf("11th Begin: got %v, want ErrCapacity", err)
	}
	if got := st.Len(); got != 10 {
		t.Fatalf("Len() = %d, want 10", got)
	}

	// a chat holding a session is still turned away at capacity
	if err := st.Begin(5); !errors.Is(err, ErrCapacity) {
		t.Fatalf("restart at capacity: got %v, want ErrCapacity", err)
	}

	st.Remove(3)
	if err := st.Begin(11); err != nil {
		t.Fatalf("Begin after Remove: %v", err)
	}
}

func TestStoreBeginResetsSession(t *testing.T) {
	st := NewStore(10)
	if err := st.Begin(42); err != nil {
		t.Fatal(err)
	}
	st.Update(42, func(s *Session) {
		s.ChildName = "Маша"
		s.Step = StepFootSize
	})
	if err := st.Begin(42); err != nil {
		t.Fatalf("restart: %v", err)
	}
	sess, ok := st.Take(42)
	if !ok {
		t.Fatal("Take after restart: session missing")
	}
	if sess.Step != StepChildName || sess.ChildName != "" {
		t.Fatalf("restart kept old state: step=%s name=%q", sess.Step, sess.ChildName)
	}
	if got := st.Len(); got != 0 {
		t.Fatalf("Len after Take = %d, want 0", got)
	}
}

func TestStoreTakeRemoves(t *testing.T) {
	st := NewStore(10)
	if _, ok := st.Take(1); ok {
		t.Fatal("Take on empty store reported a session")
	}
	if err := st.Begin(1); err != nil {
		t.Fatal(err)
	}
	if _, ok := st.Take(1); !ok {
		t.Fatal("Take: session missing")
	}
	if _, ok := st.Step(1); ok {
		t.Fatal("session survived Take")
	}
}

func TestStoreConcurrentBegin(t *testing.T) {
	st := NewStore(10)
	var wg sync.WaitGroup
	admitted := make(chan int64, 64)
	for i := int64(1); i <= 50; i++ {
		wg.Add(1)
		go func(chatID int64) {
			defer wg.Done()
			if err := st.Begin(chatID); err == nil {
				admitted <- chatID
			}
		}(i)
	}
	wg.Wait()
	close(admitted)
	count := 0
	for range admitted {
		count++
	}
	if count != 10 {
		t.Fatalf("admitted %d sessions, want exactly 10", count)
	}
	if got := st.Len(); got != 10 {
		t.Fatalf("Len() = %d, want 10", got)
	}
}
