package agent

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"
)

type fakeConn struct{ closed bool }

func (c *fakeConn) Close() error {
	c.closed = true
	return nil
}

func TestRegistryOpenLookupClose(t *testing.T) {
	r := NewRegistry(testPrompt)

	s, err := r.Open("client-1", &fakeConn{})
	if err != nil {
		t.Fatal(err)
	}
	if s.ClientID() != "client-1" {
		t.Fatalf("session client id = %q", s.ClientID())
	}
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, want 1", r.Len())
	}

	got, err := r.Lookup("client-1")
	if err != nil {
		t.Fatal(err)
	}
	if got != s {
		t.Fatal("Lookup returned a different session")
	}

	r.Close("client-1")
	if r.Len() != 0 {
		t.Fatalf("Len() = %d after close", r.Len())
	}
	if _, err := r.Lookup("client-1"); !errors.Is(err, ErrUnknownClient) {
		t.Fatalf("expected ErrUnknownClient, got %v", err)
	}
}

func TestRegistryDuplicateClient(t *testing.T) {
	r := NewRegistry(testPrompt)
	if _, err := r.Open("dup", &fakeConn{}); err != nil {
		t.Fatal(err)
	}
	_, err := r.Open("dup", &fakeConn{})
	if !errors.Is(err, ErrDuplicateClient) {
		t.Fatalf("expected ErrDuplicateClient, got %v", err)
	}
	if r.Len() != 1 {
		t.Fatalf("Len() = %d, the rejected open leaked an entry", r.Len())
	}
}

func TestRegistryCloseIdempotent(t *testing.T) {
	r := NewRegistry(testPrompt)
	r.Close("never-opened") // no-op, no panic
	if _, err := r.Open("a", &fakeConn{}); err != nil {
		t.Fatal(err)
	}
	r.Close("a")
	r.Close("a")
	if r.Len() != 0 {
		t.Fatalf("Len() = %d", r.Len())
	}

	// Reconnecting after close creates a fresh session.
	s, err := r.Open("a", &fakeConn{})
	if err != nil {
		t.Fatal(err)
	}
	if s.Initialized() {
		t.Fatal("fresh session is already initialized")
	}
}

// TestRegistrySessionIsolation interleaves two clients and checks neither
// context leaks into the other.
func TestRegistrySessionIsolation(t *testing.T) {
	r := NewRegistry(testPrompt)
	s1, _ := r.Open("alpha", &fakeConn{})
	s2, _ := r.Open("beta", &fakeConn{})

	if err := s1.Init("task alpha", "A", "IMG_A"); err != nil {
		t.Fatal(err)
	}
	if err := s2.Init("task beta", "B", "IMG_B"); err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		s1.RecordAssistant("t", "a")
		if err := s1.Advance("A", "IMG_A"); err != nil {
			t.Fatal(err)
		}
	}

	if s2.Step() != 1 || s2.Context().Len() != 2 {
		t.Fatal("mutating alpha changed beta")
	}
	if !strings.Contains(s2.Context()[1].Text(), "task beta") {
		t.Fatal("beta context corrupted")
	}
	if s1.Step() != 6 {
		t.Fatalf("alpha step = %d, want 6", s1.Step())
	}
}

func TestRegistryConcurrentAccess(t *testing.T) {
	r := NewRegistry(testPrompt)

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("client-%d", i)
			s, err := r.Open(id, &fakeConn{})
			if err != nil {
				t.Errorf("open %s: %v", id, err)
				return
			}
			if err := s.Init("task", "screen", "IMG"); err != nil {
				t.Errorf("init %s: %v", id, err)
			}
			if _, err := r.Lookup(id); err != nil {
				t.Errorf("lookup %s: %v", id, err)
			}
			r.Close(id)
		}(i)
	}
	wg.Wait()

	if r.Len() != 0 {
		t.Fatalf("Len() = %d after all closes", r.Len())
	}
}
