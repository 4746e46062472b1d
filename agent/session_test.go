package agent

import (
	"errors"
	"strings"
	"testing"
)

const testPrompt = "you are a phone agent"

func TestSessionInit(t *testing.T) {
	s := NewSession("c1", testPrompt)

	if err := s.Init("buy lunch", "HomeScreen", "IMG_A"); err != nil {
		t.Fatal(err)
	}

	ctx := s.Context()
	if ctx.Len() != 2 {
		t.Fatalf("expected 2 messages, got %d", ctx.Len())
	}
	if ctx[0].Role != RoleSystem || ctx[0].Text() != testPrompt {
		t.Fatalf("first message is not the system prompt: %+v", ctx[0])
	}
	if ctx[1].Role != RoleUser {
		t.Fatalf("second message role = %q", ctx[1].Role)
	}
	if !strings.Contains(ctx[1].Text(), "buy lunch") || !strings.Contains(ctx[1].Text(), "Screen Info: HomeScreen") {
		t.Fatalf("user text malformed: %q", ctx[1].Text())
	}
	if !ctx[1].HasImage() {
		t.Fatal("first user message has no image")
	}
	if s.Step() != 1 {
		t.Fatalf("step = %d after init", s.Step())
	}
}

func TestSessionInitEmptyScreenshot(t *testing.T) {
	s := NewSession("c1", testPrompt)
	err := s.Init("task", "info", "")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if s.Initialized() {
		t.Fatal("failed init mutated the session")
	}
	if s.Step() != 0 {
		t.Fatalf("step = %d after failed init", s.Step())
	}
}

func TestSessionReinit(t *testing.T) {
	s := NewSession("c1", testPrompt)
	if err := s.Init("task one", "A", "IMG1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Advance("B", "IMG2"); err != nil {
		t.Fatal(err)
	}
	s.RecordAssistant("thought", `do(action="Tap")`)

	// Re-init at any state resets to exactly two messages, step 1.
	if err := s.Init("task two", "C", "IMG3"); err != nil {
		t.Fatal(err)
	}
	if s.Context().Len() != 2 {
		t.Fatalf("expected 2 messages after re-init, got %d", s.Context().Len())
	}
	if s.Step() != 1 {
		t.Fatalf("step = %d after re-init", s.Step())
	}
	if !strings.Contains(s.Context()[1].Text(), "task two") {
		t.Fatal("re-init kept the old task")
	}
}

func TestSessionAdvance(t *testing.T) {
	s := NewSession("c1", testPrompt)
	if err := s.Init("buy lunch", "HomeScreen", "IMG_A"); err != nil {
		t.Fatal(err)
	}
	if err := s.Advance("AppOpen", "IMG_B"); err != nil {
		t.Fatal(err)
	}

	ctx := s.Context()
	if ctx.Len() != 3 {
		t.Fatalf("expected 3 messages, got %d", ctx.Len())
	}
	if ctx[1].HasImage() {
		t.Fatal("previous user message kept its image after advance")
	}
	if !strings.Contains(ctx[1].Text(), "buy lunch") {
		t.Fatal("compaction dropped text content")
	}
	last := ctx.Last()
	if !last.HasImage() {
		t.Fatal("new user message has no image")
	}
	if !strings.Contains(last.Text(), "** Screen Info **") || !strings.Contains(last.Text(), "AppOpen") {
		t.Fatalf("new user text malformed: %q", last.Text())
	}
	if s.Step() != 2 {
		t.Fatalf("step = %d, want 2", s.Step())
	}
}

func TestSessionAdvanceNotInitialized(t *testing.T) {
	s := NewSession("c1", testPrompt)
	err := s.Advance("info", "IMG")
	if !errors.Is(err, ErrNotInitialized) {
		t.Fatalf("expected ErrNotInitialized, got %v", err)
	}
	if s.Context().Len() != 0 {
		t.Fatal("failed advance mutated the context")
	}
}

func TestSessionAdvanceEmptyScreenshot(t *testing.T) {
	s := NewSession("c1", testPrompt)
	if err := s.Init("task", "info", "IMG"); err != nil {
		t.Fatal(err)
	}
	err := s.Advance("info", "")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected ErrInvalidInput, got %v", err)
	}
	if s.Step() != 1 || s.Context().Len() != 2 {
		t.Fatal("failed advance mutated the session")
	}
	if !s.Context().Last().HasImage() {
		t.Fatal("failed advance compacted the previous message")
	}
}

// TestSessionAdvanceAfterAssistant drives the normal turn order — the
// assistant record sits between the two user messages — and checks the
// compaction lands on the previous user message, not the assistant one.
func TestSessionAdvanceAfterAssistant(t *testing.T) {
	s := NewSession("c1", testPrompt)
	if err := s.Init("buy lunch", "HomeScreen", "IMG_A"); err != nil {
		t.Fatal(err)
	}
	s.RecordAssistant("open the app", `do(action="Launch", app="Meituan")`)

	if err := s.Advance("AppOpen", "IMG_B"); err != nil {
		t.Fatal(err)
	}

	ctx := s.Context()
	if ctx.Len() != 4 {
		t.Fatalf("expected 4 messages, got %d", ctx.Len())
	}
	if ctx[1].HasImage() {
		t.Fatal("previous user message kept its image")
	}
	if got := ctx[2].Text(); !strings.Contains(got, "<answer>") {
		t.Fatalf("assistant record was altered by compaction: %q", got)
	}
	if got := ctx.ImageCount(); got != 1 {
		t.Fatalf("%d messages carry images, want 1", got)
	}
	if !ctx.Last().HasImage() {
		t.Fatal("image is not on the latest user message")
	}
}

// TestSessionCompactionInvariant drives a long task and checks that after
// every step exactly one message carries image data: the latest user one.
func TestSessionCompactionInvariant(t *testing.T) {
	s := NewSession("c1", testPrompt)
	if err := s.Init("task", "screen0", "IMG0"); err != nil {
		t.Fatal(err)
	}

	for i := 1; i <= 20; i++ {
		s.RecordAssistant("thinking", `do(action="Tap", element=[[1,2],[3,4]])`)
		if err := s.Advance("screen", "IMG"); err != nil {
			t.Fatalf("advance %d: %v", i, err)
		}

		ctx := s.Context()
		if got := ctx.ImageCount(); got != 1 {
			t.Fatalf("after step %d: %d messages carry images, want 1", i, got)
		}
		if !ctx.Last().HasImage() {
			t.Fatalf("after step %d: image is not on the latest message", i)
		}
		if s.Step() != i+1 {
			t.Fatalf("after step %d: counter = %d", i, s.Step())
		}
	}
}

func TestSessionAlternation(t *testing.T) {
	s := NewSession("c1", testPrompt)
	if err := s.Init("task", "a", "I1"); err != nil {
		t.Fatal(err)
	}
	s.RecordAssistant("t1", "a1")
	if err := s.Advance("b", "I2"); err != nil {
		t.Fatal(err)
	}
	s.RecordAssistant("t2", "a2")

	want := []string{RoleSystem, RoleUser, RoleAssistant, RoleUser, RoleAssistant}
	ctx := s.Context()
	if ctx.Len() != len(want) {
		t.Fatalf("expected %d messages, got %d", len(want), ctx.Len())
	}
	for i, role := range want {
		if ctx[i].Role != role {
			t.Fatalf("message[%d] role = %q, want %q", i, ctx[i].Role, role)
		}
	}
}
