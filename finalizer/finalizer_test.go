package finalizer

import (
	"strings"
	"sync"
	"testing"
	"time"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition never became true")
}

func TestRoleInference(t *testing.T) {
	cases := []struct {
		text string
		want string
	}{
		{"I'll refactor this function.", "assistant"},
		{"Can you show me the file?", "user"},
		{strings.Repeat("x", 800), "assistant"},
	}

	for _, tc := range cases {
		if got := inferRole(tc.text); got != tc.want {
			t.Errorf("inferRole(%q) = %q, want %q", tc.text, got, tc.want)
		}
	}
}

func TestMessageFinalizationFlushesAfterDebounce(t *testing.T) {
	fc := New()

	if err := fc.StageMetadata(MetadataInput{ID: "m1", SessionID: "s1", Role: "unknown"}); err != nil {
		t.Fatalf("StageMetadata: %v", err)
	}
	fc.StagePart(Part{Type: "text", MessageID: "m1", SessionID: "s1", Text: "Hello"})

	var mu sync.Mutex
	var got *FinalizedMessage
	callCount := 0

	fc.ScheduleFinalize("m1", func(fm FinalizedMessage) {
		mu.Lock()
		defer mu.Unlock()
		callCount++
		got = &fm
	})

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return got != nil
	})

	mu.Lock()
	defer mu.Unlock()
	if callCount != 1 {
		t.Fatalf("expected sink called exactly once, got %d", callCount)
	}
	if got.Role != "user" {
		t.Errorf("expected role 'user' for short text with no markers, got %q", got.Role)
	}
	if got.TextContent != "Hello" {
		t.Errorf("expected textContent 'Hello', got %q", got.TextContent)
	}
}

func TestScheduleFinalizeAtMostOnceAcrossReschedules(t *testing.T) {
	fc := New()
	if err := fc.StageMetadata(MetadataInput{ID: "m1", SessionID: "s1"}); err != nil {
		t.Fatalf("StageMetadata: %v", err)
	}
	fc.StagePart(Part{Type: "text", MessageID: "m1", SessionID: "s1", Text: "partial"})

	var mu sync.Mutex
	callCount := 0
	sink := func(FinalizedMessage) {
		mu.Lock()
		defer mu.Unlock()
		callCount++
	}

	// Repeated reschedules before the debounce window elapses must
	// cancel the prior timer, not accumulate extra sink calls.
	for i := 0; i < 5; i++ {
		fc.ScheduleFinalize("m1", sink)
		time.Sleep(50 * time.Millisecond)
	}

	waitFor(t, 2*time.Second, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return callCount == 1
	})

	time.Sleep(100 * time.Millisecond)
	mu.Lock()
	defer mu.Unlock()
	if callCount != 1 {
		t.Errorf("expected exactly 1 sink call, got %d", callCount)
	}
}

func TestFinalizeRequiresMetadataAndText(t *testing.T) {
	fc := New()

	called := false
	fc.ScheduleFinalize("missing", func(FinalizedMessage) { called = true })

	time.Sleep(DebounceWindow + 200*time.Millisecond)
	if called {
		t.Error("expected sink not to be called with no staged metadata or text")
	}
}

func TestStagePartCreatesUnknownRoleMetadata(t *testing.T) {
	fc := New()
	fc.StagePart(Part{Type: "text", MessageID: "m1", SessionID: "s1", Text: "hi"})

	fc.mu.Lock()
	meta, ok := fc.metadata["m1"]
	fc.mu.Unlock()

	if !ok {
		t.Fatal("expected metadata to be created for an unstaged message id")
	}
	if meta.Role != "unknown" {
		t.Errorf("expected role 'unknown', got %q", meta.Role)
	}
}

func TestStagePartLatestTextWins(t *testing.T) {
	fc := New()
	fc.StagePart(Part{Type: "text", MessageID: "m1", SessionID: "s1", Text: "first"})
	fc.StagePart(Part{Type: "text", MessageID: "m1", SessionID: "s1", Text: "second"})

	fc.mu.Lock()
	text := fc.partsText["m1"]
	fc.mu.Unlock()

	if text != "second" {
		t.Errorf("expected latest part to win, got %q", text)
	}
}

func TestStageMetadataRejectsEmptyFields(t *testing.T) {
	fc := New()

	if err := fc.StageMetadata(MetadataInput{SessionID: "s1"}); err == nil {
		t.Error("expected an error for an empty id")
	}
	if err := fc.StageMetadata(MetadataInput{ID: "m1"}); err == nil {
		t.Error("expected an error for an empty sessionId")
	}
}
