package formatters

import (
	"strings"
	"testing"
	"time"
)

func TestNewFormatterUnknownType(t *testing.T) {
	if _, err := NewFormatter("xml"); err == nil {
		t.Error("expected an error for an unknown format type")
	}
}

func TestTableFormatterEmpty(t *testing.T) {
	f := &TableFormatter{}
	out, err := f.Format(nil)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if out != "(no results)\n" {
		t.Errorf("expected '(no results)', got %q", out)
	}
}

func TestTableFormatterRendersColumnsSorted(t *testing.T) {
	f := &TableFormatter{}
	rows := []map[string]interface{}{
		{"id": "s1", "title": "Hello"},
	}
	out, err := f.Format(rows)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	idIdx := strings.Index(out, "id")
	titleIdx := strings.Index(out, "title")
	if idIdx == -1 || titleIdx == -1 || idIdx > titleIdx {
		t.Errorf("expected 'id' column before 'title', got:\n%s", out)
	}
}

func TestTableFormatterTruncatesLongValues(t *testing.T) {
	f := &TableFormatter{}
	rows := []map[string]interface{}{
		{"text": strings.Repeat("x", 100)},
	}
	out, err := f.Format(rows)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if !strings.Contains(out, "...") {
		t.Errorf("expected truncated value to contain '...', got:\n%s", out)
	}
}

func TestJSONFormatter(t *testing.T) {
	f := &JSONFormatter{}
	rows := []map[string]interface{}{{"id": "s1"}}
	out, err := f.Format(rows)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if !strings.Contains(out, `"id": "s1"`) {
		t.Errorf("expected JSON output to contain id field, got:\n%s", out)
	}
}

func TestJSONFormatterNilRows(t *testing.T) {
	f := &JSONFormatter{}
	out, err := f.Format(nil)
	if err != nil {
		t.Fatalf("Format: %v", err)
	}
	if strings.TrimSpace(out) != "[]" {
		t.Errorf("expected empty JSON array, got %q", out)
	}
}

func TestQueryFooter(t *testing.T) {
	out := QueryFooter(1204, 38*time.Millisecond)
	if !strings.Contains(out, "1,204") {
		t.Errorf("expected thousands separator in footer, got %q", out)
	}
	if !strings.Contains(out, "38ms") {
		t.Errorf("expected elapsed duration in footer, got %q", out)
	}
}

func TestProfileAge(t *testing.T) {
	age := ProfileAge(time.Now().Add(-3 * 24 * time.Hour))
	if !strings.Contains(age, "days") {
		t.Errorf("expected a 'days' relative age, got %q", age)
	}
}
