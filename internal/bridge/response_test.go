package bridge

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"
	"unicode/utf8"
)

func TestResponse_Validate(t *testing.T) {
	if err := Response(nil).validate(); !errors.Is(err, ErrNilResponse) {
		t.Errorf("expected ErrNilResponse, got %v", err)
	}
	if err := (Response{"request_id": "x"}).validate(); !errors.Is(err, ErrMissingStatus) {
		t.Errorf("expected ErrMissingStatus, got %v", err)
	}
	if err := (Response{"status": 1}).validate(); !errors.Is(err, ErrMissingStatus) {
		t.Errorf("expected ErrMissingStatus for non-string status, got %v", err)
	}
	if err := (Response{"status": "ok"}).validate(); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestDelivery_OverwritesTimestampAndCopies(t *testing.T) {
	r := Response{"status": "ok", "request_id": "r1", "timestamp": "backend-time"}
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	d := newDelivery(r, at)

	if got := d.Text(FieldTimestamp); got != at.Format(TimestampLayout) {
		t.Errorf("expected bridge timestamp, got %q", got)
	}

	r["status"] = "mutated"
	if d.Status() != "ok" {
		t.Errorf("delivery changed with the source map: %q", d.Status())
	}

	fields := d.Fields()
	fields["status"] = "mutated"
	if d.Status() != "ok" {
		t.Errorf("delivery changed through Fields(): %q", d.Status())
	}
}

func TestDelivery_MarshalJSON(t *testing.T) {
	d := newDelivery(Response{"status": "ok", "request_id": "r1", "echo": "ping"}, time.Now())
	data, err := json.Marshal(d)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out["echo"] != "ping" || out["request_id"] != "r1" || out["timestamp"] == "" {
		t.Errorf("unexpected JSON: %s", data)
	}
}

func TestCommand_MetadataIsCopied(t *testing.T) {
	md := map[string]any{"k": "v"}
	c := newCommand("id", "ping", SourceWebGUI, time.Now(), md)

	md["k"] = "changed"
	if c.Metadata()["k"] != "v" {
		t.Errorf("command metadata changed with caller map")
	}

	got := c.Metadata()
	got["k"] = "changed"
	if c.Metadata()["k"] != "v" {
		t.Errorf("command metadata changed through getter")
	}
}

func TestCommand_MarshalJSON(t *testing.T) {
	c := newCommand("id-1", "ping", SourceWebGUI, time.Now(), nil)
	data, err := json.Marshal(c)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	for _, key := range []string{"request_id", "command", "source", "timestamp", "metadata"} {
		if _, ok := out[key]; !ok {
			t.Errorf("missing key %q in %s", key, data)
		}
	}
	if _, err := time.Parse(TimestampLayout, out["timestamp"].(string)); err != nil {
		t.Errorf("timestamp not ISO-8601: %v", err)
	}
}

func TestCommand_PreviewKeepsRunes(t *testing.T) {
	// 79 ASCII bytes then a 3-byte rune straddling the cut.
	text := strings.Repeat("a", 79) + "€€€"
	c := newCommand("id", text, SourceWebGUI, time.Now(), nil)

	got := c.Preview()
	if !utf8.ValidString(got) {
		t.Fatalf("preview is not valid UTF-8: %q", got)
	}
	if want := strings.Repeat("a", 79) + "..."; got != want {
		t.Errorf("expected %q, got %q", want, got)
	}

	short := newCommand("id", "ping", SourceWebGUI, time.Now(), nil)
	if short.Preview() != "ping" {
		t.Errorf("expected short command untouched, got %q", short.Preview())
	}
}
