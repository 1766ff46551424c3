package bridge

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/vatsalai/vatsal/internal/shared/stringutils"
)

// Field names shared by command and response envelopes.
const (
	FieldRequestID = "request_id"
	FieldStatus    = "status"
	FieldTimestamp = "timestamp"
)

// TimestampLayout is the ISO-8601 layout used for envelope timestamps.
const TimestampLayout = time.RFC3339Nano

// Command is a submitted command waiting for the backend.
// It is built by the bridge and never mutated afterwards.
type Command struct {
	requestID string
	command   string
	source    Source
	timestamp time.Time
	metadata  map[string]any
}

func newCommand(requestID, command string, source Source, at time.Time, metadata map[string]any) Command {
	return Command{
		requestID: requestID,
		command:   command,
		source:    source,
		timestamp: at,
		metadata:  copyFields(metadata),
	}
}

func (c Command) RequestID() string    { return c.requestID }
func (c Command) Command() string      { return c.command }
func (c Command) Source() Source       { return c.source }
func (c Command) Timestamp() time.Time { return c.timestamp }

// TimestampString returns the submission time as an ISO-8601 string.
func (c Command) TimestampString() string { return c.timestamp.Format(TimestampLayout) }

// Metadata returns a copy of the caller-supplied metadata.
func (c Command) Metadata() map[string]any { return copyFields(c.metadata) }

const previewLen = 80

// Preview returns a short snippet of the command text for logging.
func (c Command) Preview() string {
	return stringutils.Truncate(c.command, previewLen, "...")
}

type commandJSON struct {
	RequestID string         `json:"request_id"`
	Command   string         `json:"command"`
	Source    Source         `json:"source"`
	Timestamp string         `json:"timestamp"`
	Metadata  map[string]any `json:"metadata"`
}

func (c Command) MarshalJSON() ([]byte, error) {
	md := c.metadata
	if md == nil {
		md = map[string]any{}
	}
	return json.Marshal(commandJSON{
		RequestID: c.requestID,
		Command:   c.command,
		Source:    c.source,
		Timestamp: c.TimestampString(),
		Metadata:  md,
	})
}

// requestIDFrom returns the caller-provided correlation id, if any.
func requestIDFrom(metadata map[string]any) string {
	v, ok := metadata[FieldRequestID]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

func copyFields(in map[string]any) map[string]any {
	if in == nil {
		return nil
	}
	out := make(map[string]any, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}
