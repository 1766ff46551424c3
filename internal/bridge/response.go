package bridge

import (
	"encoding/json"
	"fmt"
	"time"
)

// Response statuses used by the desktop backend. Backends may use others.
const (
	StatusSuccess = "success"
	StatusError   = "error"
	StatusPartial = "partial"
)

// Response is the payload a backend publishes. "status" is required and
// "request_id" should echo the command being answered.
type Response map[string]any

func (r Response) validate() error {
	if r == nil {
		return ErrNilResponse
	}
	s, ok := r[FieldStatus].(string)
	if !ok || s == "" {
		return ErrMissingStatus
	}
	return nil
}

// Delivery is a response accepted by the bridge, stamped with the moment of
// acceptance. Subscribers receive Delivery values; they are never mutated.
type Delivery struct {
	fields    map[string]any
	timestamp time.Time
}

func newDelivery(r Response, at time.Time) Delivery {
	fields := make(map[string]any, len(r)+1)
	for k, v := range r {
		fields[k] = v
	}
	fields[FieldTimestamp] = at.Format(TimestampLayout)
	return Delivery{fields: fields, timestamp: at}
}

// RequestID returns the correlation id, or "" for unsolicited notifications.
func (d Delivery) RequestID() string { return d.Text(FieldRequestID) }

func (d Delivery) Status() string       { return d.Text(FieldStatus) }
func (d Delivery) Timestamp() time.Time { return d.timestamp }

// Get returns a single field.
func (d Delivery) Get(key string) (any, bool) {
	v, ok := d.fields[key]
	return v, ok
}

// Text returns a field formatted as a string, or "" when absent.
func (d Delivery) Text(key string) string {
	v, ok := d.fields[key]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	return fmt.Sprint(v)
}

// Fields returns a copy of every field, including the bridge timestamp.
func (d Delivery) Fields() map[string]any { return copyFields(d.fields) }

func (d Delivery) MarshalJSON() ([]byte, error) {
	if d.fields == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d.fields)
}
