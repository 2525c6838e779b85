package model

import "encoding/json"

// Event is the wire shape of a session event. Events are transient: they
// live only in the ring history store, never in the relational store.
type Event struct {
	ClientType string          `json:"client_type"`
	EventType  string          `json:"event_type"`
	Data       json.RawMessage `json:"data"`
	Date       string          `json:"date"`
	SessionID  string          `json:"session_id"`
}

// Required fields of an inbound event, with the error reported when absent.
var requiredEventFields = []struct {
	field string
	msg   string
}{
	{"session_id", "Session ID not found in JSON object"},
	{"client_type", "Client type not found in JSON object"},
	{"event_type", "Event type not found in JSON object"},
	{"data", "Data not found in JSON object"},
	{"date", "Date not found in JSON object"},
}

// ValidateEvent checks an inbound message for well-formedness and required
// fields. It collects every violation instead of stopping at the first; a
// non-object or unparseable payload yields the single "Invalid JSON" error.
func ValidateEvent(raw []byte) (map[string]json.RawMessage, []string) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil || obj == nil {
		return nil, []string{"Invalid JSON"}
	}
	var errors []string
	for _, rf := range requiredEventFields {
		if _, ok := obj[rf.field]; !ok {
			errors = append(errors, rf.msg)
		}
	}
	return obj, errors
}
