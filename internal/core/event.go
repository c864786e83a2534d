package core

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Event kinds as they appear on the wire.
const (
	EventRename = "rename"
	EventSave   = "save"
)

// ErrBadEvent is returned when an encoded event cannot be decoded.
var ErrBadEvent = errors.New("bad event")

// Event is a change that may invalidate links. It is either a RenameEvent or a SaveEvent.
type Event interface {
	Kind() string
}

// RenameEvent reports that a file or folder moved from PathBefore to PathAfter.
type RenameEvent struct {
	PathBefore string `json:"pathBefore" mapstructure:"pathBefore"`
	PathAfter  string `json:"pathAfter" mapstructure:"pathAfter"`
	// IsDir marks a folder rename. When false, folder-ness is inferred from the snapshot.
	IsDir bool `json:"isDir,omitempty" mapstructure:"isDir"`
}

// Kind implements Event.
func (RenameEvent) Kind() string { return EventRename }

// SaveEvent carries the full text of one document before and after a save.
type SaveEvent struct {
	Path          string `json:"path" mapstructure:"path"`
	ContentBefore string `json:"contentBefore" mapstructure:"contentBefore"`
	ContentAfter  string `json:"contentAfter" mapstructure:"contentAfter"`
}

// Kind implements Event.
func (SaveEvent) Kind() string { return EventSave }

// envelope is the JSON form {"type": ..., "payload": ...}.
type envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// DecodeEvent parses the JSON envelope form of an event.
func DecodeEvent(data []byte) (Event, error) {
	var env envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadEvent, err)
	}
	return decodePayload(env.Type, env.Payload)
}

func decodePayload(kind string, payload json.RawMessage) (Event, error) {
	if len(payload) == 0 {
		return nil, fmt.Errorf("%w: missing payload", ErrBadEvent)
	}
	switch kind {
	case EventRename:
		var ev RenameEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadEvent, err)
		}
		if ev.PathBefore == "" || ev.PathAfter == "" {
			return nil, fmt.Errorf("%w: rename needs pathBefore and pathAfter", ErrBadEvent)
		}
		return ev, nil
	case EventSave:
		var ev SaveEvent
		if err := json.Unmarshal(payload, &ev); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrBadEvent, err)
		}
		if ev.Path == "" {
			return nil, fmt.Errorf("%w: save needs path", ErrBadEvent)
		}
		return ev, nil
	}
	return nil, fmt.Errorf("%w: unknown type %q", ErrBadEvent, kind)
}

// EncodeEvent renders ev in the JSON envelope form.
func EncodeEvent(ev Event) ([]byte, error) {
	if ev == nil {
		return nil, fmt.Errorf("%w: nil event", ErrBadEvent)
	}
	payload, err := json.Marshal(ev)
	if err != nil {
		return nil, err
	}
	return json.Marshal(envelope{Type: ev.Kind(), Payload: payload})
}

// WireEvent wraps an Event for JSON transports.
type WireEvent struct {
	Event Event
}

// UnmarshalJSON lets an Event be embedded in request bodies.
func (w *WireEvent) UnmarshalJSON(data []byte) error {
	ev, err := DecodeEvent(data)
	if err != nil {
		return err
	}
	w.Event = ev
	return nil
}

// MarshalJSON renders the wrapped event in envelope form.
func (w WireEvent) MarshalJSON() ([]byte, error) {
	return EncodeEvent(w.Event)
}
