package session

import (
	"bytes"
	"encoding/json"
	"fmt"
)

const (
	sessionFormatVersionCurrent = 1
	// sessionFormatVersionLegacy is the bare session object the browser
	// portal wrote before the envelope existed. It carries no "v" member.
	sessionFormatVersionLegacy = 0
)

type envelope struct {
	Version int             `json:"v"`
	Session json.RawMessage `json:"session"`
}

// Encode serializes s into the current envelope format. Incomplete sessions
// are rejected so that a half-written record can never reach a backend.
func Encode(s *Session) ([]byte, error) {
	if !s.Complete() {
		return nil, ErrSessionIncomplete
	}
	body, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("session: encode: %w", err)
	}
	return json.Marshal(envelope{Version: sessionFormatVersionCurrent, Session: body})
}

// Decode parses data written by Encode or by the legacy bare format.
//
// A structurally invalid payload yields ErrSessionCorrupt. A payload that
// parses but lacks a user or token yields ErrSessionIncomplete; callers
// treat both as "no session".
func Decode(data []byte) (*Session, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, ErrSessionCorrupt
	}

	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCorrupt, err)
	}

	version := sessionFormatVersionLegacy
	body := data
	if rawVersion, ok := probe["v"]; ok {
		if err := json.Unmarshal(rawVersion, &version); err != nil {
			return nil, fmt.Errorf("%w: version: %v", ErrSessionCorrupt, err)
		}
		body = probe["session"]
	}

	switch version {
	case sessionFormatVersionCurrent, sessionFormatVersionLegacy:
	default:
		return nil, fmt.Errorf("%w: unsupported version %d", ErrSessionCorrupt, version)
	}
	if len(body) == 0 || string(body) == "null" {
		return nil, ErrSessionIncomplete
	}

	s := &Session{}
	if err := json.Unmarshal(body, s); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrSessionCorrupt, err)
	}
	if !s.Complete() {
		return nil, ErrSessionIncomplete
	}
	return s, nil
}
