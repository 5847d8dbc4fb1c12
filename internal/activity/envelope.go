package activity

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Envelope is the wire form of an event: a type tag and a typed payload.
type Envelope struct {
	Type    Type            `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

// Wrap encodes an event into an envelope.
func Wrap(e Event) (Envelope, error) {
	b, err := json.Marshal(e)
	if err != nil {
		return Envelope{}, fmt.Errorf("encode %s payload: %w", e.Kind(), err)
	}
	return Envelope{Type: e.Kind(), Payload: b}, nil
}

// Decode parses an envelope into its concrete event. It does not validate.
func Decode(env Envelope) (Event, error) {
	var (
		e   Event
		err error
	)
	switch env.Type {
	case TypeModuleCompleted:
		e, err = decodeAs[ModuleCompleted](env.Payload)
	case TypeQuizCompleted:
		e, err = decodeAs[QuizCompleted](env.Payload)
	case TypeLogin:
		e, err = decodeAs[Login](env.Payload)
	case TypeLabReviewed:
		e, err = decodeAs[LabReviewed](env.Payload)
	case TypeContentShared:
		e, err = decodeAs[ContentShared](env.Payload)
	case TypeTeachingSession:
		e, err = decodeAs[TeachingSession](env.Payload)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownType, env.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("decode %s payload: %w", env.Type, err)
	}
	return e, nil
}

func decodeAs[T Event](raw json.RawMessage) (Event, error) {
	var v T
	if len(raw) == 0 {
		return nil, errors.New("missing payload")
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	return v, nil
}

// DecodeBatch parses a JSON array of envelopes. A failure names the index.
func DecodeBatch(data []byte) ([]Event, error) {
	var envs []Envelope
	if err := json.Unmarshal(data, &envs); err != nil {
		return nil, fmt.Errorf("parse event batch: %w", err)
	}
	events := make([]Event, 0, len(envs))
	for i, env := range envs {
		e, err := Decode(env)
		if err != nil {
			return nil, &ValidationError{Index: i, Type: env.Type, Err: err}
		}
		events = append(events, e)
	}
	return events, nil
}
