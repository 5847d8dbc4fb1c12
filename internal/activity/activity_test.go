package activity

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var ts = time.Date(2024, 1, 3, 14, 30, 0, 0, time.UTC)

func TestValidateAcceptsWellFormed(t *testing.T) {
	events := []Event{
		ModuleCompleted{ModuleID: "cardio-101", Specialty: "cardiology", Timestamp: ts, Minutes: 20},
		QuizCompleted{Specialty: "cardiology", Score: 100, IsPerfect: true, Timestamp: ts},
		Login{Timestamp: ts},
		LabReviewed{LabID: "cbc", Timestamp: ts},
		ContentShared{ContentID: "article-7", Timestamp: ts},
		TeachingSession{Prompt: "Explain blood pressure", Response: "It is the force of blood.", Timestamp: ts},
	}
	require.NoError(t, ValidateBatch(events))
}

func TestValidateNamesField(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		field string
	}{
		{"missing module id", ModuleCompleted{Specialty: "cardiology", Timestamp: ts}, "moduleId"},
		{"bad specialty", ModuleCompleted{ModuleID: "m", Specialty: "Cardio Logy", Timestamp: ts}, "specialty"},
		{"score too high", QuizCompleted{Specialty: "cardiology", Score: 101, Timestamp: ts}, "score"},
		{"negative minutes", QuizCompleted{Specialty: "cardiology", Score: 50, Timestamp: ts, Minutes: -1}, "minutes"},
		{"zero timestamp", Login{}, "timestamp"},
		{"empty lab", LabReviewed{Timestamp: ts}, "labId"},
		{"huge response", TeachingSession{Prompt: "p", Response: strings.Repeat("x", MaxTextBytes+1), Timestamp: ts}, "response"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(tt.event)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
			assert.Equal(t, tt.field, ve.Field)
			assert.Equal(t, -1, ve.Index)
		})
	}
}

func TestValidateBatchReportsIndex(t *testing.T) {
	events := []Event{
		Login{Timestamp: ts},
		ContentShared{Timestamp: ts},
	}
	err := ValidateBatch(events)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 1, ve.Index)
	assert.Equal(t, TypeContentShared, ve.Type)
	assert.Contains(t, err.Error(), "event 1")
}

type bogus struct{ Login }

func (bogus) Kind() Type { return "telepathy" }

func TestValidateUnknownType(t *testing.T) {
	err := Validate(bogus{Login{Timestamp: ts}})
	assert.True(t, errors.Is(err, ErrUnknownType))
}

func TestEnvelopeRoundTrip(t *testing.T) {
	in := QuizCompleted{QuizID: "q1", Specialty: "neurology", Score: 80, Timestamp: ts, Minutes: 5}
	env, err := Wrap(in)
	require.NoError(t, err)
	assert.Equal(t, TypeQuizCompleted, env.Type)

	out, err := Decode(env)
	require.NoError(t, err)
	assert.Equal(t, in, out)
}

func TestDecodeUnknownType(t *testing.T) {
	_, err := Decode(Envelope{Type: "dance", Payload: []byte(`{}`)})
	assert.ErrorIs(t, err, ErrUnknownType)
}

func TestDecodeBatch(t *testing.T) {
	data := []byte(`[
		{"type":"login","payload":{"timestamp":"2024-01-03T08:00:00Z"}},
		{"type":"module_completed","payload":{"moduleId":"derm-1","specialty":"dermatology","timestamp":"2024-01-03T09:00:00Z","minutes":15}}
	]`)
	events, err := DecodeBatch(data)
	require.NoError(t, err)
	require.Len(t, events, 2)
	mc, ok := events[1].(ModuleCompleted)
	require.True(t, ok)
	assert.Equal(t, "derm-1", mc.ModuleID)
	assert.Equal(t, 15, mc.Minutes)
}

func TestDecodeBatchBadPayload(t *testing.T) {
	_, err := DecodeBatch([]byte(`[{"type":"login","payload":{"timestamp":"yesterday"}}]`))
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 0, ve.Index)
}

func TestKeysDistinguishEvents(t *testing.T) {
	a := ModuleCompleted{ModuleID: "m1", Timestamp: ts}
	b := ModuleCompleted{ModuleID: "m1", Timestamp: ts.Add(time.Second)}
	c := ModuleCompleted{ModuleID: "m2", Timestamp: ts}
	assert.NotEqual(t, a.Key(), b.Key())
	assert.NotEqual(t, a.Key(), c.Key())
	assert.Equal(t, a.Key(), ModuleCompleted{ModuleID: "m1", Specialty: "x", Timestamp: ts.In(time.FixedZone("X", 3600))}.Key())
	assert.NotEqual(t, Login{Timestamp: ts}.Key(), LabReviewed{Timestamp: ts}.Key())

	ta := TeachingSession{Prompt: "Explain insulin", Response: "It moves sugar into cells.", Timestamp: ts}
	tb := TeachingSession{Prompt: "Explain blood pressure", Response: "It moves sugar into cells.", Timestamp: ts}
	assert.NotEqual(t, ta.Key(), tb.Key())
	assert.Equal(t, ta.Key(), TeachingSession{Prompt: ta.Prompt, Response: ta.Response, Timestamp: ts}.Key())
}
