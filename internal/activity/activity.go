// Package activity defines the learning events reported by the education
// module and their JSON envelope.
package activity

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// Type identifies an event kind on the wire.
type Type string

const (
	TypeModuleCompleted Type = "module_completed"
	TypeQuizCompleted   Type = "quiz_completed"
	TypeLogin           Type = "login"
	TypeLabReviewed     Type = "lab_reviewed"
	TypeContentShared   Type = "content_shared"
	TypeTeachingSession Type = "teaching_session"
)

// ErrUnknownType is returned for an event type the engine does not handle.
var ErrUnknownType = errors.New("unknown activity type")

// AllTypes returns every known event type.
func AllTypes() []Type {
	return []Type{
		TypeModuleCompleted,
		TypeQuizCompleted,
		TypeLogin,
		TypeLabReviewed,
		TypeContentShared,
		TypeTeachingSession,
	}
}

// Event is one inbound learning event.
type Event interface {
	// Kind is the wire type of the event.
	Kind() Type
	// At is when the activity happened.
	At() time.Time
	// Key identifies the event for duplicate detection during sync.
	Key() string
}

// ModuleCompleted reports that a learner finished a module.
type ModuleCompleted struct {
	ModuleID     string    `json:"moduleId" validate:"required,max=128"`
	Specialty    string    `json:"specialty" validate:"required,slug"`
	Timestamp    time.Time `json:"timestamp" validate:"required"`
	Minutes      int       `json:"minutes,omitempty" validate:"gte=0,lte=1440"`
	TotalModules int       `json:"totalModules,omitempty" validate:"gte=0,lte=10000"`
}

// QuizCompleted reports a graded quiz. Grading happens upstream.
type QuizCompleted struct {
	QuizID    string    `json:"quizId,omitempty" validate:"max=128"`
	Specialty string    `json:"specialty" validate:"required,slug"`
	Score     float64   `json:"score" validate:"gte=0,lte=100"`
	IsPerfect bool      `json:"isPerfect"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
	Minutes   int       `json:"minutes,omitempty" validate:"gte=0,lte=1440"`
}

// Login reports a learner session start.
type Login struct {
	Timestamp time.Time `json:"timestamp" validate:"required"`
}

// LabReviewed reports that a learner walked through a lab result explainer.
type LabReviewed struct {
	LabID     string    `json:"labId" validate:"required,max=128"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
}

// ContentShared reports that a learner shared an article.
type ContentShared struct {
	ContentID string    `json:"contentId" validate:"required,max=128"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
}

// TeachingSession is a teach-back exercise: the learner explains a prompt in
// their own words.
type TeachingSession struct {
	Prompt    string    `json:"prompt" validate:"required,maxbytes"`
	Response  string    `json:"response" validate:"required,maxbytes"`
	Specialty string    `json:"specialty,omitempty" validate:"omitempty,slug"`
	Timestamp time.Time `json:"timestamp" validate:"required"`
}

func (e ModuleCompleted) Kind() Type { return TypeModuleCompleted }
func (e QuizCompleted) Kind() Type   { return TypeQuizCompleted }
func (e Login) Kind() Type           { return TypeLogin }
func (e LabReviewed) Kind() Type     { return TypeLabReviewed }
func (e ContentShared) Kind() Type   { return TypeContentShared }
func (e TeachingSession) Kind() Type { return TypeTeachingSession }

func (e ModuleCompleted) At() time.Time { return e.Timestamp }
func (e QuizCompleted) At() time.Time   { return e.Timestamp }
func (e Login) At() time.Time           { return e.Timestamp }
func (e LabReviewed) At() time.Time     { return e.Timestamp }
func (e ContentShared) At() time.Time   { return e.Timestamp }
func (e TeachingSession) At() time.Time { return e.Timestamp }

func (e ModuleCompleted) Key() string { return key(e.Kind(), e.ModuleID, e.Timestamp) }
func (e QuizCompleted) Key() string   { return key(e.Kind(), e.Specialty+"/"+e.QuizID, e.Timestamp) }
func (e Login) Key() string           { return key(e.Kind(), "", e.Timestamp) }
func (e LabReviewed) Key() string     { return key(e.Kind(), e.LabID, e.Timestamp) }
func (e ContentShared) Key() string   { return key(e.Kind(), e.ContentID, e.Timestamp) }
// Key includes a digest of the exchange so two sessions recorded in the same
// instant for one specialty stay distinct.
func (e TeachingSession) Key() string {
	sum := sha256.Sum256([]byte(e.Prompt + "\x00" + e.Response))
	return key(e.Kind(), e.Specialty+"/"+hex.EncodeToString(sum[:6]), e.Timestamp)
}

func key(t Type, id string, ts time.Time) string {
	return fmt.Sprintf("%s:%s@%s", t, id, ts.UTC().Format(time.RFC3339Nano))
}
