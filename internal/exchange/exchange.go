// Package exchange encodes and decodes the portable learner state document.
package exchange

import (
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/santhosh-tekuri/jsonschema/v6"
	"github.com/santhosh-tekuri/jsonschema/v6/kind"

	"github.com/medilearn/healthxp/internal/level"
	"github.com/medilearn/healthxp/internal/progress"
)

//go:embed state.schema.json
var stateSchema []byte

const schemaURL = "schema://healthxp/state.json"

// ErrUnsupportedVersion is returned for a schemaVersion this build cannot read.
var ErrUnsupportedVersion = errors.New("unsupported schema version")

// ImportError reports why a payload was rejected. Field is a dotted path to
// the offending value, empty when the payload is not JSON at all.
type ImportError struct {
	Field string
	Err   error
}

func (e *ImportError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("import: %v", e.Err)
	}
	return fmt.Sprintf("import: %s: %v", e.Field, e.Err)
}

func (e *ImportError) Unwrap() error { return e.Err }

var (
	compileOnce sync.Once
	compiled    *jsonschema.Schema
	compileErr  error
)

func schema() (*jsonschema.Schema, error) {
	compileOnce.Do(func() {
		var def any
		if err := json.Unmarshal(stateSchema, &def); err != nil {
			compileErr = fmt.Errorf("parse state schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		c.AssertFormat()
		if err := c.AddResource(schemaURL, def); err != nil {
			compileErr = fmt.Errorf("add resource: %w", err)
			return
		}
		compiled, compileErr = c.Compile(schemaURL)
	})
	return compiled, compileErr
}

// Export encodes a state as indented JSON.
func Export(s progress.State) ([]byte, error) {
	s.Normalize()
	if s.SchemaVersion == "" {
		s.SchemaVersion = progress.SchemaVersion
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("export state: %w", err)
	}
	return b, nil
}

// Import validates and decodes an exported state. Nothing is returned unless
// the whole document is valid.
func Import(data []byte) (progress.State, error) {
	var parsed any
	if err := json.Unmarshal(data, &parsed); err != nil {
		return progress.State{}, &ImportError{Err: fmt.Errorf("invalid JSON: %w", err)}
	}

	sch, err := schema()
	if err != nil {
		return progress.State{}, &ImportError{Err: err}
	}
	if err := sch.Validate(parsed); err != nil {
		return progress.State{}, &ImportError{Field: failingField(err), Err: fmt.Errorf("schema validation failed: %w", err)}
	}

	var s progress.State
	if err := json.Unmarshal(data, &s); err != nil {
		return progress.State{}, &ImportError{Err: fmt.Errorf("decode state: %w", err)}
	}
	if !progress.IsSupportedVersion(s.SchemaVersion) {
		return progress.State{}, &ImportError{
			Field: "schemaVersion",
			Err:   fmt.Errorf("%w: %q", ErrUnsupportedVersion, s.SchemaVersion),
		}
	}
	s.Normalize()
	if err := s.CheckInvariants(); err != nil {
		var fe *progress.FieldError
		if errors.As(err, &fe) {
			return progress.State{}, &ImportError{Field: fe.Field, Err: errors.New(fe.Reason)}
		}
		return progress.State{}, &ImportError{Err: err}
	}
	if err := checkLevel(s.Progress.Level); err != nil {
		return progress.State{}, err
	}
	s.Progress.Level = level.NewSystem(s.Progress.Level.TotalXP)
	return s, nil
}

// checkLevel rejects a level block that disagrees with its own lifetime XP.
// The remaining derived fields are rebuilt by the caller.
func checkLevel(l progress.LevelSystem) error {
	want := level.LevelFromXP(l.TotalXP)
	if l.CurrentLevel != want.Level {
		return &ImportError{Field: "progress.level.currentLevel",
			Err: fmt.Errorf("level %d does not match %d total XP (want %d)", l.CurrentLevel, l.TotalXP, want.Level)}
	}
	if l.CurrentXP != want.CurrentXP {
		return &ImportError{Field: "progress.level.currentXP",
			Err: fmt.Errorf("current XP %d does not match %d total XP (want %d)", l.CurrentXP, l.TotalXP, want.CurrentXP)}
	}
	return nil
}

// failingField walks to the deepest schema violation and renders its
// instance location as a dotted path. Missing required properties are named
// directly.
func failingField(err error) string {
	var ve *jsonschema.ValidationError
	if !errors.As(err, &ve) {
		return ""
	}
	for len(ve.Causes) > 0 {
		ve = ve.Causes[0]
	}
	var b strings.Builder
	for _, seg := range ve.InstanceLocation {
		if _, err := strconv.Atoi(seg); err == nil {
			fmt.Fprintf(&b, "[%s]", seg)
			continue
		}
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(seg)
	}
	if req, ok := ve.ErrorKind.(*kind.Required); ok && len(req.Missing) > 0 {
		if b.Len() > 0 {
			b.WriteByte('.')
		}
		b.WriteString(req.Missing[0])
	}
	return b.String()
}
