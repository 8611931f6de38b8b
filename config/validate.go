package config

import (
	"context"
	"fmt"
	"strings"

	"cuelang.org/go/cue"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
)

// Issue is one schema violation.
type Issue struct {
	// Path is the field path, e.g. ["stores", "0", "url"].
	Path []string

	Message string

	Position token.Pos
}

// String renders the issue as "path: message".
func (i Issue) String() string {
	if len(i.Path) == 0 {
		return i.Message
	}
	return strings.Join(i.Path, ".") + ": " + i.Message
}

// Validate unifies data with schema and requires the result to be concrete.
// Every violation is reported, not just the first. The returned error
// carries the issues under the "issues" context key.
func Validate(ctx context.Context, schema, data cue.Value) error {
	if err := ctx.Err(); err != nil {
		return wrapValidationErrorWithContext(err, "context cancelled", nil)
	}
	if err := schema.Err(); err != nil {
		return wrapValidationErrorWithContext(err, "schema is invalid", makeContext("issues", Issues(err)))
	}

	unified := schema.Unify(data)
	if err := unified.Validate(cue.Concrete(true), cue.Final(), cue.All()); err != nil {
		return wrapValidationErrorWithContext(err, "configuration does not match the schema", makeContext(
			"details", cueerrors.Details(err, nil),
			"issues", Issues(err),
		))
	}
	return nil
}

// Issues splits a CUE error into its individual violations.
func Issues(err error) []Issue {
	if err == nil {
		return nil
	}

	var issues []Issue
	for _, e := range cueerrors.Errors(err) {
		format, args := e.Msg()

		var pos token.Pos
		if positions := e.InputPositions(); len(positions) > 0 {
			pos = positions[0]
		}
		issues = append(issues, Issue{
			Path:     e.Path(),
			Message:  fmt.Sprintf(format, args...),
			Position: pos,
		})
	}
	return issues
}
