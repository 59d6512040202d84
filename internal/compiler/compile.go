package compiler

import (
	"bytes"
	_ "embed"
	"fmt"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cueyaml "cuelang.org/go/encoding/yaml"
	"gopkg.in/yaml.v3"

	"github.com/verith/attest/internal/profile"
)

//go:embed schema.cue
var schemaCUE string

// CompileProfile parses and validates a YAML profile document.
//
// Validation happens in three layers:
//  1. the embedded CUE schema - structure, enums, ranges, with source
//     positions on every violation
//  2. strict YAML decoding - unknown fields are rejected to catch typos
//     the schema's open positions would let through
//  3. semantic checks - duplicate control IDs, input references,
//     anything that needs cross-field knowledge
//
// The filename is used for error positions only.
func CompileProfile(filename string, data []byte) (*profile.Profile, error) {
	ctx := cuecontext.New()

	schema := ctx.CompileString(schemaCUE, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		// The schema is embedded; this fires only on a build defect.
		panic(fmt.Sprintf("embedded profile schema is invalid: %v", err))
	}
	def := schema.LookupPath(cue.ParsePath("#Profile"))

	doc, err := extractYAML(ctx, filename, data)
	if err != nil {
		return nil, err
	}

	unified := def.Unify(doc)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, formatCUEError(err)
	}

	var p profile.Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil {
		return nil, &CompileError{
			Field:   "profile",
			Message: fmt.Sprintf("decoding %s: %v", filename, err),
		}
	}

	if errs := Validate(&p); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &p, nil
}

// extractYAML converts a YAML document to a CUE value.
func extractYAML(ctx *cue.Context, filename string, data []byte) (cue.Value, error) {
	file, err := cueyaml.Extract(filename, data)
	if err != nil {
		return cue.Value{}, &CompileError{
			Field:   "profile",
			Message: fmt.Sprintf("parsing %s: %v", filename, err),
		}
	}
	doc := ctx.BuildFile(file)
	if err := doc.Err(); err != nil {
		return cue.Value{}, formatCUEError(err)
	}
	return doc, nil
}

// CompileError is a compilation failure with an optional source
// position.
type CompileError struct {
	Field   string
	Message string
	Pos     token.Pos
}

func (e *CompileError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s",
			e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(),
			e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// formatCUEError extracts position info from CUE errors.
// CUE errors may aggregate several; the first positioned one wins.
func formatCUEError(err error) error {
	if err == nil {
		return nil
	}

	errs := cueerrors.Errors(err)
	if len(errs) == 0 {
		return err
	}

	first := errs[0]
	positions := cueerrors.Positions(first)
	if len(positions) > 0 {
		return &CompileError{
			Field:   "schema",
			Message: first.Error(),
			Pos:     positions[0],
		}
	}

	return &CompileError{
		Field:   "schema",
		Message: first.Error(),
	}
}
