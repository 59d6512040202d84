package compiler

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/verith/attest/internal/profile"
)

// Validation error codes (E100-E199)
const (
	ErrProfileNameEmpty   = "E101" // profile name is required
	ErrProfileNoControls  = "E102" // at least one control required
	ErrControlNoChecks    = "E103" // control must have checks
	ErrInvalidOperator    = "E104" // unknown expectation or condition operator
	ErrDuplicateControlID = "E105" // duplicate control ID
	ErrImpactOutOfRange   = "E106" // impact outside [0, 1]
	ErrInvalidResource    = "E107" // unknown check resource
	ErrInvalidInputType   = "E108" // unknown input type
	ErrUnknownInputRef    = "E109" // expectation references undeclared input
	ErrDuplicateInput     = "E110" // duplicate input name
)

// ValidationError is one semantic validation failure.
type ValidationError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
	Code    string `json:"code"`
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("[%s] %s: %s", e.Code, e.Field, e.Message)
}

// ValidationErrors aggregates validation failures into one error.
type ValidationErrors []ValidationError

func (e ValidationErrors) Error() string {
	msgs := make([]string, len(e))
	for i, v := range e {
		msgs[i] = v.Error()
	}
	return strings.Join(msgs, "\n")
}

// inputRefPattern matches "${input.name}" expectation values.
var inputRefPattern = regexp.MustCompile(`^\$\{input\.([a-z_][a-z0-9_]*)\}$`)

// Validate runs semantic checks a structural schema cannot express:
// duplicates, cross-references, and value ranges the YAML decoder does
// not see. Returns all errors found (does not fail-fast).
func Validate(p *profile.Profile) []ValidationError {
	var errs []ValidationError

	if strings.TrimSpace(p.Name) == "" {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: "profile name is required",
			Code:    ErrProfileNameEmpty,
		})
	}

	if len(p.Controls) == 0 {
		errs = append(errs, ValidationError{
			Field:   "controls",
			Message: "at least one control is required",
			Code:    ErrProfileNoControls,
		})
	}

	inputNames := make(map[string]bool)
	for i, in := range p.Inputs {
		if inputNames[in.Name] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("inputs[%d].name", i),
				Message: fmt.Sprintf("duplicate input name %q", in.Name),
				Code:    ErrDuplicateInput,
			})
		}
		inputNames[in.Name] = true

		if in.Type != "" && !profile.ValidInputTypes[in.Type] {
			errs = append(errs, ValidationError{
				Field:   fmt.Sprintf("inputs[%d].type", i),
				Message: fmt.Sprintf("invalid type %q for input %q", in.Type, in.Name),
				Code:    ErrInvalidInputType,
			})
		}
	}

	controlIDs := make(map[string]bool)
	for i := range p.Controls {
		ctl := &p.Controls[i]
		field := fmt.Sprintf("controls[%d]", i)

		if controlIDs[ctl.ID] {
			errs = append(errs, ValidationError{
				Field:   field + ".id",
				Message: fmt.Sprintf("duplicate control ID %q", ctl.ID),
				Code:    ErrDuplicateControlID,
			})
		}
		controlIDs[ctl.ID] = true

		errs = append(errs, validateControl(ctl, field, inputNames)...)
	}

	return errs
}

func validateControl(ctl *profile.Control, field string, inputNames map[string]bool) []ValidationError {
	var errs []ValidationError

	errs = append(errs, validateImpact(ctl.Impact, field+".impact", ctl.ID)...)

	for j, rule := range ctl.ImpactRules {
		ruleField := fmt.Sprintf("%s.impact_rules[%d]", field, j)
		errs = append(errs, validateImpact(rule.Impact, ruleField+".impact", ctl.ID)...)
		errs = append(errs, validateCondition(&rule.When, ruleField+".when")...)
	}

	if ctl.OnlyIf != nil {
		errs = append(errs, validateCondition(ctl.OnlyIf, field+".only_if")...)
	}

	if len(ctl.Checks) == 0 {
		errs = append(errs, ValidationError{
			Field:   field + ".checks",
			Message: fmt.Sprintf("control %q must have at least one check", ctl.ID),
			Code:    ErrControlNoChecks,
		})
	}

	for j, check := range ctl.Checks {
		checkField := fmt.Sprintf("%s.checks[%d]", field, j)

		if !profile.ValidResources[check.Resource] {
			errs = append(errs, ValidationError{
				Field:   checkField + ".resource",
				Message: fmt.Sprintf("unknown resource %q", check.Resource),
				Code:    ErrInvalidResource,
			})
		}

		for k, expect := range check.Expect {
			expectField := fmt.Sprintf("%s.expect[%d]", checkField, k)

			if !profile.ValidOps[expect.Op] {
				errs = append(errs, ValidationError{
					Field:   expectField + ".op",
					Message: fmt.Sprintf("unknown operator %q", expect.Op),
					Code:    ErrInvalidOperator,
				})
			}

			if s, ok := expect.Value.(string); ok {
				if m := inputRefPattern.FindStringSubmatch(s); m != nil && !inputNames[m[1]] {
					errs = append(errs, ValidationError{
						Field:   expectField + ".value",
						Message: fmt.Sprintf("input %q is not declared", m[1]),
						Code:    ErrUnknownInputRef,
					})
				}
			}
		}
	}

	return errs
}

func validateImpact(impact float64, field, controlID string) []ValidationError {
	if impact < 0 || impact > 1 {
		return []ValidationError{{
			Field:   field,
			Message: fmt.Sprintf("impact %v for control %q outside [0, 1]", impact, controlID),
			Code:    ErrImpactOutOfRange,
		}}
	}
	return nil
}

func validateCondition(cond *profile.Condition, field string) []ValidationError {
	if !profile.ValidConditionOps[cond.Op] {
		return []ValidationError{{
			Field:   field + ".op",
			Message: fmt.Sprintf("unknown condition operator %q", cond.Op),
			Code:    ErrInvalidOperator,
		}}
	}
	return nil
}
