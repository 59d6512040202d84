package runtime

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/verith/attest/internal/profile"
)

// Inputs holds resolved profile input values by name.
type Inputs map[string]any

// ResolveInputs merges profile input defaults with command-line
// overrides, coercing override strings to the declared input type.
//
// Errors:
//   - an override names an input the profile does not declare
//   - a required input has no default and no override
//   - an override cannot be coerced to the declared type
func ResolveInputs(p *profile.Profile, overrides map[string]string) (Inputs, error) {
	resolved := make(Inputs, len(p.Inputs))

	for _, in := range p.Inputs {
		if in.Default != nil {
			resolved[in.Name] = in.Default
		}
	}

	for name, raw := range overrides {
		in := p.Input(name)
		if in == nil {
			return nil, fmt.Errorf("input %q is not declared by profile %s", name, p.Name)
		}
		val, err := coerceInput(in, raw)
		if err != nil {
			return nil, err
		}
		resolved[name] = val
	}

	for _, in := range p.Inputs {
		if in.Required {
			if _, ok := resolved[in.Name]; !ok {
				return nil, fmt.Errorf("required input %q has no value", in.Name)
			}
		}
	}

	return resolved, nil
}

// coerceInput converts a raw override string to the input's declared
// type. Inputs without a declared type are strings.
func coerceInput(in *profile.Input, raw string) (any, error) {
	switch in.Type {
	case "", "string":
		return raw, nil
	case "int":
		n, err := strconv.Atoi(raw)
		if err != nil {
			return nil, fmt.Errorf("input %q: %q is not an int", in.Name, raw)
		}
		return n, nil
	case "bool":
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return nil, fmt.Errorf("input %q: %q is not a bool", in.Name, raw)
		}
		return b, nil
	default:
		return nil, fmt.Errorf("input %q: unknown type %q", in.Name, in.Type)
	}
}

// substituteInput replaces an "${input.name}" reference with the input's
// resolved value. Non-reference values pass through unchanged.
func substituteInput(value any, inputs Inputs) (any, error) {
	const prefix = "${input."
	const suffix = "}"

	s, ok := value.(string)
	if !ok {
		return value, nil
	}
	if !strings.HasPrefix(s, prefix) || !strings.HasSuffix(s, suffix) || len(s) <= len(prefix)+len(suffix) {
		return value, nil
	}

	name := s[len(prefix) : len(s)-len(suffix)]
	val, ok := inputs[name]
	if !ok {
		return nil, fmt.Errorf("input %q not resolved", name)
	}
	return val, nil
}

// inputSensitive reports whether an expectation value references a
// sensitive input. Such assertions are masked even when the expectation
// itself is not marked sensitive.
func inputSensitive(value any, p *profile.Profile) bool {
	const prefix = "${input."
	const suffix = "}"

	s, ok := value.(string)
	if !ok {
		return false
	}
	if !strings.HasPrefix(s, prefix) || !strings.HasSuffix(s, suffix) {
		return false
	}
	in := p.Input(s[len(prefix) : len(s)-len(suffix)])
	return in != nil && in.Sensitive
}
