package profile

// Profile is a compiled compliance profile: an ordered set of controls
// plus the metadata needed to resolve inputs and platform applicability.
type Profile struct {
	Name       string    `yaml:"name" json:"name"`
	Title      string    `yaml:"title,omitempty" json:"title,omitempty"`
	Version    string    `yaml:"version" json:"version"`
	Maintainer string    `yaml:"maintainer,omitempty" json:"maintainer,omitempty"`
	Summary    string    `yaml:"summary,omitempty" json:"summary,omitempty"`
	Supports   []Support `yaml:"supports,omitempty" json:"supports,omitempty"`
	Inputs     []Input   `yaml:"inputs,omitempty" json:"inputs,omitempty"`
	Controls   []Control `yaml:"controls" json:"controls"`
}

// Support is a platform constraint. Empty fields are wildcards:
// {os: linux} matches every linux target regardless of family or release.
type Support struct {
	OS      string `yaml:"os,omitempty" json:"os,omitempty"`
	Family  string `yaml:"family,omitempty" json:"family,omitempty"`
	Release string `yaml:"release,omitempty" json:"release,omitempty"`
}

// Input is a typed profile parameter. Values are resolved from defaults
// and command-line overrides before execution. Sensitive inputs are
// redacted wherever their value would appear in a report.
type Input struct {
	Name        string `yaml:"name" json:"name"`
	Type        string `yaml:"type,omitempty" json:"type,omitempty"` // "string" | "int" | "bool"
	Description string `yaml:"description,omitempty" json:"description,omitempty"`
	Default     any    `yaml:"default,omitempty" json:"default,omitempty"`
	Required    bool   `yaml:"required,omitempty" json:"required,omitempty"`
	Sensitive   bool   `yaml:"sensitive,omitempty" json:"sensitive,omitempty"`
}

// Valid input types.
var ValidInputTypes = map[string]bool{
	"string": true,
	"int":    true,
	"bool":   true,
}

// Control is a single compliance check with pass/fail criteria.
//
// Impact is the base severity weight (0.0-1.0). ImpactRules override it
// conditionally on platform facts; the first matching rule wins. Impact 0
// marks the control Not Applicable regardless of check results.
//
// OnlyIf is an optional skip directive: when its condition evaluates
// false against the target platform, the control is Not Reviewed and no
// checks run.
type Control struct {
	ID          string            `yaml:"id" json:"id"`
	Title       string            `yaml:"title" json:"title"`
	Desc        string            `yaml:"desc,omitempty" json:"desc,omitempty"`
	Impact      float64           `yaml:"impact" json:"impact"`
	ImpactRules []ImpactRule      `yaml:"impact_rules,omitempty" json:"impact_rules,omitempty"`
	Tags        map[string]string `yaml:"tags,omitempty" json:"tags,omitempty"`
	Refs        []Reference       `yaml:"refs,omitempty" json:"refs,omitempty"`
	OnlyIf      *Condition        `yaml:"only_if,omitempty" json:"only_if,omitempty"`
	Checks      []Check           `yaml:"checks" json:"checks"`
}

// Reference links a control to an external benchmark or document.
type Reference struct {
	Ref string `yaml:"ref" json:"ref"`
	URL string `yaml:"url,omitempty" json:"url,omitempty"`
}

// ImpactRule overrides a control's impact when its condition matches the
// target platform. Rules are evaluated in declaration order.
type ImpactRule struct {
	When   Condition `yaml:"when" json:"when"`
	Impact float64   `yaml:"impact" json:"impact"`
}

// Condition compares a platform fact against a value.
//
// Facts: "os.name", "os.family", "os.release", "os.arch", "hostname".
// Ops: "eq", "ne", "match" (regexp), "in" (list membership).
// Reason is the human explanation recorded when an only_if skips a control.
type Condition struct {
	Fact   string `yaml:"fact" json:"fact"`
	Op     string `yaml:"op" json:"op"`
	Value  any    `yaml:"value" json:"value"`
	Reason string `yaml:"reason,omitempty" json:"reason,omitempty"`
}

// ValidConditionOps defines the operators allowed in conditions.
var ValidConditionOps = map[string]bool{
	OpEqual:    true,
	OpNotEqual: true,
	OpMatch:    true,
	OpIn:       true,
}

// Check queries one resource on the target and evaluates its
// expectations against the returned facts.
type Check struct {
	Resource string        `yaml:"resource" json:"resource"` // "file", "package", "service", "port", "command", "os"
	Subject  string        `yaml:"subject" json:"subject"`   // path, package name, service name, port number, command line
	Expect   []Expectation `yaml:"expect" json:"expect"`
}

// Valid check resources.
var ValidResources = map[string]bool{
	"file":    true,
	"package": true,
	"service": true,
	"port":    true,
	"command": true,
	"os":      true,
}

// Expectation asserts one property of a resource.
//
// Value may reference a profile input with the "${input.name}" form;
// the reference is substituted at execution time.
//
// Sensitive expectations never record the real expected or actual value
// in results - both are replaced before anything leaves the runtime.
type Expectation struct {
	Property  string `yaml:"property" json:"property"`
	Op        string `yaml:"op" json:"op"`
	Value     any    `yaml:"value,omitempty" json:"value,omitempty"`
	Sensitive bool   `yaml:"sensitive,omitempty" json:"sensitive,omitempty"`
}

// Expectation operators.
const (
	OpEqual       = "eq"
	OpNotEqual    = "ne"
	OpMatch       = "match"
	OpContains    = "contains"
	OpGreaterThan = "gt"
	OpAtLeast     = "gte"
	OpLessThan    = "lt"
	OpAtMost      = "lte"
	OpExists      = "exists"
	OpIn          = "in"
)

// ValidOps defines the operators allowed in expectations.
var ValidOps = map[string]bool{
	OpEqual:       true,
	OpNotEqual:    true,
	OpMatch:       true,
	OpContains:    true,
	OpGreaterThan: true,
	OpAtLeast:     true,
	OpLessThan:    true,
	OpAtMost:      true,
	OpExists:      true,
	OpIn:          true,
}

// Control lookup by ID. Returns nil if not found.
func (p *Profile) Control(id string) *Control {
	for i := range p.Controls {
		if p.Controls[i].ID == id {
			return &p.Controls[i]
		}
	}
	return nil
}

// Input lookup by name. Returns nil if not found.
func (p *Profile) Input(name string) *Input {
	for i := range p.Inputs {
		if p.Inputs[i].Name == name {
			return &p.Inputs[i]
		}
	}
	return nil
}
