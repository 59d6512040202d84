package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/verith/attest/internal/impact"
	"github.com/verith/attest/internal/target"
	"github.com/verith/attest/internal/testutil"
)

// Scenario defines a conformance test: a profile executed against a
// fixture target, with assertions on the classified outcomes.
type Scenario struct {
	// Name uniquely identifies this scenario. Also names the golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Profile is the path to the profile YAML, relative to the scenario
	// file location.
	Profile string `yaml:"profile"`

	// Target is the fixture the profile runs against.
	Target TargetFixture `yaml:"target"`

	// Inputs override profile input defaults, as the CLI would.
	Inputs map[string]string `yaml:"inputs,omitempty"`

	// Waivers apply to the run, keyed by control ID.
	Waivers map[string]impact.Waiver `yaml:"waivers,omitempty"`

	// RunToken is the fixed token for deterministic golden comparison.
	// Defaults to "test-run-default".
	RunToken string `yaml:"run_token,omitempty"`

	// Now pins the engine's time source so report timestamps and waiver
	// expiry are deterministic. Defaults to 2026-01-01T00:00:00Z.
	Now time.Time `yaml:"now,omitempty"`

	// Assertions validate the resulting report.
	Assertions []Assertion `yaml:"assertions"`
}

// TargetFixture describes the fake target's state.
// Resources absent from the maps report their natural zero state.
type TargetFixture struct {
	Name     string                    `yaml:"name,omitempty"`
	Platform PlatformFixture           `yaml:"platform"`
	Files    map[string]FileFixture    `yaml:"files,omitempty"`
	Packages map[string]PackageFixture `yaml:"packages,omitempty"`
	Services map[string]ServiceFixture `yaml:"services,omitempty"`
	Ports    map[int]PortFixture       `yaml:"ports,omitempty"`
	Commands map[string]CommandFixture `yaml:"commands,omitempty"`
}

type PlatformFixture struct {
	OS       string `yaml:"os"`
	Family   string `yaml:"family,omitempty"`
	Release  string `yaml:"release,omitempty"`
	Arch     string `yaml:"arch,omitempty"`
	Hostname string `yaml:"hostname,omitempty"`
}

type FileFixture struct {
	Exists  bool   `yaml:"exists"`
	Mode    string `yaml:"mode,omitempty"`
	Owner   string `yaml:"owner,omitempty"`
	Group   string `yaml:"group,omitempty"`
	Size    int64  `yaml:"size,omitempty"`
	Content string `yaml:"content,omitempty"`
}

type PackageFixture struct {
	Installed bool   `yaml:"installed"`
	Version   string `yaml:"version,omitempty"`
}

type ServiceFixture struct {
	Installed bool `yaml:"installed"`
	Enabled   bool `yaml:"enabled"`
	Running   bool `yaml:"running"`
}

type PortFixture struct {
	Listening bool   `yaml:"listening"`
	Protocol  string `yaml:"protocol,omitempty"`
	Process   string `yaml:"process,omitempty"`
}

type CommandFixture struct {
	Stdout     string `yaml:"stdout,omitempty"`
	Stderr     string `yaml:"stderr,omitempty"`
	ExitStatus int    `yaml:"exit_status,omitempty"`
}

// Assertion validates one aspect of the resulting report.
type Assertion struct {
	// Type selects the assertion:
	//   - "outcome_is": a control classified with the given status
	//   - "status_count": exactly Count results carry the status
	//   - "score_at_least": the compliance score is >= Score
	//   - "message_contains": a control's message contains the substring
	Type string `yaml:"type"`

	// Control is the control ID (outcome_is, message_contains).
	Control string `yaml:"control,omitempty"`

	// Status is the expected classification (outcome_is, status_count).
	Status string `yaml:"status,omitempty"`

	// Count is the expected number of results (status_count).
	Count int `yaml:"count,omitempty"`

	// Score is the minimum compliance percentage (score_at_least).
	Score float64 `yaml:"score,omitempty"`

	// Substring is the expected message fragment (message_contains).
	Substring string `yaml:"substring,omitempty"`
}

// Assertion type constants.
const (
	AssertOutcomeIs       = "outcome_is"
	AssertStatusCount     = "status_count"
	AssertScoreAtLeast    = "score_at_least"
	AssertMessageContains = "message_contains"
)

// LoadScenario reads and parses a scenario YAML file. The profile path
// is resolved relative to the scenario file's directory.
//
// Unknown fields are rejected (catches typos like "assertion:" for
// "assertions:").
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario file: %w", err)
	}

	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}

	if scenario.Profile != "" && !filepath.IsAbs(scenario.Profile) {
		scenario.Profile = filepath.Join(filepath.Dir(path), scenario.Profile)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario %s: %w", path, err)
	}

	return &scenario, nil
}

// FindScenarioFiles returns every .yaml/.yml file under dir, sorted by
// path for deterministic test ordering.
func FindScenarioFiles(dir string) ([]string, error) {
	var files []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".yaml", ".yml":
			files = append(files, path)
		}
		return nil
	})
	return files, err
}

// validateScenario checks required fields before execution.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}
	if s.Description == "" {
		return fmt.Errorf("description is required")
	}
	if s.Profile == "" {
		return fmt.Errorf("profile is required")
	}
	if _, err := os.Stat(s.Profile); os.IsNotExist(err) {
		return fmt.Errorf("profile file not found: %s", s.Profile)
	}
	if s.Target.Platform.OS == "" {
		return fmt.Errorf("target.platform.os is required")
	}
	if len(s.Assertions) == 0 {
		return fmt.Errorf("assertions list is required and must be non-empty")
	}

	for i := range s.Assertions {
		if err := validateAssertion(i, &s.Assertions[i]); err != nil {
			return err
		}
	}
	return nil
}

func validateAssertion(index int, a *Assertion) error {
	switch a.Type {
	case AssertOutcomeIs:
		if a.Control == "" || a.Status == "" {
			return fmt.Errorf("assertions[%d]: control and status are required for outcome_is", index)
		}
	case AssertStatusCount:
		if a.Status == "" {
			return fmt.Errorf("assertions[%d]: status is required for status_count", index)
		}
		if a.Count < 0 {
			return fmt.Errorf("assertions[%d]: count must be non-negative", index)
		}
	case AssertScoreAtLeast:
		if a.Score < 0 || a.Score > 100 {
			return fmt.Errorf("assertions[%d]: score must be within [0, 100]", index)
		}
	case AssertMessageContains:
		if a.Control == "" || a.Substring == "" {
			return fmt.Errorf("assertions[%d]: control and substring are required for message_contains", index)
		}
	case "":
		return fmt.Errorf("assertions[%d]: type is required", index)
	default:
		return fmt.Errorf("assertions[%d]: unknown assertion type %q", index, a.Type)
	}
	return nil
}

// buildTarget converts the fixture into a fake target.
func (f *TargetFixture) buildTarget() *testutil.FakeTarget {
	t := testutil.NewFakeTarget()
	t.TargetName = f.Name
	if t.TargetName == "" {
		t.TargetName = "fixture"
	}
	t.Plat = target.Platform{
		OS:       f.Platform.OS,
		Family:   f.Platform.Family,
		Release:  f.Platform.Release,
		Arch:     f.Platform.Arch,
		Hostname: f.Platform.Hostname,
	}

	for path, ff := range f.Files {
		t.Files[path] = target.FileState{
			Exists:  ff.Exists,
			Mode:    ff.Mode,
			Owner:   ff.Owner,
			Group:   ff.Group,
			Size:    ff.Size,
			Content: ff.Content,
		}
	}
	for name, pf := range f.Packages {
		t.Packages[name] = target.PackageState{Installed: pf.Installed, Version: pf.Version}
	}
	for name, sf := range f.Services {
		t.Services[name] = target.ServiceState{Installed: sf.Installed, Enabled: sf.Enabled, Running: sf.Running}
	}
	for port, pf := range f.Ports {
		t.Ports[port] = target.PortState{Listening: pf.Listening, Protocol: pf.Protocol, Process: pf.Process}
	}
	for cmd, cf := range f.Commands {
		t.Commands[cmd] = target.CommandResult{Stdout: cf.Stdout, Stderr: cf.Stderr, ExitStatus: cf.ExitStatus}
	}
	return t
}
