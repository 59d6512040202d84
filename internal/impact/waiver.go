package impact

import (
	"bytes"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Waiver exempts a control from affecting the compliance outcome.
//
// When Run is false the control is skipped entirely (Not Reviewed, with
// the justification as the skip message). When Run is true the control
// still executes and classifies normally but the result carries the
// waiver justification for the reviewer.
type Waiver struct {
	Justification  string    `yaml:"justification"`
	ExpirationDate time.Time `yaml:"expiration_date,omitempty"`
	Run            bool      `yaml:"run,omitempty"`
}

// LoadWaivers reads a waiver file: a YAML map of control ID to waiver.
//
//	ssh-01:
//	  justification: "Legacy appliance, exception approved in AUD-142"
//	  expiration_date: 2026-12-31T00:00:00Z
//	  run: true
//
// Unknown fields are rejected to catch typos.
func LoadWaivers(path string) (map[string]Waiver, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read waiver file: %w", err)
	}
	return ParseWaivers(data)
}

// ParseWaivers parses waiver YAML.
func ParseWaivers(data []byte) (map[string]Waiver, error) {
	var waivers map[string]Waiver
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&waivers); err != nil {
		return nil, fmt.Errorf("parse waiver file: %w", err)
	}

	for id, w := range waivers {
		if w.Justification == "" {
			return nil, fmt.Errorf("waiver for %q: justification is required", id)
		}
	}
	return waivers, nil
}
