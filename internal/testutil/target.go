package testutil

import (
	"context"
	"fmt"
	"sync"

	"github.com/verith/attest/internal/target"
)

// FakeTarget is an in-memory Target backed by fixture maps.
//
// Resources absent from the maps return their natural zero state (a
// missing file reports Exists false, a missing package reports not
// installed) rather than an error - checks against absent resources
// are a legitimate profile pattern ("telnet must not be installed").
// Commands are the exception: executing an unstubbed command is a
// fixture bug, not a finding, so it errors.
//
// Errors injects adapter failures, keyed "resource subject"
// ("file /etc/shadow"). Injected errors surface as control anomalies.
type FakeTarget struct {
	TargetName  string
	Plat        target.Platform
	PlatformErr error

	Files    map[string]target.FileState
	Packages map[string]target.PackageState
	Services map[string]target.ServiceState
	Ports    map[int]target.PortState
	Commands map[string]target.CommandResult
	Errors   map[string]error

	mu      sync.Mutex
	queries []string
}

// NewFakeTarget creates a fake linux target with empty fixture maps.
func NewFakeTarget() *FakeTarget {
	return &FakeTarget{
		TargetName: "fake",
		Plat: target.Platform{
			OS:       "linux",
			Family:   "debian",
			Release:  "12",
			Arch:     "amd64",
			Hostname: "fake-host",
		},
		Files:    map[string]target.FileState{},
		Packages: map[string]target.PackageState{},
		Services: map[string]target.ServiceState{},
		Ports:    map[int]target.PortState{},
		Commands: map[string]target.CommandResult{},
		Errors:   map[string]error{},
	}
}

func (f *FakeTarget) Name() string {
	return f.TargetName
}

func (f *FakeTarget) Platform(ctx context.Context) (target.Platform, error) {
	if f.PlatformErr != nil {
		return target.Platform{}, f.PlatformErr
	}
	return f.Plat, nil
}

func (f *FakeTarget) File(ctx context.Context, path string) (target.FileState, error) {
	if err := f.record("file", path); err != nil {
		return target.FileState{}, err
	}
	return f.Files[path], nil
}

func (f *FakeTarget) Package(ctx context.Context, name string) (target.PackageState, error) {
	if err := f.record("package", name); err != nil {
		return target.PackageState{}, err
	}
	return f.Packages[name], nil
}

func (f *FakeTarget) Service(ctx context.Context, name string) (target.ServiceState, error) {
	if err := f.record("service", name); err != nil {
		return target.ServiceState{}, err
	}
	return f.Services[name], nil
}

func (f *FakeTarget) Port(ctx context.Context, port int) (target.PortState, error) {
	if err := f.record("port", fmt.Sprintf("%d", port)); err != nil {
		return target.PortState{}, err
	}
	return f.Ports[port], nil
}

func (f *FakeTarget) RunCommand(ctx context.Context, command string) (target.CommandResult, error) {
	if err := f.record("command", command); err != nil {
		return target.CommandResult{}, err
	}
	res, ok := f.Commands[command]
	if !ok {
		return target.CommandResult{}, fmt.Errorf("command not stubbed: %q", command)
	}
	return res, nil
}

// Queries returns every resource query made against the target, in
// order, as "resource subject" strings.
func (f *FakeTarget) Queries() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.queries))
	copy(out, f.queries)
	return out
}

func (f *FakeTarget) record(resource, subject string) error {
	f.mu.Lock()
	f.queries = append(f.queries, resource+" "+subject)
	f.mu.Unlock()
	if err, ok := f.Errors[resource+" "+subject]; ok {
		return err
	}
	return nil
}
