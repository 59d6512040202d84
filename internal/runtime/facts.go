package runtime

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/verith/attest/internal/target"
)

// factCache memoizes resource state per (resource, subject) within one
// control so multiple expectations against the same resource cost a
// single adapter query.
type factCache struct {
	states map[string]any
}

func newFactCache() *factCache {
	return &factCache{states: make(map[string]any)}
}

// state returns the resource state for a check subject, querying the
// adapter on first use.
func (c *factCache) state(ctx context.Context, t target.Target, resource, subject string) (any, error) {
	key := resource + "\x00" + subject
	if s, ok := c.states[key]; ok {
		return s, nil
	}

	var (
		state any
		err   error
	)
	switch resource {
	case "file":
		state, err = t.File(ctx, subject)
	case "package":
		state, err = t.Package(ctx, subject)
	case "service":
		state, err = t.Service(ctx, subject)
	case "port":
		var port int
		port, err = strconv.Atoi(subject)
		if err != nil {
			return nil, fmt.Errorf("port subject %q is not a number", subject)
		}
		state, err = t.Port(ctx, port)
	case "command":
		state, err = t.RunCommand(ctx, subject)
	case "os":
		state, err = t.Platform(ctx)
	default:
		return nil, fmt.Errorf("unknown resource %q", resource)
	}
	if err != nil {
		return nil, fmt.Errorf("query %s %q: %w", resource, subject, err)
	}

	c.states[key] = state
	return state, nil
}

// property extracts a named property from a resource state.
// Unknown properties are profile bugs and surface as anomalies.
func property(state any, name string) (any, error) {
	switch s := state.(type) {
	case target.FileState:
		switch name {
		case "exists":
			return s.Exists, nil
		case "mode":
			return s.Mode, nil
		case "owner":
			return s.Owner, nil
		case "group":
			return s.Group, nil
		case "size":
			return s.Size, nil
		case "content":
			return s.Content, nil
		}

	case target.PackageState:
		switch name {
		case "installed":
			return s.Installed, nil
		case "version":
			return s.Version, nil
		}

	case target.ServiceState:
		switch name {
		case "installed":
			return s.Installed, nil
		case "enabled":
			return s.Enabled, nil
		case "running":
			return s.Running, nil
		}

	case target.PortState:
		switch name {
		case "listening":
			return s.Listening, nil
		case "protocol":
			return s.Protocol, nil
		case "process":
			return s.Process, nil
		}

	case target.CommandResult:
		switch name {
		case "stdout":
			return strings.TrimRight(s.Stdout, "\n"), nil
		case "stderr":
			return strings.TrimRight(s.Stderr, "\n"), nil
		case "exit_status":
			return s.ExitStatus, nil
		}

	case target.Platform:
		switch name {
		case "name":
			return s.OS, nil
		case "family":
			return s.Family, nil
		case "release":
			return s.Release, nil
		case "arch":
			return s.Arch, nil
		case "hostname":
			return s.Hostname, nil
		}
	}

	return nil, fmt.Errorf("resource %T has no property %q", state, name)
}
