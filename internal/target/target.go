package target

import "context"

// Platform identifies the operating system of a target.
type Platform struct {
	OS       string `json:"os"`      // "linux", "darwin"
	Family   string `json:"family"`  // "debian", "rhel", ...
	Release  string `json:"release"` // "12", "9.3", ...
	Arch     string `json:"arch"`
	Hostname string `json:"hostname"`
}

// Fact returns the named platform fact. Conditions in profiles reference
// facts by these names.
func (p Platform) Fact(name string) (string, bool) {
	switch name {
	case "os.name":
		return p.OS, true
	case "os.family":
		return p.Family, true
	case "os.release":
		return p.Release, true
	case "os.arch":
		return p.Arch, true
	case "hostname":
		return p.Hostname, true
	default:
		return "", false
	}
}

// FileState describes a file on the target.
type FileState struct {
	Exists  bool   `json:"exists"`
	Mode    string `json:"mode,omitempty"` // octal, e.g. "0600"
	Owner   string `json:"owner,omitempty"`
	Group   string `json:"group,omitempty"`
	Size    int64  `json:"size,omitempty"`
	Content string `json:"content,omitempty"`
}

// PackageState describes an installed package.
type PackageState struct {
	Installed bool   `json:"installed"`
	Version   string `json:"version,omitempty"`
}

// ServiceState describes a system service.
type ServiceState struct {
	Installed bool `json:"installed"`
	Enabled   bool `json:"enabled"`
	Running   bool `json:"running"`
}

// PortState describes a listening port.
type PortState struct {
	Listening bool   `json:"listening"`
	Protocol  string `json:"protocol,omitempty"` // "tcp", "udp"
	Process   string `json:"process,omitempty"`
}

// CommandResult captures the output of a command run on the target.
type CommandResult struct {
	Stdout     string `json:"stdout"`
	Stderr     string `json:"stderr"`
	ExitStatus int    `json:"exit_status"`
}

// Target is the uniform query interface over a system being audited.
//
// Every method takes a context: adapters may shell out or talk to remote
// systems, and per-control timeouts cancel through it. Implementations
// must be safe for sequential use from a single goroutine; the engine
// never queries a target concurrently.
//
// Implemented by Local (this package) and testutil.FakeTarget.
type Target interface {
	// Name identifies the target in reports (hostname or connection URI).
	Name() string

	Platform(ctx context.Context) (Platform, error)
	File(ctx context.Context, path string) (FileState, error)
	Package(ctx context.Context, name string) (PackageState, error)
	Service(ctx context.Context, name string) (ServiceState, error)
	Port(ctx context.Context, port int) (PortState, error)
	RunCommand(ctx context.Context, command string) (CommandResult, error)
}
