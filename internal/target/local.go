package target

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"os/exec"
	"os/user"
	"runtime"
	"strconv"
	"strings"
	"syscall"
	"time"
)

// maxFileContent caps how much file content the adapter reads for
// content assertions. Larger files are truncated.
const maxFileContent = 1 << 20 // 1 MiB

// Local audits the machine the engine runs on. Package, service, and
// port facts are gathered by shelling out to the standard system tools
// (dpkg-query/rpm, systemctl, ss); file facts come straight from the
// filesystem.
type Local struct {
	hostname string
}

// NewLocal creates a local target adapter.
func NewLocal() *Local {
	hostname, err := os.Hostname()
	if err != nil {
		hostname = "localhost"
	}
	return &Local{hostname: hostname}
}

// Name implements Target.
func (l *Local) Name() string {
	return l.hostname
}

// Platform implements Target. OS family and release are parsed from
// /etc/os-release on linux.
func (l *Local) Platform(ctx context.Context) (Platform, error) {
	p := Platform{
		OS:       runtime.GOOS,
		Arch:     runtime.GOARCH,
		Hostname: l.hostname,
	}

	if runtime.GOOS != "linux" {
		return p, nil
	}

	data, err := os.ReadFile("/etc/os-release")
	if err != nil {
		// Platform facts degrade gracefully - a missing os-release leaves
		// family and release empty rather than failing the whole run.
		return p, nil
	}

	fields := parseOSRelease(data)
	p.Family = osFamily(fields["ID"], fields["ID_LIKE"])
	p.Release = fields["VERSION_ID"]
	return p, nil
}

// parseOSRelease parses KEY=value lines from /etc/os-release.
func parseOSRelease(data []byte) map[string]string {
	fields := make(map[string]string)
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		fields[key] = strings.Trim(value, `"'`)
	}
	return fields
}

// osFamily maps an os-release ID (plus ID_LIKE fallback) to a family.
func osFamily(id, idLike string) string {
	families := map[string]string{
		"debian": "debian", "ubuntu": "debian", "raspbian": "debian",
		"rhel": "rhel", "centos": "rhel", "fedora": "rhel", "rocky": "rhel", "almalinux": "rhel",
		"alpine": "alpine",
		"arch":   "arch",
		"suse":   "suse", "opensuse": "suse", "sles": "suse",
	}
	if fam, ok := families[id]; ok {
		return fam
	}
	for _, like := range strings.Fields(idLike) {
		if fam, ok := families[like]; ok {
			return fam
		}
	}
	return id
}

// File implements Target.
func (l *Local) File(ctx context.Context, path string) (FileState, error) {
	info, err := os.Stat(path)
	if errors.Is(err, fs.ErrNotExist) {
		return FileState{Exists: false}, nil
	}
	if err != nil {
		return FileState{}, fmt.Errorf("stat %s: %w", path, err)
	}

	state := FileState{
		Exists: true,
		Mode:   fmt.Sprintf("%04o", info.Mode().Perm()),
		Size:   info.Size(),
	}

	if stat, ok := info.Sys().(*syscall.Stat_t); ok {
		state.Owner = lookupUser(stat.Uid)
		state.Group = lookupGroup(stat.Gid)
	}

	if info.Mode().IsRegular() && info.Size() <= maxFileContent {
		content, err := os.ReadFile(path)
		if err != nil {
			return FileState{}, fmt.Errorf("read %s: %w", path, err)
		}
		state.Content = string(content)
	}

	return state, nil
}

func lookupUser(uid uint32) string {
	u, err := user.LookupId(strconv.FormatUint(uint64(uid), 10))
	if err != nil {
		return strconv.FormatUint(uint64(uid), 10)
	}
	return u.Username
}

func lookupGroup(gid uint32) string {
	g, err := user.LookupGroupId(strconv.FormatUint(uint64(gid), 10))
	if err != nil {
		return strconv.FormatUint(uint64(gid), 10)
	}
	return g.Name
}

// Package implements Target. Tries dpkg-query first, then rpm.
func (l *Local) Package(ctx context.Context, name string) (PackageState, error) {
	if _, err := exec.LookPath("dpkg-query"); err == nil {
		return l.dpkgQuery(ctx, name)
	}
	if _, err := exec.LookPath("rpm"); err == nil {
		return l.rpmQuery(ctx, name)
	}
	return PackageState{}, fmt.Errorf("no supported package manager found (need dpkg-query or rpm)")
}

func (l *Local) dpkgQuery(ctx context.Context, name string) (PackageState, error) {
	out, err := exec.CommandContext(ctx, "dpkg-query", "-W", "-f", "${Status}\t${Version}", name).Output()
	if err != nil {
		// dpkg-query exits non-zero for unknown packages
		if _, ok := errorExitStatus(err); ok {
			return PackageState{Installed: false}, nil
		}
		return PackageState{}, fmt.Errorf("dpkg-query %s: %w", name, err)
	}

	status, version, _ := strings.Cut(strings.TrimSpace(string(out)), "\t")
	return PackageState{
		Installed: strings.Contains(status, "installed"),
		Version:   version,
	}, nil
}

func (l *Local) rpmQuery(ctx context.Context, name string) (PackageState, error) {
	out, err := exec.CommandContext(ctx, "rpm", "-q", "--qf", "%{VERSION}-%{RELEASE}", name).Output()
	if err != nil {
		if _, ok := errorExitStatus(err); ok {
			return PackageState{Installed: false}, nil
		}
		return PackageState{}, fmt.Errorf("rpm -q %s: %w", name, err)
	}
	return PackageState{Installed: true, Version: strings.TrimSpace(string(out))}, nil
}

// Service implements Target via systemctl.
func (l *Local) Service(ctx context.Context, name string) (ServiceState, error) {
	if _, err := exec.LookPath("systemctl"); err != nil {
		return ServiceState{}, fmt.Errorf("systemctl not found: %w", err)
	}

	state := ServiceState{}

	// is-enabled exits non-zero for disabled AND unknown units; the output
	// distinguishes them ("disabled" vs "not-found"/empty).
	out, err := exec.CommandContext(ctx, "systemctl", "is-enabled", name).Output()
	enabledStr := strings.TrimSpace(string(out))
	if err != nil && enabledStr == "" {
		return ServiceState{Installed: false}, nil
	}
	state.Installed = enabledStr != "not-found"
	state.Enabled = enabledStr == "enabled"

	out, _ = exec.CommandContext(ctx, "systemctl", "is-active", name).Output()
	state.Running = strings.TrimSpace(string(out)) == "active"

	return state, nil
}

// Port implements Target by parsing `ss -H -tuln` output.
func (l *Local) Port(ctx context.Context, port int) (PortState, error) {
	out, err := exec.CommandContext(ctx, "ss", "-H", "-tulnp").Output()
	if err != nil {
		// ss -p needs privileges on some systems; retry without process info
		out, err = exec.CommandContext(ctx, "ss", "-H", "-tuln").Output()
		if err != nil {
			return PortState{}, fmt.Errorf("ss: %w", err)
		}
	}
	return parseSSOutput(string(out), port), nil
}

// parseSSOutput finds a listening socket on the given port in ss output.
// Lines look like:
//
//	tcp  LISTEN 0 128  0.0.0.0:22  0.0.0.0:*  users:(("sshd",pid=714,fd=3))
func parseSSOutput(out string, port int) PortState {
	suffix := ":" + strconv.Itoa(port)
	scanner := bufio.NewScanner(strings.NewReader(out))
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 5 {
			continue
		}
		proto := fields[0]
		local := fields[4]
		if !strings.HasSuffix(local, suffix) {
			continue
		}
		state := PortState{Listening: true, Protocol: proto}
		if len(fields) >= 7 {
			state.Process = parseSSProcess(fields[6])
		}
		return state
	}
	return PortState{Listening: false}
}

// parseSSProcess extracts the process name from ss's users:(("name",...)) column.
func parseSSProcess(field string) string {
	start := strings.Index(field, `(("`)
	if start < 0 {
		return ""
	}
	rest := field[start+3:]
	end := strings.Index(rest, `"`)
	if end < 0 {
		return ""
	}
	return rest[:end]
}

// RunCommand implements Target. Commands run through `sh -c`; a non-zero
// exit status is a result, not an error. A command killed by the context
// deadline is an error: its truncated output must never classify a check.
func (l *Local) RunCommand(ctx context.Context, command string) (CommandResult, error) {
	cmd := exec.CommandContext(ctx, "sh", "-c", command)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	// Orphaned grandchildren inherit the output pipes and would keep
	// Wait blocked long after the shell itself was killed.
	cmd.WaitDelay = time.Second

	err := cmd.Run()
	if ctx.Err() != nil {
		return CommandResult{}, fmt.Errorf("run %q: %w", command, ctx.Err())
	}

	result := CommandResult{
		Stdout: stdout.String(),
		Stderr: stderr.String(),
	}

	if err != nil {
		if status, ok := errorExitStatus(err); ok {
			result.ExitStatus = status
			return result, nil
		}
		return CommandResult{}, fmt.Errorf("run %q: %w", command, err)
	}
	return result, nil
}

// errorExitStatus extracts the exit status from an exec error.
// Returns ok=false for errors that are not command exits (e.g. the
// binary was not found).
func errorExitStatus(err error) (int, bool) {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return exitErr.ExitCode(), true
	}
	return 0, false
}
