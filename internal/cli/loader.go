package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/verith/attest/internal/compiler"
	"github.com/verith/attest/internal/profile"
)

// LoadMode controls how errors are handled during profile loading.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// LoadResult contains the profiles loaded from a path.
type LoadResult struct {
	Profiles  []*profile.Profile
	FileCount int
}

// LoadError is a loading failure tagged with an error code and the
// offending file.
type LoadError struct {
	Code    string
	Path    string
	Message string
}

func (e *LoadError) Error() string {
	if e.Path != "" {
		return fmt.Sprintf("%s: %s: %s", e.Path, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Error code constants - unified across all CLI commands.
const (
	ErrCodeGeneric       = "E001" // Generic/unknown error
	ErrCodeScanError     = "E002" // Directory scan error
	ErrCodeNoFiles       = "E003" // No profile files found
	ErrCodeCompileFailed = "E004" // Profile failed to compile
	ErrCodeNotFound      = "E005" // Path not found
	ErrCodeReadFailed    = "E006" // File read error
)

// LoadProfiles loads profiles from a path: a single YAML file or a
// directory scanned recursively for .yaml/.yml files.
func LoadProfiles(path string, mode LoadMode) (*LoadResult, []error) {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Path: path, Message: "path not found"}}
	}
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Path: path, Message: err.Error()}}
	}

	var files []string
	if info.IsDir() {
		files, err = FindProfileFiles(path)
		if err != nil {
			return nil, []error{&LoadError{Code: ErrCodeScanError, Path: path, Message: err.Error()}}
		}
		if len(files) == 0 {
			return nil, []error{&LoadError{Code: ErrCodeNoFiles, Path: path, Message: "no profile files found"}}
		}
	} else {
		files = []string{path}
	}

	result := &LoadResult{FileCount: len(files)}
	var errs []error
	for _, file := range files {
		data, err := os.ReadFile(file)
		if err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeReadFailed, Path: file, Message: err.Error()})
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}

		p, err := compiler.CompileProfile(file, data)
		if err != nil {
			errs = append(errs, &LoadError{Code: ErrCodeCompileFailed, Path: file, Message: err.Error()})
			if mode == LoadModeFailFast {
				return result, errs
			}
			continue
		}
		result.Profiles = append(result.Profiles, p)
	}

	return result, errs
}

// FindProfileFiles walks the directory and returns all YAML file
// paths, sorted by filepath.Walk's lexical order.
func FindProfileFiles(dir string) ([]string, error) {
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
