// Package admission decides, on the receiver, whether an offered entry may
// proceed to data transfer. A rejected entry never creates a temp file.
package admission

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/ncp-tools/ncp/internal/checksum"
	"github.com/ncp-tools/ncp/internal/diskspace"
	"github.com/ncp-tools/ncp/pkg/protocol"
)

// OverwritePolicy controls what happens when the destination already exists.
type OverwritePolicy int

const (
	// Ask solicits a yes/no decision from the interactive prompt.
	Ask OverwritePolicy = iota
	// AlwaysYes overwrites without asking.
	AlwaysYes
	// AlwaysNo skips entries whose destination exists.
	AlwaysNo
)

// ParsePolicy parses the CLI spelling of an overwrite policy.
func ParsePolicy(s string) (OverwritePolicy, error) {
	switch s {
	case "ask", "":
		return Ask, nil
	case "yes":
		return AlwaysYes, nil
	case "no":
		return AlwaysNo, nil
	default:
		return Ask, fmt.Errorf("unknown overwrite policy %q", s)
	}
}

func (p OverwritePolicy) String() string {
	switch p {
	case AlwaysYes:
		return "yes"
	case AlwaysNo:
		return "no"
	default:
		return "ask"
	}
}

// PromptFunc asks the user whether path may be overwritten.
type PromptFunc func(path string) (bool, error)

// Decision is the controller's verdict for one entry.
type Decision struct {
	Accepted          bool
	FinalPath         string
	DestinationExists bool
	AvailableSpace    uint64

	// Set when Accepted is false.
	Code   uint32
	Reason string
}

// Controller evaluates offered entries against the destination filesystem.
type Controller struct {
	TargetRoot string
	Policy     OverwritePolicy
	Prompt     PromptFunc
	Space      diskspace.QueryFunc
	Logger     *slog.Logger
}

// New returns a controller using the real disk-space query.
func New(targetRoot string, policy OverwritePolicy, prompt PromptFunc, logger *slog.Logger) *Controller {
	return &Controller{
		TargetRoot: targetRoot,
		Policy:     policy,
		Prompt:     prompt,
		Space:      diskspace.Available,
		Logger:     logger,
	}
}

func reject(finalPath string, code uint32, reason string) Decision {
	return Decision{FinalPath: finalPath, Code: code, Reason: reason}
}

// Evaluate runs the admission algorithm for one offered entry. Filesystem
// failures surface as errors; policy and resource outcomes surface as a
// rejected Decision. On acceptance the parent directories of the final path
// exist, and for directory entries the directory itself has been created.
func (c *Controller) Evaluate(file protocol.FileMeta) (Decision, error) {
	if err := validateRelPath(file.Name); err != nil {
		return reject("", protocol.CodePermission, err.Error()), nil
	}
	if !file.IsDir && !checksum.Supported(file.ChecksumAlg) {
		return reject("", protocol.CodeUnsupportedAlg,
			fmt.Sprintf("unsupported checksum algorithm %q", file.ChecksumAlg)), nil
	}

	finalPath, err := c.resolveFinalPath(file.Name)
	if err != nil {
		return Decision{}, err
	}

	info, err := os.Stat(finalPath)
	exists := err == nil
	if err != nil && !os.IsNotExist(err) {
		return Decision{}, fmt.Errorf("stat %s: %w", finalPath, err)
	}

	if file.IsDir && exists && !info.IsDir() {
		return reject(finalPath, protocol.CodeConflict,
			fmt.Sprintf("%s exists and is not a directory", finalPath)), nil
	}

	if exists {
		switch c.Policy {
		case AlwaysYes:
			// Proceed.
		case AlwaysNo:
			return reject(finalPath, protocol.CodePermission, "exists, skipping"), nil
		case Ask:
			ok, perr := c.askOverwrite(finalPath)
			if perr != nil {
				return Decision{}, perr
			}
			if !ok {
				return reject(finalPath, protocol.CodePermission, "declined"), nil
			}
		}
	}

	var available uint64
	if !file.IsDir {
		available, err = c.Space(finalPath)
		if err != nil {
			return Decision{}, fmt.Errorf("query disk space: %w", err)
		}
		need := file.Size + file.Size/10
		if need < file.Size { // overflow saturates
			need = ^uint64(0)
		}
		if available < need {
			return reject(finalPath, protocol.CodeNoSpace, fmt.Sprintf(
				"insufficient disk space: need %s, available %s",
				diskspace.FormatBytes(need), diskspace.FormatBytes(available))), nil
		}
	}

	if file.IsDir {
		if err := os.MkdirAll(finalPath, 0o755); err != nil {
			return Decision{}, fmt.Errorf("create directory %s: %w", finalPath, err)
		}
	} else if parent := filepath.Dir(finalPath); parent != "" {
		if err := os.MkdirAll(parent, 0o755); err != nil {
			return Decision{}, fmt.Errorf("create parent directory %s: %w", parent, err)
		}
	}

	c.Logger.Debug("entry admitted",
		"path", finalPath, "exists", exists, "available", available)

	return Decision{
		Accepted:          true,
		FinalPath:         finalPath,
		DestinationExists: exists,
		AvailableSpace:    available,
	}, nil
}

// resolveFinalPath joins the offered relative path under the target root when
// the root is an existing directory; otherwise the root itself is the
// destination (single-entry transfer).
func (c *Controller) resolveFinalPath(relPath string) (string, error) {
	info, err := os.Stat(c.TargetRoot)
	if err == nil && info.IsDir() {
		return filepath.Join(c.TargetRoot, filepath.FromSlash(relPath)), nil
	}
	if err != nil && !os.IsNotExist(err) {
		return "", fmt.Errorf("stat target root %s: %w", c.TargetRoot, err)
	}
	return c.TargetRoot, nil
}

func (c *Controller) askOverwrite(path string) (bool, error) {
	if c.Prompt == nil {
		return false, nil
	}
	ok, err := c.Prompt(path)
	if err != nil {
		return false, fmt.Errorf("overwrite prompt: %w", err)
	}
	return ok, nil
}

// validateRelPath rejects offered paths that would escape the target root.
func validateRelPath(relPath string) error {
	if relPath == "" {
		return fmt.Errorf("empty entry path")
	}
	if strings.HasPrefix(relPath, "/") || strings.Contains(relPath, "\\") {
		return fmt.Errorf("invalid entry path %q", relPath)
	}
	for _, part := range strings.Split(relPath, "/") {
		if part == ".." || part == "" {
			return fmt.Errorf("invalid entry path %q", relPath)
		}
	}
	return nil
}
