// Package config loads and validates the per-root configuration described
// in spec.md §6. A Config is an ordered list of RootConfig entries, one per
// root the multi-root orchestrator (§4.11) will process in sequence.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Action tokens recognized in RootConfig.Actions (§6).
const (
	ActionPreCleanup  = "pre-cleanup"
	ActionDuplicates  = "duplicates"
	ActionOrphans     = "orphans"
	ActionReorganize  = "reorganize"
	ActionPermissions = "permissions"
	ActionOwnership   = "ownership"
	ActionPostCleanup = "post-cleanup"
)

var defaultActions = []string{
	ActionPreCleanup, ActionDuplicates, ActionOrphans,
	ActionReorganize, ActionPermissions, ActionOwnership, ActionPostCleanup,
}

// RootConfig holds the resolved configuration for a single root (§6's table).
type RootConfig struct {
	ScanPath             string   `yaml:"scan_path" json:"scan_path"`
	RelativePath         string   `yaml:"relative_path" json:"relative_path"`
	RecycleBinPath       string   `yaml:"recycle_bin_path" json:"recycle_bin_path"`
	ReorganizeTemplate   string   `yaml:"reorganize_template" json:"reorganize_template"`
	HashByteLimit        int      `yaml:"hash_byte_limit" json:"hash_byte_limit"`
	DupeSetExtensions    []string `yaml:"dupe_set_extensions" json:"dupe_set_extensions"`
	OrphanFileExtensions []string `yaml:"orphan_file_extensions" json:"orphan_file_extensions"`
	DateThreshold        time.Time `yaml:"-" json:"-"`
	DateThresholdRaw     string   `yaml:"date_threshold" json:"date_threshold"`
	EmptyThreshold       int64    `yaml:"empty_threshold" json:"empty_threshold"`
	IgnoreDirectories    []string `yaml:"ignore_directories" json:"ignore_directories"`
	IgnoreFiles          []string `yaml:"ignore_files" json:"ignore_files"`
	RemoveFiles          []string `yaml:"remove_files" json:"remove_files"`
	FilePerm             string   `yaml:"file_perm" json:"file_perm"`
	DirPerm              string   `yaml:"dir_perm" json:"dir_perm"`
	OwnerUser            string   `yaml:"owner_user" json:"owner_user"`
	OwnerGroup           string   `yaml:"owner_group" json:"owner_group"`
	Actions              []string `yaml:"actions" json:"actions"`

	// ReorganizeConcurrency bounds in-flight date extractions during
	// reorganize (§4.7/§5); default 5, hard cap 10.
	ReorganizeConcurrency int `yaml:"reorganize_concurrency" json:"reorganize_concurrency"`

	// resolved numeric modes, filled by validateAndDefault
	FileMode os.FileMode `yaml:"-" json:"-"`
	DirMode  os.FileMode `yaml:"-" json:"-"`
}

// Config is the top-level configuration: an ordered list of roots.
type Config struct {
	Roots []RootConfig `yaml:"roots" json:"roots"`

	// PrometheusPort for the optional metrics listener (§10.5). Zero disables it.
	PrometheusPort int `yaml:"prometheus_port" json:"prometheus_port"`

	// DatabasePath is where the operation-history SQLite database lives (§11.1).
	DatabasePath string `yaml:"database_path" json:"database_path"`

	// LogRotationDays controls the logging package's rotate-by-age policy (§10.2).
	LogRotationDays int `yaml:"log_rotation_days" json:"log_rotation_days"`
}

var (
	errNoScanPath       = errors.New("scan_path is required")
	errNoRecycleBin     = errors.New("recycle_bin_path is required")
	errInvalidPath      = errors.New("path must be absolute")
	errInvalidTemplate  = errors.New("reorganize_template must match ^/(\\{year|month|day\\}/?)+$")
	errOwnershipMissing = errors.New("owner_user and owner_group are required when the ownership action is enabled")
	errNoRoots          = errors.New("configuration must specify at least one root")
)

var templatePattern = regexp.MustCompile(`^/(\{(year|month|day)\}/?)+$`)

// Load reads and validates configuration from path.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open config: %w", err)
	}
	defer f.Close()

	cfg, err := decode(f)
	if err != nil {
		return nil, err
	}
	if err := cfg.validateAndDefault(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func decode(r io.Reader) (*Config, error) {
	cfg := &Config{}
	dec := yaml.NewDecoder(r)
	if err := dec.Decode(cfg); err != nil {
		return nil, fmt.Errorf("decode yaml: %w", err)
	}
	return cfg, nil
}

func (c *Config) validateAndDefault() error {
	if len(c.Roots) == 0 {
		return errNoRoots
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "/var/lib/archivist/history.db"
	}
	if c.LogRotationDays <= 0 {
		c.LogRotationDays = 30
	}
	for i := range c.Roots {
		if err := c.Roots[i].validateAndDefault(); err != nil {
			return fmt.Errorf("root %d (%s): %w", i, c.Roots[i].ScanPath, err)
		}
	}
	return nil
}

func (r *RootConfig) validateAndDefault() error {
	if r.ScanPath == "" {
		return errNoScanPath
	}
	cp, err := cleanAbsolute(r.ScanPath)
	if err != nil {
		return err
	}
	r.ScanPath = cp

	if r.RelativePath == "" {
		r.RelativePath = r.ScanPath
	} else {
		cp, err := cleanAbsolute(r.RelativePath)
		if err != nil {
			return err
		}
		r.RelativePath = cp
	}

	if r.RecycleBinPath == "" {
		return errNoRecycleBin
	}
	cp, err = cleanAbsolute(r.RecycleBinPath)
	if err != nil {
		return err
	}
	r.RecycleBinPath = cp

	if r.ReorganizeTemplate == "" {
		r.ReorganizeTemplate = "/{year}/{month}/"
	}
	if !templatePattern.MatchString(normalizeTemplateForValidation(r.ReorganizeTemplate)) {
		return errInvalidTemplate
	}

	if r.HashByteLimit <= 0 {
		r.HashByteLimit = 131072
	}
	if len(r.DupeSetExtensions) == 0 {
		r.DupeSetExtensions = []string{"jpg", "jpeg", "mp4", "avi"}
	}
	if len(r.OrphanFileExtensions) == 0 {
		r.OrphanFileExtensions = []string{".aae", ".xml", ".ini"}
	}

	threshold := time.Date(1995, 1, 1, 0, 0, 0, 0, time.UTC)
	if r.DateThresholdRaw != "" {
		parsed, err := time.Parse("2006-01-02", r.DateThresholdRaw)
		if err != nil {
			return fmt.Errorf("date_threshold: %w", err)
		}
		threshold = parsed
	}
	r.DateThreshold = threshold

	if r.EmptyThreshold < 0 {
		r.EmptyThreshold = 0
	}

	if len(r.IgnoreDirectories) == 0 {
		r.IgnoreDirectories = []string{"@eaDir", "@*"}
	}
	if len(r.IgnoreFiles) == 0 {
		r.IgnoreFiles = []string{"*.ini"}
	}
	if len(r.RemoveFiles) == 0 {
		r.RemoveFiles = []string{"*picasa.ini", "Thumbs.db"}
	}

	if r.FilePerm == "" {
		r.FilePerm = "664"
	}
	if r.DirPerm == "" {
		r.DirPerm = "775"
	}
	fm, err := ParseMode(r.FilePerm)
	if err != nil {
		return fmt.Errorf("file_perm: %w", err)
	}
	r.FileMode = fm
	dm, err := ParseMode(r.DirPerm)
	if err != nil {
		return fmt.Errorf("dir_perm: %w", err)
	}
	r.DirMode = dm

	if len(r.Actions) == 0 {
		r.Actions = append([]string{}, defaultActions...)
	}

	if r.HasAction(ActionOwnership) {
		if r.OwnerUser == "" || r.OwnerGroup == "" {
			return errOwnershipMissing
		}
	}

	if r.ReorganizeConcurrency <= 0 {
		r.ReorganizeConcurrency = 5
	}
	if r.ReorganizeConcurrency > 10 {
		r.ReorganizeConcurrency = 10
	}

	return nil
}

// normalizeTemplateForValidation appends a trailing slash when missing so
// the regexp doesn't need to special-case an unterminated final segment.
func normalizeTemplateForValidation(tmpl string) string {
	if !strings.HasSuffix(tmpl, "/") {
		return tmpl + "/"
	}
	return tmpl
}

// HasAction reports whether token is present in Actions.
func (r *RootConfig) HasAction(token string) bool {
	for _, a := range r.Actions {
		if a == token {
			return true
		}
	}
	return false
}

// ParseMode accepts either a decimal-looking octal string ("664") or an
// explicit octal-prefixed one ("0o664"/"0664") and normalizes to os.FileMode.
func ParseMode(s string) (os.FileMode, error) {
	s = strings.TrimSpace(s)
	s = strings.TrimPrefix(s, "0o")
	s = strings.TrimPrefix(s, "0O")
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return 0, fmt.Errorf("invalid permission string %q: %w", s, err)
	}
	return os.FileMode(v) & os.ModePerm, nil
}

func cleanAbsolute(p string) (string, error) {
	if p == "" {
		return "", errInvalidPath
	}
	cp := filepath.Clean(p)
	if !filepath.IsAbs(cp) {
		return "", fmt.Errorf("%w: %s", errInvalidPath, p)
	}
	return cp, nil
}
