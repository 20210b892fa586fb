package rules

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"gopkg.in/yaml.v3"

	serrors "github.com/JinxCappa/SOPSie/internal/errors"
)

// ConfigFileName is the declarative rule file sops itself reads.
const ConfigFileName = ".sops.yaml"

// Rule is a single creation_rules entry from .sops.yaml. Key metadata is
// carried through untouched; SOPSie only ever inspects PathRegex.
type Rule struct {
	PathRegex         string `yaml:"path_regex,omitempty"`
	Age               string `yaml:"age,omitempty"`
	PGP               string `yaml:"pgp,omitempty"`
	KMS               string `yaml:"kms,omitempty"`
	GCPKMS            string `yaml:"gcp_kms,omitempty"`
	EncryptedRegex    string `yaml:"encrypted_regex,omitempty"`
	UnencryptedSuffix string `yaml:"unencrypted_suffix,omitempty"`

	compiled *regexp.Regexp
}

// Config is the parsed .sops.yaml rule file.
type Config struct {
	CreationRules []Rule `yaml:"creation_rules"`
}

// Matcher answers whether a path is governed by a .sops.yaml rule set.
type Matcher struct {
	root   string // directory containing the rule file
	config *Config
}

// FindConfig traverses up from startDir looking for a .sops.yaml file.
// Returns the containing directory, or an empty string if none is found
// before the filesystem root.
func FindConfig(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", fmt.Errorf("failed to resolve %s: %w", startDir, err)
	}

	for {
		candidate := filepath.Join(dir, ConfigFileName)
		info, err := os.Stat(candidate)
		if err == nil {
			if info.Mode().IsRegular() {
				return dir, nil
			}
		} else if !os.IsNotExist(err) {
			return "", fmt.Errorf("error checking for %s at %s: %w", ConfigFileName, dir, err)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", nil
		}
		dir = parent
	}
}

// LoadMatcher locates and parses the rule file governing startDir.
// Returns ErrConfigNotFound if no .sops.yaml exists in any ancestor, and
// ErrConfigParse if the file cannot be parsed.
func LoadMatcher(startDir string) (*Matcher, error) {
	root, err := FindConfig(startDir)
	if err != nil {
		return nil, err
	}
	if root == "" {
		return nil, serrors.ErrConfigNotFound
	}

	data, err := os.ReadFile(filepath.Join(root, ConfigFileName))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", serrors.ErrConfigNotFound, err)
	}

	config := &Config{}
	if err := yaml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("%w: %v", serrors.ErrConfigParse, err)
	}

	for i := range config.CreationRules {
		rule := &config.CreationRules[i]
		if rule.PathRegex == "" {
			continue
		}
		compiled, err := regexp.Compile(rule.PathRegex)
		if err != nil {
			return nil, fmt.Errorf("%w: invalid path_regex %q: %v", serrors.ErrConfigParse, rule.PathRegex, err)
		}
		rule.compiled = compiled
	}

	return &Matcher{root: root, config: config}, nil
}

// LoadMatcherForFile is a convenience for LoadMatcher on a file's directory.
func LoadMatcherForFile(path string) (*Matcher, error) {
	return LoadMatcher(filepath.Dir(path))
}

// Root returns the directory containing the rule file.
func (m *Matcher) Root() string {
	return m.root
}

// HasMatchingRule reports whether any creation rule governs path.
func (m *Matcher) HasMatchingRule(path string) bool {
	_, ok := m.MatchingRule(path)
	return ok
}

// MatchingRule returns the first creation rule governing path. Rules are
// matched against the path relative to the rule file's directory, the way
// sops itself matches. A rule without path_regex matches every file.
func (m *Matcher) MatchingRule(path string) (*Rule, bool) {
	rel := m.relativePath(path)

	for i := range m.config.CreationRules {
		rule := &m.config.CreationRules[i]
		if rule.compiled == nil {
			return rule, true
		}
		if rule.compiled.MatchString(rel) {
			return rule, true
		}
	}

	return nil, false
}

func (m *Matcher) relativePath(path string) string {
	abs, err := filepath.Abs(path)
	if err != nil {
		return path
	}
	rel, err := filepath.Rel(m.root, abs)
	if err != nil {
		return abs
	}
	return filepath.ToSlash(rel)
}
