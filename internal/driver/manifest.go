package driver

import (
	"fmt"
	"os"

	"github.com/Masterminds/semver/v3"
	"gopkg.in/yaml.v3"
)

// stdVersion is the standard library version shipped with this
// toolchain.
const stdVersion = "0.7.2"

// Manifest is the build manifest (vela.yaml) of a module under
// compilation.
type Manifest struct {
	Name          string   `yaml:"name"`
	Std           string   `yaml:"std,omitempty"`
	SearchPaths   []string `yaml:"search_paths,omitempty"`
	LinkLibraries []string `yaml:"link_libraries,omitempty"`
	Emit          string   `yaml:"emit,omitempty"`
}

// LoadManifest reads and validates a manifest file.
func LoadManifest(path string) (*Manifest, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading manifest: %w", err)
	}
	var m Manifest
	if err := yaml.Unmarshal(raw, &m); err != nil {
		return nil, fmt.Errorf("parsing manifest: %w", err)
	}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return &m, nil
}

// Validate checks the manifest, including the std requirement against
// the toolchain's standard library version.
func (m *Manifest) Validate() error {
	if m.Name == "" {
		return fmt.Errorf("manifest: missing module name")
	}
	if m.Std != "" {
		c, err := semver.NewConstraint(m.Std)
		if err != nil {
			return fmt.Errorf("manifest: invalid std requirement %q: %w", m.Std, err)
		}
		v := semver.MustParse(stdVersion)
		if !c.Check(v) {
			return fmt.Errorf("manifest: std %s does not satisfy requirement %q", stdVersion, m.Std)
		}
	}
	if m.Emit != "" {
		if _, err := ParseArtifactKind(m.Emit); err != nil {
			return fmt.Errorf("manifest: %w", err)
		}
	}
	return nil
}

// ApplyTo appends the manifest's search paths and link libraries to opts.
// A manifest emit kind, when present, replaces opts.Emit, including one
// given on the command line.
func (m *Manifest) ApplyTo(opts *Options) error {
	opts.SearchPaths = append(opts.SearchPaths, m.SearchPaths...)
	opts.LinkLibraries = append(opts.LinkLibraries, m.LinkLibraries...)
	if m.Emit != "" {
		k, err := ParseArtifactKind(m.Emit)
		if err != nil {
			return err
		}
		opts.Emit = k
	}
	return nil
}
