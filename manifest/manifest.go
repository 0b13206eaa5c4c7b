// Package manifest handles zenda.toml extension configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"
)

// FileName is the manifest file the CLI looks for.
const FileName = "zenda.toml"

// Manifest represents a zenda.toml extension configuration.
type Manifest struct {
	Project   Project   `toml:"project"`
	Source    Source    `toml:"source"`
	Extension Extension `toml:"extension"`
	Php       Php       `toml:"php"`

	// Dir is the directory containing the zenda.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains extension metadata. Name is the extension name the host
// sees; Namespace prefixes every exported function and class when set.
type Project struct {
	Name      string `toml:"name"`
	Namespace string `toml:"namespace"`
	Version   string `toml:"version"`
}

// Source configures where the exported Go package lives.
type Source struct {
	// Package is the directory of the annotated Go package, relative to
	// the manifest.
	Package string `toml:"package"`
}

// Extension configures the build outputs.
type Extension struct {
	// Artifact is the shared-library file name, default <name>.so.
	Artifact string `toml:"artifact"`
	// Description is the description-artifact file name, default
	// <name>.desc.
	Description string `toml:"description"`
	// Stubs is the stub file name, default <name>.stubs.php.
	Stubs string `toml:"stubs"`
}

// Php locates the host installation for install/remove.
type Php struct {
	// Ini is the php.ini path the installer edits.
	Ini string `toml:"ini"`
	// ExtensionDir overrides the directory the artifact is copied into.
	// Empty means ask php-config.
	ExtensionDir string `toml:"extension-dir"`
	// Config is the php-config binary, default "php-config".
	Config string `toml:"config"`
}

// Load parses a zenda.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	var m Manifest
	if err := toml.Unmarshal(data, &m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}

	m.Dir, err = filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("cannot resolve path %s: %w", dir, err)
	}

	if m.Project.Name == "" {
		return nil, fmt.Errorf("%s: project.name is required", path)
	}

	// Defaults
	if m.Source.Package == "" {
		m.Source.Package = "."
	}
	if m.Project.Version == "" {
		m.Project.Version = "0.0.0"
	}
	if m.Extension.Artifact == "" {
		m.Extension.Artifact = m.Project.Name + ".so"
	}
	if m.Extension.Description == "" {
		m.Extension.Description = m.Project.Name + ".desc"
	}
	if m.Extension.Stubs == "" {
		m.Extension.Stubs = m.Project.Name + ".stubs.php"
	}
	if m.Php.Config == "" {
		m.Php.Config = "php-config"
	}

	return &m, nil
}

// FindAndLoad walks up from startDir to find a zenda.toml file, then loads
// and returns the manifest. Returns nil if no manifest is found.
func FindAndLoad(startDir string) (*Manifest, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return nil, err
	}

	for {
		path := filepath.Join(dir, FileName)
		if _, err := os.Stat(path); err == nil {
			return Load(dir)
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			// Reached root
			return nil, nil
		}
		dir = parent
	}
}

// PackageDir returns the absolute path of the annotated Go package.
func (m *Manifest) PackageDir() string {
	return filepath.Join(m.Dir, m.Source.Package)
}

// ArtifactPath returns the absolute path of the built shared library.
func (m *Manifest) ArtifactPath() string {
	return filepath.Join(m.Dir, m.Extension.Artifact)
}

// DescriptionPath returns the absolute path of the description artifact.
func (m *Manifest) DescriptionPath() string {
	return filepath.Join(m.Dir, m.Extension.Description)
}

// StubsPath returns the absolute path of the generated stub file.
func (m *Manifest) StubsPath() string {
	return filepath.Join(m.Dir, m.Extension.Stubs)
}
