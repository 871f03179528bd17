package home

import (
	"fmt"
	"os"
	"path/filepath"
)

const (
	// DefaultDirName is the default name for the bestiary home directory.
	DefaultDirName = ".bestiary"

	// ConfigFileName is the default config file name.
	ConfigFileName = "config.yaml"

	// RegionsFileName is the default reference dataset file name.
	RegionsFileName = "regions.json"

	// DefraDirName is the subdirectory holding DefraDB data.
	DefraDirName = "defradb"
)

// Dir represents the bestiary home directory structure.
type Dir struct {
	path string
}

// New creates a new Dir with the given path.
// If path is empty, uses the default (~/.bestiary).
func New(path string) (*Dir, error) {
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("failed to get user home directory: %w", err)
		}
		path = filepath.Join(home, DefaultDirName)
	}

	return &Dir{path: path}, nil
}

// Path returns the root path of the home directory.
func (d *Dir) Path() string {
	return d.path
}

// ConfigPath returns the path to the default config file.
func (d *Dir) ConfigPath() string {
	return filepath.Join(d.path, ConfigFileName)
}

// RegionsPath returns the path to the default regions reference dataset.
func (d *Dir) RegionsPath() string {
	return filepath.Join(d.path, RegionsFileName)
}

// DefraPath returns the host directory mounted into the DefraDB container.
func (d *Dir) DefraPath() string {
	return filepath.Join(d.path, DefraDirName)
}

// EnsureExists creates the home directory and the DefraDB data directory.
func (d *Dir) EnsureExists() error {
	if err := os.MkdirAll(d.DefraPath(), 0o755); err != nil {
		return fmt.Errorf("failed to create defradb directory: %w", err)
	}
	return nil
}

// Exists returns true if the home directory exists.
func (d *Dir) Exists() bool {
	_, err := os.Stat(d.path)
	return err == nil
}

// ConfigExists returns true if the config file exists in the home directory.
func (d *Dir) ConfigExists() bool {
	_, err := os.Stat(d.ConfigPath())
	return err == nil
}
