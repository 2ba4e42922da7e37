// Package manifest handles luna.toml project configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/BurntSushi/toml"

	"github.com/chazu/luna/compiler"
	"github.com/chazu/luna/store"
)

// FileName is the manifest file looked up in a project root.
const FileName = "luna.toml"

// Manifest represents a luna.toml project configuration.
type Manifest struct {
	Project  Project        `toml:"project"`
	Compiler CompilerConfig `toml:"compiler"`
	Store    StoreConfig    `toml:"store"`
	Log      LogConfig      `toml:"log"`

	// Dir is the directory containing the luna.toml file (set at load time).
	Dir string `toml:"-"`
}

// Project contains project metadata.
type Project struct {
	Name   string `toml:"name"`
	Module string `toml:"module"` // default module name for compiled chunks
}

// CompilerConfig tunes code generation. Zero ceilings take the defaults.
type CompilerConfig struct {
	MaxRegisters int   `toml:"max-registers"`
	MaxUpvalues  int   `toml:"max-upvalues"`
	DebugLocals  *bool `toml:"debug-locals"`
}

// StoreConfig configures the compiled chunk cache.
type StoreConfig struct {
	Path string `toml:"path"`
}

// LogConfig configures logging.
type LogConfig struct {
	Verbosity int `toml:"verbosity"`
}

// Default returns the manifest used when a project has no luna.toml.
func Default(dir string) *Manifest {
	m := &Manifest{Dir: dir}
	m.applyDefaults()
	return m
}

// Load parses a luna.toml file from the given directory.
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

	if err := m.validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	m.applyDefaults()
	return &m, nil
}

// FindAndLoad walks up from startDir to find a luna.toml file,
// then loads and returns the manifest. Returns nil if no manifest is found.
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

func (m *Manifest) validate() error {
	if err := checkCeiling("max-registers", m.Compiler.MaxRegisters, compiler.MaxFunctionRegisters); err != nil {
		return err
	}
	if err := checkCeiling("max-upvalues", m.Compiler.MaxUpvalues, compiler.MaxClosureUpvalues); err != nil {
		return err
	}
	if m.Log.Verbosity < 0 {
		return fmt.Errorf("[log] verbosity must not be negative, got %d", m.Log.Verbosity)
	}
	return nil
}

// checkCeiling accepts 0 (unset) or a value in [1, max].
func checkCeiling(key string, v, max int) error {
	if v < 0 || v > max {
		return fmt.Errorf("[compiler] %s must be between 1 and %d, got %d", key, max, v)
	}
	return nil
}

func (m *Manifest) applyDefaults() {
	if m.Compiler.MaxRegisters == 0 {
		m.Compiler.MaxRegisters = compiler.MaxFunctionRegisters
	}
	if m.Compiler.MaxUpvalues == 0 {
		m.Compiler.MaxUpvalues = compiler.MaxClosureUpvalues
	}
	if m.Compiler.DebugLocals == nil {
		on := true
		m.Compiler.DebugLocals = &on
	}
	if m.Store.Path == "" {
		m.Store.Path = store.DefaultPath
	}
}

// CompilerConfig returns the code generator configuration.
func (m *Manifest) CompilerConfig() compiler.Config {
	cfg := compiler.DefaultConfig()
	cfg.MaxRegisters = m.Compiler.MaxRegisters
	cfg.MaxUpvalues = m.Compiler.MaxUpvalues
	if m.Compiler.DebugLocals != nil {
		cfg.DebugLocals = *m.Compiler.DebugLocals
	}
	return cfg
}

// StorePath returns the absolute path of the chunk database.
func (m *Manifest) StorePath() string {
	if filepath.IsAbs(m.Store.Path) {
		return m.Store.Path
	}
	return filepath.Join(m.Dir, m.Store.Path)
}

// ModuleName returns the configured module name, falling back to the
// project name.
func (m *Manifest) ModuleName() string {
	if m.Project.Module != "" {
		return m.Project.Module
	}
	return m.Project.Name
}
