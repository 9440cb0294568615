package extension

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/mfridman/interpolate"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// ErrUnsupportedFormat is returned for files that are neither YAML nor JSON.
var ErrUnsupportedFormat = errors.New("unsupported extension file format")

// File is the parsed content of an extension file.
type File struct {
	// Modules declares new modules. Each module may add one container.
	Modules []ModuleSpec `json:"modules,omitempty" yaml:"modules,omitempty"`

	// Environments declares new environments from module names.
	Environments []EnvironmentSpec `json:"environments,omitempty" yaml:"environments,omitempty"`

	// Configs declares new config overlays.
	Configs []ConfigSpec `json:"configs,omitempty" yaml:"configs,omitempty"`

	// Path is the file the content was loaded from.
	Path string `json:"-" yaml:"-"`
}

// ModuleSpec describes one extension module.
type ModuleSpec struct {
	// Name is the catalog name of the module.
	Name string `json:"name" yaml:"name"`

	// Requires lists modules applied before this one. Names may refer to
	// built-in modules or to modules declared in the same file.
	Requires []string `json:"requires,omitempty" yaml:"requires,omitempty"`

	// Image is the container image. When empty the module adds no
	// container and only contributes settings, env and ports to an
	// existing container.
	Image string `json:"image,omitempty" yaml:"image,omitempty"`

	// Container is the container the module adds or modifies. It defaults
	// to Name when Image is set.
	Container string `json:"container,omitempty" yaml:"container,omitempty"`

	// Ports are container ports published with the environment's binder.
	Ports []int `json:"ports,omitempty" yaml:"ports,omitempty"`

	// Env sets environment variables on the container.
	Env map[string]string `json:"env,omitempty" yaml:"env,omitempty"`

	// Command replaces the container command.
	Command []string `json:"command,omitempty" yaml:"command,omitempty"`

	// Mounts maps host paths to container paths.
	Mounts map[string]string `json:"mounts,omitempty" yaml:"mounts,omitempty"`

	// Settings are contributed to the merged environment configuration.
	Settings map[string]string `json:"settings,omitempty" yaml:"settings,omitempty"`
}

// EnvironmentSpec describes one extension environment.
type EnvironmentSpec struct {
	Name    string   `json:"name" yaml:"name"`
	Modules []string `json:"modules" yaml:"modules"`
}

// ConfigSpec describes one extension config overlay.
type ConfigSpec struct {
	Name   string            `json:"name" yaml:"name"`
	Parent string            `json:"parent,omitempty" yaml:"parent,omitempty"`
	Values map[string]string `json:"values,omitempty" yaml:"values,omitempty"`
}

// Environ returns the variables used to interpolate extension files: the
// process environment, overlaid with envFile when it is not empty.
func Environ(envFile string) (interpolate.Env, error) {
	vars := make(map[string]string)
	for _, kv := range os.Environ() {
		if k, v, ok := strings.Cut(kv, "="); ok {
			vars[k] = v
		}
	}
	if envFile != "" {
		fromFile, err := godotenv.Read(envFile)
		if err != nil {
			return nil, fmt.Errorf("failed to read env file %s: %w", envFile, err)
		}
		for k, v := range fromFile {
			vars[k] = v
		}
	}
	return interpolate.NewMapEnv(vars), nil
}

// Load reads an extension file, expands variable references with vars and
// parses it. The format is chosen by file extension: .yaml and .yml are
// YAML, .json and .jsonc are JSON with comments.
func Load(path string, vars interpolate.Env) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read extension file: %w", err)
	}

	expanded, err := interpolate.Interpolate(vars, string(data))
	if err != nil {
		return nil, fmt.Errorf("failed to expand variables in %s: %w", path, err)
	}

	f, err := Parse(filepath.Ext(path), []byte(expanded))
	if err != nil {
		return nil, fmt.Errorf("failed to parse extension file %s: %w", path, err)
	}
	f.Path = path
	return f, nil
}

// Parse decodes extension file content. ext selects the format and
// includes the leading dot.
func Parse(ext string, data []byte) (*File, error) {
	var f File
	switch strings.ToLower(ext) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, err
		}
	case ".json", ".jsonc":
		// Strip comments and trailing commas first.
		if err := json.Unmarshal(jsonc.ToJSON(data), &f); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return &f, nil
}
