package extension

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/mfridman/interpolate"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shinji-kodama/launcher/internal/catalog"
	"github.com/shinji-kodama/launcher/internal/env"
	"github.com/shinji-kodama/launcher/internal/port"
)

const yamlFixture = `# kafka connect on top of the built-in kafka module
modules:
  - name: kafka-connect
    image: confluentinc/cp-kafka-connect:${CONNECT_VERSION:-7.5.0}
    container: connect
    requires: [kafka]
    ports: [8083]
    env:
      CONNECT_BOOTSTRAP_SERVERS: kafka:9092
    settings:
      kafka.connect.url: http://connect:8083
  - name: kafka-debug
    container: kafka
    requires: [kafka-connect]
    env:
      KAFKA_LOG4J_ROOT_LOGLEVEL: DEBUG
environments:
  - name: singlenode-kafka-connect
    modules: [standard, kafka-debug]
configs:
  - name: ci
    parent: hdp3
    values:
      testing.image.tag: "${IMAGE_TAG}"
`

const jsoncFixture = `{
  // selenium grid with a second browser
  "modules": [
    {
      "name": "selenium-firefox",
      "image": "selenium/standalone-firefox:4.8.0",
      "ports": [5901],
    },
  ],
  "environments": [
    {"name": "singlenode-browsers", "modules": ["standard", "selenium-chrome", "selenium-firefox"]}
  ]
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "ext.yaml", yamlFixture)
	vars := interpolate.NewMapEnv(map[string]string{"IMAGE_TAG": "81"})

	f, err := Load(path, vars)
	require.NoError(t, err)

	assert.Equal(t, path, f.Path)
	require.Len(t, f.Modules, 2)
	assert.Equal(t, "confluentinc/cp-kafka-connect:7.5.0", f.Modules[0].Image)
	assert.Equal(t, []int{8083}, f.Modules[0].Ports)
	assert.Equal(t, []string{"kafka-connect"}, f.Modules[1].Requires)
	require.Len(t, f.Configs, 1)
	assert.Equal(t, "81", f.Configs[0].Values["testing.image.tag"])
}

func TestLoad_JSONC(t *testing.T) {
	path := writeFile(t, "ext.jsonc", jsoncFixture)

	f, err := Load(path, interpolate.NewMapEnv(nil))
	require.NoError(t, err)

	require.Len(t, f.Modules, 1)
	assert.Equal(t, "selenium-firefox", f.Modules[0].Name)
	require.Len(t, f.Environments, 1)
	assert.Equal(t, []string{"standard", "selenium-chrome", "selenium-firefox"}, f.Environments[0].Modules)
}

func TestLoad_Errors(t *testing.T) {
	tests := []struct {
		name    string
		file    string
		content string
	}{
		{"unsupported format", "ext.toml", "modules = []"},
		{"invalid yaml", "ext.yaml", "modules: [\n"},
		{"invalid json", "ext.json", "{"},
		{"required variable", "ext.yaml", "configs:\n  - name: x\n    values: {a: \"${MISSING?must be set}\"}\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeFile(t, tt.file, tt.content), interpolate.NewMapEnv(nil))
			assert.Error(t, err)
		})
	}

	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"), nil)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestParse_UnsupportedFormat(t *testing.T) {
	_, err := Parse(".ini", nil)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestEnviron(t *testing.T) {
	t.Setenv("LAUNCHER_TEST_FROM_PROCESS", "process")
	t.Setenv("LAUNCHER_TEST_OVERRIDDEN", "process")

	envFile := writeFile(t, ".env", "LAUNCHER_TEST_OVERRIDDEN=file\nLAUNCHER_TEST_ONLY_FILE=file\n")

	vars, err := Environ(envFile)
	require.NoError(t, err)

	for key, want := range map[string]string{
		"LAUNCHER_TEST_FROM_PROCESS": "process",
		"LAUNCHER_TEST_OVERRIDDEN":   "file",
		"LAUNCHER_TEST_ONLY_FILE":    "file",
	} {
		got, ok := vars.Get(key)
		assert.True(t, ok, key)
		assert.Equal(t, want, got, key)
	}

	_, err = Environ(filepath.Join(t.TempDir(), "missing.env"))
	assert.Error(t, err)
}

func TestExtensions_ComposeWithCatalog(t *testing.T) {
	f, err := Load(writeFile(t, "ext.yml", yamlFixture), interpolate.NewMapEnv(map[string]string{"IMAGE_TAG": "81"}))
	require.NoError(t, err)

	ext, err := f.Extensions(catalog.BuiltinModule)
	require.NoError(t, err)
	require.Len(t, ext.Modules, 2)
	assert.Equal(t, []string{"kafka"}, ext.Modules[0].RequiredNames())

	c, err := catalog.New(ext)
	require.NoError(t, err)

	cfg, err := c.ConfigFactory().GetConfig("ci")
	require.NoError(t, err)
	def, err := c.EnvironmentFactory().Create("singlenode-kafka-connect", cfg, port.Fixed{})
	require.NoError(t, err)

	assert.Equal(t, []string{"standard", "kafka", "kafka-connect", "kafka-debug"}, def.ModuleNames())
	assert.Equal(t, "http://connect:8083", def.Settings["kafka.connect.url"])
	assert.Equal(t, port.HostPort{Port: 8083}, def.PortMap()[8083])

	kafka, ok := def.Module("kafka")
	require.True(t, ok)
	for _, ct := range kafka.Containers {
		if ct.Name == "kafka" {
			assert.Equal(t, "DEBUG", ct.Env["KAFKA_LOG4J_ROOT_LOGLEVEL"])
		}
	}
	standard, _ := def.Module("standard")
	assert.Contains(t, standard.Containers[0].Image, ":81")
}

func TestExtensions_UnknownModule(t *testing.T) {
	tests := []struct {
		name string
		file File
	}{
		{"requires", File{Modules: []ModuleSpec{{Name: "a", Requires: []string{"ghost"}}}}},
		{"environment", File{Environments: []EnvironmentSpec{{Name: "e", Modules: []string{"ghost"}}}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.file.Extensions(catalog.BuiltinModule)
			require.ErrorIs(t, err, ErrUnknownModule)
			assert.Contains(t, err.Error(), `"ghost"`)
		})
	}
}

func TestExtensions_LocalRequirementOrder(t *testing.T) {
	// b is declared before the module it requires.
	f := File{Modules: []ModuleSpec{
		{Name: "b", Requires: []string{"a"}},
		{Name: "a"},
	}}

	ext, err := f.Extensions(nil)
	require.NoError(t, err)
	assert.Same(t, ext.Modules[1], ext.Modules[0].Requires[0])
}

func TestExtensions_InvalidModules(t *testing.T) {
	tests := []struct {
		name string
		spec ModuleSpec
	}{
		{"ports without container", ModuleSpec{Name: "a", Ports: []int{80}}},
		{"env without container", ModuleSpec{Name: "a", Env: map[string]string{"K": "V"}}},
		{"port out of range", ModuleSpec{Name: "a", Image: "img", Ports: []int{70000}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := &File{Modules: []ModuleSpec{tt.spec}}
			_, err := f.Extensions(nil)
			assert.Error(t, err)
		})
	}
}

func TestExtensions_DuplicateInFile(t *testing.T) {
	f := File{Modules: []ModuleSpec{{Name: "a"}, {Name: "a"}}}
	_, err := f.Extensions(nil)
	assert.ErrorIs(t, err, catalog.ErrDuplicateRegistration)
}

func TestExtensions_MissingTargetContainer(t *testing.T) {
	f := File{
		Modules:      []ModuleSpec{{Name: "tweak", Container: "nope", Env: map[string]string{"A": "1"}}},
		Environments: []EnvironmentSpec{{Name: "tweaked", Modules: []string{"tweak"}}},
	}
	ext, err := f.Extensions(catalog.BuiltinModule)
	require.NoError(t, err)

	c, err := catalog.New(ext)
	require.NoError(t, err)
	cfg, err := c.ConfigFactory().GetConfig("default")
	require.NoError(t, err)

	_, err = c.EnvironmentFactory().Create("tweaked", cfg, port.Default{})
	assert.ErrorIs(t, err, env.ErrUnknownContainer)
	assert.ErrorIs(t, err, env.ErrModuleApplicationFailed)
}
