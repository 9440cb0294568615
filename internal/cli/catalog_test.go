package cli

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"

	"github.com/shinji-kodama/launcher/internal/catalog"
	"github.com/shinji-kodama/launcher/internal/env"
	"github.com/shinji-kodama/launcher/internal/envconfig"
	"github.com/shinji-kodama/launcher/internal/extension"
	"github.com/shinji-kodama/launcher/internal/model"
	"github.com/shinji-kodama/launcher/internal/port"
)

// TestExitCodeFor verifies that each domain sentinel maps to its exit code,
// including when wrapped or aggregated.
func TestExitCodeFor(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want model.ExitCode
	}{
		{"nil", nil, model.ExitSuccess},
		{"unknown environment", fmt.Errorf("%w: %q", env.ErrUnknownEnvironment, "x"), model.ExitUnknownEnvironment},
		{"unknown config", envconfig.ErrUnknownConfig, model.ExitUnknownConfig},
		{"config cycle", fmt.Errorf("resolve: %w", envconfig.ErrConfigurationCycle), model.ExitUnknownConfig},
		{"invalid options", port.ErrInvalidOptions, model.ExitInvalidOptions},
		{"module error", &env.ModuleError{Module: "kafka", Err: errors.New("boom")}, model.ExitCompositionFailed},
		{"dependency cycle", env.ErrDependencyCycle, model.ExitCompositionFailed},
		{"duplicate module", env.ErrDuplicateModule, model.ExitCompositionFailed},
		{
			"aggregated registration errors",
			multierr.Combine(errors.New("first"), fmt.Errorf("%w: module %q", catalog.ErrDuplicateRegistration, "kafka")),
			model.ExitRegistryError,
		},
		{"unknown extension module", extension.ErrUnknownModule, model.ExitRegistryError},
		{"unsupported format", extension.ErrUnsupportedFormat, model.ExitRegistryError},
		{"anything else", errors.New("disk full"), model.ExitGeneralError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCodeFor(tt.err))
		})
	}
}

func TestClassify(t *testing.T) {
	err := classify("failed to compose", env.ErrUnknownEnvironment)

	var cliErr *model.CLIError
	require.ErrorAs(t, err, &cliErr)
	assert.Equal(t, model.ExitUnknownEnvironment, cliErr.Code)
	assert.Equal(t, "failed to compose", cliErr.Message)
	assert.ErrorIs(t, err, env.ErrUnknownEnvironment)
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

const extensionFixture = `modules:
  - name: trino-client
    image: ${CLIENT_IMAGE}
    requires: [standard]
environments:
  - name: singlenode-client
    modules: [trino-client]
`

func TestNewCatalog(t *testing.T) {
	t.Run("built-ins only", func(t *testing.T) {
		cat, err := newCatalog("", "")
		require.NoError(t, err)
		assert.Len(t, cat.EnvironmentNames(), 8)
	})

	t.Run("extension file with env file", func(t *testing.T) {
		path := writeFile(t, "ext.yaml", extensionFixture)
		dotenv := writeFile(t, "client.env", "CLIENT_IMAGE=trinodb/trino:435\n")

		cat, err := newCatalog(path, dotenv)
		require.NoError(t, err)
		assert.Contains(t, cat.EnvironmentNames(), "singlenode-client")
		assert.False(t, cat.IsBuiltin("trino-client"))

		def, err := cat.EnvironmentFactory().Create("singlenode-client", envconfig.Resolved{}, port.Default{})
		require.NoError(t, err)
		client, ok := def.Module("trino-client")
		require.True(t, ok)
		assert.Equal(t, "trinodb/trino:435", client.Containers[0].Image)
	})
}

func TestNewCatalog_Errors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name   string
		path   func(t *testing.T) string
		dotenv string
	}{
		{
			name: "missing file",
			path: func(*testing.T) string { return filepath.Join(dir, "missing.yaml") },
		},
		{
			name:   "missing env file",
			path:   func(t *testing.T) string { return writeFile(t, "ext.yaml", extensionFixture) },
			dotenv: filepath.Join(dir, "missing.env"),
		},
		{
			name: "unknown module",
			path: func(t *testing.T) string {
				return writeFile(t, "ext.yaml", "modules:\n  - name: x\n    requires: [nope]\n")
			},
		},
		{
			name: "shadows a built-in",
			path: func(t *testing.T) string {
				return writeFile(t, "ext.yaml", "configs:\n  - name: hdp3\n")
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := newCatalog(tt.path(t), tt.dotenv)

			var cliErr *model.CLIError
			require.ErrorAs(t, err, &cliErr)
			assert.Equal(t, model.ExitRegistryError, cliErr.Code)
		})
	}
}
