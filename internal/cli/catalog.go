// catalog.go builds the catalog a command works against and translates
// domain errors into CLI exit codes.
package cli

import (
	"errors"

	"github.com/shinji-kodama/launcher/internal/catalog"
	"github.com/shinji-kodama/launcher/internal/env"
	"github.com/shinji-kodama/launcher/internal/envconfig"
	"github.com/shinji-kodama/launcher/internal/extension"
	"github.com/shinji-kodama/launcher/internal/model"
	"github.com/shinji-kodama/launcher/internal/port"
)

// loadCatalog returns the built-in catalog, extended with the file given
// by --extensions when set.
func loadCatalog() (*catalog.Catalog, error) {
	return newCatalog(extensionsPath, envFile)
}

func newCatalog(path, dotenv string) (*catalog.Catalog, error) {
	var ext catalog.Extensions

	if path != "" {
		vars, err := extension.Environ(dotenv)
		if err != nil {
			return nil, model.WrapCLIError(model.ExitRegistryError, "failed to load env file", err)
		}

		f, err := extension.Load(path, vars)
		if err != nil {
			return nil, model.WrapCLIError(model.ExitRegistryError, "failed to load extensions", err)
		}
		VerboseLog("Loaded %s: %d module(s), %d environment(s), %d config(s)",
			path, len(f.Modules), len(f.Environments), len(f.Configs))

		ext, err = f.Extensions(catalog.BuiltinModule)
		if err != nil {
			return nil, model.WrapCLIError(model.ExitRegistryError, "invalid extensions", err)
		}
	}

	cat, err := catalog.New(ext)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitRegistryError, "failed to build catalog", err)
	}
	return cat, nil
}

// exitCodeFor maps an error to the exit code of the sentinel it wraps.
func exitCodeFor(err error) model.ExitCode {
	switch {
	case err == nil:
		return model.ExitSuccess
	case errors.Is(err, env.ErrUnknownEnvironment):
		return model.ExitUnknownEnvironment
	case errors.Is(err, envconfig.ErrUnknownConfig),
		errors.Is(err, envconfig.ErrConfigurationCycle):
		return model.ExitUnknownConfig
	case errors.Is(err, port.ErrInvalidOptions):
		return model.ExitInvalidOptions
	case errors.Is(err, env.ErrModuleApplicationFailed),
		errors.Is(err, env.ErrDuplicateModule),
		errors.Is(err, env.ErrDependencyCycle):
		return model.ExitCompositionFailed
	case errors.Is(err, catalog.ErrDuplicateRegistration),
		errors.Is(err, extension.ErrUnknownModule),
		errors.Is(err, extension.ErrUnsupportedFormat):
		return model.ExitRegistryError
	default:
		return model.ExitGeneralError
	}
}

// classify wraps err in a CLIError whose code matches the wrapped sentinel.
func classify(message string, err error) error {
	return model.WrapCLIError(exitCodeFor(err), message, err)
}
