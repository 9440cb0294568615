// Package options holds the launcher options that select what to compose:
// environment, config, port binding mode, server package and debug mode.
package options

import (
	"fmt"
	"strconv"

	"github.com/shinji-kodama/launcher/internal/catalog"
	"github.com/shinji-kodama/launcher/internal/env"
	"github.com/shinji-kodama/launcher/internal/envconfig"
	"github.com/shinji-kodama/launcher/internal/port"
)

// Options are the inputs of one composition.
type Options struct {
	// Environment is the environment to compose.
	Environment string

	// Config is the config overlay to resolve. Empty means
	// envconfig.DefaultName.
	Config string

	// BindPorts selects the port binder: -1 ephemeral, 0 fixed, N > 0
	// shifted by N.
	BindPorts int

	// ServerPackage is the server tarball mounted into Trino containers.
	// Empty means catalog.DefaultServerPackage.
	ServerPackage string

	// Debug starts Trino containers with a JDWP agent on catalog.DebugPort.
	Debug bool
}

// Default returns the options used when no flags are given.
func Default() Options {
	return Options{
		Config:    envconfig.DefaultName,
		BindPorts: port.ModeEphemeral,
	}
}

// Validate checks the options that can be checked without a catalog.
func (o Options) Validate() error {
	if o.Environment == "" {
		return fmt.Errorf("%w: environment must be set", port.ErrInvalidOptions)
	}
	if _, err := port.FromMode(o.BindPorts); err != nil {
		return err
	}
	return nil
}

// ConfigName returns Config, or the default config name when unset.
func (o Options) ConfigName() string {
	if o.Config == "" {
		return envconfig.DefaultName
	}
	return o.Config
}

// PortBinder returns the binder selected by BindPorts.
func (o Options) PortBinder() (port.Binder, error) {
	return port.FromMode(o.BindPorts)
}

// ServerPackageOrDefault returns ServerPackage, falling back to
// catalog.DefaultServerPackage so environments can be described without
// a build.
func (o Options) ServerPackageOrDefault() string {
	if o.ServerPackage == "" {
		return catalog.DefaultServerPackage
	}
	return o.ServerPackage
}

// Overlay returns the settings the options contribute on top of the
// resolved config.
func (o Options) Overlay() map[string]string {
	return map[string]string{
		catalog.KeyServerPackage: o.ServerPackageOrDefault(),
		catalog.KeyDebug:         strconv.FormatBool(o.Debug),
	}
}

// Compose validates the options and composes the selected environment
// from c. The resolved config is overlaid with Overlay before modules
// are applied, so modules see the server package and debug flag as
// ordinary settings.
func (o Options) Compose(c *catalog.Catalog) (*env.Definition, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}
	binder, err := o.PortBinder()
	if err != nil {
		return nil, err
	}
	cfg, err := c.ConfigFactory().GetConfig(o.ConfigName())
	if err != nil {
		return nil, err
	}
	return c.EnvironmentFactory().Create(o.Environment, cfg.With(o.Overlay()), binder)
}
