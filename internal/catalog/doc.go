// Package catalog is the composition root of the launcher.
//
// It enumerates the built-in modules, environments and configs in explicit
// tables, merges caller-supplied Extensions into them, and hands out the
// read-only registries consumed by env.Factory and envconfig.Factory.
// Names are derived from CamelCase identifiers with NameFor.
package catalog
