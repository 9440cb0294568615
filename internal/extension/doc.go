// Package extension loads caller-supplied modules, environments and
// configs from a YAML or JSONC file and turns them into catalog.Extensions.
//
// Files are interpolated with shell-style ${VAR} expansions before
// parsing. Variables come from the process environment, optionally
// overlaid with a dotenv file.
//
// Key responsibilities:
//   - Load and parse extension files (.yaml, .yml, .json, .jsonc)
//   - Expand ${VAR}, ${VAR:-default} and ${VAR?message} references
//   - Link module requirements against built-in and file-local modules
package extension
