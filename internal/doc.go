// Package internal contains the implementation packages of the featureguard
// CLI. They are unavailable to other modules; the public API is
// pkg/exclusive.
//
// # Package Organization
//
//   - buildtags: Build tag parsing from -tags lists and GOFLAGS
//   - config: Manifest loading through Viper, defaults and validation
//   - errors: Typed tool errors and the parser for compiler output
//   - generator: Rendering checks into build-constrained Go files
//   - logging: Structured logging on top of log/slog
//   - scanner: Discovery of //featureguard: directives in Go source
//   - services: The operations behind the CLI commands
//   - testutils: Test helpers, including a tag-aware type check
//   - version: Build information
//   - watcher: Debounced file watching for the watch command
//
// # Data Flow
//
// The scanner and the manifest produce flag sets, the services layer groups
// them by package, and the generator writes one file per check into each
// package. The same sets drive the check and explain commands.
package internal
