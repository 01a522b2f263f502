// Package cmd provides the command-line interface for featureguard.
//
// This package implements all CLI commands using the Cobra framework.
//
// # Available Commands
//
//   - generate: Write one build-constrained check file per flag-set check
//   - check: Evaluate a build tag selection against every flag set
//   - list: Show the declared flag sets and their checks
//   - explain: Map go build errors back to the declaring flag set
//   - watch: Regenerate checks when sources or the manifest change
//   - init: Write a starter .featureguard.yml
//   - version: Show build information
//
// # Command Examples
//
//	// From a package, next to the directive
//	//go:generate featureguard generate
//
//	// Validate a tag selection before building
//	featureguard check --tags rustls,postgres
//
//	// Explain a failed build
//	go build -tags rustls,nativetls ./... 2>&1 | featureguard explain
//
// # Configuration
//
// Configuration is read from .featureguard.yml in the working directory, the
// file named by --config or the FEATUREGUARD_CONFIG_FILE environment
// variable. Every key can be overridden through FEATUREGUARD_<KEY>, e.g.
// FEATUREGUARD_OUTPUT or FEATUREGUARD_SCAN_PATHS.
package cmd
