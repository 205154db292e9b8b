// Package pagination provides utilities for CLI pagination and sorting.
//
// This package contains shared list handling used by CLI commands, including:
//   - Params: --limit/--offset/--sort flag parsing and validation
//   - Meta: response metadata for paginated results
//   - CompanySorter: field-validated sorting of the company vocabulary
package pagination
