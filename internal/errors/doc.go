// Package errors defines sentinel errors and the ExitError type used to
// carry exit codes and user-facing suggestions out of command handlers.
//
// Internal packages wrap errors with github.com/cockroachdb/errors for
// context; this package only owns the conditions the CLI surface cares
// about distinguishing.
package errors
