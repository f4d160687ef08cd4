// Package errors provides the error kinds and exit codes for releasewatch.
//
// Error kinds:
//   - ExitError: Command exit with a specific exit code
//   - MissingArtifactError: A candidate release lacks the required alternate
//     build, so the whole batch is withheld. This is an expected state that
//     resolves by waiting and exits with status 0.
//   - ActionError: A dispatched update action failed; remaining actions are
//     skipped and the process exits non-zero.
//   - ValidationError: Configuration or preflight validation failures
//
// Error Display:
//
//	errors.PrintError(os.Stderr, err, verbose)
//
// Exit Codes:
//
// Standard exit codes are defined for scripting integration:
//   - ExitSuccess (0): Completed, including "no update" and blocked batches
//   - ExitPartialFailure (1): Some update actions ran before one failed
//   - ExitFailure (2): Nothing was updated because of an error
//   - ExitConfigError (3): Configuration or validation error
package errors
