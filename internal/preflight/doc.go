// Package preflight checks that ragindex can index and search a project
// before any work starts.
//
// The checker validates:
//   - the content root exists and contains course units
//   - the data directory is writable and has free disk space
//   - the file descriptor limit
//   - the configured embedding provider and its API key
//   - the saved index, if any, against the configured model
//
//	checker := preflight.New(preflight.WithOutput(os.Stdout))
//	results := checker.RunAll(ctx, target)
//	if checker.HasCriticalFailures(results) {
//	    // Handle failures
//	}
package preflight
