// Package emoji provides the status symbols printed by regsync commands.
package emoji

// Status symbols used in tables and summary lines.
const (
	// Success marks a record or run that finished without errors.
	Success = "✓"

	// Error marks a failed record or module write.
	Error = "✗"

	// Warning marks a run that finished with failures.
	Warning = "!"

	// Optional marks a skipped record.
	Optional = "-"

	// Info marks a dry-run result that changed nothing.
	Info = "i"
)
