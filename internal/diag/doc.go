// Package diag defines the diagnostic model shared by the generator phases.
//
// Diagnostic is the central record: Severity, a numeric Code with a stable
// string form, a short Message, the Go source position, and the exported
// Symbol and Go type expression that caused it. Phases emit through a
// Reporter (usually a BagReporter) and hand the Bag back as a *Error, so a
// single run reports every broken export at once instead of stopping at the
// first one.
//
// Package diag does no formatting beyond Diagnostic.String; colored output
// lives in the CLI.
package diag
