// Package apply executes reviewer decisions from the audit CSV against the
// store.
//
// A run is one transaction and each row runs inside its own savepoint, so a
// failing row rolls back alone while the rest commit together. Rows that were
// already applied are reported unchanged, which makes re-running the same
// decision file a no-op. Every effective change is appended to the decision
// log once the transaction commits.
package apply
