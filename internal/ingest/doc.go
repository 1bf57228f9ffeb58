// Package ingest loads extraction documents into the store.
//
// Each document is classified against its unit's vocabulary list and written
// inside its own savepoint of one run transaction, so a broken file leaves
// the rest of the batch intact. Sources already in the store are skipped
// unless the run is forced, which replaces them.
package ingest
