// Package main hosts the owlmap CLI entrypoint and command graph.
//
// The Cobra command tree wires configuration, logging and the knowledge-map
// store into the ingest, audit and apply pipelines, plus database and
// configuration utilities. Commands print a summary and exit zero even when
// individual rows fail; only setup failures (bad config, missing store, a held
// lock) produce a non-zero exit.
//
// Keep this package lean: behaviour lives in the internal packages and the
// commands here only translate flags and render results.
package main
