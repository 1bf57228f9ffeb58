// Package preflight provides readiness checks for the filesystem paths owlmap
// depends on.
//
// `owlmap db health` runs RunAll next to the store health report so operators
// see unwritable output folders or a missing corpus root before a long ingest.
package preflight
