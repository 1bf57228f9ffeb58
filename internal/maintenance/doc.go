// Package maintenance holds one-off data repairs run by hand against an
// existing store. None of it is part of ingest or apply.
package maintenance
