// Package vocab parses authoritative per-unit vocabulary lists into a
// chapter-scoped Index used for matching and chapter back-fill.
//
// Sources may be plain text or markdown, Word documents, or YAML. A line that
// reads "Chapter N" or "N. Title" opens a chapter scope; terms before the
// first marker land in the unscoped bucket "0". Indices are read only and
// never persisted.
//
// Missing sources are reported with ErrSourceNotFound, which callers treat
// as "validation skipped" for the unit. Malformed sources return a
// *ParseError that matches ErrParse.
package vocab
