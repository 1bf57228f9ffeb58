// Package store persists concepts, occurrences, and edges in SQLite.
//
// Open connects to a store, creating it only when asked, and applies
// pending embedded migrations. Writes happen inside a Tx so a whole ingest or
// apply run commits once, while Tx.Savepoint lets a single row fail and roll
// back alone. Status writes are checked against the classify transition
// table, deletes refuse occurrences that edges still reference, and concepts
// left without occurrences are removed in the same unit of work.
package store
