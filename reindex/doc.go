// Package reindex recomputes the stored embedding of every content record.
//
// Records are read in ID order in fixed-size batches. Each body is embedded
// through the capability invoker on a small worker pool, retried with
// exponential backoff, and written back through the search index. A record
// that still fails is counted and reported; the run carries on with the next
// one. Progress is saved as a checkpoint after every batch so an interrupted
// run can resume where it stopped.
package reindex
