// Package pipeline orchestrates one enrichment run per document.
//
// A run moves through a fixed state machine:
//
//	Idle -> Phase1Running -> Phase2Running -> Phase3Running -> Completed
//	                 \______________\_______________\_______-> Failed
//
// Phase 1 fans out summaries, search metadata, classification and tagging.
// Phase 2 fans out the structured description, visual prompt and embedding
// once every Phase 1 output is available. Phase 3 runs the quality gate over
// the document and all seven outputs. Each fan-out is submitted to a shared
// ants worker pool and joined with a barrier.
//
// A phase succeeds only if all of its capabilities succeed. The first failure
// cancels the siblings still in flight, discards their results and ends the
// run with the originating *core.CapabilityError. The pipeline never writes
// anything; persisting a result is the caller's job.
package pipeline
