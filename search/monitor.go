package search

import (
	"github.com/poiesic/enrichit/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterEmbedding(vector core.Embedding)
	AfterSimilaritySearch(matches []core.SimilarityMatch)
	AfterRecordRetrieval(records []*core.ContentRecord)
	VerbatimHit(record *core.ContentRecord)
	Finish(results []*core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                                 {}
func (n *noopMonitor) AfterEmbedding(_ core.Embedding)                {}
func (n *noopMonitor) AfterSimilaritySearch(_ []core.SimilarityMatch) {}
func (n *noopMonitor) AfterRecordRetrieval(_ []*core.ContentRecord)   {}
func (n *noopMonitor) VerbatimHit(_ *core.ContentRecord)              {}
func (n *noopMonitor) Finish(_ []*core.SearchResult)                  {}
