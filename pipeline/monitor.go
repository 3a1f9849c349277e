package pipeline

import (
	"github.com/poiesic/enrichit/core"
)

// Monitor provides hooks to observe a pipeline run.
// Capability hooks are called concurrently from pool workers.
type Monitor interface {
	Start(text string)
	StateChanged(from, to State)
	PhaseStarted(phase core.Phase)
	PhaseFinished(phase core.Phase, err error)
	CapabilityStarted(kind core.Kind)
	CapabilityFinished(kind core.Kind, err error)
	Finish(result *core.PipelineResult, err error)
}

// noopMonitor is a no-op implementation of Monitor
type noopMonitor struct{}

var _ Monitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                          {}
func (n *noopMonitor) StateChanged(_, _ State)                 {}
func (n *noopMonitor) PhaseStarted(_ core.Phase)               {}
func (n *noopMonitor) PhaseFinished(_ core.Phase, _ error)     {}
func (n *noopMonitor) CapabilityStarted(_ core.Kind)           {}
func (n *noopMonitor) CapabilityFinished(_ core.Kind, _ error) {}
func (n *noopMonitor) Finish(_ *core.PipelineResult, _ error)  {}
