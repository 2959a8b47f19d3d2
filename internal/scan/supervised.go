// Ferrex media server core
// SPDX-License-Identifier: AGPL-3.0-or-later

package scan

import (
	"github.com/ferrex/mediaserver/internal/supervisor"
)

// NewSupervisedOrchestrator builds a Scan Orchestrator and registers it on
// tree's scan layer, so a panic inside the orchestrator's drive loop is
// restarted by the supervisor instead of taking down the rest of the
// process. The returned Orchestrator is already registered; callers only
// need to call tree.Serve or tree.ServeBackground to start it.
func NewSupervisedOrchestrator(tree *supervisor.SupervisorTree, cfg OrchestratorConfig, sink Sink) *Orchestrator {
	o := NewOrchestrator(cfg, sink)
	tree.AddScanService(o)
	return o
}
