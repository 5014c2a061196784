package main

import (
	"context"

	"github.com/desertthunder/spimport/internal/tasks"
	"github.com/desertthunder/spimport/internal/ui"
)

// runTUI runs an import inside the interactive monitor.
//
// Quitting the monitor cancels the import.
func (r *Runner) runTUI(ctx context.Context, target ui.Target, run ui.ImportFunc) (*tasks.ImportResult, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	model := ui.NewModel(ctx, target, run)
	return ui.Run(ctx, model)
}
