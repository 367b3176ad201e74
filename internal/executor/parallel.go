package executor

import (
	"context"
	"sync"

	"github.com/nodeloom/nodeloom/internal/ctxlog"
)

// runLayers is the alternate concurrent mode: independent nodes are grouped
// into dependency layers and each layer's nodes fan out together. Layer
// membership guarantees no two concurrent nodes share a data dependency,
// which is what makes concurrent writes to the run context safe (the
// context's mutex covers the map-level races). Breakpoints and single-step
// are not honored here; they only make sense for a serial walk.
func (w *walker) runLayers(ctx context.Context) error {
	logger := ctxlog.FromContext(ctx)

	order := w.graph.Sort().Order
	mainOrder, bodies := w.excludeLoopBodies(order)
	scheduled := make(map[string]struct{}, len(mainOrder))
	for _, id := range mainOrder {
		scheduled[id] = struct{}{}
	}

	layers := w.graph.Layers()
	logger.Debug("running layered pass", "layers", len(layers))

	for _, layer := range layers {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		var wg sync.WaitGroup
		for _, id := range layer {
			// Loop bodies are driven by their loop node, not scheduled as
			// layer members.
			if _, ok := scheduled[id]; !ok {
				continue
			}
			wg.Add(1)
			go func(id string) {
				defer wg.Done()
				if ctx.Err() != nil {
					return
				}
				if w.shouldSkip(id) {
					w.skipNode(id, bodies[id])
					return
				}
				w.runOne(ctx, id, bodies[id])
			}(id)
		}
		wg.Wait()
	}
	return nil
}
