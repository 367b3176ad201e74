package dag

// Layers groups the sortable nodes into dependency layers: every node's
// dependencies live strictly in earlier layers, so all members of one layer
// may execute concurrently without sharing a data dependency. Nodes that a
// cycle keeps out of the topological order are not placed in any layer.
func (g *Graph) Layers() [][]string {
	res := g.Sort()

	depth := make(map[string]int, len(res.Order))
	maxDepth := 0
	for _, id := range res.Order {
		d := 0
		for _, p := range g.pred[id] {
			if pd, ok := depth[p]; ok && pd+1 > d {
				d = pd + 1
			}
		}
		depth[id] = d
		if d > maxDepth {
			maxDepth = d
		}
	}

	layers := make([][]string, maxDepth+1)
	for _, id := range res.Order {
		d := depth[id]
		layers[d] = append(layers[d], id)
	}
	if len(res.Order) == 0 {
		return nil
	}
	return layers
}
