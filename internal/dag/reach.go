package dag

// Downstream returns the start node plus every node reachable from it by
// following edges forward, in breadth-first discovery order. The traversal
// is iterative with an explicit frontier so arbitrarily deep graphs cannot
// exhaust the stack.
func (g *Graph) Downstream(start string) []string {
	return g.reach(start, g.succ)
}

// Upstream returns the start node plus its transitive dependencies, in
// breadth-first discovery order.
func (g *Graph) Upstream(start string) []string {
	return g.reach(start, g.pred)
}

func (g *Graph) reach(start string, adj map[string][]string) []string {
	if !g.Has(start) {
		return nil
	}
	visited := map[string]struct{}{start: {}}
	order := []string{start}
	frontier := []string{start}
	for len(frontier) > 0 {
		id := frontier[0]
		frontier = frontier[1:]
		for _, next := range adj[id] {
			if _, ok := visited[next]; ok {
				continue
			}
			visited[next] = struct{}{}
			order = append(order, next)
			frontier = append(frontier, next)
		}
	}
	return order
}
