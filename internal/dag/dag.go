package dag

// Graph is an adjacency-list view over a node/edge set. Insertion order of
// nodes and edges is preserved so every derived ordering is deterministic.
//
// Graph is not safe for concurrent mutation; it is built once per run and
// only read afterwards.
type Graph struct {
	order []string
	nodes map[string]struct{}

	succ map[string][]string
	pred map[string][]string

	// edgeSet dedups parallel edges for in-degree purposes; multiple edges
	// between the same pair are legal in a workflow (different ports) but
	// count as one dependency.
	edgeSet map[[2]string]struct{}
}

// New creates an empty graph.
func New() *Graph {
	return &Graph{
		nodes:   make(map[string]struct{}),
		succ:    make(map[string][]string),
		pred:    make(map[string][]string),
		edgeSet: make(map[[2]string]struct{}),
	}
}

// AddNode registers a node id. Adding an existing id is a no-op.
func (g *Graph) AddNode(id string) {
	if _, ok := g.nodes[id]; ok {
		return
	}
	g.nodes[id] = struct{}{}
	g.order = append(g.order, id)
}

// AddEdge records a directed edge from -> to. Edges referencing unknown
// nodes or forming self-references are ignored: user-authored graphs may
// carry dangling edges and the scheduler must tolerate them.
func (g *Graph) AddEdge(from, to string) {
	if from == to {
		return
	}
	if _, ok := g.nodes[from]; !ok {
		return
	}
	if _, ok := g.nodes[to]; !ok {
		return
	}
	key := [2]string{from, to}
	if _, ok := g.edgeSet[key]; ok {
		return
	}
	g.edgeSet[key] = struct{}{}
	g.succ[from] = append(g.succ[from], to)
	g.pred[to] = append(g.pred[to], from)
}

// Has reports whether the node id exists in the graph.
func (g *Graph) Has(id string) bool {
	_, ok := g.nodes[id]
	return ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.order) }

// NodeIDs returns all node ids in insertion order.
func (g *Graph) NodeIDs() []string {
	out := make([]string, len(g.order))
	copy(out, g.order)
	return out
}

// Successors returns the direct dependents of id in edge insertion order.
func (g *Graph) Successors(id string) []string {
	out := make([]string, len(g.succ[id]))
	copy(out, g.succ[id])
	return out
}

// Predecessors returns the direct dependencies of id in edge insertion order.
func (g *Graph) Predecessors(id string) []string {
	out := make([]string, len(g.pred[id]))
	copy(out, g.pred[id])
	return out
}
