package dag

import (
	"github.com/kbukum/opflow/errors"
	"github.com/kbukum/opflow/operator"
)

// Graph declares nodes and edges (dependency relationships). It is not
// safe for concurrent mutation; the owning container serializes writes and
// freezes the graph once initialized.
type Graph struct {
	nodes map[string]*Node
	order []string
	edges []Edge
}

// Edge represents a dependency: To depends on From.
type Edge struct {
	From string
	To   string
}

// New creates an empty Graph.
func New() *Graph {
	return &Graph{nodes: make(map[string]*Node)}
}

// AddNode registers op and returns its node. If a node with the same name
// already exists the existing node is returned; conflict is true when it
// wraps a different operator value, in which case op is ignored.
func (g *Graph) AddNode(op operator.Operator) (n *Node, conflict bool) {
	if existing, ok := g.nodes[op.Name()]; ok {
		return existing, existing.op != op
	}
	n = newNode(op)
	g.nodes[op.Name()] = n
	g.order = append(g.order, op.Name())
	return n, false
}

// AddEdge links two registered nodes so that to depends on from. Linking
// the same pair twice is a no-op. Self edges are accepted here and rejected
// by Validate.
func (g *Graph) AddEdge(from, to string) error {
	fromNode, ok := g.nodes[from]
	if !ok {
		return errors.NotFound("node", from)
	}
	toNode, ok := g.nodes[to]
	if !ok {
		return errors.NotFound("node", to)
	}
	if toNode.addParent(fromNode) {
		fromNode.addChild(toNode)
		g.edges = append(g.edges, Edge{From: from, To: to})
	}
	return nil
}

// Node looks up a node by name.
func (g *Graph) Node(name string) (*Node, bool) {
	n, ok := g.nodes[name]
	return n, ok
}

// Len returns the number of nodes.
func (g *Graph) Len() int { return len(g.order) }

// Names returns node names in registration order.
func (g *Graph) Names() []string { return append([]string(nil), g.order...) }

// Edges returns every edge in the order it was added.
func (g *Graph) Edges() []Edge { return append([]Edge(nil), g.edges...) }

// Operators returns the wrapped operators in registration order.
func (g *Graph) Operators() []operator.Operator {
	ops := make([]operator.Operator, 0, len(g.order))
	for _, name := range g.order {
		ops = append(ops, g.nodes[name].op)
	}
	return ops
}

// Roots returns the nodes without parents, in registration order.
func (g *Graph) Roots() []*Node {
	var out []*Node
	for _, name := range g.order {
		if n := g.nodes[name]; n.IsRoot() {
			out = append(out, n)
		}
	}
	return out
}

// Leaves returns the nodes without children, in registration order.
func (g *Graph) Leaves() []*Node {
	var out []*Node
	for _, name := range g.order {
		if n := g.nodes[name]; n.IsLeaf() {
			out = append(out, n)
		}
	}
	return out
}

// Validate fails with CYCLE_DETECTED when the edges contain a cycle.
func (g *Graph) Validate() error {
	_, err := g.topoOrder()
	return err
}

// Levels groups node names by longest-path depth: roots are level 0 and
// every other node sits one past its deepest parent. Names inside a level
// keep registration order. Fails with CYCLE_DETECTED on cyclic graphs.
func (g *Graph) Levels() ([][]string, error) {
	topo, err := g.topoOrder()
	if err != nil {
		return nil, err
	}

	depth := make(map[string]int, len(topo))
	maxDepth := 0
	for _, n := range topo {
		d := 0
		for _, p := range n.parents {
			if pd := depth[p.Name()] + 1; pd > d {
				d = pd
			}
		}
		depth[n.Name()] = d
		if d > maxDepth {
			maxDepth = d
		}
	}

	if len(g.order) == 0 {
		return nil, nil
	}
	levels := make([][]string, maxDepth+1)
	for _, name := range g.order {
		levels[depth[name]] = append(levels[depth[name]], name)
	}
	return levels, nil
}

// Level returns the level index of a node, or -1 if it is unknown or the
// graph is cyclic.
func (g *Graph) Level(name string) int {
	levels, err := g.Levels()
	if err != nil {
		return -1
	}
	for i, level := range levels {
		for _, n := range level {
			if n == name {
				return i
			}
		}
	}
	return -1
}

// topoOrder runs Kahn's algorithm, seeding and expanding in registration
// order so the result is deterministic.
func (g *Graph) topoOrder() ([]*Node, error) {
	inDegree := make(map[string]int, len(g.order))
	var queue []*Node
	for _, name := range g.order {
		n := g.nodes[name]
		inDegree[name] = len(n.parents)
		if inDegree[name] == 0 {
			queue = append(queue, n)
		}
	}

	out := make([]*Node, 0, len(g.order))
	for len(queue) > 0 {
		n := queue[0]
		queue = queue[1:]
		out = append(out, n)
		for _, c := range n.children {
			inDegree[c.Name()]--
			if inDegree[c.Name()] == 0 {
				queue = append(queue, c)
			}
		}
	}

	if len(out) != len(g.order) {
		return nil, errors.CycleDetected(len(out), len(g.order))
	}
	return out, nil
}
