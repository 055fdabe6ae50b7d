package dag

import "github.com/kbukum/opflow/operator"

// Node wraps an operator with its position in the graph.
type Node struct {
	op       operator.Operator
	parents  []*Node
	children []*Node
}

func newNode(op operator.Operator) *Node {
	return &Node{op: op}
}

// Name returns the wrapped operator's name.
func (n *Node) Name() string { return n.op.Name() }

// Operator returns the wrapped operator.
func (n *Node) Operator() operator.Operator { return n.op }

// Status mirrors the wrapped operator's status.
func (n *Node) Status() operator.Status { return n.op.Status() }

// DataModel mirrors the wrapped operator's data model.
func (n *Node) DataModel() operator.DataModel { return n.op.DataModel() }

// Parents returns the upstream nodes in the order they were linked.
func (n *Node) Parents() []*Node { return append([]*Node(nil), n.parents...) }

// Children returns the downstream nodes in the order they were linked.
func (n *Node) Children() []*Node { return append([]*Node(nil), n.children...) }

// IsRoot reports whether the node has no parents.
func (n *Node) IsRoot() bool { return len(n.parents) == 0 }

// IsLeaf reports whether the node has no children.
func (n *Node) IsLeaf() bool { return len(n.children) == 0 }

func (n *Node) addParent(p *Node) bool {
	for _, existing := range n.parents {
		if existing == p {
			return false
		}
	}
	n.parents = append(n.parents, p)
	return true
}

func (n *Node) addChild(c *Node) {
	for _, existing := range n.children {
		if existing == c {
			return
		}
	}
	n.children = append(n.children, c)
}
