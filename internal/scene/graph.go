package scene

import "errors"

var (
	ErrNilNode         = errors.New("scene: nil node")
	ErrNodeDestroyed   = errors.New("scene: node destroyed")
	ErrAlreadyAttached = errors.New("scene: node already attached")
)

// Container is where synchronized nodes are parented.
type Container interface {
	Attach(n *Node) error
	Detach(n *Node)
}

// Graph is a flat container that keeps children in attach order.
type Graph struct {
	name     string
	children []*Node
}

func NewGraph(name string) *Graph {
	return &Graph{name: name}
}

func (g *Graph) Name() string {
	return g.name
}

func (g *Graph) Attach(n *Node) error {
	if n == nil {
		return ErrNilNode
	}
	if n.destroyed {
		return ErrNodeDestroyed
	}
	if n.parent != nil {
		return ErrAlreadyAttached
	}
	n.parent = g
	g.children = append(g.children, n)
	return nil
}

func (g *Graph) Detach(n *Node) {
	if n == nil || n.parent != g {
		return
	}
	for i, c := range g.children {
		if c == n {
			g.children = append(g.children[:i], g.children[i+1:]...)
			break
		}
	}
	n.parent = nil
}

// Children returns a copy of the attached nodes.
func (g *Graph) Children() []*Node {
	out := make([]*Node, len(g.children))
	copy(out, g.children)
	return out
}

// CountTagged returns how many attached nodes carry tag.
func (g *Graph) CountTagged(tag string) int {
	n := 0
	for _, c := range g.children {
		if c.Tag == tag {
			n++
		}
	}
	return n
}
