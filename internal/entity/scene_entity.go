package entity

import "image"

type Kind string

const (
	KindNote  Kind = "note"
	KindImage Kind = "image"
	KindModel Kind = "model"
)

func (k Kind) Valid() bool {
	switch k {
	case KindNote, KindImage, KindModel:
		return true
	}
	return false
}

type Action string

const (
	ActionAdd    Action = "add"
	ActionDelete Action = "delete"
)

// MeshNode is one node of an imported model hierarchy.
type MeshNode struct {
	Name     string
	HasMesh  bool
	Children []*MeshNode
}

// Count returns the number of nodes in the subtree rooted at n.
func (n *MeshNode) Count() int {
	if n == nil {
		return 0
	}
	total := 1
	for _, c := range n.Children {
		total += c.Count()
	}
	return total
}

// Payload holds exactly one of Text, Image or Model depending on the Kind.
type Payload struct {
	Text  string
	Image image.Image
	Model *MeshNode
}

type Entity struct {
	ID      string
	Kind    Kind
	Payload Payload
}

// SameContent reports whether replacing e with other would change nothing visible.
// Only notes are comparable; images and models always count as new content.
func (e Entity) SameContent(kind Kind, p Payload) bool {
	return e.Kind == KindNote && kind == KindNote && e.Payload.Text == p.Text
}
