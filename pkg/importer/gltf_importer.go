// Package importer loads cached model files into mesh hierarchies.
package importer

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/qmuntal/gltf"

	"vr-scene-sync/internal/entity"
)

var ErrImport = errors.New("mesh import failed")

type MeshImporter interface {
	Import(ctx context.Context, path string) (*entity.MeshNode, error)
}

type GLTFImporter struct{}

var _ MeshImporter = GLTFImporter{}

func NewGLTFImporter() GLTFImporter {
	return GLTFImporter{}
}

// Import opens a .glb or .gltf file and returns its default scene as a tree
// rooted at a node named after the file.
func (GLTFImporter) Import(ctx context.Context, path string) (*entity.MeshNode, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrImport, err)
	}

	roots, err := sceneRoots(doc)
	if err != nil {
		return nil, err
	}

	root := &entity.MeshNode{Name: strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))}
	visited := make(map[uint32]bool, len(doc.Nodes))
	for _, idx := range roots {
		child, err := build(doc, idx, visited)
		if err != nil {
			return nil, err
		}
		root.Children = append(root.Children, child)
	}
	return root, nil
}

func sceneRoots(doc *gltf.Document) ([]uint32, error) {
	if len(doc.Scenes) == 0 {
		// no scene list: every node that is nobody's child is a root
		isChild := make(map[uint32]bool)
		for _, n := range doc.Nodes {
			for _, c := range n.Children {
				isChild[c] = true
			}
		}
		var roots []uint32
		for i := range doc.Nodes {
			if !isChild[uint32(i)] {
				roots = append(roots, uint32(i))
			}
		}
		return roots, nil
	}
	var sc uint32
	if doc.Scene != nil {
		sc = *doc.Scene
	}
	if sc >= uint32(len(doc.Scenes)) {
		return nil, fmt.Errorf("%w: scene index %d out of range", ErrImport, sc)
	}
	return doc.Scenes[sc].Nodes, nil
}

func build(doc *gltf.Document, idx uint32, visited map[uint32]bool) (*entity.MeshNode, error) {
	if idx >= uint32(len(doc.Nodes)) {
		return nil, fmt.Errorf("%w: node index %d out of range", ErrImport, idx)
	}
	if visited[idx] {
		return nil, fmt.Errorf("%w: node %d appears twice in hierarchy", ErrImport, idx)
	}
	visited[idx] = true

	src := doc.Nodes[idx]
	name := src.Name
	if name == "" {
		name = fmt.Sprintf("node_%d", idx)
	}
	out := &entity.MeshNode{Name: name, HasMesh: src.Mesh != nil}
	for _, c := range src.Children {
		child, err := build(doc, c, visited)
		if err != nil {
			return nil, err
		}
		out.Children = append(out.Children, child)
	}
	return out, nil
}
