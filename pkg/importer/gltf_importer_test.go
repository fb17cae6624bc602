package importer

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/qmuntal/gltf"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func idx(i uint32) *uint32 { return &i }

func TestImportBuildsHierarchy(t *testing.T) {
	path := filepath.Join(t.TempDir(), "chair.glb")
	doc := &gltf.Document{
		Asset:  gltf.Asset{Version: "2.0"},
		Scene:  idx(0),
		Scenes: []*gltf.Scene{{Nodes: []uint32{0}}},
		Nodes: []*gltf.Node{
			{Name: "root", Children: []uint32{1, 2}},
			{Name: "seat", Mesh: idx(0)},
			{Children: []uint32{}},
		},
		Meshes: []*gltf.Mesh{{Name: "seat"}},
	}
	require.NoError(t, gltf.SaveBinary(doc, path))

	root, err := NewGLTFImporter().Import(context.Background(), path)
	require.NoError(t, err)

	assert.Equal(t, "chair", root.Name)
	require.Len(t, root.Children, 1)
	top := root.Children[0]
	assert.Equal(t, "root", top.Name)
	require.Len(t, top.Children, 2)
	assert.True(t, top.Children[0].HasMesh)
	assert.Equal(t, "node_2", top.Children[1].Name)
	assert.Equal(t, 4, root.Count())
}

func TestImportRejectsGarbage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.glb")
	require.NoError(t, os.WriteFile(path, []byte("not a model"), 0o644))

	_, err := NewGLTFImporter().Import(context.Background(), path)
	assert.ErrorIs(t, err, ErrImport)

	_, err = NewGLTFImporter().Import(context.Background(), filepath.Join(t.TempDir(), "missing.glb"))
	assert.ErrorIs(t, err, ErrImport)
}

func TestImportRejectsCycles(t *testing.T) {
	path := filepath.Join(t.TempDir(), "loop.glb")
	doc := &gltf.Document{
		Asset:  gltf.Asset{Version: "2.0"},
		Scenes: []*gltf.Scene{{Nodes: []uint32{0}}},
		Nodes: []*gltf.Node{
			{Name: "a", Children: []uint32{1}},
			{Name: "b", Children: []uint32{0}},
		},
	}
	require.NoError(t, gltf.SaveBinary(doc, path))

	_, err := NewGLTFImporter().Import(context.Background(), path)
	assert.ErrorIs(t, err, ErrImport)
}

func TestImportRejectsOutOfRangeIndices(t *testing.T) {
	for name, doc := range map[string]*gltf.Document{
		"scene": {
			Asset:  gltf.Asset{Version: "2.0"},
			Scene:  idx(3),
			Scenes: []*gltf.Scene{{Nodes: []uint32{0}}},
			Nodes:  []*gltf.Node{{Name: "a"}},
		},
		"node": {
			Asset:  gltf.Asset{Version: "2.0"},
			Scenes: []*gltf.Scene{{Nodes: []uint32{0}}},
			Nodes:  []*gltf.Node{{Name: "a", Children: []uint32{7}}},
		},
	} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), name+".glb")
			require.NoError(t, gltf.SaveBinary(doc, path))

			_, err := NewGLTFImporter().Import(context.Background(), path)
			assert.ErrorIs(t, err, ErrImport)
		})
	}
}
