package rbxl

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func writePlace(t *testing.T, name, doc string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))
	return path
}

const placeDoc = `<roblox version="4">
  <Item class="Workspace" referent="RBX0">
    <Properties>
      <string name="Name">GameWorld</string>
    </Properties>
    <Item class="Part" referent="RBX1">
      <Properties>
        <string name="Name">Baseplate</string>
        <bool name="Anchored">true</bool>
        <Vector3 name="Size"><X>512</X><Y>20</Y><Z>512</Z></Vector3>
      </Properties>
    </Item>
    <Item class="Part" referent="RBX2">
      <Properties>
        <string name="Name">Spawn</string>
      </Properties>
    </Item>
  </Item>
  <Item class="ServerScriptService" referent="RBX3">
    <Item class="Script" referent="RBX4">
      <Properties>
        <string name="Name">Main</string>
        <ProtectedString name="Source">cHJpbnQoJ2hpJyk=</ProtectedString>
      </Properties>
    </Item>
  </Item>
  <Item class="Model">
    <Properties>
      <string name="Name">NoReferent</string>
    </Properties>
  </Item>
</roblox>`

func parseDoc(t *testing.T, doc string) *GameData {
	t.Helper()
	path := writePlace(t, "place.rbxlx", doc)
	game, err := NewParser(path, zap.NewNop()).Parse()
	require.NoError(t, err)
	return game
}

func TestParseBuildsHierarchy(t *testing.T) {
	game := parseDoc(t, placeDoc)

	// The Item without a referent is dropped before the hierarchy pass.
	assert.Len(t, game.Nodes, 5)

	ws := game.Nodes["RBX0"]
	require.NotNil(t, ws)
	assert.Equal(t, "Workspace", ws.Class)
	assert.Equal(t, []string{"RBX1", "RBX2"}, ws.Children)

	// Every child's parent back-reference points at the linking node.
	for ref, node := range game.Nodes {
		for _, child := range node.Children {
			childNode, ok := game.Nodes[child]
			require.True(t, ok, "child %s of %s missing from node map", child, ref)
			assert.Equal(t, ref, childNode.Parent)
		}
	}
}

func TestParseRoots(t *testing.T) {
	game := parseDoc(t, placeDoc)

	assert.Equal(t, []string{"RBX0", "RBX3"}, game.Roots)

	// Root predicate exactness: a node is a root iff nothing lists it as a
	// child and its parent is unset.
	childRefs := make(map[string]bool)
	for _, node := range game.Nodes {
		for _, child := range node.Children {
			childRefs[child] = true
		}
	}
	rootSet := make(map[string]bool)
	for _, ref := range game.Roots {
		rootSet[ref] = true
	}
	for ref, node := range game.Nodes {
		want := !childRefs[ref] && node.Parent == ""
		assert.Equal(t, want, rootSet[ref], "root predicate for %s", ref)
	}
}

func TestParseDecodesProperties(t *testing.T) {
	game := parseDoc(t, placeDoc)

	part := game.Nodes["RBX1"]
	require.NotNil(t, part)
	assert.Equal(t, "Baseplate", part.DisplayName())
	assert.Equal(t, true, part.Properties["Anchored"])
	assert.Equal(t, Vector3{X: 512, Y: 20, Z: 512}, part.Properties["Size"])

	script := game.Nodes["RBX4"]
	require.NotNil(t, script)
	assert.Equal(t, "print('hi')", script.Properties["Source"])
}

func TestParseGameNameFromWorkspace(t *testing.T) {
	game := parseDoc(t, placeDoc)
	assert.Equal(t, "GameWorld", game.Name)
}

func TestParseGameNameFromDataModel(t *testing.T) {
	doc := `<roblox>
  <Item class="DataModel" referent="RBX0">
    <Properties><string name="Name">MyGame</string></Properties>
    <Item class="Workspace" referent="RBX1">
      <Properties><string name="Name">OtherName</string></Properties>
    </Item>
  </Item>
</roblox>`
	game := parseDoc(t, doc)
	assert.Equal(t, "MyGame", game.Name)
}

func TestParseGameNameFallsBackToFileName(t *testing.T) {
	doc := `<roblox><Item class="Folder" referent="RBX0"/></roblox>`
	path := writePlace(t, "cool-place.rbxlx", doc)
	game, err := NewParser(path, zap.NewNop()).Parse()
	require.NoError(t, err)
	assert.Equal(t, "cool-place", game.Name)
}

func TestParseDisplayNameDefaultsToClass(t *testing.T) {
	doc := `<roblox><Item class="Lighting" referent="RBX0"><Properties><float name="Brightness">2</float></Properties></Item></roblox>`
	game := parseDoc(t, doc)
	assert.Equal(t, "Lighting", game.Nodes["RBX0"].DisplayName())
}

func TestParseMalformedDocument(t *testing.T) {
	path := writePlace(t, "broken.rbxlx", `<roblox><Item class="Part" referent="RBX0">`)
	game, err := NewParser(path, zap.NewNop()).Parse()
	assert.Error(t, err)
	assert.Nil(t, game)
}

func TestParseMissingFile(t *testing.T) {
	game, err := NewParser(filepath.Join(t.TempDir(), "absent.rbxlx"), zap.NewNop()).Parse()
	assert.Error(t, err)
	assert.Nil(t, game)
}

func TestParseIgnoresReferenceToSkippedItem(t *testing.T) {
	// The inner Item lacks a class, so it is never registered; linking must
	// simply skip it rather than create a dangling child entry.
	doc := `<roblox>
  <Item class="Model" referent="RBX0">
    <Properties><string name="Name">M</string></Properties>
    <Item referent="RBX1">
      <Properties><string name="Name">Ghost</string></Properties>
    </Item>
  </Item>
</roblox>`
	game := parseDoc(t, doc)
	require.NotNil(t, game.Nodes["RBX0"])
	assert.Empty(t, game.Nodes["RBX0"].Children)
	_, exists := game.Nodes["RBX1"]
	assert.False(t, exists)
}
