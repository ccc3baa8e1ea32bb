// Package rbxl parses Roblox place files (.rbxlx) into an id-indexed
// instance graph. The parse is two-pass: a streaming scan registers every
// instance, then a full-tree pass decodes properties and wires the hierarchy.
package rbxl

import (
	"encoding/xml"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/RoaringBitmap/roaring"
	"go.uber.org/zap"
)

const (
	itemTag       = "Item"
	propertiesTag = "Properties"

	dataModelClass = "DataModel"
	workspaceClass = "Workspace"
)

// Node is one instance in the parsed place graph, keyed by its referent.
// The graph as a whole owns every node; Parent is a lookup aid only.
type Node struct {
	Ref        string
	Class      string
	Properties map[string]any
	Children   []string
	Parent     string
}

// DisplayName returns the Name property when present, else the class name.
func (n *Node) DisplayName() string {
	if v, ok := n.Properties["Name"].(string); ok {
		return v
	}
	return n.Class
}

// GameData is the immutable result of a parse: the place name, the
// referent-indexed node map and the root referents in discovery order.
type GameData struct {
	Name  string
	Nodes map[string]*Node
	Roots []string
}

// Parser reads a place file in two passes. It is single-use: one Parse call
// per Parser.
type Parser struct {
	path string
	log  *zap.Logger

	nodes map[string]*Node
	order []string // pass-1 discovery order

	// Interned referent ids plus a child-membership bitmap make the root
	// predicate a single bitmap test per node.
	ids      map[string]uint32
	childSet *roaring.Bitmap
}

// NewParser creates a parser for the place file at path.
func NewParser(path string, log *zap.Logger) *Parser {
	return &Parser{
		path:     path,
		log:      log,
		nodes:    make(map[string]*Node),
		ids:      make(map[string]uint32),
		childSet: roaring.New(),
	}
}

// Parse runs both passes and returns the assembled GameData. Any malformed
// markup aborts the parse; no partial result is returned.
func (p *Parser) Parse() (*GameData, error) {
	p.log.Info("parsing place file", zap.String("path", p.path))

	if err := p.scanItems(); err != nil {
		return nil, fmt.Errorf("scan instances: %w", err)
	}
	p.log.Info("first pass complete", zap.Int("instances", len(p.nodes)))

	root, err := p.loadTree()
	if err != nil {
		return nil, fmt.Errorf("load document: %w", err)
	}
	p.linkItem(root)

	roots := p.collectRoots()
	p.log.Info("hierarchy built",
		zap.Uint64("children", p.childSet.GetCardinality()),
		zap.Int("roots", len(roots)))
	for _, ref := range roots {
		n := p.nodes[ref]
		p.log.Debug("root instance",
			zap.String("name", n.DisplayName()),
			zap.String("class", n.Class),
			zap.Int("children", len(n.Children)))
	}

	return &GameData{
		Name:  p.resolveName(roots),
		Nodes: p.nodes,
		Roots: roots,
	}, nil
}

// scanItems is pass 1: a streaming token walk that registers every Item
// carrying both a referent and a class. Items missing either attribute are
// skipped entirely. No element tree is retained.
func (p *Parser) scanItems() error {
	f, err := os.Open(p.path)
	if err != nil {
		return err
	}
	defer func() { _ = f.Close() }()

	dec := xml.NewDecoder(f)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return err
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != itemTag {
			continue
		}
		var ref, class string
		for _, a := range start.Attr {
			switch a.Name.Local {
			case "referent":
				ref = a.Value
			case "class":
				class = a.Value
			}
		}
		if ref == "" || class == "" {
			continue
		}
		if _, exists := p.nodes[ref]; exists {
			continue
		}
		p.ids[ref] = uint32(len(p.order))
		p.order = append(p.order, ref)
		p.nodes[ref] = &Node{
			Ref:        ref,
			Class:      class,
			Properties: make(map[string]any),
		}
	}
}

// loadTree is the start of pass 2: re-parse the document into a full element
// tree for random access to property sub-elements.
func (p *Parser) loadTree() (*element, error) {
	f, err := os.Open(p.path)
	if err != nil {
		return nil, err
	}
	defer func() { _ = f.Close() }()
	return buildTree(f)
}

// linkItem walks the element tree; for every known Item it decodes the
// properties and appends direct Item children in document order, setting each
// child's parent back-reference. References to skipped items are ignored.
func (p *Parser) linkItem(el *element) {
	if el.name == itemTag {
		if node, ok := p.nodes[el.attr("referent")]; ok {
			p.decodeProperties(node, el)
			p.linkChildren(node, el)
		}
	}
	for _, c := range el.children {
		p.linkItem(c)
	}
}

func (p *Parser) decodeProperties(node *Node, el *element) {
	props := el.child(propertiesTag)
	if props == nil {
		return
	}
	for _, prop := range props.children {
		node.Properties[prop.attr("name")] = decodeProperty(prop)
	}
}

func (p *Parser) linkChildren(node *Node, el *element) {
	for _, c := range el.children {
		if c.name != itemTag {
			continue
		}
		ref := c.attr("referent")
		child, ok := p.nodes[ref]
		if !ok {
			continue
		}
		node.Children = append(node.Children, ref)
		child.Parent = node.Ref
		p.childSet.Add(p.ids[ref])
	}
}

// collectRoots returns, in discovery order, every node that was never linked
// as a child and whose parent is unset.
func (p *Parser) collectRoots() []string {
	var roots []string
	for _, ref := range p.order {
		if p.childSet.Contains(p.ids[ref]) {
			continue
		}
		if p.nodes[ref].Parent != "" {
			continue
		}
		roots = append(roots, ref)
	}
	return roots
}

// resolveName picks the place name: a DataModel root's Name property, else
// any Workspace node's Name property, else the file's base name.
func (p *Parser) resolveName(roots []string) string {
	for _, ref := range roots {
		n := p.nodes[ref]
		if n.Class != dataModelClass {
			continue
		}
		if name, ok := n.Properties["Name"].(string); ok {
			return name
		}
	}
	for _, ref := range p.order {
		n := p.nodes[ref]
		if n.Class != workspaceClass {
			continue
		}
		if name, ok := n.Properties["Name"].(string); ok {
			return name
		}
	}
	base := filepath.Base(p.path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
