// Package project projects a parsed place graph onto a filesystem as a Rojo
// project: manifest, src/ directory tree, script files and .meta.json
// sidecars. All writes go through a billy.Filesystem rooted at the output
// directory, so tests run against an in-memory filesystem.
package project

import (
	"fmt"
	"os"

	billy "github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"
	"github.com/ohler55/ojg/oj"
	"go.uber.org/zap"

	"github.com/agentic-research/rbx2rojo/internal/names"
	"github.com/agentic-research/rbx2rojo/internal/rbxl"
)

const srcDir = "src"

// workspaceClass gets special handling: its directory and sidecar are created
// during the root walk, but its children are deferred to an explicit second
// pass after every other root. Kept as-is from the reference behavior rather
// than generalized.
const workspaceClass = "Workspace"

var scriptExtensions = map[string]string{
	"Script":       ".server.lua",
	"LocalScript":  ".client.lua",
	"ModuleScript": ".lua",
}

// Emitter writes the on-disk project for one GameData. Single-use.
type Emitter struct {
	game *rbxl.GameData
	fs   billy.Filesystem
	log  *zap.Logger

	created     map[string]struct{}
	createdList []string
}

// NewEmitter creates an emitter writing into fs, which must be rooted at the
// output directory.
func NewEmitter(game *rbxl.GameData, fs billy.Filesystem, log *zap.Logger) *Emitter {
	return &Emitter{
		game:    game,
		fs:      fs,
		log:     log,
		created: make(map[string]struct{}),
	}
}

// Emit writes the manifest, the standard container directories and the full
// instance tree. It returns every created file and directory path (relative
// to the output root) in creation order.
func (e *Emitter) Emit() ([]string, error) {
	if err := e.ensureDir(srcDir); err != nil {
		return nil, err
	}
	if err := e.emitManifest(); err != nil {
		return nil, err
	}

	// Root walk. Workspace children are deferred so every other container is
	// on disk before they are placed.
	var workspace *rbxl.Node
	var workspacePath string
	for _, ref := range e.game.Roots {
		node := e.game.Nodes[ref]
		if node == nil {
			continue
		}
		if node.Class == workspaceClass && workspace == nil {
			workspace = node
			workspacePath = e.fs.Join(srcDir, workspaceClass)
			if err := e.ensureDir(workspacePath); err != nil {
				return nil, err
			}
			if err := e.writeMeta(node, workspacePath); err != nil {
				return nil, err
			}
			e.log.Debug("deferring Workspace children",
				zap.Int("children", len(node.Children)))
			continue
		}
		if err := e.placeNode(node, srcDir, true); err != nil {
			return nil, err
		}
	}

	if workspace != nil {
		for _, ref := range workspace.Children {
			child := e.game.Nodes[ref]
			if child == nil {
				continue
			}
			e.log.Debug("placing Workspace child",
				zap.String("name", child.DisplayName()),
				zap.String("class", child.Class))
			if err := e.placeNode(child, workspacePath, false); err != nil {
				return nil, err
			}
		}
	}

	e.log.Info("project generated", zap.Int("created", len(e.createdList)))
	return e.createdList, nil
}

// placeNode applies the general placement rule: script classes become files,
// everything else becomes a directory with a sidecar, except childless,
// property-less non-roots which produce no output at all.
func (e *Emitter) placeNode(node *rbxl.Node, parentPath string, isRoot bool) error {
	if ext, ok := scriptExtensions[node.Class]; ok {
		return e.emitScript(node, parentPath, ext)
	}

	if len(node.Children) == 0 && !isRoot && len(node.Properties) == 0 {
		return nil
	}

	path := e.fs.Join(parentPath, names.Normalize(node.DisplayName()))
	if isRoot && pathHasSegment(parentPath, node.Class) {
		// The parent path already represents this container; do not nest a
		// redundant same-named directory under it.
		path = parentPath
	} else if err := e.ensureDir(path); err != nil {
		return err
	}

	if err := e.writeMeta(node, path); err != nil {
		return err
	}
	return e.placeChildren(node, path)
}

func (e *Emitter) placeChildren(node *rbxl.Node, path string) error {
	for _, ref := range node.Children {
		child := e.game.Nodes[ref]
		if child == nil {
			continue
		}
		if err := e.placeNode(child, path, false); err != nil {
			return err
		}
	}
	return nil
}

// emitScript writes the node's Source property verbatim as a script file.
// Script nodes never become directories, but a script with children gets a
// same-named sibling directory carrying the sidecar and the children.
func (e *Emitter) emitScript(node *rbxl.Node, parentPath, ext string) error {
	source, _ := node.Properties["Source"].(string)
	base := names.Normalize(node.DisplayName())

	filePath := e.fs.Join(parentPath, base+ext)
	if err := e.writeFile(filePath, []byte(source)); err != nil {
		return err
	}
	e.log.Debug("wrote script",
		zap.String("path", filePath),
		zap.String("class", node.Class))

	if len(node.Children) == 0 {
		return nil
	}
	childDir := e.fs.Join(parentPath, base)
	if err := e.ensureDir(childDir); err != nil {
		return err
	}
	if err := e.writeMeta(node, childDir); err != nil {
		return err
	}
	return e.placeChildren(node, childDir)
}

// ensureDir creates the directory if absent. Pre-existing directories are
// left alone and not counted as created.
func (e *Emitter) ensureDir(path string) error {
	if _, err := e.fs.Stat(path); err == nil {
		return nil
	}
	if err := e.fs.MkdirAll(path, 0o755); err != nil {
		return fmt.Errorf("create directory %s: %w", path, err)
	}
	e.record(path)
	return nil
}

// writeFile writes data to path, overwriting unconditionally.
func (e *Emitter) writeFile(path string, data []byte) error {
	if err := util.WriteFile(e.fs, path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	e.record(path)
	return nil
}

// writeJSON serializes v with sorted keys and 4-space indentation, keeping
// repeated runs byte-identical.
func (e *Emitter) writeJSON(path string, v any) error {
	data := oj.JSON(v, &oj.Options{Sort: true, Indent: 4, OmitNil: false})
	return e.writeFile(path, []byte(data))
}

func (e *Emitter) record(path string) {
	if _, ok := e.created[path]; ok {
		return
	}
	e.created[path] = struct{}{}
	e.createdList = append(e.createdList, path)
}

// pathHasSegment reports whether any path segment of p equals name.
func pathHasSegment(p, name string) bool {
	for len(p) > 0 {
		dir, file := splitLast(p)
		if file == name {
			return true
		}
		p = dir
	}
	return false
}

func splitLast(p string) (dir, file string) {
	for i := len(p) - 1; i >= 0; i-- {
		if os.IsPathSeparator(p[i]) {
			return p[:i], p[i+1:]
		}
	}
	return "", p
}
