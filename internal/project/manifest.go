package project

import (
	"sort"
	"strings"

	"go.uber.org/zap"
)

// ManifestName is the Rojo project manifest written at the output root.
const ManifestName = "default.project.json"

// Standard containers mapped to src/<ClassName> in the manifest. StarterPlayer
// is handled separately: it carries two nested sub-paths instead of its own.
var standardContainers = []string{
	"ReplicatedStorage",
	"ServerScriptService",
	"ServerStorage",
	"StarterGui",
	"StarterPack",
	"Workspace",
	"Lighting",
	"SoundService",
	"ReplicatedFirst",
	"Players",
	"Chat",
	"LocalizationService",
	"TestService",
	"MarketplaceService",
	"HttpService",
}

// manifest builds the default.project.json document: a DataModel tree mapping
// every standard container class to its src/ path.
func manifest(gameName string) map[string]any {
	tree := map[string]any{"$className": "DataModel"}
	for _, name := range standardContainers {
		tree[name] = map[string]any{
			"$className": name,
			"$path":      "src/" + name,
		}
	}
	tree["StarterPlayer"] = map[string]any{
		"$className": "StarterPlayer",
		"StarterPlayerScripts": map[string]any{
			"$className": "StarterPlayerScripts",
			"$path":      "src/StarterPlayer/StarterPlayerScripts",
		},
		"StarterCharacterScripts": map[string]any{
			"$className": "StarterCharacterScripts",
			"$path":      "src/StarterPlayer/StarterCharacterScripts",
		},
	}
	return map[string]any{
		"name": gameName,
		"tree": tree,
	}
}

// emitManifest writes the manifest and eagerly creates every $path directory
// it mentions, so each standard container exists even when the place never
// references it.
func (e *Emitter) emitManifest() error {
	doc := manifest(e.game.Name)
	if err := e.writeJSON(ManifestName, doc); err != nil {
		return err
	}
	e.log.Info("wrote project manifest", zap.String("path", ManifestName))
	return e.createManifestDirs(doc["tree"].(map[string]any))
}

func (e *Emitter) createManifestDirs(tree map[string]any) error {
	keys := make([]string, 0, len(tree))
	for key := range tree {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	for _, key := range keys {
		if strings.HasPrefix(key, "$") {
			continue
		}
		sub, ok := tree[key].(map[string]any)
		if !ok {
			continue
		}
		if path, ok := sub["$path"].(string); ok {
			if err := e.ensureDir(path); err != nil {
				return err
			}
		}
		if err := e.createManifestDirs(sub); err != nil {
			return err
		}
	}
	return nil
}
