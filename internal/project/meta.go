package project

import (
	"strings"

	"go.uber.org/zap"

	"github.com/agentic-research/rbx2rojo/internal/names"
	"github.com/agentic-research/rbx2rojo/internal/rbxl"
)

// folderClass suppresses its sidecar when the filtered property map is empty;
// every other class always gets one.
const folderClass = "Folder"

// Property names preserved in sidecars regardless of suffix.
var metaAllowList = makeSet(
	// Physical properties
	"Anchored", "CanCollide", "CastShadow", "CollisionGroupId", "Massless",
	"Material", "Transparency", "Reflectance", "Locked",

	// Size and position properties
	"Size", "CFrame", "Position", "Rotation", "RotVelocity", "Velocity",

	// UI properties
	"BackgroundColor3", "BackgroundTransparency", "BorderColor3", "BorderSizePixel",
	"TextColor3", "Font", "TextSize", "Text", "TextWrapped", "TextXAlignment", "TextYAlignment",
	"Image", "ImageColor3", "ImageTransparency", "ScaleType",

	// Behavior properties
	"Enabled", "Visible", "Value", "MaxValue", "MinValue", "Sound", "Volume", "Pitch",
	"CanBeDropped", "RequiresHandle", "Looped", "Playing", "TimePosition",

	// Lighting properties
	"Ambient", "Brightness", "ColorShift_Bottom", "ColorShift_Top", "GlobalShadows",
	"OutdoorAmbient", "TimeOfDay", "FogColor", "FogEnd", "FogStart",

	// Special properties
	"MeshId", "TextureId", "SoundId", "CollisionGroup", "AttachmentPoint", "PrimaryPart",
)

func makeSet(keys ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(keys))
	for _, k := range keys {
		set[k] = struct{}{}
	}
	return set
}

// writeMeta writes the node's .meta.json sidecar into dir. Folder nodes whose
// filtered property map comes out empty get no sidecar.
func (e *Emitter) writeMeta(node *rbxl.Node, dir string) error {
	props := metaProperties(node)
	if node.Class == folderClass && len(props) == 0 {
		return nil
	}
	path := e.fs.Join(dir, names.Normalize(node.DisplayName())+".meta.json")
	if err := e.writeJSON(path, map[string]any{
		"className":  node.Class,
		"properties": props,
	}); err != nil {
		return err
	}
	e.log.Debug("wrote sidecar", zap.String("path", path))
	return nil
}

// metaProperties filters and flattens a node's properties for its sidecar.
func metaProperties(node *rbxl.Node) map[string]any {
	props := make(map[string]any)
	for name, value := range node.Properties {
		if !includeMetaProperty(name) {
			continue
		}
		props[name] = flattenValue(value)
	}
	return props
}

// includeMetaProperty keeps a property when it is on the allow-list or ends
// with a geometric/color suffix. Name and underscore-prefixed properties are
// never kept.
func includeMetaProperty(name string) bool {
	if name == "Name" || strings.HasPrefix(name, "_") {
		return false
	}
	if _, ok := metaAllowList[name]; ok {
		return true
	}
	return strings.HasSuffix(name, "Color3") ||
		strings.HasSuffix(name, "Size") ||
		strings.HasSuffix(name, "Offset") ||
		strings.HasSuffix(name, "Position")
}

// flattenValue converts decoded record values into the plain lists and maps
// the sidecar format uses. Scalars pass through untouched.
func flattenValue(value any) any {
	switch v := value.(type) {
	case rbxl.Color3:
		return []any{v.R, v.G, v.B}
	case rbxl.Vector2:
		return []any{v.X, v.Y}
	case rbxl.Vector3:
		return []any{v.X, v.Y, v.Z}
	case rbxl.CFrame:
		return flattenCFrame(v)
	case rbxl.PhysicalProperties:
		return map[string]any{"CustomPhysics": v.CustomPhysics}
	default:
		return v
	}
}

// flattenCFrame emits the fixed 12-element position + rotation-matrix list
// when a matrix component is present; matrix entries default to identity.
// Frames without a matrix pass through as a plain map.
func flattenCFrame(cf rbxl.CFrame) any {
	if _, ok := cf["R00"]; !ok {
		m := make(map[string]any, len(cf))
		for k, v := range cf {
			if strings.HasPrefix(k, "_") {
				continue
			}
			m[k] = v
		}
		return m
	}
	component := func(key string, fallback float64) float64 {
		if v, ok := cf[key]; ok {
			return v
		}
		return fallback
	}
	return []any{
		cf["X"], cf["Y"], cf["Z"],
		component("R00", 1), component("R01", 0), component("R02", 0),
		component("R10", 0), component("R11", 1), component("R12", 0),
		component("R20", 0), component("R21", 0), component("R22", 1),
	}
}
