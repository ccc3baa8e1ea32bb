package rbxl

import (
	"encoding/base64"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Property value variants. The place format's type-tag vocabulary is closed;
// every tag decodes to one of these or to a raw-markup string fallback.

// Color3 is a decoded 3-component color property.
type Color3 struct {
	R, G, B float64
}

// Vector2 is a decoded 2-component vector property. Vector3 properties whose
// Z sub-element is absent decode to Vector2.
type Vector2 struct {
	X, Y float64
}

// Vector3 is a decoded 3-component vector property.
type Vector3 struct {
	X, Y, Z float64
}

// CFrame holds coordinate-frame components keyed by their source tag
// (X, Y, Z, R00..R22). Components are read generically with no fixed schema.
type CFrame map[string]float64

// PhysicalProperties is the decoded physical-properties composite.
type PhysicalProperties struct {
	CustomPhysics bool
}

// decodeProperty converts one typed property element into its normalized
// value. Decode failures never abort the parse: every tag has a documented
// default, and unknown tags fall back to preserving the raw markup.
func decodeProperty(el *element) any {
	switch el.name {
	case "string", "Content", "UniqueId":
		return el.text
	case "SecurityCapabilities":
		return textOr(el, "0")
	case "Ref":
		return textOr(el, "null")
	case "int", "int64", "token":
		return parseInt(el.text)
	case "float", "double":
		return parseFloat(el.text)
	case "bool":
		return isTrue(el.text)
	case "BinaryString", "ProtectedString":
		return decodeBase64(el.text)
	case "Color3", "Color3uint8":
		return Color3{
			R: childFloat(el, "R"),
			G: childFloat(el, "G"),
			B: childFloat(el, "B"),
		}
	case "Vector2":
		return Vector2{X: childFloat(el, "X"), Y: childFloat(el, "Y")}
	case "Vector3":
		if el.child("Z") == nil {
			return Vector2{X: childFloat(el, "X"), Y: childFloat(el, "Y")}
		}
		return Vector3{
			X: childFloat(el, "X"),
			Y: childFloat(el, "Y"),
			Z: childFloat(el, "Z"),
		}
	case "CFrame", "CoordinateFrame":
		cf := make(CFrame, len(el.children))
		for _, c := range el.children {
			cf[c.name] = parseFloat(c.text)
		}
		return cf
	case "PhysicalProperties":
		cp := el.child("CustomPhysics")
		return PhysicalProperties{CustomPhysics: cp != nil && isTrue(cp.text)}
	default:
		return el.rawString()
	}
}

func textOr(el *element, fallback string) string {
	if el.text == "" {
		return fallback
	}
	return el.text
}

func isTrue(text string) bool {
	return strings.EqualFold(strings.TrimSpace(text), "true")
}

func parseInt(text string) int64 {
	v, err := strconv.ParseInt(strings.TrimSpace(text), 10, 64)
	if err != nil {
		return 0
	}
	return v
}

func parseFloat(text string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(text), 64)
	if err != nil {
		return 0
	}
	return v
}

// childFloat reads the named sub-element as a float, defaulting to 0 when the
// sub-element is absent or unparseable.
func childFloat(el *element, name string) float64 {
	c := el.child(name)
	if c == nil {
		return 0
	}
	return parseFloat(c.text)
}

// decodeBase64 decodes base64-encoded script payloads to UTF-8 text. The
// serializer wraps lines, so whitespace is stripped first. On any decode
// failure the raw text is returned unmodified.
func decodeBase64(text string) string {
	if text == "" {
		return ""
	}
	compact := strings.Map(func(r rune) rune {
		switch r {
		case ' ', '\t', '\n', '\r':
			return -1
		}
		return r
	}, text)
	decoded, err := base64.StdEncoding.DecodeString(compact)
	if err != nil || !utf8.Valid(decoded) {
		return text
	}
	return string(decoded)
}
