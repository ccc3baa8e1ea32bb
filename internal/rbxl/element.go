package rbxl

import (
	"encoding/xml"
	"errors"
	"io"
	"strings"
)

var errNoRootElement = errors.New("document has no root element")

// attr is one XML attribute. Attributes keep document order so that the
// raw-markup fallback serialization is deterministic.
type attr struct {
	name  string
	value string
}

// element is a generic in-memory XML element: tag name, attributes, character
// data and child elements in document order. Pass 2 of the parser operates on
// this tree; the streaming pass never builds one. text holds the character
// data before the first child; data between or after children is kept as the
// preceding child's tail, so re-serialization preserves interleaving.
type element struct {
	name     string
	attrs    []attr
	text     string
	tail     string
	children []*element
}

func (e *element) attr(name string) string {
	for _, a := range e.attrs {
		if a.name == name {
			return a.value
		}
	}
	return ""
}

// child returns the first direct child with the given tag name, or nil.
func (e *element) child(name string) *element {
	for _, c := range e.children {
		if c.name == name {
			return c
		}
	}
	return nil
}

// buildTree reads a whole XML document from r and returns its root element.
func buildTree(r io.Reader) (*element, error) {
	dec := xml.NewDecoder(r)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return nil, errNoRootElement
		}
		if err != nil {
			return nil, err
		}
		if start, ok := tok.(xml.StartElement); ok {
			return buildElement(dec, start)
		}
	}
}

func buildElement(dec *xml.Decoder, start xml.StartElement) (*element, error) {
	el := &element{name: start.Name.Local}
	for _, a := range start.Attr {
		el.attrs = append(el.attrs, attr{name: a.Name.Local, value: a.Value})
	}
	var pending strings.Builder
	flush := func() {
		if len(el.children) == 0 {
			el.text = pending.String()
		} else {
			el.children[len(el.children)-1].tail = pending.String()
		}
		pending.Reset()
	}
	for {
		tok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			flush()
			child, err := buildElement(dec, t)
			if err != nil {
				return nil, err
			}
			el.children = append(el.children, child)
		case xml.CharData:
			pending.Write(t)
		case xml.EndElement:
			flush()
			return el, nil
		}
	}
}

// rawString re-serializes the element subtree to markup. It is the
// information-preserving fallback for property types without a decoder.
func (e *element) rawString() string {
	var b strings.Builder
	e.writeTo(&b)
	return b.String()
}

func (e *element) writeTo(b *strings.Builder) {
	b.WriteByte('<')
	b.WriteString(e.name)
	for _, a := range e.attrs {
		b.WriteString(" ")
		b.WriteString(a.name)
		b.WriteString(`="`)
		_ = xml.EscapeText(b, []byte(a.value))
		b.WriteString(`"`)
	}
	if len(e.children) == 0 && e.text == "" {
		b.WriteString("/>")
		return
	}
	b.WriteByte('>')
	_ = xml.EscapeText(b, []byte(e.text))
	for _, c := range e.children {
		c.writeTo(b)
		_ = xml.EscapeText(b, []byte(c.tail))
	}
	b.WriteString("</")
	b.WriteString(e.name)
	b.WriteByte('>')
}
