package drawio

import (
	"bytes"
	"compress/flate"
	"encoding/base64"
	"encoding/xml"
	"fmt"
	"io"
	"net/url"
	"strings"
)

// element is a generic XML element. The parser works on this tree rather
// than on the typed model so it can accept whatever draw.io and other
// editors emit.
type element struct {
	Name     string
	Attrs    []xml.Attr
	Children []*element
	Text     string
}

func (e *element) attr(name string) string {
	for _, a := range e.Attrs {
		if a.Name.Local == name {
			return a.Value
		}
	}
	return ""
}

func (e *element) child(name string) *element {
	for _, c := range e.Children {
		if c.Name == name {
			return c
		}
	}
	return nil
}

func (e *element) childrenNamed(name string) []*element {
	var out []*element
	for _, c := range e.Children {
		if c.Name == name {
			out = append(out, c)
		}
	}
	return out
}

// decodeTree reads one XML document into an element tree.
func decodeTree(r io.Reader) (*element, error) {
	dec := xml.NewDecoder(r)
	var (
		stack []*element
		root  *element
	)
	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		switch t := tok.(type) {
		case xml.StartElement:
			el := &element{Name: t.Name.Local, Attrs: t.Copy().Attr}
			if len(stack) > 0 {
				parent := stack[len(stack)-1]
				parent.Children = append(parent.Children, el)
			} else if root == nil {
				root = el
			}
			stack = append(stack, el)
		case xml.EndElement:
			stack = stack[:len(stack)-1]
		case xml.CharData:
			if len(stack) > 0 {
				stack[len(stack)-1].Text += string(t)
			}
		}
	}
	if root == nil {
		return nil, fmt.Errorf("no root element")
	}
	return root, nil
}

// inflatePage decodes compressed diagram content: base64, raw deflate,
// then URI component encoding.
func inflatePage(encoded string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(encoded))
	if err != nil {
		return "", fmt.Errorf("base64: %w", err)
	}
	data, err := io.ReadAll(flate.NewReader(bytes.NewReader(raw)))
	if err != nil {
		return "", fmt.Errorf("inflate: %w", err)
	}
	text, err := url.PathUnescape(string(data))
	if err != nil {
		return "", fmt.Errorf("unescape: %w", err)
	}
	return text, nil
}

// deflatePage is the inverse of inflatePage.
func deflatePage(model []byte) (string, error) {
	escaped := strings.ReplaceAll(url.QueryEscape(string(model)), "+", "%20")
	var buf bytes.Buffer
	w, err := flate.NewWriter(&buf, flate.BestCompression)
	if err != nil {
		return "", err
	}
	if _, err := w.Write([]byte(escaped)); err != nil {
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes()), nil
}
