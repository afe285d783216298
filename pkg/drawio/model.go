package drawio

import (
	"bytes"
	"encoding/xml"
	"fmt"
)

// MxFile is the root element of a draw.io document.
type MxFile struct {
	XMLName  xml.Name  `xml:"mxfile"`
	Host     string    `xml:"host,attr"`
	Agent    string    `xml:"agent,attr,omitempty"`
	Version  string    `xml:"version,attr,omitempty"`
	Diagrams []Diagram `xml:"diagram"`
}

// Diagram is one page. Content is either an inline Model or, for
// compressed pages, the encoded model text.
type Diagram struct {
	ID      string      `xml:"id,attr"`
	Name    string      `xml:"name,attr"`
	Model   *GraphModel `xml:"mxGraphModel,omitempty"`
	Encoded string      `xml:",chardata"`
}

// GraphModel holds the page settings and the cell list.
type GraphModel struct {
	XMLName    xml.Name `xml:"mxGraphModel"`
	Dx         int      `xml:"dx,attr"`
	Dy         int      `xml:"dy,attr"`
	Grid       int      `xml:"grid,attr"`
	GridSize   int      `xml:"gridSize,attr"`
	Guides     int      `xml:"guides,attr"`
	Tooltips   int      `xml:"tooltips,attr"`
	Connect    int      `xml:"connect,attr"`
	Arrows     int      `xml:"arrows,attr"`
	Fold       int      `xml:"fold,attr"`
	Page       int      `xml:"page,attr"`
	PageScale  int      `xml:"pageScale,attr"`
	PageWidth  int      `xml:"pageWidth,attr"`
	PageHeight int      `xml:"pageHeight,attr"`
	Background string   `xml:"background,attr,omitempty"`
	Shadow     int      `xml:"shadow,attr"`
	Math       int      `xml:"math,attr"`
	Root       Root     `xml:"root"`
}

// Root holds cells in document order. Each entry is a *Cell or an
// *Object; the element name comes from the entry's own XMLName.
type Root struct {
	Cells []any
}

// Cell is an mxCell: a layer, vertex, edge or edge label.
type Cell struct {
	XMLName     xml.Name  `xml:"mxCell"`
	ID          string    `xml:"id,attr,omitempty"`
	Value       string    `xml:"value,attr,omitempty"`
	Style       string    `xml:"style,attr,omitempty"`
	Parent      string    `xml:"parent,attr,omitempty"`
	Vertex      string    `xml:"vertex,attr,omitempty"`
	Edge        string    `xml:"edge,attr,omitempty"`
	Connectable string    `xml:"connectable,attr,omitempty"`
	Source      string    `xml:"source,attr,omitempty"`
	Target      string    `xml:"target,attr,omitempty"`
	Geometry    *Geometry `xml:"mxGeometry,omitempty"`
}

// Object wraps a cell that carries custom properties. The wrapped cell
// has no id or value of its own.
type Object struct {
	XMLName xml.Name   `xml:"object"`
	ID      string     `xml:"id,attr"`
	Label   string     `xml:"label,attr"`
	Props   []xml.Attr `xml:",any,attr"`
	Cell    Cell
}

// Geometry is an mxGeometry. For edge labels Relative is "1" and X is the
// position along the edge in [-1, 1].
type Geometry struct {
	X        float64 `xml:"x,attr,omitempty"`
	Y        float64 `xml:"y,attr,omitempty"`
	Width    float64 `xml:"width,attr,omitempty"`
	Height   float64 `xml:"height,attr,omitempty"`
	Relative string  `xml:"relative,attr,omitempty"`
	As       string  `xml:"as,attr"`
	Offset   *Point  `xml:"mxPoint,omitempty"`
}

// Point is an mxPoint.
type Point struct {
	XMLName xml.Name `xml:"mxPoint"`
	X       float64  `xml:"x,attr,omitempty"`
	Y       float64  `xml:"y,attr,omitempty"`
	As      string   `xml:"as,attr,omitempty"`
}

// Prop builds a custom property attribute.
func Prop(name, value string) xml.Attr {
	return xml.Attr{Name: xml.Name{Local: name}, Value: value}
}

// Lookup returns the value of a custom property.
func (o *Object) Lookup(name string) (string, bool) {
	for _, a := range o.Props {
		if a.Name.Local == name {
			return a.Value, true
		}
	}
	return "", false
}

// Page returns the first page, or nil.
func (f *MxFile) Page() *Diagram {
	if len(f.Diagrams) == 0 {
		return nil
	}
	return &f.Diagrams[0]
}

// Marshal renders the file as indented XML.
func (f *MxFile) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	enc := xml.NewEncoder(&buf)
	enc.Indent("", "  ")
	if err := enc.Encode(f); err != nil {
		return nil, fmt.Errorf("encode mxfile: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode mxfile: %w", err)
	}
	buf.WriteByte('\n')
	return buf.Bytes(), nil
}
