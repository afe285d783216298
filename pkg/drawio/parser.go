package drawio

import (
	"io"
	"math"
	"strconv"
	"strings"

	"golang.org/x/net/html"

	tderrors "github.com/matzehuels/topodraw/pkg/errors"
	"github.com/matzehuels/topodraw/pkg/style"
	"github.com/matzehuels/topodraw/pkg/topology"
)

// DefaultKind is the node kind assumed when a shape has no kind property.
const DefaultKind = "nokia_srlinux"

// ParseOptions configures [Parse].
type ParseOptions struct {
	// DiagramName selects a page by name. Required when the file has more
	// than one page.
	DiagramName string
	// DefaultKind replaces [DefaultKind] for shapes without a kind.
	DefaultKind string
}

// ParseResult is a topology recovered from a diagram.
type ParseResult struct {
	Graph *topology.Graph
	// Attributes holds the raw custom properties of every node shape.
	Attributes map[string]map[string]string
	Warnings   []tderrors.Warning
	// Page is the name of the page that was read; empty for a bare model.
	Page string
}

// typed node properties; everything else becomes a label.
var nodeFields = map[string]func(*topology.Node, string){
	"kind":      func(n *topology.Node, v string) { n.Kind = v },
	"type":      func(n *topology.Node, v string) { n.Type = v },
	"image":     func(n *topology.Node, v string) { n.Image = v },
	"mgmt-ipv4": func(n *topology.Node, v string) { n.MgmtIPv4 = v },
	"group":     func(n *topology.Node, v string) { n.Group = v },
}

// reservedProperty reports keys draw.io itself puts on objects.
func reservedProperty(key string) bool {
	switch key {
	case "id", "label", "placeholders", "tooltip", "link", "interface":
		return true
	}
	return false
}

type geometry struct {
	x, y, w, h float64
	relative   bool
	dx, dy     float64
}

type cell struct {
	id, parent     string
	value, style   string
	vertex, edge   bool
	source, target string
	geom           geometry
	props          [][2]string
}

// Parse reads a draw.io document and reconstructs the topology drawn on
// one page. Malformed XML and page selection problems are errors; shapes
// and edges that cannot be interpreted are skipped with a warning.
func Parse(r io.Reader, opts ParseOptions) (*ParseResult, error) {
	root, err := decodeTree(r)
	if err != nil {
		return nil, tderrors.Wrap(tderrors.ErrCodeParse, err, "decode diagram")
	}

	model, page, err := selectPage(root, opts.DiagramName)
	if err != nil {
		return nil, err
	}

	p := &parser{
		opts:   opts,
		cells:  map[string]*cell{},
		shapes: map[string]string{},
		result: &ParseResult{
			Graph:      topology.NewGraph(""),
			Attributes: map[string]map[string]string{},
			Page:       page,
		},
	}
	if p.opts.DefaultKind == "" {
		p.opts.DefaultKind = DefaultKind
	}
	if model != nil {
		if rootEl := model.child("root"); rootEl != nil {
			p.collect(rootEl)
		}
	}
	if err := p.nodes(); err != nil {
		return nil, err
	}
	p.links()
	return p.result, nil
}

// selectPage returns the graph model of the requested page. A nil model
// with no error means the page is empty.
func selectPage(root *element, name string) (*element, string, error) {
	switch root.Name {
	case "mxGraphModel":
		return root, "", nil
	case "mxfile":
	default:
		return nil, "", tderrors.New(tderrors.ErrCodeParse, "root element <%s> is not a draw.io document", root.Name)
	}

	pages := root.childrenNamed("diagram")
	names := make([]string, len(pages))
	for i, d := range pages {
		names[i] = d.attr("name")
	}

	var page *element
	switch {
	case name != "":
		for _, d := range pages {
			if d.attr("name") == name {
				page = d
				break
			}
		}
		if page == nil {
			return nil, "", &tderrors.DiagramNotFoundError{Name: name, Available: names}
		}
	case len(pages) == 0:
		return nil, "", nil
	case len(pages) > 1:
		return nil, "", &tderrors.AmbiguousDiagramError{Available: names}
	default:
		page = pages[0]
	}

	pageName := page.attr("name")
	if model := page.child("mxGraphModel"); model != nil {
		return model, pageName, nil
	}
	if strings.TrimSpace(page.Text) == "" {
		return nil, pageName, nil
	}
	text, err := inflatePage(page.Text)
	if err != nil {
		return nil, "", tderrors.Wrap(tderrors.ErrCodeParse, err, "page %q", pageName)
	}
	model, err := decodeTree(strings.NewReader(text))
	if err != nil {
		return nil, "", tderrors.Wrap(tderrors.ErrCodeParse, err, "page %q", pageName)
	}
	if model.Name != "mxGraphModel" {
		return nil, "", tderrors.New(tderrors.ErrCodeParse, "page %q holds <%s>, want <mxGraphModel>", pageName, model.Name)
	}
	return model, pageName, nil
}

type parser struct {
	opts   ParseOptions
	order  []*cell
	cells  map[string]*cell
	shapes map[string]string // cell id -> node name
	result *ParseResult
}

func (p *parser) warn(code tderrors.WarnCode, subject, format string, args ...any) {
	p.result.Warnings = append(p.result.Warnings, tderrors.Warnf(code, subject, format, args...))
}

// collect flattens cells and their object wrappers in document order.
func (p *parser) collect(el *element) {
	for _, child := range el.Children {
		switch child.Name {
		case "mxCell":
			p.add(readCell(child, nil))
		case "object", "UserObject":
			inner := child.child("mxCell")
			if inner == nil {
				inner = &element{Name: "mxCell"}
			}
			p.add(readCell(inner, child))
		default:
			p.collect(child)
		}
	}
}

func (p *parser) add(c *cell) {
	if c.id == "" {
		return
	}
	p.order = append(p.order, c)
	p.cells[c.id] = c
}

func readCell(el, wrapper *element) *cell {
	c := &cell{
		id:     el.attr("id"),
		parent: el.attr("parent"),
		value:  el.attr("value"),
		style:  el.attr("style"),
		vertex: el.attr("vertex") == "1",
		edge:   el.attr("edge") == "1",
		source: el.attr("source"),
		target: el.attr("target"),
	}
	if g := el.child("mxGeometry"); g != nil {
		c.geom = geometry{
			x:        attrFloat(g, "x"),
			y:        attrFloat(g, "y"),
			w:        attrFloat(g, "width"),
			h:        attrFloat(g, "height"),
			relative: g.attr("relative") == "1",
		}
		for _, pt := range g.childrenNamed("mxPoint") {
			if pt.attr("as") == "offset" {
				c.geom.dx, c.geom.dy = attrFloat(pt, "x"), attrFloat(pt, "y")
			}
		}
	}
	if wrapper != nil {
		c.id = wrapper.attr("id")
		c.value = wrapper.attr("label")
		for _, a := range wrapper.Attrs {
			c.props = append(c.props, [2]string{a.Name.Local, a.Value})
		}
	}
	return c
}

func attrFloat(el *element, name string) float64 {
	f, err := strconv.ParseFloat(el.attr(name), 64)
	if err != nil {
		return 0
	}
	return f
}

func (p *parser) prop(c *cell, key string) (string, bool) {
	for _, kv := range c.props {
		if kv[0] == key {
			return kv[1], true
		}
	}
	return "", false
}

// =============================================================================
// Nodes
// =============================================================================

func (p *parser) isShape(c *cell) bool {
	if !c.vertex || c.edge {
		return false
	}
	if parent, ok := p.cells[c.parent]; ok && parent.edge {
		return false
	}
	if style.HasFlag(c.style, "text") || style.HasFlag(c.style, "edgeLabel") {
		return false
	}
	return labelText(c) != ""
}

func (p *parser) nodes() error {
	var (
		order []string
		nodes = map[string]*topology.Node{}
	)
	for _, c := range p.order {
		if !p.isShape(c) {
			continue
		}
		name := labelText(c)
		if err := tderrors.ValidateNodeName(name); err != nil {
			p.warn(tderrors.WarnInvalidName, c.id, "shape skipped: %s", tderrors.UserMessage(err))
			continue
		}
		if _, dup := nodes[name]; dup {
			p.warn(tderrors.WarnDuplicateLabel, c.id, "label %q used by more than one shape, last one wins", name)
		} else {
			order = append(order, name)
		}
		nodes[name] = p.node(c, name)
		p.shapes[c.id] = name
	}

	for _, name := range order {
		n := nodes[name]
		p.result.Warnings = append(p.result.Warnings, topology.LiftLabels(n)...)
		if err := p.result.Graph.AddNode(*n); err != nil {
			return tderrors.Wrap(tderrors.ErrCodeInternal, err, "node %q", name)
		}
	}
	return nil
}

func (p *parser) node(c *cell, name string) *topology.Node {
	n := &topology.Node{Name: name, Labels: map[string]string{}}
	attrs := map[string]string{}
	for _, kv := range c.props {
		key, value := kv[0], kv[1]
		if reservedProperty(key) {
			continue
		}
		attrs[key] = value
		if set, ok := nodeFields[key]; ok {
			set(n, value)
			continue
		}
		n.Labels[key] = value
		if !topology.IsLayoutLabel(key) {
			p.warn(tderrors.WarnUnknownProperty, name, "property %q kept as label", key)
		}
	}
	p.result.Attributes[name] = attrs

	if n.Kind == "" {
		n.Kind = p.opts.DefaultKind
		if strings.Contains(strings.ToLower(name), "client") {
			n.Kind = "linux"
		}
	}
	return n
}

// labelText returns the visible text of a cell. HTML labels are reduced
// to their text content.
func labelText(c *cell) string {
	v := c.value
	if strings.Contains(v, "<") {
		if mode, _ := style.StyleValue(c.style, "html"); mode == "1" {
			v = htmlText(v)
		}
	}
	return strings.TrimSpace(v)
}

func htmlText(s string) string {
	var b strings.Builder
	z := html.NewTokenizer(strings.NewReader(s))
	for {
		switch z.Next() {
		case html.ErrorToken:
			return strings.Join(strings.Fields(b.String()), " ")
		case html.TextToken:
			b.Write(z.Text())
		case html.StartTagToken, html.SelfClosingTagToken:
			name, _ := z.TagName()
			switch string(name) {
			case "br", "div", "p", "li":
				b.WriteByte(' ')
			}
		}
	}
}

// =============================================================================
// Geometry
// =============================================================================

// origin returns the absolute top-left corner of a vertex, adding the
// offsets of enclosing group containers.
func (p *parser) origin(c *cell) topology.Point {
	pt := topology.Point{X: c.geom.x, Y: c.geom.y}
	seen := map[string]bool{c.id: true}
	for parent, ok := p.cells[c.parent]; ok && parent.vertex && !seen[parent.id]; parent, ok = p.cells[parent.parent] {
		seen[parent.id] = true
		pt.X += parent.geom.x
		pt.Y += parent.geom.y
	}
	return pt
}

func (p *parser) center(c *cell) topology.Point {
	o := p.origin(c)
	return topology.Point{X: o.X + c.geom.w/2, Y: o.Y + c.geom.h/2}
}

// labelPoint places an edge label on the canvas. Relative geometry gives
// a position along the line between the endpoint centers plus a
// perpendicular distance; absolute geometry is relative to the midpoint.
func labelPoint(l *cell, src, dst topology.Point) topology.Point {
	var pt topology.Point
	if l.geom.relative {
		t := (l.geom.x + 1) / 2
		pt = topology.Point{X: src.X + t*(dst.X-src.X), Y: src.Y + t*(dst.Y-src.Y)}
		if length := math.Hypot(dst.X-src.X, dst.Y-src.Y); length > 0 && l.geom.y != 0 {
			pt.X += -(dst.Y - src.Y) / length * l.geom.y
			pt.Y += (dst.X - src.X) / length * l.geom.y
		}
	} else {
		pt = topology.Point{
			X: (src.X+dst.X)/2 + l.geom.x + l.geom.w/2,
			Y: (src.Y+dst.Y)/2 + l.geom.y + l.geom.h/2,
		}
	}
	pt.X += l.geom.dx
	pt.Y += l.geom.dy
	return pt
}

// =============================================================================
// Links
// =============================================================================

// resolve maps an edge terminal to a shape, climbing out of child cells
// such as ports drawn inside a node.
func (p *parser) resolve(id string) (*cell, string, bool) {
	seen := map[string]bool{}
	for c, ok := p.cells[id]; ok && !seen[c.id]; c, ok = p.cells[c.parent] {
		seen[c.id] = true
		if name, ok := p.shapes[c.id]; ok {
			return c, name, true
		}
	}
	return nil, "", false
}

type edgeLabel struct {
	text string
	at   topology.Point
}

// halfEdge is one side of a link drawn as two edges that meet at an
// unnamed connector vertex.
type halfEdge struct {
	edge     *cell
	terminal string // id of the cell the edge touches on the node side
	name     string
	via      string // connector cell id
}

// half reports whether e has exactly one end on a shape and the other on
// an existing vertex that is not a shape.
func (p *parser) half(e *cell) *halfEdge {
	if !e.edge {
		return nil
	}
	_, srcName, okS := p.resolve(e.source)
	_, dstName, okT := p.resolve(e.target)
	h := &halfEdge{edge: e}
	switch {
	case okS && !okT:
		h.terminal, h.name, h.via = e.source, srcName, e.target
	case okT && !okS:
		h.terminal, h.name, h.via = e.target, dstName, e.source
	default:
		return nil
	}
	if via, ok := p.cells[h.via]; !ok || !via.vertex {
		return nil
	}
	return h
}

func (p *parser) links() {
	labels := map[string][]*cell{}
	for _, c := range p.order {
		if parent, ok := p.cells[c.parent]; ok && parent.edge && !c.edge {
			labels[parent.id] = append(labels[parent.id], c)
		}
	}
	halves := map[string][]*halfEdge{}
	for _, e := range p.order {
		if h := p.half(e); h != nil {
			halves[h.via] = append(halves[h.via], h)
		}
	}

	for _, e := range p.order {
		if !e.edge {
			continue
		}
		srcCell, srcName, ok1 := p.resolve(e.source)
		dstCell, dstName, ok2 := p.resolve(e.target)
		if ok1 && ok2 {
			cs, cd := p.center(srcCell), p.center(dstCell)
			found := p.edgeLabels(labels[e.id], cs, cd)
			srcIface, dstIface := matchLabels(found, cs, cd)
			if len(found) < 2 {
				p.warn(tderrors.WarnMissingInterface, e.id, "edge %s-%s has %d interface labels, want 2", srcName, dstName, len(found))
			}
			p.addLink(e.id, srcName, srcIface, dstName, dstIface)
			continue
		}

		if h := p.half(e); h != nil {
			pair := halves[h.via]
			switch {
			case len(pair) != 2:
				p.warn(tderrors.WarnUnresolvedEndpoint, e.id, "half-edge meets %d others at %q, want 1, dropped", len(pair)-1, h.via)
			case pair[0].edge == e:
				a, b := pair[0], pair[1]
				p.addLink(e.id, a.name, p.halfInterface(a, labels), b.name, p.halfInterface(b, labels))
			}
			continue
		}
		p.warn(tderrors.WarnUnresolvedEndpoint, e.id, "edge does not connect two named shapes (source %q, target %q), dropped", e.source, e.target)
	}
}

func (p *parser) addLink(edgeID, srcName, srcIface, dstName, dstIface string) {
	link := topology.Link{Endpoints: [2]topology.Endpoint{
		{Node: srcName, Interface: srcIface},
		{Node: dstName, Interface: dstIface},
	}}
	if err := p.result.Graph.AddLink(link); err != nil {
		p.warn(tderrors.WarnUnresolvedEndpoint, edgeID, "edge dropped: %v", err)
	}
}

// edgeLabels returns the non-empty labels of an edge placed on the canvas.
func (p *parser) edgeLabels(cells []*cell, src, dst topology.Point) []edgeLabel {
	var found []edgeLabel
	for _, l := range cells {
		text, ok := p.prop(l, "interface")
		if !ok {
			text = labelText(l)
		}
		if text = strings.TrimSpace(text); text != "" {
			found = append(found, edgeLabel{text: text, at: labelPoint(l, src, dst)})
		}
	}
	return found
}

// halfInterface returns the label of a half-edge nearest its node end.
func (p *parser) halfInterface(h *halfEdge, labels map[string][]*cell) string {
	e := h.edge
	cs, cd := p.center(p.cells[e.source]), p.center(p.cells[e.target])
	found := p.edgeLabels(labels[e.id], cs, cd)
	if len(found) == 0 {
		p.warn(tderrors.WarnMissingInterface, e.id, "half-edge from %s has no interface label", h.name)
		return ""
	}
	at := p.center(p.cells[h.terminal])
	best := found[0]
	for _, l := range found[1:] {
		if math.Hypot(l.at.X-at.X, l.at.Y-at.Y) < math.Hypot(best.at.X-at.X, best.at.Y-at.Y) {
			best = l
		}
	}
	return best.text
}

// matchLabels assigns the label nearest the source center to the source
// and the nearest remaining one to the target. Ties go to the label that
// appears first. A lone label goes to whichever end it is closer to.
func matchLabels(found []edgeLabel, src, dst topology.Point) (string, string) {
	dist := func(a, b topology.Point) float64 { return math.Hypot(a.X-b.X, a.Y-b.Y) }
	nearest := func(to topology.Point, skip int) int {
		best, bestDist := -1, math.Inf(1)
		for i, l := range found {
			if i == skip {
				continue
			}
			if d := dist(l.at, to); d < bestDist {
				best, bestDist = i, d
			}
		}
		return best
	}
	switch len(found) {
	case 0:
		return "", ""
	case 1:
		if dist(found[0].at, dst) < dist(found[0].at, src) {
			return "", found[0].text
		}
		return found[0].text, ""
	}
	si := nearest(src, -1)
	di := nearest(dst, si)
	return found[si].text, found[di].text
}
