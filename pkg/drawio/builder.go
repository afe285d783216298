package drawio

import (
	"encoding/xml"
	"fmt"
	"maps"
	"math"
	"slices"
	"strconv"
	"strings"
	"unicode"

	"github.com/google/uuid"

	"github.com/matzehuels/topodraw/pkg/buildinfo"
	tderrors "github.com/matzehuels/topodraw/pkg/errors"
	"github.com/matzehuels/topodraw/pkg/levels"
	"github.com/matzehuels/topodraw/pkg/style"
	"github.com/matzehuels/topodraw/pkg/topology"
)

// DefaultPageName names the page when neither the options nor the graph
// provide one.
const DefaultPageName = "Page-1"

// Align controls how shorter tiers are placed relative to the widest one.
type Align int

const (
	AlignCenter Align = iota
	AlignStart
)

// ParseAlign maps "center" and "start" to an Align.
func ParseAlign(s string) (Align, error) {
	switch s {
	case "", "center":
		return AlignCenter, nil
	case "start", "left", "top":
		return AlignStart, nil
	}
	return 0, tderrors.New(tderrors.ErrCodeInvalidInput, "unknown alignment %q (want center or start)", s)
}

func (a Align) String() string {
	if a == AlignStart {
		return "start"
	}
	return "center"
}

// Options configures [Build].
type Options struct {
	Axis            style.Axis
	IncludeUnlinked bool
	// NoLinks draws nodes only.
	NoLinks bool
	// Ports draws links as two half-edges meeting at a connector, with a
	// port cell at each node. Cell ids follow the scheme the Grafana flow
	// panel binds to.
	Ports    bool
	PageName string
	Align    Align
	// Compress stores the page in the deflate+base64 form.
	Compress bool
}

// Document is a built diagram plus the layout it was built from.
type Document struct {
	File MxFile

	// Positions holds the top-left corner of every drawn node.
	Positions map[string]topology.Point
	Width     float64
	Height    float64
}

// Encode renders the document as draw.io XML.
func Encode(doc *Document) ([]byte, error) {
	return doc.File.Marshal()
}

type side int

const (
	sideTop side = iota
	sideBottom
	sideLeft
	sideRight
)

// anchor is a connection point in the unit square of a shape.
func (s side) anchor(frac float64) (x, y float64) {
	switch s {
	case sideTop:
		return frac, 0
	case sideBottom:
		return frac, 1
	case sideLeft:
		return 0, frac
	default:
		return 1, frac
	}
}

type placedNode struct {
	node  *topology.Node
	level int
	pos   topology.Point
	desc  style.Descriptor
	id    string
}

func (p *placedNode) center() topology.Point {
	return topology.Point{X: p.pos.X + p.desc.Width/2, Y: p.pos.Y + p.desc.Height/2}
}

// at returns the absolute canvas point of an anchor.
func (p *placedNode) at(ax, ay float64) topology.Point {
	return topology.Point{X: p.pos.X + ax*p.desc.Width, Y: p.pos.Y + ay*p.desc.Height}
}

type linkRoute struct {
	link       topology.Link
	id         string
	src, dst   *placedNode
	sides      [2]side
	fracs      [2]float64
	exit, entr topology.Point
}

type builder struct {
	g     *topology.Graph
	asg   *levels.Assignment
	res   *style.Resolver
	cfg   *style.Config
	opts  Options
	warns []tderrors.Warning

	nodes  []*placedNode
	byName map[string]*placedNode
	cells  []any
}

// Build lays out the graph according to asg and renders it as a one-page
// draw.io document. Build does not fail: anomalies such as unknown style
// roles are reported as warnings.
func Build(g *topology.Graph, asg *levels.Assignment, res *style.Resolver, opts Options) (*Document, []tderrors.Warning) {
	b := &builder{
		g:      g,
		asg:    asg,
		res:    res,
		cfg:    res.Config(),
		opts:   opts,
		byName: map[string]*placedNode{},
	}
	b.place()
	b.cells = []any{&Cell{ID: "0"}, &Cell{ID: "1", Parent: "0"}}
	b.emitNodes()
	if !opts.NoLinks {
		routes := b.route()
		if opts.Ports {
			b.emitPortLinks(routes)
		} else {
			b.emitLinks(routes)
		}
	}

	width, height := b.canvas()
	name := opts.PageName
	if name == "" {
		name = g.Name()
	}
	if name == "" {
		name = DefaultPageName
	}

	model := &GraphModel{
		Dx: int(width), Dy: int(height),
		GridSize: 10, Guides: 1, Tooltips: 1, Connect: 1, Arrows: 1, Fold: 1, Page: 1, PageScale: 1,
		PageWidth:  int(math.Ceil(width)),
		PageHeight: int(math.Ceil(height)),
		Root:       Root{Cells: b.cells},
	}
	if b.cfg.Grid {
		model.Grid = 1
	}
	if b.cfg.Shadow {
		model.Shadow = 1
	}
	if b.cfg.Background != "" {
		model.Background = b.cfg.Background
	}

	page := Diagram{ID: PageID(name), Name: name, Model: model}
	if opts.Compress {
		if encoded, err := compressModel(model); err == nil {
			page.Model = nil
			page.Encoded = encoded
		} else {
			b.warn(tderrors.WarnConfigDefault, name, "page left uncompressed: %v", err)
		}
	}

	doc := &Document{
		File:      MxFile{Host: "topodraw", Agent: buildinfo.Agent(), Diagrams: []Diagram{page}},
		Positions: make(map[string]topology.Point, len(b.nodes)),
		Width:     width,
		Height:    height,
	}
	for _, p := range b.nodes {
		doc.Positions[p.node.Name] = p.pos
	}
	return doc, b.warns
}

// PageID derives a stable page id from the page name.
func PageID(name string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte("topodraw:page:"+name)).String()
}

func compressModel(m *GraphModel) (string, error) {
	data, err := xml.Marshal(m)
	if err != nil {
		return "", err
	}
	return deflatePage(data)
}

func (b *builder) warn(code tderrors.WarnCode, subject, format string, args ...any) {
	b.warns = append(b.warns, tderrors.Warnf(code, subject, format, args...))
}

// =============================================================================
// Placement
// =============================================================================

func (b *builder) place() {
	var (
		byLevel = map[int][]*topology.Node{}
		deepest = 0
		missing []*topology.Node
	)
	for _, n := range b.g.Nodes() {
		if !b.g.IsLinked(n.Name) && !b.opts.IncludeUnlinked {
			continue
		}
		level, ok := b.asg.Level(n.Name)
		if !ok {
			missing = append(missing, n)
			continue
		}
		byLevel[level] = append(byLevel[level], n)
		deepest = max(deepest, level)
	}
	for _, n := range missing {
		b.warn(tderrors.WarnInvalidLevel, n.Name, "no level assigned, placed at level %d", deepest+1)
		byLevel[deepest+1] = append(byLevel[deepest+1], n)
	}
	if len(byLevel) == 0 {
		return
	}

	order := slices.Sorted(maps.Keys(byLevel))
	minLevel := order[0]
	widest := 0
	for _, nodes := range byLevel {
		widest = max(widest, len(nodes))
	}

	for _, level := range order {
		tier := byLevel[level]
		offset := 0.0
		if b.opts.Align == AlignCenter {
			offset = float64(widest-len(tier)) / 2
		}
		for slot, n := range tier {
			x, y := b.cfg.Position(level-minLevel, offset+float64(slot), b.opts.Axis)
			pos := topology.Point{X: x, Y: y}
			if n.Pos != nil {
				pos = *n.Pos
			}
			p := &placedNode{node: n, level: level, pos: pos, desc: b.describe(n), id: cellID(n.Name)}
			b.nodes = append(b.nodes, p)
			b.byName[n.Name] = p
		}
	}
	// Cells follow the graph order so a parsed diagram lists nodes the way
	// the topology did.
	slices.SortStableFunc(b.nodes, func(x, y *placedNode) int {
		return b.g.Index(x.node.Name) - b.g.Index(y.node.Name)
	})
}

func (b *builder) describe(n *topology.Node) style.Descriptor {
	lookup := *n
	if icon, ok := b.asg.Icons[n.Name]; ok && icon != "" {
		lookup.Icon = icon
	}
	desc := b.res.ResolveNode(&lookup)
	if desc.Fallback {
		b.warn(tderrors.WarnUnknownStyleRole, n.Name, "icon %q has no style, using %q", lookup.Icon, style.DefaultRole)
	}
	return desc
}

// cellID keeps node ids clear of the two layer ids every page starts with.
func cellID(name string) string {
	if name == "0" || name == "1" {
		return "node-" + name
	}
	return name
}

// canvas returns the page size, grown to fit fixed-position nodes.
func (b *builder) canvas() (float64, float64) {
	slots := map[int]int{}
	for _, p := range b.nodes {
		slots[p.level]++
	}
	counts := make([]int, 0, len(slots))
	for _, l := range slices.Sorted(maps.Keys(slots)) {
		counts = append(counts, slots[l])
	}
	width, height := b.cfg.CanvasSize(counts, b.opts.Axis)
	if b.cfg.PageWidth == style.AutoSize {
		for _, p := range b.nodes {
			width = max(width, p.pos.X+p.desc.Width+b.cfg.MarginX)
		}
	}
	if b.cfg.PageHeight == style.AutoSize {
		for _, p := range b.nodes {
			height = max(height, p.pos.Y+p.desc.Height+b.cfg.MarginY)
		}
	}
	return width, height
}

// =============================================================================
// Cells
// =============================================================================

func (b *builder) emitNodes() {
	for _, p := range b.nodes {
		n := p.node
		obj := &Object{
			ID:    p.id,
			Label: n.Name,
			Cell: Cell{
				Style:  p.desc.Style,
				Parent: "1",
				Vertex: "1",
				Geometry: &Geometry{
					X: p.pos.X, Y: p.pos.Y,
					Width: p.desc.Width, Height: p.desc.Height,
					As: "geometry",
				},
			},
		}
		add := func(key, value string) {
			if value != "" {
				obj.Props = append(obj.Props, Prop(key, value))
			}
		}
		add("kind", n.Kind)
		add("type", n.Type)
		add("image", n.Image)
		add("mgmt-ipv4", n.MgmtIPv4)
		add("group", n.Group)
		add(topology.LabelLevel, strconv.Itoa(p.level))
		icon := n.Icon
		if chosen, ok := b.asg.Icons[n.Name]; ok && chosen != "" {
			icon = chosen
		}
		add(topology.LabelIcon, icon)
		if n.Pos != nil {
			add(topology.LabelPosX, formatFloat(n.Pos.X))
			add(topology.LabelPosY, formatFloat(n.Pos.Y))
		}
		for _, key := range slices.Sorted(maps.Keys(n.Labels)) {
			if b.labelProperty(n.Name, key) {
				add(key, n.Labels[key])
			}
		}
		b.cells = append(b.cells, obj)
	}
}

// labelProperty reports whether a node label can be written as an object
// attribute. Labels that would shadow a typed field or a draw.io key, and
// keys that are not XML names, are dropped with a warning.
func (b *builder) labelProperty(node, key string) bool {
	switch {
	case topology.IsLayoutLabel(key):
		return false
	case nodeFields[key] != nil:
		b.warn(tderrors.WarnDroppedLabel, node, "label %q clashes with the %s property, dropped", key, key)
	case reservedProperty(key):
		b.warn(tderrors.WarnDroppedLabel, node, "label %q is reserved by draw.io, dropped", key)
	case !isXMLName(key):
		b.warn(tderrors.WarnDroppedLabel, node, "label %q is not a valid property name, dropped", key)
	default:
		return true
	}
	return false
}

// isXMLName reports whether s is an attribute name the parser reads back
// unchanged. Colons are refused since they introduce a namespace prefix.
func isXMLName(s string) bool {
	if s == "" {
		return false
	}
	for i, r := range s {
		switch {
		case r == '_' || unicode.IsLetter(r):
		case i > 0 && (r == '-' || r == '.' || unicode.IsDigit(r)):
		default:
			return false
		}
	}
	return !strings.HasPrefix(strings.ToLower(s), "xml")
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// route picks the sides links leave and enter their nodes, then spreads
// links sharing a side evenly along it.
func (b *builder) route() []*linkRoute {
	var routes []*linkRoute
	used := map[string]int{}
	type key struct {
		node string
		side side
	}
	perSide := map[key]int{}

	for _, l := range b.g.Links() {
		src, ok1 := b.byName[l.Source().Node]
		dst, ok2 := b.byName[l.Target().Node]
		if !ok1 || !ok2 {
			continue
		}
		id := "link:" + l.ID()
		used[id]++
		if used[id] > 1 {
			id = fmt.Sprintf("%s:%d", id, used[id])
		}
		r := &linkRoute{link: l, id: id, src: src, dst: dst}
		r.sides = b.sides(src, dst)
		perSide[key{src.node.Name, r.sides[0]}]++
		perSide[key{dst.node.Name, r.sides[1]}]++
		routes = append(routes, r)
	}

	seen := map[key]int{}
	for _, r := range routes {
		for i, p := range []*placedNode{r.src, r.dst} {
			k := key{p.node.Name, r.sides[i]}
			seen[k]++
			r.fracs[i] = float64(seen[k]) / float64(perSide[k]+1)
		}
		ex, ey := r.sides[0].anchor(r.fracs[0])
		nx, ny := r.sides[1].anchor(r.fracs[1])
		r.exit = r.src.at(ex, ey)
		r.entr = r.dst.at(nx, ny)
	}
	return routes
}

// sides chooses exit and entry sides. Links between tiers run along the
// layout axis; links inside a tier run across it.
func (b *builder) sides(src, dst *placedNode) [2]side {
	cs, cd := src.center(), dst.center()
	if b.opts.Axis == style.Horizontal {
		switch {
		case src.level < dst.level:
			return [2]side{sideRight, sideLeft}
		case src.level > dst.level:
			return [2]side{sideLeft, sideRight}
		case cs.Y <= cd.Y:
			return [2]side{sideBottom, sideTop}
		default:
			return [2]side{sideTop, sideBottom}
		}
	}
	switch {
	case src.level < dst.level:
		return [2]side{sideBottom, sideTop}
	case src.level > dst.level:
		return [2]side{sideTop, sideBottom}
	case cs.X <= cd.X:
		return [2]side{sideRight, sideLeft}
	default:
		return [2]side{sideLeft, sideRight}
	}
}

func anchorStyle(prefix string, s side, frac float64) string {
	x, y := s.anchor(frac)
	return fmt.Sprintf("%sX=%s;%sY=%s;%sDx=0;%sDy=0;", prefix, formatFloat(round3(x)), prefix, formatFloat(round3(y)), prefix, prefix)
}

func round3(f float64) float64 { return math.Round(f*1000) / 1000 }

// labelX returns the relative position of a label sitting LabelOffset
// pixels from the start of a straight edge of the given length.
func (b *builder) labelX(length float64) float64 {
	t := 0.25
	if length > 0 {
		t = (b.cfg.LabelOffset + b.cfg.PortWidth) / length
	}
	t = min(max(t, 0.05), 0.45)
	return round3(2*t - 1)
}

func distance(a, c topology.Point) float64 { return math.Hypot(c.X-a.X, c.Y-a.Y) }

func (b *builder) emitLinks(routes []*linkRoute) {
	for _, r := range routes {
		edgeStyle := style.MergeStyle(b.cfg.LinkStyle,
			anchorStyle("exit", r.sides[0], r.fracs[0])+anchorStyle("entry", r.sides[1], r.fracs[1]))
		b.cells = append(b.cells, &Cell{
			ID:       r.id,
			Style:    edgeStyle,
			Parent:   "1",
			Edge:     "1",
			Source:   r.src.id,
			Target:   r.dst.id,
			Geometry: &Geometry{Relative: "1", As: "geometry"},
		})
		x := b.labelX(distance(r.exit, r.entr))
		b.emitLabel(r.id, r.id+":src", r.link.Source().Interface, b.cfg.SrcLabelStyle, x)
		b.emitLabel(r.id, r.id+":dst", r.link.Target().Interface, b.cfg.TrgtLabelStyle, -x)
	}
}

func (b *builder) emitLabel(parent, id, iface, labelStyle string, x float64) {
	text := iface
	if b.cfg.CompactInterfaceNames {
		text = style.CompactInterfaceName(iface)
	}
	cell := Cell{
		Style:       labelStyle,
		Parent:      parent,
		Vertex:      "1",
		Connectable: "0",
		Geometry: &Geometry{
			X:        x,
			Relative: "1",
			As:       "geometry",
			Offset:   &Point{As: "offset"},
		},
	}
	if text != iface {
		b.cells = append(b.cells, &Object{ID: id, Label: text, Props: []xml.Attr{Prop("interface", iface)}, Cell: cell})
		return
	}
	cell.ID = id
	cell.Value = text
	b.cells = append(b.cells, &cell)
}

// emitPortLinks draws each link as two half-edges that meet at an
// invisible connector in the middle. Ids:
//
//	a:ia:b:ib          port cell, a child of a
//	link_id:a:ia:b:ib  half-edge from a's port to the connector
//	mid:a:ia:b:ib      connector
func (b *builder) emitPortLinks(routes []*linkRoute) {
	pw, ph := b.cfg.PortWidth, b.cfg.PortHeight
	for _, r := range routes {
		src, dst := r.link.Source(), r.link.Target()
		fwd := src.String() + ":" + dst.String()
		rev := dst.String() + ":" + src.String()

		mid := topology.Point{X: (r.exit.X + r.entr.X) / 2, Y: (r.exit.Y + r.entr.Y) / 2}
		b.cells = append(b.cells, &Cell{
			ID:       "mid:" + fwd,
			Style:    b.cfg.ConnectorStyle,
			Parent:   "1",
			Vertex:   "1",
			Geometry: &Geometry{X: mid.X - 1, Y: mid.Y - 1, Width: 2, Height: 2, As: "geometry"},
		})

		half := func(portID string, owner *placedNode, at topology.Point, iface, labelStyle string) {
			// Port geometry is relative to the owning node.
			b.cells = append(b.cells, &Cell{
				ID:     portID,
				Style:  b.cfg.PortStyle,
				Parent: owner.id,
				Vertex: "1",
				Geometry: &Geometry{
					X: at.X - pw/2 - owner.pos.X, Y: at.Y - ph/2 - owner.pos.Y,
					Width: pw, Height: ph, As: "geometry",
				},
			})
			edgeID := "link_id:" + portID
			b.cells = append(b.cells, &Cell{
				ID:       edgeID,
				Style:    b.cfg.LinkStyle,
				Parent:   "1",
				Edge:     "1",
				Source:   portID,
				Target:   "mid:" + fwd,
				Geometry: &Geometry{Relative: "1", As: "geometry"},
			})
			b.emitLabel(edgeID, edgeID+":label", iface, labelStyle, b.labelX(distance(at, mid)))
		}
		half(fwd, r.src, r.exit, src.Interface, b.cfg.SrcLabelStyle)
		half(rev, r.dst, r.entr, dst.Interface, b.cfg.TrgtLabelStyle)
	}
}
