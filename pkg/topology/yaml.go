package topology

import (
	"bytes"
	"fmt"
	"maps"
	"os"
	"slices"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	tderrors "github.com/matzehuels/topodraw/pkg/errors"
)

// EndpointStyle selects how link endpoint lists are written.
type EndpointStyle int

const (
	// FlowEndpoints writes endpoints inline: endpoints: [a:e1, b:e1].
	FlowEndpoints EndpointStyle = iota
	// BlockEndpoints writes one endpoint per line.
	BlockEndpoints
)

// ParseEndpointStyle maps "flow" and "block" to an EndpointStyle.
func ParseEndpointStyle(s string) (EndpointStyle, error) {
	switch strings.ToLower(s) {
	case "", "flow":
		return FlowEndpoints, nil
	case "block":
		return BlockEndpoints, nil
	}
	return 0, tderrors.New(tderrors.ErrCodeInvalidFormat, "unknown endpoint style %q (want flow or block)", s)
}

func (s EndpointStyle) String() string {
	if s == BlockEndpoints {
		return "block"
	}
	return "flow"
}

// Kind is one entry of the topology kinds table.
type Kind struct {
	Name   string
	Fields map[string]any
}

// Document is a decoded topology file.
type Document struct {
	Graph    *Graph
	Kinds    []Kind
	Warnings []tderrors.Warning
}

// DecodeOptions controls topology decoding.
type DecodeOptions struct {
	// ExpandEnv replaces ${VAR:=default} placeholders before parsing.
	ExpandEnv bool
	// Lookup resolves variables; nil uses the process environment.
	Lookup LookupFunc
}

type rawFile struct {
	Name     string `yaml:"name"`
	Topology struct {
		Kinds yaml.Node `yaml:"kinds"`
		Nodes yaml.Node `yaml:"nodes"`
		Links []rawLink `yaml:"links"`
	} `yaml:"topology"`
}

type rawNode struct {
	Kind     string            `yaml:"kind,omitempty"`
	Type     string            `yaml:"type,omitempty"`
	Image    string            `yaml:"image,omitempty"`
	MgmtIPv4 string            `yaml:"mgmt-ipv4,omitempty"`
	Group    string            `yaml:"group,omitempty"`
	Labels   map[string]string `yaml:"labels,omitempty"`
	Extra    map[string]any    `yaml:",inline"`
}

type rawLink struct {
	Endpoints []yaml.Node    `yaml:"endpoints"`
	Extra     map[string]any `yaml:",inline"`
}

// LoadFile reads and decodes a topology file.
func LoadFile(path string, opts DecodeOptions) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, tderrors.Wrap(tderrors.ErrCodeFileNotFound, err, "topology file %s", path)
		}
		return nil, fmt.Errorf("read %s: %w", path, err)
	}
	doc, err := Decode(data, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}

// Decode parses topology YAML. Nodes keep the order they are declared in.
//
// Links whose endpoints reference undeclared nodes (host:, macvlan:,
// mgmt-net: and typos alike) are skipped with a warning.
func Decode(data []byte, opts DecodeOptions) (*Document, error) {
	if opts.ExpandEnv {
		data = []byte(ExpandEnv(string(data), opts.Lookup))
	}

	var raw rawFile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, tderrors.Wrap(tderrors.ErrCodeParse, err, "decode topology")
	}

	doc := &Document{Graph: NewGraph(raw.Name)}

	kinds, err := decodeKinds(&raw.Topology.Kinds)
	if err != nil {
		return nil, err
	}
	doc.Kinds = kinds

	if err := doc.decodeNodes(&raw.Topology.Nodes); err != nil {
		return nil, err
	}
	for i, rl := range raw.Topology.Links {
		doc.decodeLink(i, rl)
	}
	return doc, nil
}

func decodeKinds(n *yaml.Node) ([]Kind, error) {
	if n.Kind == 0 || n.Tag == "!!null" {
		return nil, nil
	}
	if n.Kind != yaml.MappingNode {
		return nil, tderrors.New(tderrors.ErrCodeParse, "topology.kinds must be a mapping (line %d)", n.Line)
	}
	var kinds []Kind
	for i := 0; i+1 < len(n.Content); i += 2 {
		fields := map[string]any{}
		if err := n.Content[i+1].Decode(&fields); err != nil {
			return nil, tderrors.Wrap(tderrors.ErrCodeParse, err, "kind %q", n.Content[i].Value)
		}
		kinds = append(kinds, Kind{Name: n.Content[i].Value, Fields: fields})
	}
	return kinds, nil
}

func (d *Document) decodeNodes(n *yaml.Node) error {
	if n.Kind == 0 || n.Tag == "!!null" {
		return nil
	}
	if n.Kind != yaml.MappingNode {
		return tderrors.New(tderrors.ErrCodeParse, "topology.nodes must be a mapping (line %d)", n.Line)
	}
	for i := 0; i+1 < len(n.Content); i += 2 {
		name := n.Content[i].Value
		var rn rawNode
		if err := n.Content[i+1].Decode(&rn); err != nil {
			return tderrors.Wrap(tderrors.ErrCodeParse, err, "node %q", name)
		}
		node := Node{
			Name:     name,
			Kind:     rn.Kind,
			Type:     rn.Type,
			Image:    rn.Image,
			MgmtIPv4: rn.MgmtIPv4,
			Group:    rn.Group,
			Labels:   rn.Labels,
			Extra:    rn.Extra,
		}
		d.Warnings = append(d.Warnings, LiftLabels(&node)...)
		if err := d.Graph.AddNode(node); err != nil {
			return tderrors.Wrap(tderrors.ErrCodeInvalidInput, err, "node %q (line %d)", name, n.Content[i].Line)
		}
	}
	return nil
}

func (d *Document) decodeLink(i int, rl rawLink) {
	subject := fmt.Sprintf("links[%d]", i)
	if len(rl.Endpoints) != 2 {
		d.Warnings = append(d.Warnings, tderrors.Warnf(tderrors.WarnUnknownLinkNode, subject,
			"link has %d endpoints, want 2; skipped", len(rl.Endpoints)))
		return
	}
	var link Link
	for j := range rl.Endpoints {
		ep, err := decodeEndpoint(&rl.Endpoints[j])
		if err != nil {
			d.Warnings = append(d.Warnings, tderrors.Warnf(tderrors.WarnUnknownLinkNode, subject, "%v; skipped", err))
			return
		}
		link.Endpoints[j] = ep
	}
	if len(rl.Extra) > 0 {
		link.Vars = rl.Extra
	}
	if err := d.Graph.AddLink(link); err != nil {
		d.Warnings = append(d.Warnings, tderrors.Warnf(tderrors.WarnUnknownLinkNode, subject,
			"link %s references an undeclared node; skipped", link.ID()))
	}
}

// decodeEndpoint accepts "node:iface" strings and {node, interface} maps.
func decodeEndpoint(n *yaml.Node) (Endpoint, error) {
	switch n.Kind {
	case yaml.ScalarNode:
		return ParseEndpoint(n.Value)
	case yaml.MappingNode:
		var m struct {
			Node      string `yaml:"node"`
			Interface string `yaml:"interface"`
		}
		if err := n.Decode(&m); err != nil {
			return Endpoint{}, err
		}
		if m.Node == "" {
			return Endpoint{}, fmt.Errorf("endpoint at line %d has no node", n.Line)
		}
		return Endpoint{Node: m.Node, Interface: m.Interface}, nil
	}
	return Endpoint{}, fmt.Errorf("endpoint at line %d is neither a string nor a mapping", n.Line)
}

// ParseEndpoint splits "node:iface" at the first colon.
func ParseEndpoint(s string) (Endpoint, error) {
	node, iface, ok := strings.Cut(strings.TrimSpace(s), ":")
	if !ok || node == "" {
		return Endpoint{}, fmt.Errorf("endpoint %q is not of the form node:interface", s)
	}
	return Endpoint{Node: node, Interface: iface}, nil
}

// =============================================================================
// Encoding
// =============================================================================

// Encode writes the document as topology YAML.
func Encode(doc *Document, style EndpointStyle) ([]byte, error) {
	topo := mapping()
	if len(doc.Kinds) > 0 {
		kinds := mapping()
		for _, k := range doc.Kinds {
			v, err := valueNode(k.Fields)
			if err != nil {
				return nil, fmt.Errorf("kind %q: %w", k.Name, err)
			}
			appendPair(kinds, k.Name, v)
		}
		appendPair(topo, "kinds", kinds)
	}

	nodes := mapping()
	for _, n := range doc.Graph.Nodes() {
		v, err := encodeNode(n)
		if err != nil {
			return nil, fmt.Errorf("node %q: %w", n.Name, err)
		}
		appendPair(nodes, n.Name, v)
	}
	appendPair(topo, "nodes", nodes)

	links := &yaml.Node{Kind: yaml.SequenceNode}
	for _, l := range doc.Graph.Links() {
		v, err := encodeLink(l, style)
		if err != nil {
			return nil, fmt.Errorf("link %s: %w", l.ID(), err)
		}
		links.Content = append(links.Content, v)
	}
	appendPair(topo, "links", links)

	root := mapping()
	appendPair(root, "name", scalar(doc.Graph.Name()))
	appendPair(root, "topology", topo)

	var buf bytes.Buffer
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode: %w", err)
	}
	return buf.Bytes(), nil
}

func encodeNode(n *Node) (*yaml.Node, error) {
	m := mapping()
	for _, f := range []struct{ key, val string }{
		{"kind", n.Kind},
		{"type", n.Type},
		{"image", n.Image},
		{"mgmt-ipv4", n.MgmtIPv4},
		{"group", n.Group},
	} {
		if f.val != "" {
			appendPair(m, f.key, scalar(f.val))
		}
	}
	for _, k := range slices.Sorted(maps.Keys(n.Extra)) {
		v, err := valueNode(n.Extra[k])
		if err != nil {
			return nil, err
		}
		appendPair(m, k, v)
	}

	labels := mapping()
	if n.HasLevel() {
		appendPair(labels, LabelLevel, &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(n.Level)})
	}
	if n.Icon != "" {
		appendPair(labels, LabelIcon, scalar(n.Icon))
	}
	if n.Pos != nil {
		appendPair(labels, LabelPosX, scalar(formatCoord(n.Pos.X)))
		appendPair(labels, LabelPosY, scalar(formatCoord(n.Pos.Y)))
	}
	for _, k := range slices.Sorted(maps.Keys(n.Labels)) {
		appendPair(labels, k, scalar(n.Labels[k]))
	}
	if len(labels.Content) > 0 {
		appendPair(m, "labels", labels)
	}
	return m, nil
}

func encodeLink(l Link, style EndpointStyle) (*yaml.Node, error) {
	eps := &yaml.Node{Kind: yaml.SequenceNode}
	if style == FlowEndpoints {
		eps.Style = yaml.FlowStyle
	}
	for _, ep := range l.Endpoints {
		eps.Content = append(eps.Content, scalar(ep.String()))
	}
	m := mapping()
	appendPair(m, "endpoints", eps)
	for _, k := range slices.Sorted(maps.Keys(l.Vars)) {
		v, err := valueNode(l.Vars[k])
		if err != nil {
			return nil, err
		}
		appendPair(m, k, v)
	}
	return m, nil
}

func formatCoord(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}

func mapping() *yaml.Node { return &yaml.Node{Kind: yaml.MappingNode} }

func scalar(s string) *yaml.Node {
	return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: s}
}

func appendPair(m *yaml.Node, key string, v *yaml.Node) {
	m.Content = append(m.Content, scalar(key), v)
}

func valueNode(v any) (*yaml.Node, error) {
	var n yaml.Node
	if err := n.Encode(v); err != nil {
		return nil, err
	}
	return &n, nil
}
