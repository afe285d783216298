package grafana

import (
	"bytes"
	"fmt"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/topodraw/pkg/topology"
)

// Anchor names shared by every cell of the panel configuration.
const (
	AnchorOperstate   = "thresholds-operstate"
	AnchorTraffic     = "thresholds-traffic"
	AnchorLabelConfig = "label-config"
)

// CellIDPreamble is the prefix the flow panel expects on diagram cell ids.
const CellIDPreamble = "cell-"

// PanelYAML builds the flow panel configuration for g. Every link yields
// two cells per direction, keyed by the ids the diagram builder gives
// port cells and half-edges:
//
//	a:ia:b:ib          port fill color from oper-state:a:ia
//	link_id:a:ia:b:ib  link stroke color and label from a:ia:out
//
// Interface names in data references go through m; cell ids keep the
// names drawn on the diagram.
func PanelYAML(g *topology.Graph, cfg *Config, m *InterfaceMapper) ([]byte, error) {
	operstate := thresholdSeq(cfg.Thresholds.Operstate)
	operstate.Anchor = AnchorOperstate
	traffic := thresholdSeq(cfg.Thresholds.Traffic)
	traffic.Anchor = AnchorTraffic
	labels, err := labelConfigNode(cfg.LabelConfig)
	if err != nil {
		return nil, err
	}
	labels.Anchor = AnchorLabelConfig

	anchors := mapping()
	pair(anchors, AnchorOperstate, operstate)
	pair(anchors, AnchorTraffic, traffic)
	pair(anchors, AnchorLabelConfig, labels)

	cells := mapping()
	seen := map[string]bool{}
	for _, l := range g.Links() {
		for _, dir := range [][2]topology.Endpoint{
			{l.Source(), l.Target()},
			{l.Target(), l.Source()},
		} {
			from, to := dir[0], dir[1]
			id := from.String() + ":" + to.String()
			if seen[id] {
				continue
			}
			seen[id] = true
			iface := m.Map(from.Interface)

			port := mapping()
			pair(port, "dataRef", scalar("oper-state:"+from.Node+":"+iface))
			fill := mapping()
			pair(fill, "thresholds", alias(operstate))
			pair(port, "fillColor", fill)
			pair(cells, id, port)

			half := mapping()
			pair(half, "dataRef", scalar(from.Node+":"+iface+":out"))
			pair(half, "label", alias(labels))
			stroke := mapping()
			pair(stroke, "thresholds", alias(traffic))
			pair(half, "strokeColor", stroke)
			pair(cells, "link_id:"+id, half)
		}
	}

	root := mapping()
	pair(root, "anchors", anchors)
	pair(root, "cellIdPreamble", scalar(CellIDPreamble))
	pair(root, "cells", cells)

	var buf bytes.Buffer
	buf.WriteString("---\n")
	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(root); err != nil {
		return nil, fmt.Errorf("encode panel config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return nil, fmt.Errorf("encode panel config: %w", err)
	}
	return buf.Bytes(), nil
}

func mapping() *yaml.Node { return &yaml.Node{Kind: yaml.MappingNode} }

func scalar(v string) *yaml.Node { return &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!str", Value: v} }

func pair(m *yaml.Node, key string, value *yaml.Node) {
	m.Content = append(m.Content, scalar(key), value)
}

func alias(target *yaml.Node) *yaml.Node {
	return &yaml.Node{Kind: yaml.AliasNode, Value: target.Anchor, Alias: target}
}

func thresholdSeq(ts []Threshold) *yaml.Node {
	seq := &yaml.Node{Kind: yaml.SequenceNode}
	for _, t := range ts {
		item := mapping()
		pair(item, "color", scalar(t.Color))
		pair(item, "level", &yaml.Node{Kind: yaml.ScalarNode, Value: strconv.FormatFloat(t.Level, 'f', -1, 64)})
		seq.Content = append(seq.Content, item)
	}
	return seq
}

func labelConfigNode(c LabelConfig) (*yaml.Node, error) {
	n := mapping()
	separator, units := c.Separator, c.Units
	if separator == "" {
		separator = "replace"
	}
	if units == "" {
		units = "bps"
	}
	pair(n, "separator", scalar(separator))
	pair(n, "units", scalar(units))
	pair(n, "decimalPoints", &yaml.Node{Kind: yaml.ScalarNode, Tag: "!!int", Value: strconv.Itoa(c.decimals())})

	mappings := &yaml.Node{Kind: yaml.SequenceNode}
	for _, vm := range c.ValueMappings {
		var item yaml.Node
		if err := item.Encode(vm); err != nil {
			return nil, fmt.Errorf("label_config.valueMappings: %w", err)
		}
		mappings.Content = append(mappings.Content, &item)
	}
	pair(n, "valueMappings", mappings)
	return n, nil
}
