// Package levels assigns each node of a topology to a tier.
//
// Tiers are small positive integers; tier 1 is drawn first (top row in a
// vertical layout). [Assign] takes levels from three sources, in order of
// authority:
//
//  1. explicit graph-level labels, used as given;
//  2. a [Prompter], asked once per node that has no label;
//  3. the automatic heuristic.
//
// # Heuristic
//
// Nodes with at most LeafMaxFanOut distinct neighbors are edge devices.
// The remaining core nodes with the largest number of core neighbors seed
// tier 1 (spines in a leaf/spine fabric); on a tie, nodes with fewer edge
// devices attached win. Each propagation round places
// every unleveled node that touches a leveled one at one tier below its
// shallowest neighbor, visiting larger degrees first. Unreached components
// are seeded again, and edge devices finally sink one tier below the
// deepest core node.
//
// The heuristic only looks at graph shape. Irregular fabrics (rings,
// partial meshes, three-stage Clos with busy spines) can be ranked
// differently from what a human would draw; explicit labels fix that.
// The result depends only on the graph and its declaration order.
package levels
