// Package style resolves how diagram elements look and where they go.
//
// A [Config] is loaded from a YAML or TOML file ([Load]), from one of the
// bundled themes ([Theme]) or taken from [Default]. It holds draw.io style
// strings per role, an icon-to-role table and the geometry used to pack
// tiers onto a canvas.
//
// [Resolver] turns a node into a [Descriptor]. Unknown roles never fail;
// they fall back to the "default" role and set Descriptor.Fallback so the
// caller can warn.
//
// Geometry is pure: [Config.Position] places slot s of tier i, and
// [Config.CanvasSize] sizes the page.
package style
