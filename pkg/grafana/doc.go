// Package grafana exports a drawn topology as a Grafana dashboard built
// around the flow panel plugin.
//
// The diagram must be built with port cells (drawio.Options.Ports) so
// that each link has a port cell per end and a half-edge per direction.
// [PanelYAML] binds those cells to telemetry series; [Dashboard] wraps
// the result and the configured queries into dashboard JSON.
package grafana
