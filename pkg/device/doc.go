// Package device describes the physical target of a mapping search: a set
// of physical qubits, the base coupling edges that always exist, the
// candidate edges the search may add, and conflict sets of candidates that
// cannot be enabled together.
//
// # Edge index space
//
// The encoder addresses edges by a single index. Base edges come first,
// followed by candidates, so for a device with E base edges candidate i
// has index E+i. [Device.AllEdges] returns that ordering and
// [Device.CandidateIndex] maps back.
//
// # Sources
//
// Devices come from TOML files ([Load], [Decode]) or from the built-in
// generators [Line], [Ring] and [Grid]. [Lookup] resolves names such as
// "line5", "ring6" or "grid2x3"; [Resolve] accepts either a name or a
// path.
//
// # Rendering
//
// [ToDOT] produces a Graphviz description of the coupling graph with
// candidate edges dashed and enabled candidates highlighted, and
// [RenderSVG] renders it with the embedded Graphviz.
package device
