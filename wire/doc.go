// Package wire implements the tagged binary object-graph format carried
// inside every service call.
//
// Each value starts with a one-byte Tag followed by a tag-specific payload.
// Integers are zig-zag varints, floats are 8-byte big-endian doubles, and
// lengths and counts are unsigned varints. Sequences, Mappings and Records
// nest arbitrarily.
//
// # Encoding
//
// Marshal accepts Values, Go primitives, slices, arrays, maps and any type
// registered with a Descriptor. A Descriptor fixes the record's type
// identifier and the order its fields are written in:
//
//	wire.MustRegister(wire.DefaultRegistry, wire.Descriptor[GeoCoords]{
//		TypeID: "GeoCoords",
//		Fields: []wire.FieldSpec[GeoCoords]{
//			wire.FieldOf("latitude", wire.KindFloat, func(g *GeoCoords) float64 { return g.Latitude }),
//			wire.FieldOf("longitude", wire.KindFloat, func(g *GeoCoords) float64 { return g.Longitude }),
//		},
//	})
//
// Absent values encode as Null; fields are never skipped.
//
// # Decoding
//
// Decoding never consults descriptors. Every buffer decodes to a Value tree
// and the caller projects it with AsRecord, Field, Lookup and the typed
// accessors.
package wire
