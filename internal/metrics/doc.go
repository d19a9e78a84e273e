// Package metrics collects source, cache and search statistics.
//
// A Recorder owns a private prometheus registry so a single CLI invocation
// can dump exactly what it observed. WriteTextfile writes that registry in
// the node_exporter textfile format for collection by a local exporter.
package metrics
