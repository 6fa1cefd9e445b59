// Package fixtures contains raw ingest messages for processor conformance
// testing.
//
// The messages mirror the wire form delivered by the ingest consumers: one
// error event and one transaction event, with stable identifiers so repeated
// processing is comparable byte for byte.
//
// This is testing infrastructure - not production ingest code.
package fixtures
