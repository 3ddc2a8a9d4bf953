// Package supervisor implements the gRPC transport for the alarm supervisor.
//
// The service is described by hand over protobuf well-known types: alarm
// listings and summaries travel as Struct, slots and counts as UInt32Value.
// The acting operator is sent as request metadata.
package supervisor
