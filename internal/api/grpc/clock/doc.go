// Package clock implements the gRPC transport for the alarm clock daemon.
//
// The service is declared by hand: every unary method takes and returns a
// google.protobuf.Struct whose fields are the JSON form of the request and
// response types in this package, and WatchEvents streams Structs built
// from bus events.
package clock
