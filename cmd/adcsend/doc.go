// Command adcsend replays a recording to an adcsink server, the way a device
// would: in fixed-size chunks, no faster than real time.
//
// Usage:
//
//	adcsend [-addr host:port] [-chunk bytes] [-rate bytes/s] [file]
//
// With no file, the recording is read from standard input. The defaults match
// 16-bit samples at 16 kHz sent in one-second buffers.
package main // import "github.com/nicolagi/adcsink/cmd/adcsend"
