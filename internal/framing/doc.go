// Package framing rebuilds discrete JSON objects from an arbitrarily chunked
// byte stream.
//
// Tool servers write JSON-RPC messages to stdout, sometimes interleaved with
// diagnostic text, and the pipe delivers them in whatever chunks the OS
// chooses. The Extractor keeps a brace-depth scan across chunks and yields each
// top-level {...} object once it is complete. Text outside any object is
// discarded.
//
// Two scanning modes are provided:
//
//   - ModeLexical (default) tracks JSON string literals inside objects, so a
//     quoted "{" or "}" does not change the nesting depth.
//   - ModeBraceCount counts every brace, matching the behavior of simple
//     brace-counting proxies byte for byte.
//
// Example usage:
//
//	sc := framing.NewScanner(stdout, framing.ModeLexical, framing.DefaultMaxFrameSize)
//	for sc.Scan() {
//	    handle(sc.Bytes())
//	}
//	if err := sc.Err(); err != nil { ... }
package framing
