// Package loopback is an in-process messaging engine with the call surface of
// the native library.
//
// An Engine emulates either the 2.x or the 3.x revision, chosen by
// WithVersion, so code written against the native binding can run without the
// shared library. All transports resolve inside one Engine: a tcp endpoint is
// a name, not a listening port. Routing follows the socket type patterns:
//
//	PAIR            one peer
//	PUSH, DEALER    round robin over peers
//	REQ, REP        strict request/reply alternation with envelopes
//	ROUTER          identity-prefixed frames, routed by the first frame
//	PUB, XPUB       prefix-matched fan-out, never blocks
//
// High water marks and linger are accepted and reported but not enforced.
package loopback
