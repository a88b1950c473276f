// Package framing groups the packet-level building blocks (scrambler,
// interleaver, packetizer, preamble detector) and the flexframe
// generator/synchronizer built from them.
package framing
