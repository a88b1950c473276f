// Package buffer provides the sample storage used by the receive chain:
// a fixed-length sliding Window for delay lines and correlators, and a
// growable Buffer whose capacity only ever increases, up to a limit.
//
// Both types own their backing arrays. Slices returned by Read or Samples
// alias that storage and stay valid only until the next mutating call.
package buffer
