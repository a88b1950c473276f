// Package interp provides the interpolation primitives used by the
// synchronizer and the channel simulator:
//
//   - [ParabolicPeak]:    sub-sample peak location from three samples
//   - [FractionalDelay]:  Blackman-windowed sinc taps for a fractional delay
package interp
