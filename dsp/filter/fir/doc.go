// Package fir provides direct-form FIR filtering of complex sample streams
// with real coefficients, and a polyphase 1:k interpolator used for pulse
// shaping.
//
// Filters are generic over the sample type (complex64 or complex128); the
// coefficient type is inferred from the tap slice passed to the constructor.
package fir
