// Package nco provides a numerically controlled oscillator with an attached
// second-order phase-locked loop.
//
// The oscillator integrates phase from a frequency estimate and mixes
// samples to or from baseband. PLLStep feeds a phase-error measurement
// through the loop filter, steering frequency and phase. Phase is kept in
// (-pi, pi]; frequency is clamped to the configured maximum.
package nco
