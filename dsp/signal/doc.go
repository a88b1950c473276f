// Package signal simulates a baseband radio channel: gain, carrier
// frequency and phase offset, fractional timing delay and additive white
// Gaussian noise. Noise is reproducible for a given seed.
package signal
