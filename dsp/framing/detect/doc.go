// Package detect finds a known preamble waveform in complex baseband.
//
// Detector is the streaming form used by the frame synchronizer: it keeps
// the last len(ref) samples, correlates them against a small bank of
// frequency-shifted copies of the reference and reports one Result per
// correlation peak, with timing, carrier and gain estimates.
//
// Search is the offline form: it correlates a whole capture against the
// reference in the frequency domain and returns every peak above a
// threshold.
package detect
