// Package symsync recovers symbol timing with a polyphase matched-filter
// bank.
//
// Each input sample is pushed into a matched-filter bank and its derivative
// bank. When the internal timer expires, sub-filter Index() of both banks is
// evaluated; the matched output is the symbol, and the product of the two
// outputs is the timing error. The error is normalized at construction so
// that one unit corresponds to one filter-bank step, low-pass filtered, and
// accumulated into a soft index. Wrapping the index past either end of the
// bank shifts the output by one input sample, so a symbol is produced every
// k-1, k or k+1 samples as timing drifts.
package symsync
