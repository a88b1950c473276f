// Package flexframe implements a framed link with a configurable payload:
// a Generator that assembles preamble, header and payload into a pulse
// shaped sample stream, and a Synchronizer that recovers frames from a
// continuous stream of received samples.
//
// A frame is a BPSK m-sequence preamble followed by a fixed header and a
// payload whose length, modulation, check and FEC codes are announced in
// the header. The header is protected with CRC-16 and Hamming(12,8) and
// always occupies HeaderSymbols BPSK symbols.
//
// The Synchronizer runs a four state machine, one input sample at a time:
//
//	DETECT     preamble search gated by the squelch
//	RXHEADER   preamble carrier fit, then HeaderSymbols header symbols
//	RXPAYLOAD  payload symbols announced by the header
//	RESET      loops reopened before the next search
//
// Detection seeds the AGC, a coarse carrier oscillator and the polyphase
// timing recovery, after which the buffered samples are replayed so no
// symbol of the frame is lost. Every completed header or payload cycle
// ends in exactly one callback; decode failures are reported in the Frame,
// never returned from Execute.
//
// A Synchronizer is not safe for concurrent use. Independent instances
// share no state.
package flexframe
