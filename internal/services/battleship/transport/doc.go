// Package transport exchanges protocol lines with the peer and masks
// transient faults.
//
// A Link remembers the last line it sent. When a read times out, fails, hits
// end of stream or the caller rejects what arrived, the link counts a failed
// attempt and retransmits that line. The third consecutive failure is fatal:
// the connection is closed and every later call returns the same
// CommunicationFault. Any accepted line resets the count.
//
// Watchdog runs beside the game loop and starts the same recovery when a
// reply has been awaited longer than the quiet period, so a silent peer is
// noticed before the read deadline expires.
package transport
