// Package timeouts defines shared timeout constants used across the game.
// Centralizing these values keeps the transport and the command line
// defaults in agreement.
package timeouts

import "time"

// Dial caps the wait time when connecting to the peer.
const Dial = 10 * time.Second

// Read limits how long a single read waits for a line from the peer.
const Read = 60 * time.Second

// Watchdog is the interval at which a link checks for a silent peer.
const Watchdog = 1 * time.Second

// QuietPeriod is how long a peer may stay silent, while a reply is owed,
// before the watchdog retransmits.
const QuietPeriod = 30 * time.Second

// Shutdown limits how long the process waits for telemetry to flush on exit.
const Shutdown = 5 * time.Second
