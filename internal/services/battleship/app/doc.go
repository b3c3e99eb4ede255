// Package server runs one battleship game over one TCP connection.
//
// A listener accepts exactly one peer and waits for the first shot; a
// connector dials the peer and fires first. Either way the connection is
// handed to a Session, which feeds decoded lines into the turn state machine
// and performs the effects it returns, while the link watchdog runs beside it.
// The process serves a single game and returns once the connection closes.
package server
