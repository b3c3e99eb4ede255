// Package board models one player's defending fleet and the player's partial
// view of the opponent's fleet.
//
// A Board is loaded once from a 100-character layout. Ships are not declared
// in the layout; they are derived by a 4-connected flood fill over occupied
// cells and frozen as index sets for the rest of the game. Incoming shots only
// ever move a cell from water to miss or from ship to hit.
//
// A Knowledge board records what has been observed about the opponent through
// protocol results and nothing else.
package board
