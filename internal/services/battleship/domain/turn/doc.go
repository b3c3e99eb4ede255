// Package turn holds the pure turn-taking state machine of a battleship game.
//
// Decide maps (State, Event) to a Decision carrying the next state and the
// effects the runtime must perform: send a shot or a result, record what was
// learned about the opponent, or finish the game. Nothing here touches the
// network or a board, so whole games can be replayed from synthetic events.
//
// The connector always fires first. A player keeps the turn after Hit and
// HitAndSunk, hands it over after Miss and ends the game with LastSunk.
package turn
