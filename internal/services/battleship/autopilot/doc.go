// Package autopilot chooses shots without a human at the keyboard.
//
// Random fires at a uniformly random cell that is still unknown. Script asks
// a Lua function for the next cell and falls back to Random whenever the
// answer is unusable.
//
// A strategy script defines a global function next_shot(view). view is the
// 100 character knowledge board in row-major order: '?' unknown, '~' miss,
// '@' hit. The function returns a coordinate such as "E5". The helper
// to_coord(index) converts a 1-based view index into that form.
package autopilot
