// Package engine contains the turn loop of "Escape the Mitochondrion".
//
// Reactions, the end-of-turn regulation pass and event cards are pure
// functions over cell.State; Engine strings them together for one run and
// keeps the player journal.
package engine
