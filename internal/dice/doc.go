// Package dice implements the rolldice service: a six-sided die behind a
// single HTTP handler.
package dice
