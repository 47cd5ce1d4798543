// Package analyzer assigns todo items a category and a suggested next step,
// and flags the ones a browser agent could handle.
package analyzer
