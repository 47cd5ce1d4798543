// Package batch runs a tool operation over a list of IDs and reports each
// outcome, so one failing item does not abort the rest.
package batch
