// Package llm runs a local LLM command line tool in non-interactive print mode
// and extracts structured answers from its output.
//
// Callers depend on the Completer interface; tests substitute a fake.
package llm
