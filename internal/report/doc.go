// Package report aggregates classified control results into run
// reports, computes compliance statistics, renders text and JSON
// output, and scrubs secrets from free-text fields.
package report
