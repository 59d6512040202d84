// Package target provides the adapter interface over a system being
// audited, plus the local implementation.
//
// The Target interface is deliberately narrow: six fact queries covering
// the resources profiles can check. Remote adapters (ssh, API) would
// implement the same interface; only the local adapter and the test fake
// exist today.
package target
