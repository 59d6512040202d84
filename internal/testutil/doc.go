// Package testutil provides shared test doubles: a fixture-backed fake
// target and deterministic helpers used across package tests and the
// conformance harness.
package testutil
