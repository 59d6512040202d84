// Package harness executes conformance scenarios: YAML-defined fixture
// targets, a real profile, the real engine, and assertions over the
// classified report. Golden snapshots pin the full report shape.
//
// Scenarios exercise the entire pipeline - compiler, input resolution,
// runtime, impact rules, waivers, classification, scoring, and store
// persistence - with every source of nondeterminism pinned.
package harness
