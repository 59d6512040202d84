// Package engine orchestrates profile execution: token generation,
// platform gating, waivers, per-control quotas and deadlines,
// classification, scoring, and run persistence.
//
// The runtime package executes individual controls; the engine owns
// everything around them. Execution is sequential and deterministic:
// given the same profile, target state, and token, two runs produce
// byte-identical reports (timestamps aside).
package engine
