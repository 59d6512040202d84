// Package profile defines the compliance profile data model: profiles,
// controls, checks, expectations, and the canonical serialization used
// for content-addressed identity.
//
// Profiles are authored in YAML and validated against the CUE schema in
// the compiler package before they reach this model. Everything here is
// plain data - execution lives in the runtime package, severity
// resolution in impact, and outcome bucketing in classify.
package profile
