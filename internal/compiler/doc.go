// Package compiler turns YAML profile documents into validated Profile
// values. Structure is enforced by an embedded CUE schema, typos by
// strict YAML decoding, and cross-field rules by the semantic
// validator.
package compiler
