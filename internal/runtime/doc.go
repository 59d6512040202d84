// Package runtime executes individual controls: it resolves skip
// directives, queries the target adapter for facts, evaluates
// expectations, and captures assertions and execution anomalies into
// structured results.
//
// The core guarantee lives here: a control's execution path that never
// reaches an assertion or a skip directive still produces a result (an
// anomaly, classified upstream as Profile Error). Panics are contained
// per control.
package runtime
