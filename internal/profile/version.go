package profile

// EngineVersion identifies the engine build that produced a run.
// Recorded in run metadata for report provenance.
const EngineVersion = "0.3.0"
