// Package engine is the execution host.
//
// An Engine owns a global state store and a registry of compiled modules.
// Each call to Exec runs one request (session code or a contract entry
// point) against a fresh tracking copy of global state. When the request
// succeeds, its effects are committed to the store as one atomic batch; when
// it fails for any reason, every effect is discarded and the failure is
// reported in the ExecutionResult with its reason code.
//
// Executions are serialized by the engine, so module code never observes a
// half-applied execution. Callers may invoke Exec from many goroutines.
package engine
