// Package controller owns the lifecycle of one tunneling engine. It is
// structured into small files by concern:
//
//   - controller.go: Controller type, constructor, simple getters.
//   - config.go: Config and defaults; NewWithConfig applies them.
//   - types.go: State and Transition.
//   - errors.go: error types and helpers (IsAlreadyRunning, IsEngineError).
//   - lifecycle.go: Start, Reload, Stop and the engine panic guard.
//   - sinks.go: log/event handler registration and the log threshold.
//   - status_report.go: Status, Snapshot and health reporting.
//   - events.go, eventpub_memory.go: transition publishers.
//
// Lifecycle operations are serialized on one mutex. The current state is
// also published through an atomic so Status and health queries never wait
// behind a slow engine call.
package controller
