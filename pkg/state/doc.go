// Package state persists component snapshots so that instances can be
// re-mounted with their state slots restored.
//
// Responsibilities:
//   - Store only loads, saves and deletes a single snapshot for a single Ref.
//   - Manager captures snapshots from mounted instances, guards writes with
//     ETags and turns stored snapshots back into hydration mount options.
//   - The hooks runtime stays persistence-agnostic; all storage logic lives
//     behind Store implementations.
//
// Data flow:
//
//	Instance.Snapshot() -> Manager.Save -> Store.Save
//	Store.Load -> Manager.Restore -> hooks.WithHydration -> hooks.Mount
//
// Deterministic keys:
//
//	Instance ids are random per mount, so snapshots are addressed by a
//	caller-chosen Ref{Component, Key}. Ref.Identifier() renders it as
//	`component/key`.
package state
