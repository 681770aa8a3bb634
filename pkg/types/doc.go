// Package types defines the shared vocabulary of the remote registry access
// layer: value kinds and their native registry type tags, hive selectors,
// access modes, the per-host result record, and the typed error taxonomy.
//
// Design goals:
//   - One closed ValueKind enum drives codec selection; the native RegType
//     tag is kept alongside it so callers can see exactly what the platform
//     reported.
//   - Typed errors with stable categories (connection, key-not-found,
//     value-not-found, invalid-argument, write, session-closed) so callers
//     branch on intent rather than text.
//   - Results are immutable once built and only ever built from a successful
//     decode, so Data always has the shape its Type promises.
//
// This package has no dependencies beyond the standard library.
package types
