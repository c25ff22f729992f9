// Package ir provides the foundational value and metadata types shared by
// every stage of query compilation.
//
// This package contains leaf types only. All other internal packages
// import ir; ir imports nothing internal.
//
// Key design constraints:
//   - NO float types anywhere - literal values are null, string, int64,
//     bool, bytes, arrays and objects so literal text is deterministic
//   - Entity metadata (Model, EntityType, Property, Navigation) is immutable
//     once compiled and safe for concurrent reads
//   - Canonical JSON (MarshalCanonical) is the only serialization used for
//     fingerprints and golden reports
package ir
