// Package projection binds the output shape of a query to its query source.
//
// The Binder walks the shape (constructions, entity shapers, includes and
// leaves) and decides, once per compilation, whether the whole shape is
// computed by the store (ModeServerOnly) or partly after materialization
// (ModeMixed).
//
// # Server-only pass
//
// Every leaf is translated and registered in a fresh projection mapping
// under its slot path: the path of constructor member identifiers from the
// shape root. Leaves are rewritten into bindings by path. A single leaf
// that does not translate aborts the pass.
//
// # Mixed pass
//
// Run only when the server-only pass aborted, over the same input shape
// from scratch. Translated leaves are appended to the projection list and
// rewritten into bindings by index. Parameters become runtime parameter
// reads, constants stay in place, and untranslatable nodes are rebuilt from
// their individually visited children. The final mapping is empty.
//
// Either way, the query source's mapping is replaced (never merged) with
// the mapping of the pass that completed.
package projection
