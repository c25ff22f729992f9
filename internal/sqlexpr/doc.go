// Package sqlexpr defines the provider expression tree: the store-side
// expressions a query source projects, filters and orders by.
//
// Every node carries a declared result type and, where the store cares, a
// TypeMapping that decides literal formatting and operator applicability.
//
// Nodes are built through Factory only. The factory guarantees a non-zero
// declared type on every node and runs the dialect's normalizers on each
// function it builds, so logically equal calls always produce the same tree
// no matter how many translation rules wrapped them.
package sqlexpr
