// Package query holds the query source: the accumulating description of
// what will be sent to the remote store.
//
// A Select owns its tables, the filter, grouping and ordering compiled by
// upstream stages, the ordered projection list, and the projection mapping
// from slot keys (expr.ProjectionMember) to the provider expression or
// entity projection computing each slot.
//
// A Select is transient: it lives for one query compilation and is mutated
// only by the stage currently compiling it. It is NOT safe for concurrent
// use; concurrent compilations each build their own Select.
package query
