// Package querysql renders a query source to parameterized SQL text.
//
// Every value is bound as a ? placeholder and never interpolated into the
// text, so the text of two compilations differing only in constants is
// identical and can key a plan cache (see ir.QueryFingerprint).
//
// Every statement carries an ORDER BY: explicit orderings first, then the
// root entity's key columns as a deterministic tiebreaker.
package querysql
