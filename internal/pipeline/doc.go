// Package pipeline consolidates per-program error tracker tables and
// normalizes their free-text columns.
//
// A run is four stages over one in-memory [Table]:
//
//  1. [Aggregate] reads every cataloged source through a [SourceFetcher],
//     tags each row with its program label and concatenates them.
//  2. [NormalizeGrades] maps raw grade labels to canonical grade names.
//  3. [CondenseSubjects] maps subject labels to canonical subject groups,
//     consulting the normalized grades.
//  4. [ClassifyLevels] derives the curriculum level from the lesson code.
//
// [Run] executes all four stages and commits the result through a
// [TableStore] only when every stage succeeded, so a failed run never leaves
// a half-normalized table behind.
//
// # Rule Tables
//
// Grade, subject and level rules are ordered slices evaluated first match
// wins. Order is significant: several subject predicates overlap (a value
// containing both " Mathematics" and "Day" is Mathematics), and the level
// prefixes LAL/LBL shadow LALG/LBLG.
//
// # Error Handling
//
// Fatal conditions are [*SourceError] (wrapping [ErrSourceUnavailable]) and
// [*RowError] (wrapping [ErrMalformedRow]). Empty sources and unmatched
// values are not errors. [MapError] converts any error into a coded
// [UserMessage] for reporting.
package pipeline
