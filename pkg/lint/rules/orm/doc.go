// Package orm implements the rules governing persistent storage handles:
// where they are declared, how they are accessed and which names they
// occupy.
//
// Storage types and their method schemas come from the storage section of
// the lint policy, so a custom runtime can declare additional handle types
// without code changes.
package orm
