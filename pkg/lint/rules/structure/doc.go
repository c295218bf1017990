// Package structure contains the rules for language constructs the
// contract runtime does not accept: classes, async code, closures, import
// forms and the other node types listed in the structure policy.
package structure
