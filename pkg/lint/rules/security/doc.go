// Package security contains the rules that keep a contract inside the
// sandbox: denylisted imports, calls and references, and reflection through
// private attributes.
package security
