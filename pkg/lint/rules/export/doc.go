// Package export contains the rules for the export and constructor
// decorator markers. Importing it registers the rules.
package export
