package parser

import (
	"fmt"

	"github.com/leapstack-labs/contractlint/pkg/token"
)

// Error is a fatal lexical or syntactic error. Parsing stops at the first one.
type Error struct {
	Pos token.Position
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("line %d, column %d: %s", e.Pos.Line, e.Pos.Column, e.Msg)
}
