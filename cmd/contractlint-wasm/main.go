//go:build js && wasm

// Package main exposes the linter to JavaScript when compiled to WebAssembly:
//
//	GOOS=js GOARCH=wasm go build -o contractlint.wasm ./cmd/contractlint-wasm
//
// It registers two global functions. ContractLint(code) returns the report
// as a JSON string and ContractLintRules() returns the rule catalogue.
package main

import (
	"encoding/json"
	"errors"
	"syscall/js"

	"github.com/leapstack-labs/contractlint"
	"github.com/leapstack-labs/contractlint/pkg/lint"
)

var errArgs = errors.New("ContractLint expects one string argument")

func errorJSON(err error) string {
	data, _ := json.Marshal(map[string]string{"error": err.Error()})
	return string(data)
}

func lintCode(_ js.Value, args []js.Value) any {
	if len(args) != 1 || args[0].Type() != js.TypeString {
		return errorJSON(errArgs)
	}
	data, err := contractlint.Lint(args[0].String()).JSON()
	if err != nil {
		return errorJSON(err)
	}
	return string(data)
}

func listRules(_ js.Value, _ []js.Value) any {
	data, err := json.Marshal(lint.AllRules())
	if err != nil {
		return errorJSON(err)
	}
	return string(data)
}

func main() {
	js.Global().Set("ContractLint", js.FuncOf(lintCode))
	js.Global().Set("ContractLintRules", js.FuncOf(listRules))
	select {}
}
