package policy

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/syntax"
	"gopkg.in/yaml.v3"
)

// Sections are the global names a policy file may define.
var Sections = []string{"export", "storage", "security", "structure", "runtime", "builtins"}

// LoadError reports a policy file that could not be read or evaluated.
type LoadError struct {
	File    string
	Message string
	Err     error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("policy %s: %s", filepath.Base(e.File), e.Message)
}

func (e *LoadError) Unwrap() error { return e.Err }

func readFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path) //nolint:gosec // policy path comes from the command line
	if err != nil {
		return nil, &LoadError{File: path, Message: fmt.Sprintf("failed to read file: %v", err), Err: err}
	}
	return data, nil
}

// LoadStarlarkFile evaluates a Starlark policy file. See LoadStarlark.
func LoadStarlarkFile(path string) (*Policy, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return LoadStarlark(path, data)
}

// LoadStarlark evaluates src as Starlark and overlays the globals named in
// Sections on the default policy:
//
//	security = {
//	    "denied_imports": ["os", "sys", "socket"],
//	    "denied_calls": ["currency.seed"],
//	}
//	storage = {"max_key_arity": 8}
//
// Globals starting with an underscore are private helpers and are ignored.
func LoadStarlark(filename string, src []byte) (*Policy, error) {
	thread := &starlark.Thread{
		Name: "policy:" + filepath.Base(filename),
		Print: func(_ *starlark.Thread, _ string) {
			// Policy files have no output channel.
		},
	}
	globals, err := starlark.ExecFileOptions(&syntax.FileOptions{}, thread, filename, src, nil)
	if err != nil {
		return nil, &LoadError{File: filename, Message: fmt.Sprintf("starlark execution error: %v", err), Err: err}
	}

	tables := make(map[string]any)
	for _, name := range Sections {
		v, ok := globals[name]
		if !ok {
			continue
		}
		gv, err := toGo(v)
		if err != nil {
			return nil, &LoadError{File: filename, Message: fmt.Sprintf("global %s: %v", name, err), Err: err}
		}
		tables[name] = gv
	}
	for name := range globals {
		if !strings.HasPrefix(name, "_") && !isSection(name) {
			return nil, &LoadError{File: filename, Message: fmt.Sprintf("unknown global %q (expected one of %s)", name, strings.Join(Sections, ", "))}
		}
	}

	data, err := yaml.Marshal(tables)
	if err != nil {
		return nil, &LoadError{File: filename, Message: err.Error(), Err: err}
	}
	p, err := Load(data)
	if err != nil {
		return nil, &LoadError{File: filename, Message: err.Error(), Err: err}
	}
	return p, nil
}

func isSection(name string) bool {
	for _, s := range Sections {
		if s == name {
			return true
		}
	}
	return false
}

// toGo converts a Starlark value to plain Go data.
func toGo(v starlark.Value) (any, error) {
	switch val := v.(type) {
	case starlark.NoneType:
		return nil, nil
	case starlark.String:
		return string(val), nil
	case starlark.Int:
		i64, ok := val.Int64()
		if !ok {
			return nil, fmt.Errorf("integer %s out of range", val)
		}
		return i64, nil
	case starlark.Bool:
		return bool(val), nil
	case *starlark.List:
		out := make([]any, val.Len())
		for i := 0; i < val.Len(); i++ {
			gv, err := toGo(val.Index(i))
			if err != nil {
				return nil, fmt.Errorf("list index %d: %w", i, err)
			}
			out[i] = gv
		}
		return out, nil
	case starlark.Tuple:
		out := make([]any, len(val))
		for i, elem := range val {
			gv, err := toGo(elem)
			if err != nil {
				return nil, fmt.Errorf("tuple index %d: %w", i, err)
			}
			out[i] = gv
		}
		return out, nil
	case *starlark.Dict:
		out := make(map[string]any, val.Len())
		for _, item := range val.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				return nil, fmt.Errorf("dict key must be string, got %s", item[0].Type())
			}
			gv, err := toGo(item[1])
			if err != nil {
				return nil, fmt.Errorf("dict key %q: %w", string(key), err)
			}
			out[string(key)] = gv
		}
		return out, nil
	default:
		return nil, fmt.Errorf("unsupported value of type %s", v.Type())
	}
}
