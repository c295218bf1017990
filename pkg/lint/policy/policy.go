// Package policy holds the data tables that drive contract linting:
// recognized decorator markers, the storage schema, the security denylist,
// the builtin universe and the illegal construct list.
//
// Tables are plain data. The embedded default.yaml mirrors the contract
// runtime; Load and LoadStarlark overlay user tables on top of it.
package policy

import (
	_ "embed"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed default.yaml
var defaultYAML []byte

// ErrInvalid is returned (wrapped) when a policy fails validation.
var ErrInvalid = errors.New("invalid policy")

// Storage kinds.
const (
	KindScalar = "scalar"
	KindHash   = "hash"
	KindEvent  = "event"
)

// Policy is the full set of lint tables.
type Policy struct {
	Export    ExportPolicy    `yaml:"export"`
	Storage   StoragePolicy   `yaml:"storage"`
	Security  SecurityPolicy  `yaml:"security"`
	Structure StructurePolicy `yaml:"structure"`
	Runtime   RuntimePolicy   `yaml:"runtime"`

	// Builtins is the complete builtin namespace of the language. Names in
	// it but outside Security.AllowedBuiltins are denied.
	Builtins []string `yaml:"builtins"`

	index *index
}

// ExportPolicy configures the decorator markers.
type ExportPolicy struct {
	Marker                string     `yaml:"marker"`
	Constructor           string     `yaml:"constructor"`
	Conflicts             [][]string `yaml:"conflicts"`
	NestedWhitelist       []string   `yaml:"nested_whitelist"`
	AllowedAnnotations    []string   `yaml:"allowed_annotations"`
	AllowReturnAnnotation bool       `yaml:"allow_return_annotation"`
}

// StoragePolicy is the storage schema.
type StoragePolicy struct {
	Types            map[string]StorageType `yaml:"types"`
	MaxKeyArity      int                    `yaml:"max_key_arity"`
	WriteMethods     []string               `yaml:"write_methods"`
	MutableFactories []string               `yaml:"mutable_factories"`
}

// StorageType describes one storage constructor, e.g. Variable or Hash.
type StorageType struct {
	Kind           string           `yaml:"kind"`
	ReadOnly       bool             `yaml:"read_only"`
	Methods        map[string]Arity `yaml:"methods"`
	Call           *Arity           `yaml:"call,omitempty"`
	ReservedKwargs []string         `yaml:"reserved_kwargs"`
}

// Arity bounds a positional argument count. Max < 0 means unbounded.
type Arity struct {
	Min int `yaml:"min"`
	Max int `yaml:"max"`
}

// Accepts reports whether n arguments satisfy the arity.
func (a Arity) Accepts(n int) bool {
	return n >= a.Min && (a.Max < 0 || n <= a.Max)
}

// String formats the arity for messages.
func (a Arity) String() string {
	switch {
	case a.Min == a.Max:
		return fmt.Sprintf("%d", a.Min)
	case a.Max < 0:
		return fmt.Sprintf("at least %d", a.Min)
	default:
		return fmt.Sprintf("%d to %d", a.Min, a.Max)
	}
}

// SecurityPolicy is the denylist.
type SecurityPolicy struct {
	DeniedImports         []string `yaml:"denied_imports"`
	AllowedImports        []string `yaml:"allowed_imports"`
	DeniedCalls           []string `yaml:"denied_calls"`
	AllowedBuiltins       []string `yaml:"allowed_builtins"`
	DeniedNames           []string `yaml:"denied_names"`
	// ReferenceOnlyBuiltins may be named, e.g. in isinstance checks, but
	// not called.
	ReferenceOnlyBuiltins []string `yaml:"reference_only_builtins"`
	PrivatePrefix         string   `yaml:"private_prefix"`
	PrivateSuffix         string   `yaml:"private_suffix"`
}

// StructurePolicy lists language constructs the runtime rejects.
type StructurePolicy struct {
	IllegalConstructs []string `yaml:"illegal_constructs"`
}

// RuntimePolicy lists the globals the runtime injects into every contract.
type RuntimePolicy struct {
	Globals []string `yaml:"globals"`
}

var (
	defaultOnce   sync.Once
	defaultPolicy *Policy
)

// Default returns the shared built-in policy. It must not be modified.
func Default() *Policy {
	defaultOnce.Do(func() {
		p, err := parse(nil)
		if err != nil {
			panic(fmt.Sprintf("policy: embedded default is invalid: %v", err))
		}
		defaultPolicy = p
	})
	return defaultPolicy
}

// Load parses YAML tables and overlays them on the default policy. Lists
// replace the default list; maps are merged key by key.
func Load(data []byte) (*Policy, error) {
	return parse(data)
}

// LoadFile loads a policy from a .yaml/.yml or .star file.
func LoadFile(path string) (*Policy, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".star", ".bzl":
		return LoadStarlarkFile(path)
	default:
		data, err := readFile(path)
		if err != nil {
			return nil, err
		}
		p, err := Load(data)
		if err != nil {
			return nil, &LoadError{File: path, Message: err.Error(), Err: err}
		}
		return p, nil
	}
}

func parse(overlay []byte) (*Policy, error) {
	p := &Policy{}
	if err := yaml.Unmarshal(defaultYAML, p); err != nil {
		return nil, fmt.Errorf("decoding default policy: %w", err)
	}
	if len(overlay) > 0 {
		if err := yaml.Unmarshal(overlay, p); err != nil {
			return nil, fmt.Errorf("decoding policy: %w", err)
		}
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	p.index = newIndex(p)
	return p, nil
}

// Validate checks internal consistency of the tables.
func (p *Policy) Validate() error {
	var errs []error
	if p.Export.Marker == "" {
		errs = append(errs, errors.New("export.marker must not be empty"))
	}
	if p.Export.Constructor == "" {
		errs = append(errs, errors.New("export.constructor must not be empty"))
	}
	for i, pair := range p.Export.Conflicts {
		if len(pair) != 2 {
			errs = append(errs, fmt.Errorf("export.conflicts[%d]: expected a pair, got %d names", i, len(pair)))
		}
	}
	if p.Storage.MaxKeyArity < 1 {
		errs = append(errs, fmt.Errorf("storage.max_key_arity must be positive, got %d", p.Storage.MaxKeyArity))
	}
	for _, name := range sortedKeys(p.Storage.Types) {
		st := p.Storage.Types[name]
		switch st.Kind {
		case KindScalar, KindHash, KindEvent:
		default:
			errs = append(errs, fmt.Errorf("storage.types.%s: unknown kind %q", name, st.Kind))
		}
		for _, m := range sortedKeys(st.Methods) {
			if a := st.Methods[m]; a.Max >= 0 && a.Max < a.Min {
				errs = append(errs, fmt.Errorf("storage.types.%s.methods.%s: max %d below min %d", name, m, a.Max, a.Min))
			}
		}
	}
	for _, c := range p.Structure.IllegalConstructs {
		if !slices.Contains(KnownConstructs, c) {
			errs = append(errs, fmt.Errorf("structure.illegal_constructs: unknown construct %q", c))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// KnownConstructs are the construct names accepted in
// structure.illegal_constructs.
var KnownConstructs = []string{
	"AsyncFor", "AsyncFunctionDef", "AsyncWith", "Await", "ClassDef",
	"Ellipsis", "GeneratorExp", "Global", "Lambda", "MatMult", "Nonlocal",
	"Try", "With", "Yield", "YieldFrom",
}

// ---------- Lookups ----------

type index struct {
	builtins         map[string]bool
	allowedBuiltins  map[string]bool
	deniedImports    map[string]bool
	allowedImports   map[string]bool
	deniedCalls      map[string]bool
	deniedPrefixes   []string
	deniedNames      map[string]bool
	referenceOnly    map[string]bool
	runtime          map[string]bool
	illegal          map[string]bool
	annotations      map[string]bool
	nestedWhitelist  map[string]bool
	writeMethods     map[string]bool
	mutableFactories map[string]bool
}

func newIndex(p *Policy) *index {
	ix := &index{
		builtins:         set(p.Builtins),
		allowedBuiltins:  set(p.Security.AllowedBuiltins),
		deniedImports:    set(p.Security.DeniedImports),
		allowedImports:   set(p.Security.AllowedImports),
		deniedCalls:      map[string]bool{},
		deniedNames:      set(p.Security.DeniedNames),
		referenceOnly:    set(p.Security.ReferenceOnlyBuiltins),
		runtime:          set(p.Runtime.Globals),
		illegal:          set(p.Structure.IllegalConstructs),
		annotations:      set(p.Export.AllowedAnnotations),
		nestedWhitelist:  set(p.Export.NestedWhitelist),
		writeMethods:     set(p.Storage.WriteMethods),
		mutableFactories: set(p.Storage.MutableFactories),
	}
	for _, c := range p.Security.DeniedCalls {
		if prefix, ok := strings.CutSuffix(c, ".*"); ok {
			ix.deniedPrefixes = append(ix.deniedPrefixes, prefix+".")
			continue
		}
		ix.deniedCalls[c] = true
	}
	return ix
}

func (p *Policy) idx() *index {
	if p.index == nil {
		p.index = newIndex(p)
	}
	return p.index
}

// IsBuiltin reports whether name is in the builtin namespace.
func (p *Policy) IsBuiltin(name string) bool { return p.idx().builtins[name] }

// IsRuntimeGlobal reports whether the runtime provides name to contracts.
func (p *Policy) IsRuntimeGlobal(name string) bool { return p.idx().runtime[name] }

// IsIllegalConstruct reports whether construct is rejected.
func (p *Policy) IsIllegalConstruct(construct string) bool { return p.idx().illegal[construct] }

// IsAllowedAnnotation reports whether an exported parameter may be annotated
// with the dotted name ann.
func (p *Policy) IsAllowedAnnotation(ann string) bool { return p.idx().annotations[ann] }

// IsNestedWhitelisted reports whether a marked function called name may be
// defined below module level.
func (p *Policy) IsNestedWhitelisted(name string) bool { return p.idx().nestedWhitelist[name] }

// IsWriteMethod reports whether a storage method mutates state.
func (p *Policy) IsWriteMethod(method string) bool { return p.idx().writeMethods[method] }

// IsMutableFactory reports whether calling name builds a mutable container.
func (p *Policy) IsMutableFactory(name string) bool { return p.idx().mutableFactories[name] }

// IsDeniedName reports whether name refers to runtime internals.
func (p *Policy) IsDeniedName(name string) bool { return p.idx().deniedNames[name] }

// IsReferenceOnlyBuiltin reports whether the builtin name may be referenced
// even though calling it is denied.
func (p *Policy) IsReferenceOnlyBuiltin(name string) bool { return p.idx().referenceOnly[name] }

// IsPrivateName reports whether an identifier carries the private prefix or
// suffix.
func (p *Policy) IsPrivateName(name string) bool {
	sec := p.Security
	return sec.PrivatePrefix != "" && strings.HasPrefix(name, sec.PrivatePrefix) ||
		sec.PrivateSuffix != "" && strings.HasSuffix(name, sec.PrivateSuffix)
}

// IsMarker reports whether name is a recognized decorator marker.
func (p *Policy) IsMarker(name string) bool {
	return name == p.Export.Marker || name == p.Export.Constructor
}

// Conflicting reports whether markers a and b may not decorate the same
// function.
func (p *Policy) Conflicting(a, b string) bool {
	for _, pair := range p.Export.Conflicts {
		if len(pair) == 2 && (pair[0] == a && pair[1] == b || pair[0] == b && pair[1] == a) {
			return true
		}
	}
	return false
}

// StorageType returns the schema of the storage constructor name.
func (p *Policy) StorageType(name string) (StorageType, bool) {
	st, ok := p.Storage.Types[name]
	return st, ok
}

// DeniedImport reports why importing module is not allowed.
func (p *Policy) DeniedImport(module string) (string, bool) {
	ix := p.idx()
	if len(ix.allowedImports) > 0 {
		if !ix.allowedImports[module] && !ix.allowedImports[rootOf(module)] {
			return fmt.Sprintf("import of '%s' is not allowed", module), true
		}
		return "", false
	}
	for prefix := module; prefix != ""; prefix = parentOf(prefix) {
		if ix.deniedImports[prefix] {
			return fmt.Sprintf("import of denied module '%s'", module), true
		}
	}
	return "", false
}

// DeniedTarget reports why referencing the fully-qualified name q is not
// allowed. Builtins are qualified as "builtins.<name>".
func (p *Policy) DeniedTarget(q string) (string, bool) {
	ix := p.idx()
	if name, ok := strings.CutPrefix(q, "builtins."); ok {
		if ix.builtins[name] && !ix.allowedBuiltins[name] {
			return fmt.Sprintf("use of builtin '%s' is not allowed", name), true
		}
		return "", false
	}
	if ix.deniedCalls[q] {
		return fmt.Sprintf("use of denied target '%s'", q), true
	}
	for _, prefix := range ix.deniedPrefixes {
		if strings.HasPrefix(q, prefix) {
			return fmt.Sprintf("use of denied target '%s'", q), true
		}
	}
	for i := range q {
		if q[i] != '.' {
			continue
		}
		if _, denied := p.DeniedImport(q[:i]); denied {
			return fmt.Sprintf("use of denied module '%s'", q[:i]), true
		}
	}
	if _, denied := p.DeniedImport(q); denied {
		return fmt.Sprintf("use of denied module '%s'", q), true
	}
	return "", false
}

func rootOf(dotted string) string {
	if i := strings.IndexByte(dotted, '.'); i >= 0 {
		return dotted[:i]
	}
	return dotted
}

func parentOf(dotted string) string {
	if i := strings.LastIndexByte(dotted, '.'); i >= 0 {
		return dotted[:i]
	}
	return ""
}

func set(items []string) map[string]bool {
	m := make(map[string]bool, len(items))
	for _, s := range items {
		m[s] = true
	}
	return m
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
