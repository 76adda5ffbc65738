package ast

// Kind discriminates expression node variants. The hasher switches on this
// exclusively; it never type-switches on concrete Go types so that the
// dispatch mirrors a tagged union.
type Kind uint8

const (
	KindInt Kind = iota + 1
	KindFloat
	KindString
	KindPath
	KindVar
	KindSelect
	KindHasAttr
	KindAttrs
	KindList
	KindLambda
	KindCall
	KindLet
	KindWith
	KindIf
	KindAssert
	KindOpNot
	KindOpEq
	KindOpNEq
	KindOpAnd
	KindOpOr
	KindOpImpl
	KindOpUpdate
	KindOpConcatLists
	KindConcatStrings
	KindPos
	KindBlackHole
	KindInheritFrom
)

// Expr is an immutable AST node. Expressions form a directed, usually
// acyclic graph; nothing here prevents a pathological cycle, so callers
// that walk the tree (including the hasher) must defend against one.
type Expr interface {
	Kind() Kind
}

// Int is an integer literal.
type Int struct{ Value int64 }

func (Int) Kind() Kind { return KindInt }

// Float is a floating point literal, stored as the literal source produced
// it (no canonicalization happens at this layer; see the value hasher).
type Float struct{ Value float64 }

func (Float) Kind() Kind { return KindFloat }

// String is a string literal. Context (derivation/path dependencies
// attached to a string) lives on values, not on literals, so it has no
// place here.
type String struct{ Value string }

func (String) Kind() Kind { return KindString }

// PathAccessor is the minimal surface the expression and value hashers need
// from a source accessor to fingerprint a Path node. It mirrors
// accessor.SourceAccessor exactly; kept as a separate interface here so this
// package has no dependency on package accessor.
type PathAccessor interface {
	Fingerprint(canonPath string) (fp string, ok bool)
	Exists(canonPath string) bool
	HashPath(canonPath string) (algo string, sum []byte, err error)
}

// Path is a filesystem path literal, relative to whatever root Accessor
// resolves against.
type Path struct {
	Accessor PathAccessor
	Relative string
}

func (Path) Kind() Kind { return KindPath }

// VarRef names a lexically-bound variable by De Bruijn coordinates.
type VarRef struct {
	Level       int
	Displacement int
}

// WithRef names a variable looked up dynamically in an enclosing `with`
// scope. Depth counts `with` nestings from the use site to the scope that
// is expected to bind Name; De Bruijn coordinates alone cannot disambiguate
// which key inside a `with` value is meant, so the name must be hashed too.
type WithRef struct {
	Name  string
	Depth int
}

// Var is either lexically bound (Lexical set) or with-bound (FromWith set).
// Exactly one of the two is meaningful; callers must not set both.
type Var struct {
	FromWith bool
	Lexical  VarRef
	With     WithRef
}

func (Var) Kind() Kind { return KindVar }

// AttrStep is one step of a Select/HasAttr attribute path. Static steps
// carry Name; dynamic steps (computed at runtime) carry Expr instead.
type AttrStep struct {
	Dynamic bool
	Name    string
	Expr    Expr
}

// Select projects an attribute path out of a base expression, e.g. `a.b.c`.
// Default is non-nil for `a.b.c or default`.
type Select struct {
	Base    Expr
	Path    []AttrStep
	Default Expr
}

func (Select) Kind() Kind { return KindSelect }

// HasAttr tests whether an attribute path exists, e.g. `a.b.c ? d`.
type HasAttr struct {
	Base Expr
	Path []AttrStep
}

func (HasAttr) Kind() Kind { return KindHasAttr }

// AttrEntry is one static binding inside an Attrs node.
type AttrEntry struct {
	Name  string
	Value Expr
}

// DynamicAttrEntry is one `${...} = ...;` binding; order is preserved
// because the name itself is computed and cannot be sorted lexically ahead
// of evaluation.
type DynamicAttrEntry struct {
	Name  Expr
	Value Expr
}

// Attrs is a record literal, `{ ... }` or `rec { ... }`.
type Attrs struct {
	Recursive    bool
	Entries      []AttrEntry
	Dynamic      []DynamicAttrEntry
	InheritFrom  []Expr
}

func (Attrs) Kind() Kind { return KindAttrs }

// List is an ordered list literal.
type List struct{ Elements []Expr }

func (List) Kind() Kind { return KindList }

// Formal is one named, possibly-defaulted lambda parameter from a
// pattern-match formals list, e.g. `{ a, b ? 1 }: ...`.
type Formal struct {
	Name    string
	Default Expr // nil if no default
}

// Lambda is a function literal. SingleArg is the bound name for the plain
// `x: body` form; it participates in alpha-equivalence and is therefore
// deliberately never hashed by name. HasFormals selects the `{...}: body`
// pattern-match form instead (the two are not mutually exclusive in the
// source language's `{a}@x: body` form, so both may be set).
type Lambda struct {
	HasSingleArg bool
	SingleArg    string

	HasFormals bool
	Formals    []Formal
	Ellipsis   bool

	Body Expr
}

func (Lambda) Kind() Kind { return KindLambda }

// Call is function application, `f x`.
type Call struct {
	Fn  Expr
	Arg Expr
}

func (Call) Kind() Kind { return KindCall }

// LetBinding is one binding inside a Let.
type LetBinding struct {
	Name  string
	Value Expr
}

// Let is `let ... in body`. Unlike Lambda, Let bindings do NOT get
// alpha-equivalence (spec.md §9: a deliberate, documented trade-off).
type Let struct {
	Bindings []LetBinding
	Body     Expr
}

func (Let) Kind() Kind { return KindLet }

// With is `with e; body`; it pushes a dynamic scope consulted only after
// all lexical lookups fail.
type With struct {
	Scope Expr
	Body  Expr
}

func (With) Kind() Kind { return KindWith }

// If is a conditional.
type If struct {
	Cond, Then, Else Expr
}

func (If) Kind() Kind { return KindIf }

// Assert is `assert cond; body`.
type Assert struct {
	Cond, Body Expr
}

func (Assert) Kind() Kind { return KindAssert }

// OpNot is unary boolean negation.
type OpNot struct{ Operand Expr }

func (OpNot) Kind() Kind { return KindOpNot }

// BinOp is a generic binary operator node; Kind() reports which operator.
type BinOp struct {
	Op          Kind
	Left, Right Expr
}

func (b BinOp) Kind() Kind { return b.Op }

// ConcatStrings is string interpolation / concatenation, an ordered list of
// parts.
type ConcatStrings struct{ Parts []Expr }

func (ConcatStrings) Kind() Kind { return KindConcatStrings }

// Pos is a `__curPos`-style source position literal. Its identity is
// necessarily session-local: two parses of the same text at different
// times may assign different position indices.
type Pos struct{ Index uint64 }

func (Pos) Kind() Kind { return KindPos }

// BlackHole is the sentinel placed over a thunk currently being forced;
// encountering it in the expression position indicates a self-referential
// definition being evaluated, e.g. `let x = x; in x`.
type BlackHole struct{}

func (BlackHole) Kind() Kind { return KindBlackHole }

// InheritFrom names a lexically-bound source for an `inherit (e) a b;`
// clause, by De Bruijn coordinates into the enclosing Attrs' InheritFrom
// list.
type InheritFrom struct {
	Level        int
	Displacement int
}

func (InheritFrom) Kind() Kind { return KindInheritFrom }
