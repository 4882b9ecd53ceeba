package dsl

// The expression language is JSON-shaped: a literal, an operator application
// `[op, ...operands]`, an array literal (head is not a recognized operator),
// or an object literal whose properties evaluate independently. Nodes are
// immutable once parsed.

type Kind uint8

const (
	KindLiteral Kind = iota
	KindOp
	KindArray
	KindObject
)

type Op string

const (
	OpAdd Op = "+"
	OpSub Op = "-"
	OpMul Op = "*"
	OpDiv Op = "/"
	OpMod Op = "%"

	OpEq       Op = "=="
	OpStrictEq Op = "==="
	OpNeq      Op = "!="
	OpGt       Op = ">"
	OpLt       Op = "<"
	OpGte      Op = ">="
	OpLte      Op = "<="

	OpAnd Op = "&&"
	OpOr  Op = "||"
	OpNot Op = "!"

	OpTernary Op = "?:"
	OpSeq     Op = "seq"

	OpGet    Op = "get"
	OpSet    Op = "set"
	OpToggle Op = "toggle"

	OpPub      Op = "pub"
	OpHasClass Op = "hasClass"
	OpFetch    Op = "fetch"
)

// The operator set is fixed. Extension happens through the named handler
// registry, never by growing this table.
var knownOps = map[Op]struct{}{
	OpAdd: {}, OpSub: {}, OpMul: {}, OpDiv: {}, OpMod: {},
	OpEq: {}, OpStrictEq: {}, OpNeq: {},
	OpGt: {}, OpLt: {}, OpGte: {}, OpLte: {},
	OpAnd: {}, OpOr: {}, OpNot: {},
	OpTernary: {}, OpSeq: {},
	OpGet: {}, OpSet: {}, OpToggle: {},
	OpPub: {}, OpHasClass: {}, OpFetch: {},
}

func IsOp(s string) bool {
	_, ok := knownOps[Op(s)]
	return ok
}

type Node struct {
	Kind Kind

	// Lit holds the value for KindLiteral: nil, bool, float64 or string in
	// the JSON value domain.
	Lit any

	// Op and Args are set for KindOp; Args alone for KindArray.
	Op   Op
	Args []Node

	// Obj is set for KindObject.
	Obj map[string]Node
}

func Lit(v any) Node {
	return Node{Kind: KindLiteral, Lit: v}
}

func Apply(op Op, args ...Node) Node {
	return Node{Kind: KindOp, Op: op, Args: args}
}

func ArrayLit(elems ...Node) Node {
	return Node{Kind: KindArray, Args: elems}
}
