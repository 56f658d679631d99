// Package doc implements the SPIRAL document/IR data model (spec.md §3):
// node graphs with reference semantics, layer-tagged expressions, basic
// blocks, and JSON-pointer aliasing via $ref.
package doc

import (
	"encoding/json"

	"github.com/spiralir/spiral/internal/typesys"
)

// NodeID is the identifier of a node within a document, or (inside a
// lambda body) the name of a bound parameter / let-binding.
type NodeID string

// ExprKind discriminates the closed expression sum (spec.md §3).
type ExprKind string

const (
	// AIR (8)
	KindLit       ExprKind = "lit"
	KindRef       ExprKind = "ref"
	KindVar       ExprKind = "var"
	KindCall      ExprKind = "call"
	KindIf        ExprKind = "if"
	KindLet       ExprKind = "let"
	KindAirRef    ExprKind = "airRef"
	KindPredicate ExprKind = "predicate"

	// CIR adds (4)
	KindLambda   ExprKind = "lambda"
	KindCallExpr ExprKind = "callExpr"
	KindFix      ExprKind = "fix"
	KindDo       ExprKind = "do"

	// EIR adds (9)
	KindSeq     ExprKind = "seq"
	KindAssign  ExprKind = "assign"
	KindWhile   ExprKind = "while"
	KindFor     ExprKind = "for"
	KindIter    ExprKind = "iter"
	KindEffect  ExprKind = "effect"
	KindRefCell ExprKind = "refCell"
	KindDeref   ExprKind = "deref"
	KindTry     ExprKind = "try"

	// Async (capability "async") adds (8)
	KindPar     ExprKind = "par"
	KindSpawn   ExprKind = "spawn"
	KindAwait   ExprKind = "await"
	KindChannel ExprKind = "channel"
	KindSend    ExprKind = "send"
	KindRecv    ExprKind = "recv"
	KindSelect  ExprKind = "select"
	KindRace    ExprKind = "race"
)

// AirKinds, CirOnlyKinds, EirOnlyKinds, AsyncKinds partition the closed
// expression sum for layer-admissibility checks (spec.md §3 invariant iii).
var AirKinds = map[ExprKind]bool{
	KindLit: true, KindRef: true, KindVar: true, KindCall: true,
	KindIf: true, KindLet: true, KindAirRef: true, KindPredicate: true,
}

var CirOnlyKinds = map[ExprKind]bool{
	KindLambda: true, KindCallExpr: true, KindFix: true, KindDo: true,
}

var EirOnlyKinds = map[ExprKind]bool{
	KindSeq: true, KindAssign: true, KindWhile: true, KindFor: true,
	KindIter: true, KindEffect: true, KindRefCell: true, KindDeref: true,
	KindTry: true,
}

var AsyncKinds = map[ExprKind]bool{
	KindPar: true, KindSpawn: true, KindAwait: true, KindChannel: true,
	KindSend: true, KindRecv: true, KindSelect: true, KindRace: true,
}

// Expr is the closed expression sum type. Every concrete expression below
// implements it; exhaustive handling is enforced by type switch, not by
// the Go type system (spec.md §9 design note).
type Expr interface {
	ExprKind() ExprKind
}

// Arg is the "id|E" union used pervasively by the spec: either a bare
// string reference to another node/bound-name, or an inline expression.
type Arg struct {
	ID     string // set when this arg is a plain node-id / bound-name string
	Inline Expr   // set when this arg is an inline expression object
}

func ArgID(id string) Arg    { return Arg{ID: id} }
func ArgExpr(e Expr) Arg     { return Arg{Inline: e} }
func (a Arg) IsID() bool     { return a.Inline == nil }
func (a Arg) IsInline() bool { return a.Inline != nil }

// --- AIR ---

type Lit struct {
	Type  typesys.T
	Value json.RawMessage
}

func (Lit) ExprKind() ExprKind { return KindLit }

type Ref struct {
	ID string
}

func (Ref) ExprKind() ExprKind { return KindRef }

type Var struct {
	Name string
}

func (Var) ExprKind() ExprKind { return KindVar }

type Call struct {
	NS   string
	Name string
	Args []Arg
}

func (Call) ExprKind() ExprKind { return KindCall }

type If struct {
	Cond Arg
	Then Arg
	Else Arg
	Type *typesys.T
}

func (If) ExprKind() ExprKind { return KindIf }

type Let struct {
	Name  string
	Value Arg
	Body  Arg
}

func (Let) ExprKind() ExprKind { return KindLet }

type AirRef struct {
	NS   string
	Name string
	Args []string // node ids, per spec.md §3
}

func (AirRef) ExprKind() ExprKind { return KindAirRef }

type Predicate struct {
	Name  string
	Value Arg
}

func (Predicate) ExprKind() ExprKind { return KindPredicate }

// --- CIR ---

// LambdaParam describes one formal parameter of a lambda. Default is an
// optional default-value expression for optional parameters (spec.md §4.7
// CallExpr: "missing argument evaluates the parameter's default expression").
type LambdaParam struct {
	Name     string
	Type     typesys.T
	Optional bool
	Default  Expr
}

type Lambda struct {
	Params []LambdaParam
	Body   NodeID
	Type   typesys.T
}

func (Lambda) ExprKind() ExprKind { return KindLambda }

type CallExpr struct {
	Fn   Arg
	Args []Arg
}

func (CallExpr) ExprKind() ExprKind { return KindCallExpr }

type Fix struct {
	Fn   string // node id of the wrapped fn([T],T)
	Type typesys.T
}

func (Fix) ExprKind() ExprKind { return KindFix }

type Do struct {
	Exprs []Arg
}

func (Do) ExprKind() ExprKind { return KindDo }

// --- EIR ---

type Seq struct {
	Exprs []Arg
}

func (Seq) ExprKind() ExprKind { return KindSeq }

type Assign struct {
	Target string
	Value  Arg
}

func (Assign) ExprKind() ExprKind { return KindAssign }

type While struct {
	Cond Arg
	Body Arg
}

func (While) ExprKind() ExprKind { return KindWhile }

type For struct {
	Var    string
	Init   Arg
	Cond   Arg
	Update Arg
	Body   Arg
}

func (For) ExprKind() ExprKind { return KindFor }

type Iter struct {
	Var  string
	Iter Arg
	Body Arg
}

func (Iter) ExprKind() ExprKind { return KindIter }

type Effect struct {
	Op   string
	Args []Arg
}

func (Effect) ExprKind() ExprKind { return KindEffect }

type RefCellExpr struct {
	Target string
}

func (RefCellExpr) ExprKind() ExprKind { return KindRefCell }

type Deref struct {
	Target string
}

func (Deref) ExprKind() ExprKind { return KindDeref }

type Try struct {
	TryBody    Arg
	CatchParam string
	CatchBody  Arg
	Fallback   *Arg
}

func (Try) ExprKind() ExprKind { return KindTry }

// --- Async ---

type Par struct {
	Branches []string
}

func (Par) ExprKind() ExprKind { return KindPar }

type Spawn struct {
	Task string
}

func (Spawn) ExprKind() ExprKind { return KindSpawn }

type Await struct {
	Future      Arg
	Timeout     *Arg
	Fallback    *Arg
	ReturnIndex bool
}

func (Await) ExprKind() ExprKind { return KindAwait }

type ChannelExpr struct {
	ChannelType typesys.ChannelKind
	BufferSize  *int
}

func (ChannelExpr) ExprKind() ExprKind { return KindChannel }

type Send struct {
	Channel Arg
	Value   Arg
}

func (Send) ExprKind() ExprKind { return KindSend }

type Recv struct {
	Channel Arg
}

func (Recv) ExprKind() ExprKind { return KindRecv }

type Select struct {
	Futures     []Arg
	Timeout     *Arg
	Fallback    *Arg
	ReturnIndex bool
}

func (Select) ExprKind() ExprKind { return KindSelect }

type Race struct {
	Tasks []string
}

func (Race) ExprKind() ExprKind { return KindRace }
