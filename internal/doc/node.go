package doc

import "github.com/spiralir/spiral/internal/typesys"

// Node is the hybrid node type (spec.md §3): an expression node, a block
// node, or a $ref node. Exactly one of {Expr != nil}, {len(Blocks) > 0 ||
// Entry != ""}, {Ref != ""} should hold; callers should use the Is*
// predicates rather than inspecting fields directly.
type Node struct {
	ID NodeID

	Ref string // non-empty => this is a $ref node

	Expr Expr // non-nil => this is an expression node
	Type *typesys.T

	Blocks []Block // non-empty => this is a block node
	Entry  NodeID
}

func (n *Node) IsRef() bool   { return n.Ref != "" }
func (n *Node) IsBlock() bool { return len(n.Blocks) > 0 || n.Entry != "" }
func (n *Node) IsExpr() bool  { return n.Expr != nil }

// BlockID is the identifier of a basic block, conventionally "bb0", "bb1", …
type BlockID string

// Block is a basic block: a straight-line instruction list ending in
// exactly one terminator (spec.md §3, §4.8 invariant L2).
type Block struct {
	ID           BlockID
	Instructions []Instruction
	Terminator   Terminator
}

// InstrKind discriminates the basic-block instruction sum.
type InstrKind string

const (
	InstrAssign    InstrKind = "assign"
	InstrOp        InstrKind = "op"
	InstrPhi       InstrKind = "phi"
	InstrEffect    InstrKind = "effect"
	InstrAssignRef InstrKind = "assignRef"
	InstrSpawn     InstrKind = "spawn"
	InstrChannelOp InstrKind = "channelOp"
	InstrAwait     InstrKind = "await"
)

type Instruction interface {
	InstrKind() InstrKind
}

// IAssign assigns the result of evaluating a (CIR-layer, per L5) expression
// to target.
type IAssign struct {
	Target string
	Value  Expr
}

func (IAssign) InstrKind() InstrKind { return InstrAssign }

// IOp invokes a pure operator and binds its result to target.
type IOp struct {
	Target string
	NS     string
	Name   string
	Args   []string
}

func (IOp) InstrKind() InstrKind { return InstrOp }

// PhiSource is one (predecessor block, value id) pair of a phi node.
type PhiSource struct {
	Block BlockID
	ID    string
}

type IPhi struct {
	Target  string
	Sources []PhiSource
}

func (IPhi) InstrKind() InstrKind { return InstrPhi }

// IEffect lowers an EIR effect{op,args} expression.
type IEffect struct {
	Target string // optional; empty means discarded
	Op     string
	Args   []string
}

func (IEffect) InstrKind() InstrKind { return InstrEffect }

// IAssignRef lowers refCell{target} bookkeeping.
type IAssignRef struct {
	Target string
	Value  string
}

func (IAssignRef) InstrKind() InstrKind { return InstrAssignRef }

// ISpawn lowers spawn{task} at the basic-block level (used by the richer
// fork/join lowering; the default lowering instead emits an IEffect).
type ISpawn struct {
	Target string
	Entry  BlockID
	Args   []string
}

func (ISpawn) InstrKind() InstrKind { return InstrSpawn }

// ChannelOpKind enumerates the four channel instruction forms.
type ChannelOpKind string

const (
	ChanSend    ChannelOpKind = "send"
	ChanRecv    ChannelOpKind = "recv"
	ChanTrySend ChannelOpKind = "trySend"
	ChanTryRecv ChannelOpKind = "tryRecv"
)

type IChannelOp struct {
	Op      ChannelOpKind
	Target  string // optional
	Channel string
	Value   string // optional, for send/trySend
}

func (IChannelOp) InstrKind() InstrKind { return InstrChannelOp }

type IAwait struct {
	Target string
	Future string
}

func (IAwait) InstrKind() InstrKind { return InstrAwait }

// TermKind discriminates the terminator sum.
type TermKind string

const (
	TermJump    TermKind = "jump"
	TermBranch  TermKind = "branch"
	TermReturn  TermKind = "return"
	TermExit    TermKind = "exit"
	TermFork    TermKind = "fork"
	TermJoin    TermKind = "join"
	TermSuspend TermKind = "suspend"
)

type Terminator interface {
	TermKind() TermKind
}

type TJump struct {
	To BlockID
}

func (TJump) TermKind() TermKind { return TermJump }

type TBranch struct {
	Cond string
	Then BlockID
	Else BlockID
}

func (TBranch) TermKind() TermKind { return TermBranch }

type TReturn struct {
	Value string // optional
}

func (TReturn) TermKind() TermKind { return TermReturn }

type TExit struct {
	Code *int
}

func (TExit) TermKind() TermKind { return TermExit }

// ForkBranch is one (entry block, spawned task id) pair of a fork terminator.
type ForkBranch struct {
	Block  BlockID
	TaskID string
}

type TFork struct {
	Branches     []ForkBranch
	Continuation BlockID
}

func (TFork) TermKind() TermKind { return TermFork }

type TJoin struct {
	Tasks   []string
	Results string // optional target name collecting branch results
	To      BlockID
}

func (TJoin) TermKind() TermKind { return TermJoin }

type TSuspend struct {
	Future      string
	ResumeBlock BlockID
}

func (TSuspend) TermKind() TermKind { return TermSuspend }
