package doc

import (
	"encoding/json"
	"fmt"

	"github.com/spiralir/spiral/internal/typesys"
)

// --- Arg ---

func (a Arg) MarshalJSON() ([]byte, error) {
	if a.IsID() {
		return json.Marshal(a.ID)
	}
	return marshalExpr(a.Inline)
}

func (a *Arg) UnmarshalJSON(data []byte) error {
	var asStr string
	if err := json.Unmarshal(data, &asStr); err == nil {
		*a = Arg{ID: asStr}
		return nil
	}
	e, err := unmarshalExpr(data)
	if err != nil {
		return err
	}
	*a = Arg{Inline: e}
	return nil
}

// --- Expr wire format: {"kind": "...", ...fields} ---

type exprEnvelope struct {
	Kind ExprKind `json:"kind"`
}

func marshalExpr(e Expr) ([]byte, error) {
	if e == nil {
		return json.Marshal(nil)
	}
	kind := e.ExprKind()
	body, err := json.Marshal(e)
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, err
	}
	kindRaw, err := json.Marshal(kind)
	if err != nil {
		return nil, err
	}
	m["kind"] = kindRaw
	return json.Marshal(m)
}

func unmarshalExpr(data []byte) (Expr, error) {
	var env exprEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	switch env.Kind {
	case KindLit:
		var e Lit
		err := json.Unmarshal(data, &e)
		return e, err
	case KindRef:
		var e Ref
		err := json.Unmarshal(data, &e)
		return e, err
	case KindVar:
		var e Var
		err := json.Unmarshal(data, &e)
		return e, err
	case KindCall:
		var e Call
		err := json.Unmarshal(data, &e)
		return e, err
	case KindIf:
		var e If
		err := json.Unmarshal(data, &e)
		return e, err
	case KindLet:
		var e Let
		err := json.Unmarshal(data, &e)
		return e, err
	case KindAirRef:
		var e AirRef
		err := json.Unmarshal(data, &e)
		return e, err
	case KindPredicate:
		var e Predicate
		err := json.Unmarshal(data, &e)
		return e, err
	case KindLambda:
		var e Lambda
		err := json.Unmarshal(data, &e)
		return e, err
	case KindCallExpr:
		var e CallExpr
		err := json.Unmarshal(data, &e)
		return e, err
	case KindFix:
		var e Fix
		err := json.Unmarshal(data, &e)
		return e, err
	case KindDo:
		var e Do
		err := json.Unmarshal(data, &e)
		return e, err
	case KindSeq:
		var e Seq
		err := json.Unmarshal(data, &e)
		return e, err
	case KindAssign:
		var e Assign
		err := json.Unmarshal(data, &e)
		return e, err
	case KindWhile:
		var e While
		err := json.Unmarshal(data, &e)
		return e, err
	case KindFor:
		var e For
		err := json.Unmarshal(data, &e)
		return e, err
	case KindIter:
		var e Iter
		err := json.Unmarshal(data, &e)
		return e, err
	case KindEffect:
		var e Effect
		err := json.Unmarshal(data, &e)
		return e, err
	case KindRefCell:
		var e RefCellExpr
		err := json.Unmarshal(data, &e)
		return e, err
	case KindDeref:
		var e Deref
		err := json.Unmarshal(data, &e)
		return e, err
	case KindTry:
		var e Try
		err := json.Unmarshal(data, &e)
		return e, err
	case KindPar:
		var e Par
		err := json.Unmarshal(data, &e)
		return e, err
	case KindSpawn:
		var e Spawn
		err := json.Unmarshal(data, &e)
		return e, err
	case KindAwait:
		var e Await
		err := json.Unmarshal(data, &e)
		return e, err
	case KindChannel:
		var e ChannelExpr
		err := json.Unmarshal(data, &e)
		return e, err
	case KindSend:
		var e Send
		err := json.Unmarshal(data, &e)
		return e, err
	case KindRecv:
		var e Recv
		err := json.Unmarshal(data, &e)
		return e, err
	case KindSelect:
		var e Select
		err := json.Unmarshal(data, &e)
		return e, err
	case KindRace:
		var e Race
		err := json.Unmarshal(data, &e)
		return e, err
	default:
		return nil, fmt.Errorf("doc: unknown expression kind %q", env.Kind)
	}
}

// --- Node ---

type nodeWire struct {
	ID     NodeID          `json:"id"`
	Ref    string          `json:"$ref,omitempty"`
	Expr   json.RawMessage `json:"expr,omitempty"`
	Type   *typesys.T      `json:"type,omitempty"`
	Blocks []Block         `json:"blocks,omitempty"`
	Entry  NodeID          `json:"entry,omitempty"`
}

func (n Node) MarshalJSON() ([]byte, error) {
	w := nodeWire{ID: n.ID, Ref: n.Ref, Type: n.Type, Blocks: n.Blocks, Entry: n.Entry}
	if n.Expr != nil {
		raw, err := marshalExpr(n.Expr)
		if err != nil {
			return nil, err
		}
		w.Expr = raw
	}
	return json.Marshal(w)
}

func (n *Node) UnmarshalJSON(data []byte) error {
	var w nodeWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	n.ID = w.ID
	n.Ref = w.Ref
	n.Type = w.Type
	n.Blocks = w.Blocks
	n.Entry = w.Entry
	if len(w.Expr) > 0 {
		e, err := unmarshalExpr(w.Expr)
		if err != nil {
			return err
		}
		n.Expr = e
	}
	return nil
}

// --- Instruction / Terminator wire formats ---

type instrEnvelope struct {
	Kind InstrKind `json:"kind"`
}

func marshalInstr(i Instruction) ([]byte, error) {
	body, err := json.Marshal(i)
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, err
	}
	kindRaw, _ := json.Marshal(i.InstrKind())
	m["kind"] = kindRaw
	return json.Marshal(m)
}

func unmarshalInstr(data []byte) (Instruction, error) {
	var env instrEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	switch env.Kind {
	case InstrAssign:
		var w struct {
			Target string          `json:"target"`
			Value  json.RawMessage `json:"value"`
		}
		if err := json.Unmarshal(data, &w); err != nil {
			return nil, err
		}
		e, err := unmarshalExpr(w.Value)
		if err != nil {
			return nil, err
		}
		return IAssign{Target: w.Target, Value: e}, nil
	case InstrOp:
		var v IOp
		err := json.Unmarshal(data, &v)
		return v, err
	case InstrPhi:
		var v IPhi
		err := json.Unmarshal(data, &v)
		return v, err
	case InstrEffect:
		var v IEffect
		err := json.Unmarshal(data, &v)
		return v, err
	case InstrAssignRef:
		var v IAssignRef
		err := json.Unmarshal(data, &v)
		return v, err
	case InstrSpawn:
		var v ISpawn
		err := json.Unmarshal(data, &v)
		return v, err
	case InstrChannelOp:
		var v IChannelOp
		err := json.Unmarshal(data, &v)
		return v, err
	case InstrAwait:
		var v IAwait
		err := json.Unmarshal(data, &v)
		return v, err
	default:
		return nil, fmt.Errorf("doc: unknown instruction kind %q", env.Kind)
	}
}

type termEnvelope struct {
	Kind TermKind `json:"kind"`
}

func marshalTerm(t Terminator) ([]byte, error) {
	body, err := json.Marshal(t)
	if err != nil {
		return nil, err
	}
	var m map[string]json.RawMessage
	if err := json.Unmarshal(body, &m); err != nil {
		return nil, err
	}
	kindRaw, _ := json.Marshal(t.TermKind())
	m["kind"] = kindRaw
	return json.Marshal(m)
}

func unmarshalTerm(data []byte) (Terminator, error) {
	var env termEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, err
	}
	switch env.Kind {
	case TermJump:
		var v TJump
		err := json.Unmarshal(data, &v)
		return v, err
	case TermBranch:
		var v TBranch
		err := json.Unmarshal(data, &v)
		return v, err
	case TermReturn:
		var v TReturn
		err := json.Unmarshal(data, &v)
		return v, err
	case TermExit:
		var v TExit
		err := json.Unmarshal(data, &v)
		return v, err
	case TermFork:
		var v TFork
		err := json.Unmarshal(data, &v)
		return v, err
	case TermJoin:
		var v TJoin
		err := json.Unmarshal(data, &v)
		return v, err
	case TermSuspend:
		var v TSuspend
		err := json.Unmarshal(data, &v)
		return v, err
	default:
		return nil, fmt.Errorf("doc: unknown terminator kind %q", env.Kind)
	}
}

// --- Block ---

type blockWire struct {
	ID           BlockID           `json:"id"`
	Instructions []json.RawMessage `json:"instructions"`
	Terminator   json.RawMessage   `json:"terminator"`
}

func (b Block) MarshalJSON() ([]byte, error) {
	w := blockWire{ID: b.ID}
	for _, instr := range b.Instructions {
		raw, err := marshalInstr(instr)
		if err != nil {
			return nil, err
		}
		w.Instructions = append(w.Instructions, raw)
	}
	if b.Terminator != nil {
		raw, err := marshalTerm(b.Terminator)
		if err != nil {
			return nil, err
		}
		w.Terminator = raw
	}
	return json.Marshal(w)
}

func (b *Block) UnmarshalJSON(data []byte) error {
	var w blockWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	b.ID = w.ID
	for _, raw := range w.Instructions {
		instr, err := unmarshalInstr(raw)
		if err != nil {
			return err
		}
		b.Instructions = append(b.Instructions, instr)
	}
	if len(w.Terminator) > 0 {
		term, err := unmarshalTerm(w.Terminator)
		if err != nil {
			return err
		}
		b.Terminator = term
	}
	return nil
}

// --- AIRDef ---

type airDefWire struct {
	NS     string          `json:"ns"`
	Name   string          `json:"name"`
	Params []string        `json:"params"`
	Result typesys.T       `json:"result"`
	Body   json.RawMessage `json:"body"`
}

func (d AIRDef) MarshalJSON() ([]byte, error) {
	bodyRaw, err := marshalExpr(d.Body)
	if err != nil {
		return nil, err
	}
	return json.Marshal(airDefWire{NS: d.NS, Name: d.Name, Params: d.Params, Result: d.Result, Body: bodyRaw})
}

func (d *AIRDef) UnmarshalJSON(data []byte) error {
	var w airDefWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	body, err := unmarshalExpr(w.Body)
	if err != nil {
		return err
	}
	d.NS, d.Name, d.Params, d.Result, d.Body = w.NS, w.Name, w.Params, w.Result, body
	return nil
}

// --- Document ---

type documentWire struct {
	Version      string               `json:"version"`
	Capabilities []string             `json:"capabilities,omitempty"`
	FunctionSigs map[string]typesys.T `json:"functionSigs,omitempty"`
	AirDefs      []AIRDef             `json:"airDefs,omitempty"`
	Nodes        []Node               `json:"nodes"`
	Result       NodeID               `json:"result"`
}

func (d Document) MarshalJSON() ([]byte, error) {
	return json.Marshal(documentWire(d))
}

func (d *Document) UnmarshalJSON(data []byte) error {
	var w documentWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	*d = Document(w)
	return nil
}

// ParseDocument parses a SPIRAL document from its canonical JSON form.
func ParseDocument(data []byte) (*Document, error) {
	var d Document
	if err := json.Unmarshal(data, &d); err != nil {
		return nil, err
	}
	return &d, nil
}
