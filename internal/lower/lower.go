// Package lower implements EIR→LIR lowering (spec.md §4.8, components J/K):
// converting an EIR expression graph into a single basic-block-form node
// with a freshly numbered block list (bb0, bb1, …), one block per
// sequencing point, every block ending in exactly one terminator.
package lower

import (
	"fmt"
	"strconv"

	"github.com/spiralir/spiral/internal/doc"
	"github.com/spiralir/spiral/internal/spiralerr"
)

type ctx struct {
	d         *doc.Document
	order     []doc.BlockID
	blocks    map[doc.BlockID]*doc.Block
	curID     doc.BlockID
	nextBlock int
	nextTemp  int
}

func newCtx(d *doc.Document) *ctx {
	return &ctx{d: d, blocks: make(map[doc.BlockID]*doc.Block)}
}

func (c *ctx) newBlock() doc.BlockID {
	id := doc.BlockID(fmt.Sprintf("bb%d", c.nextBlock))
	c.nextBlock++
	c.blocks[id] = &doc.Block{ID: id}
	c.order = append(c.order, id)
	return id
}

func (c *ctx) switchTo(id doc.BlockID) { c.curID = id }

func (c *ctx) emit(instr doc.Instruction) {
	b := c.blocks[c.curID]
	b.Instructions = append(b.Instructions, instr)
}

func (c *ctx) terminate(t doc.Terminator) {
	c.blocks[c.curID].Terminator = t
}

func (c *ctx) temp() string {
	s := fmt.Sprintf("__t%d", c.nextTemp)
	c.nextTemp++
	return s
}

func (c *ctx) finalBlocks() []doc.Block {
	out := make([]doc.Block, len(c.order))
	for i, id := range c.order {
		out[i] = *c.blocks[id]
	}
	return out
}

// Lower converts d's result node (an EIR expression, possibly reached
// through nested nodes) into LIR basic blocks and returns a new Document
// whose copy of the node list has the result node replaced; d itself is
// not modified, and the document's Result id is unchanged (spec.md §8: "lower(D).result ==
// D.result").
func Lower(d *doc.Document) (*doc.Document, error) {
	index := d.Index()
	n, ok := index[d.Result]
	if !ok {
		return nil, spiralerr.Newf(spiralerr.ValidationError, "result node %q not found", d.Result)
	}
	if !n.IsExpr() {
		return nil, spiralerr.Newf(spiralerr.ValidationError, "result node %q is not an expression node", d.Result)
	}

	c := newCtx(d)
	entry := c.newBlock()
	c.switchTo(entry)
	resultID, err := lowerExpr(n.Expr, c)
	if err != nil {
		return nil, err
	}
	c.terminate(doc.TReturn{Value: resultID})

	newNodes := make([]doc.Node, len(d.Nodes))
	copy(newNodes, d.Nodes)
	for i := range newNodes {
		if newNodes[i].ID == d.Result {
			newNodes[i] = doc.Node{ID: d.Result, Entry: doc.NodeID(entry), Blocks: c.finalBlocks()}
			break
		}
	}

	out := &doc.Document{
		Version:      d.Version,
		Capabilities: d.Capabilities,
		FunctionSigs: d.FunctionSigs,
		AirDefs:      d.AirDefs,
		Nodes:        newNodes,
		Result:       d.Result,
	}
	return out, nil
}

func lowerArg(a doc.Arg, c *ctx) (string, error) {
	if a.IsID() {
		return a.ID, nil
	}
	return lowerExpr(a.Inline, c)
}

func lowerArgs(args []doc.Arg, c *ctx) ([]string, error) {
	ids := make([]string, len(args))
	for i, a := range args {
		id, err := lowerArg(a, c)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}

func voidTemp(c *ctx) string {
	t := c.temp()
	c.emit(doc.IAssign{Target: t, Value: doc.Lit{}})
	return t
}

func lowerExpr(e doc.Expr, c *ctx) (string, error) {
	switch v := e.(type) {
	case doc.Lit:
		t := c.temp()
		c.emit(doc.IAssign{Target: t, Value: v})
		return t, nil

	case doc.Ref:
		t := c.temp()
		c.emit(doc.IAssign{Target: t, Value: doc.Var{Name: v.ID}})
		return t, nil

	case doc.Var:
		return v.Name, nil

	case doc.Call:
		argIDs, err := lowerArgs(v.Args, c)
		if err != nil {
			return "", err
		}
		t := c.temp()
		c.emit(doc.IOp{Target: t, NS: v.NS, Name: v.Name, Args: argIDs})
		return t, nil

	case doc.If:
		return lowerIf(v, c)

	case doc.Let:
		valID, err := lowerArg(v.Value, c)
		if err != nil {
			return "", err
		}
		c.emit(doc.IAssign{Target: v.Name, Value: doc.Var{Name: valID}})
		body := c.newBlock()
		c.terminate(doc.TJump{To: body})
		c.switchTo(body)
		return lowerArg(v.Body, c)

	case doc.Seq:
		return lowerSeq(v.Exprs, c)

	case doc.Assign:
		valID, err := lowerArg(v.Value, c)
		if err != nil {
			return "", err
		}
		c.emit(doc.IAssign{Target: v.Target, Value: doc.Var{Name: valID}})
		return v.Target, nil

	case doc.While:
		return lowerWhile(v, c)

	case doc.For:
		return lowerFor(v, c)

	case doc.Iter:
		return lowerIter(v, c)

	case doc.Effect:
		argIDs, err := lowerArgs(v.Args, c)
		if err != nil {
			return "", err
		}
		t := c.temp()
		c.emit(doc.IEffect{Target: t, Op: v.Op, Args: argIDs})
		return t, nil

	case doc.RefCellExpr:
		c.emit(doc.IAssignRef{Target: v.Target, Value: v.Target})
		return v.Target, nil

	case doc.Deref:
		t := c.temp()
		c.emit(doc.IAssign{Target: t, Value: doc.Var{Name: v.Target + "_ref"}})
		return t, nil

	case doc.Try:
		return lowerTry(v, c)

	// Async
	case doc.Spawn:
		t := c.temp()
		c.emit(doc.IEffect{Target: t, Op: "spawn", Args: []string{v.Task}})
		return t, nil

	case doc.Await:
		args := []string{}
		futID, err := lowerArg(v.Future, c)
		if err != nil {
			return "", err
		}
		args = append(args, futID)
		if v.Timeout != nil {
			id, err := lowerArg(*v.Timeout, c)
			if err != nil {
				return "", err
			}
			args = append(args, id)
		}
		if v.Fallback != nil {
			id, err := lowerArg(*v.Fallback, c)
			if err != nil {
				return "", err
			}
			args = append(args, id)
		}
		t := c.temp()
		c.emit(doc.IEffect{Target: t, Op: "await", Args: args})
		return t, nil

	case doc.Par:
		t := c.temp()
		c.emit(doc.IEffect{Target: t, Op: "par", Args: v.Branches})
		return t, nil

	case doc.ChannelExpr:
		args := []string{string(v.ChannelType)}
		if v.BufferSize != nil {
			args = append(args, strconv.Itoa(*v.BufferSize))
		}
		t := c.temp()
		c.emit(doc.IEffect{Target: t, Op: "channel", Args: args})
		return t, nil

	case doc.Send:
		chID, err := lowerArg(v.Channel, c)
		if err != nil {
			return "", err
		}
		valID, err := lowerArg(v.Value, c)
		if err != nil {
			return "", err
		}
		c.emit(doc.IEffect{Op: "send", Args: []string{chID, valID}})
		return voidTemp(c), nil

	case doc.Recv:
		chID, err := lowerArg(v.Channel, c)
		if err != nil {
			return "", err
		}
		t := c.temp()
		c.emit(doc.IEffect{Target: t, Op: "recv", Args: []string{chID}})
		return t, nil

	case doc.Select:
		args, err := lowerArgs(v.Futures, c)
		if err != nil {
			return "", err
		}
		if v.Timeout != nil {
			id, err := lowerArg(*v.Timeout, c)
			if err != nil {
				return "", err
			}
			args = append(args, id)
		}
		if v.Fallback != nil {
			id, err := lowerArg(*v.Fallback, c)
			if err != nil {
				return "", err
			}
			args = append(args, id)
		}
		t := c.temp()
		c.emit(doc.IEffect{Target: t, Op: "select", Args: args})
		return t, nil

	case doc.Race:
		t := c.temp()
		c.emit(doc.IEffect{Target: t, Op: "race", Args: v.Tasks})
		return t, nil

	default:
		// AirRef/Predicate/Lambda/CallExpr/Fix/Do are CIR/AIR forms; a
		// document reaching the lowerer is expected to have been
		// desugared (internal/desugar) first.
		return "", spiralerr.Newf(spiralerr.ValidationError, "expression kind %q cannot be lowered directly; desugar first", e.ExprKind())
	}
}

func lowerSeq(exprs []doc.Arg, c *ctx) (string, error) {
	if len(exprs) == 0 {
		return voidTemp(c), nil
	}
	for i, a := range exprs {
		if i == len(exprs)-1 {
			return lowerArg(a, c)
		}
		if _, err := lowerArg(a, c); err != nil {
			return "", err
		}
		next := c.newBlock()
		c.terminate(doc.TJump{To: next})
		c.switchTo(next)
	}
	return "", nil // unreachable
}

func lowerIf(v doc.If, c *ctx) (string, error) {
	condID, err := lowerArg(v.Cond, c)
	if err != nil {
		return "", err
	}
	thenBlock, elseBlock, joinBlock := c.newBlock(), c.newBlock(), c.newBlock()
	c.terminate(doc.TBranch{Cond: condID, Then: thenBlock, Else: elseBlock})

	c.switchTo(thenBlock)
	thenVal, err := lowerArg(v.Then, c)
	if err != nil {
		return "", err
	}
	thenExit := c.curID
	c.terminate(doc.TJump{To: joinBlock})

	c.switchTo(elseBlock)
	elseVal, err := lowerArg(v.Else, c)
	if err != nil {
		return "", err
	}
	elseExit := c.curID
	c.terminate(doc.TJump{To: joinBlock})

	c.switchTo(joinBlock)
	target := c.temp()
	c.emit(doc.IPhi{Target: target, Sources: []doc.PhiSource{
		{Block: thenExit, ID: thenVal},
		{Block: elseExit, ID: elseVal},
	}})
	return target, nil
}

func lowerWhile(v doc.While, c *ctx) (string, error) {
	header := c.newBlock()
	c.terminate(doc.TJump{To: header})
	c.switchTo(header)
	condID, err := lowerArg(v.Cond, c)
	if err != nil {
		return "", err
	}
	body, exit := c.newBlock(), c.newBlock()
	c.terminate(doc.TBranch{Cond: condID, Then: body, Else: exit})

	c.switchTo(body)
	if _, err := lowerArg(v.Body, c); err != nil {
		return "", err
	}
	c.terminate(doc.TJump{To: header})

	c.switchTo(exit)
	return voidTemp(c), nil
}

func lowerFor(v doc.For, c *ctx) (string, error) {
	initID, err := lowerArg(v.Init, c)
	if err != nil {
		return "", err
	}
	c.emit(doc.IAssign{Target: v.Var, Value: doc.Var{Name: initID}})

	header := c.newBlock()
	c.terminate(doc.TJump{To: header})
	c.switchTo(header)
	condID, err := lowerArg(v.Cond, c)
	if err != nil {
		return "", err
	}
	body, update, exit := c.newBlock(), c.newBlock(), c.newBlock()
	c.terminate(doc.TBranch{Cond: condID, Then: body, Else: exit})

	c.switchTo(body)
	if _, err := lowerArg(v.Body, c); err != nil {
		return "", err
	}
	c.terminate(doc.TJump{To: update})

	c.switchTo(update)
	updID, err := lowerArg(v.Update, c)
	if err != nil {
		return "", err
	}
	c.emit(doc.IAssign{Target: v.Var, Value: doc.Var{Name: updID}})
	c.terminate(doc.TJump{To: header})

	c.switchTo(exit)
	return voidTemp(c), nil
}

func lowerIter(v doc.Iter, c *ctx) (string, error) {
	iterID, err := lowerArg(v.Iter, c)
	if err != nil {
		return "", err
	}
	header := c.newBlock()
	c.terminate(doc.TJump{To: header})
	c.switchTo(header)
	hasNext := c.temp()
	c.emit(doc.IEffect{Target: hasNext, Op: "iter:hasNext", Args: []string{iterID}})
	body, exit := c.newBlock(), c.newBlock()
	c.terminate(doc.TBranch{Cond: hasNext, Then: body, Else: exit})

	c.switchTo(body)
	next := c.temp()
	c.emit(doc.IEffect{Target: next, Op: "iter:next", Args: []string{iterID}})
	c.emit(doc.IAssign{Target: v.Var, Value: doc.Var{Name: next}})
	if _, err := lowerArg(v.Body, c); err != nil {
		return "", err
	}
	c.terminate(doc.TJump{To: header})

	c.switchTo(exit)
	return voidTemp(c), nil
}

func lowerTry(v doc.Try, c *ctx) (string, error) {
	tryVal, err := lowerArg(v.TryBody, c)
	if err != nil {
		return "", err
	}
	isErr := c.temp()
	c.emit(doc.IOp{Target: isErr, NS: "core", Name: "isError", Args: []string{tryVal}})
	tryExit := c.curID
	catchBlock, joinBlock := c.newBlock(), c.newBlock()
	c.terminate(doc.TBranch{Cond: isErr, Then: catchBlock, Else: joinBlock})

	c.switchTo(catchBlock)
	c.emit(doc.IAssign{Target: v.CatchParam, Value: doc.Var{Name: tryVal}})
	catchVal, err := lowerArg(v.CatchBody, c)
	if err != nil {
		return "", err
	}
	catchExit := c.curID
	c.terminate(doc.TJump{To: joinBlock})

	c.switchTo(joinBlock)
	target := c.temp()
	c.emit(doc.IPhi{Target: target, Sources: []doc.PhiSource{
		{Block: tryExit, ID: tryVal},
		{Block: catchExit, ID: catchVal},
	}})
	return target, nil
}
