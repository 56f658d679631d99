package doc

// MapArgs returns a copy of e with every direct child Arg replaced by
// f(arg); it does not recurse into f's result. Combined with a bottom-up
// fold (see Rewrite below) this is how SPIRAL rewrites expression trees
// without relying on mutation through an interface-held struct copy.
func MapArgs(e Expr, f func(Arg) Arg) Expr {
	switch v := e.(type) {
	case Lit, Ref, Var, AirRef, Spawn, Par, Race, RefCellExpr, Deref, ChannelExpr, Fix:
		return e
	case Call:
		v.Args = mapSlice(v.Args, f)
		return v
	case If:
		v.Cond, v.Then, v.Else = f(v.Cond), f(v.Then), f(v.Else)
		return v
	case Let:
		v.Value, v.Body = f(v.Value), f(v.Body)
		return v
	case Predicate:
		v.Value = f(v.Value)
		return v
	case CallExpr:
		v.Fn = f(v.Fn)
		v.Args = mapSlice(v.Args, f)
		return v
	case Do:
		v.Exprs = mapSlice(v.Exprs, f)
		return v
	case Seq:
		v.Exprs = mapSlice(v.Exprs, f)
		return v
	case Assign:
		v.Value = f(v.Value)
		return v
	case While:
		v.Cond, v.Body = f(v.Cond), f(v.Body)
		return v
	case For:
		v.Init, v.Cond, v.Update, v.Body = f(v.Init), f(v.Cond), f(v.Update), f(v.Body)
		return v
	case Iter:
		v.Iter, v.Body = f(v.Iter), f(v.Body)
		return v
	case Effect:
		v.Args = mapSlice(v.Args, f)
		return v
	case Try:
		v.TryBody, v.CatchBody = f(v.TryBody), f(v.CatchBody)
		if v.Fallback != nil {
			fb := f(*v.Fallback)
			v.Fallback = &fb
		}
		return v
	case Await:
		v.Future = f(v.Future)
		if v.Timeout != nil {
			t := f(*v.Timeout)
			v.Timeout = &t
		}
		if v.Fallback != nil {
			fb := f(*v.Fallback)
			v.Fallback = &fb
		}
		return v
	case Send:
		v.Channel, v.Value = f(v.Channel), f(v.Value)
		return v
	case Recv:
		v.Channel = f(v.Channel)
		return v
	case Select:
		v.Futures = mapSlice(v.Futures, f)
		if v.Timeout != nil {
			t := f(*v.Timeout)
			v.Timeout = &t
		}
		if v.Fallback != nil {
			fb := f(*v.Fallback)
			v.Fallback = &fb
		}
		return v
	default:
		return e
	}
}

func mapSlice(args []Arg, f func(Arg) Arg) []Arg {
	if args == nil {
		return nil
	}
	out := make([]Arg, len(args))
	for i, a := range args {
		out[i] = f(a)
	}
	return out
}

// ChildExprs returns the inline (non-ID) expressions directly nested
// under e, for read-only traversal (layer admissibility scanning, the
// AIR recursion detector).
func ChildExprs(e Expr) []Expr {
	var out []Expr
	MapArgs(e, func(a Arg) Arg {
		if a.IsInline() {
			out = append(out, a.Inline)
		}
		return a
	})
	return out
}

// Rewrite applies f bottom-up (post-order) over e and every inline
// expression reachable through it, returning a new expression tree. f
// sees each node after its children have already been rewritten.
func Rewrite(e Expr, f func(Expr) Expr) Expr {
	rewritten := MapArgs(e, func(a Arg) Arg {
		if a.IsInline() {
			return ArgExpr(Rewrite(a.Inline, f))
		}
		return a
	})
	return f(rewritten)
}

// Walk visits e and every inline expression reachable through it,
// pre-order, for read-only scans (layer admissibility, recursion
// detection).
func Walk(e Expr, visit func(Expr)) {
	visit(e)
	for _, c := range ChildExprs(e) {
		Walk(c, visit)
	}
}
