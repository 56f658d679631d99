package registry

import (
	"github.com/spiralir/spiral/internal/typesys"
	"github.com/spiralir/spiral/internal/value"
)

// RegisterCore installs the "core" namespace operators exercised by
// spec.md's evaluator laws and end-to-end scenarios (§8): arithmetic,
// boolean algebra, and equality. Real-world domain operators (strings,
// collections, I/O) are an external collaborator's concern (spec.md §1);
// this is deliberately the minimal "test fixture" registry the checker
// and evaluator suites register against, per §4.2 ("test suites register
// mock operators to check the rest of the system in isolation").
func RegisterCore(r *Registry) {
	binInt := func(name string, fn func(a, b int64) value.V) {
		r.Register(Operator{NS: "core", Name: name, Pure: true,
			Params:  []typesys.T{typesys.Int(), typesys.Int()},
			Returns: typesys.Int(),
			Fn: func(args ...value.V) value.V {
				a, b := args[0], args[1]
				if a.Kind != value.KindInt || b.Kind != value.KindInt {
					return value.Err("TypeError", "core:"+name+" expects int arguments", nil)
				}
				return fn(a.Int, b.Int)
			}})
	}

	binInt("add", func(a, b int64) value.V { return value.Int(a + b) })
	binInt("sub", func(a, b int64) value.V { return value.Int(a - b) })
	binInt("mul", func(a, b int64) value.V { return value.Int(a * b) })
	binInt("div", func(a, b int64) value.V {
		if b == 0 {
			return value.Err("DivideByZero", "core:div by zero", nil)
		}
		return value.Int(a / b)
	})
	binInt("mod", func(a, b int64) value.V {
		if b == 0 {
			return value.Err("DivideByZero", "core:mod by zero", nil)
		}
		return value.Int(a % b)
	})

	binBool := func(name string, fn func(a, b bool) bool) {
		r.Register(Operator{NS: "core", Name: name, Pure: true,
			Params:  []typesys.T{typesys.Bool(), typesys.Bool()},
			Returns: typesys.Bool(),
			Fn: func(args ...value.V) value.V {
				a, b := args[0], args[1]
				if a.Kind != value.KindBool || b.Kind != value.KindBool {
					return value.Err("TypeError", "core:"+name+" expects bool arguments", nil)
				}
				return value.Bool(fn(a.Bool, b.Bool))
			}})
	}
	binBool("and", func(a, b bool) bool { return a && b })
	binBool("or", func(a, b bool) bool { return a || b })
	binBool("xor", func(a, b bool) bool { return a != b })

	r.Register(Operator{NS: "core", Name: "not", Pure: true,
		Params:  []typesys.T{typesys.Bool()},
		Returns: typesys.Bool(),
		Fn: func(args ...value.V) value.V {
			a := args[0]
			if a.Kind != value.KindBool {
				return value.Err("TypeError", "core:not expects a bool argument", nil)
			}
			return value.Bool(!a.Bool)
		}})

	r.Register(Operator{NS: "core", Name: "eq", Pure: true,
		Params:  []typesys.T{typesys.Int(), typesys.Int()},
		Returns: typesys.Bool(),
		Fn: func(args ...value.V) value.V {
			return value.Bool(value.Equal(args[0], args[1]))
		}})

	r.Register(Operator{NS: "core", Name: "lt", Pure: true,
		Params:  []typesys.T{typesys.Int(), typesys.Int()},
		Returns: typesys.Bool(),
		Fn: func(args ...value.V) value.V {
			a, b := args[0], args[1]
			if a.Kind != value.KindInt || b.Kind != value.KindInt {
				return value.Err("TypeError", "core:lt expects int arguments", nil)
			}
			return value.Bool(a.Int < b.Int)
		}})
}
