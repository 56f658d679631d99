// Package spiral is the public facade over the SPIRAL intermediate
// representation system: parsing/validating documents, desugaring AIR,
// type-checking, evaluating, lowering EIR to LIR, and running async
// programs against a task scheduler. It wires the internal/* packages
// the way the teacher's root package wires its domain/executor/storage
// packages behind a handful of factory functions.
package spiral

import (
	"context"

	"github.com/rs/zerolog"

	"github.com/spiralir/spiral/internal/config"
	"github.com/spiralir/spiral/internal/desugar"
	"github.com/spiralir/spiral/internal/doc"
	"github.com/spiralir/spiral/internal/eval"
	"github.com/spiralir/spiral/internal/lower"
	"github.com/spiralir/spiral/internal/obs"
	"github.com/spiralir/spiral/internal/registry"
	"github.com/spiralir/spiral/internal/resolver"
	"github.com/spiralir/spiral/internal/scheduler"
	"github.com/spiralir/spiral/internal/typecheck"
	"github.com/spiralir/spiral/internal/value"
)

// Document is the parsed SPIRAL IR document (spec.md §3).
type Document = doc.Document

// V is a SPIRAL runtime value.
type V = value.V

// Session owns everything a sequence of document evaluations needs: the
// operator registry, the $ref loader/cache, the logger and an optional
// event stream; it holds no scheduler of its own (NewEagerScheduler
// returns a fresh one on each call). One Session is meant to be
// reused across many ParseDocument/Evaluate calls, the way the teacher's
// Executor is built once and reused across many workflow runs.
type Session struct {
	cfg      *config.Config
	registry *registry.Registry
	loader   *resolver.Loader
	logger   zerolog.Logger
	stream   *obs.StreamObserver
}

// NewSession builds a Session with the core operator registry and a
// resolver loader with the loader's own defaults (stdlib directory
// "stdlib", depth limit 10); cfg.StdlibDir and cfg.ResolverMaxDepth are
// not applied to the loader. Passing nil loads config.Load()'s defaults.
func NewSession(cfg *config.Config) *Session {
	if cfg == nil {
		cfg = config.Load()
	}
	reg := registry.New()
	registry.RegisterCore(reg)

	logger := obs.NewLogger(cfg.LogLevel)

	return &Session{
		cfg:      cfg,
		registry: reg,
		loader:   resolver.NewLoader(),
		logger:   logger,
	}
}

// Registry exposes the session's operator registry so callers can
// register additional namespaces before evaluating documents.
func (s *Session) Registry() *registry.Registry { return s.registry }

// ParseDocument decodes raw JSON into a Document (spec.md §6).
func ParseDocument(data []byte) (*Document, error) {
	return doc.ParseDocument(data)
}

// Desugar rewrites every airDef/airRef pair in d into a lambda node plus
// a callExpr reference (spec.md §4.4).
func (s *Session) Desugar(d *Document) (*Document, error) {
	return desugar.Desugar(d)
}

// TypeCheck runs the layered type checker over d (spec.md §4.5). Callers
// that have AIR definitions should pass d.Defs(); a desugared document
// has none.
func (s *Session) TypeCheck(d *Document) (*typecheck.Result, error) {
	return typecheck.CheckProgram(d, s.registry, d.Defs())
}

// Lower converts d's EIR result node into LIR basic blocks (spec.md §4.8).
func (s *Session) Lower(d *Document) (*Document, error) {
	return lower.Lower(d)
}

// Evaluate runs d's synchronous (AIR/CIR) result expression to a value
// (spec.md §4.7). Async/EIR-only constructs are not evaluated here; the
// evaluator returns an error value for them.
func (s *Session) Evaluate(d *Document) V {
	return eval.New(d, s.registry, d.Defs()).
		WithStepBudget(s.cfg.EvalStepBudget).
		EvaluateProgram()
}

// EnableStream starts a StreamObserver and returns its HTTP handler, for
// callers that want to expose a live task/channel/effect event feed
// (SPEC_FULL supplement #2). The returned observer must be wired into
// whatever scheduler/evaluator the caller drives; Session itself only
// owns its lifecycle.
func (s *Session) EnableStream() *obs.StreamObserver {
	s.stream = obs.NewStreamObserver(s.logger)
	go s.stream.Run()
	return s.stream
}

// NewEagerScheduler returns the default scheduler for running async
// programs (spec.md §4.10), tuned from the session's config.
func (s *Session) NewEagerScheduler() *scheduler.EagerScheduler {
	return scheduler.NewEagerScheduler().
		WithYieldInterval(s.cfg.YieldInterval).
		WithGlobalMaxSteps(s.cfg.GlobalMaxSteps).
		WithLogger(s.logger)
}

// Resolve navigates a $ref URI against localRoot and the session's
// external-document cache (spec.md §4.6).
func (s *Session) Resolve(localRoot any, uri string, chain []string) (any, error) {
	return s.loader.Resolve(localRoot, uri, chain)
}

// Logger exposes the session's structured logger.
func (s *Session) Logger() zerolog.Logger { return s.logger }

// Background is a convenience re-export so callers driving async
// evaluation don't need to import "context" just for this one call.
func Background() context.Context { return context.Background() }
