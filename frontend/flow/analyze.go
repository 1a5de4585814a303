// Package flow computes the type of every reference at every point of a
// function, by running the narrowing rules over its control-flow graph
// until the environments of its blocks stop changing.
package flow

import (
	"cmp"
	"fmt"
	"log/slog"
	"slices"

	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/cfg"
	"github.com/cottand/narrow/frontend/guard"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/narrowing"
	"github.com/cottand/narrow/frontend/types"
	"github.com/cottand/narrow/internal/log"
)

// DefaultMaxPasses bounds the number of passes over a function before the
// analysis gives up with a failure
const DefaultMaxPasses = 100

// Probe is the type an expression had at a probe statement
type Probe struct {
	ast.Range
	Name string
	Type types.Type
}

func (p Probe) String() string {
	return fmt.Sprintf("%s: %v", p.Name, p.Type)
}

// Result is the outcome of analysing one function
type Result struct {
	Func   *cfg.Func
	Probes []Probe
	// Exit is the environment when the function returns normally
	Exit Env
	// Errors are the diagnostics of the function, ordered by position
	Errors *ilerr.Errors
	// Failures are internal errors, like the analysis not converging
	Failures []error
}

// Analyzer runs the flow analysis over functions of a program whose
// classes, aliases and predicates are in universe
type Analyzer struct {
	universe  *types.Universe
	rec       *guard.Recognizer
	logger    *slog.Logger
	MaxPasses int
}

func New(u *types.Universe) *Analyzer {
	return &Analyzer{
		universe:  u,
		rec:       guard.NewRecognizer(u),
		logger:    log.Section("flow"),
		MaxPasses: DefaultMaxPasses,
	}
}

// Analyze builds the control-flow graph of fn and analyses it
func (a *Analyzer) Analyze(fn *ast.Function) *Result {
	f, buildErrs := cfg.Build(fn, a.rec)
	res := a.AnalyzeFunc(f)
	res.Errors = dedup(buildErrs.Merge(res.Errors))
	return res
}

// AnalyzeFunc analyses a function whose graph was already built
func (a *Analyzer) AnalyzeFunc(f *cfg.Func) *Result {
	reporting := narrowing.New(a.universe)
	r := &run{
		Analyzer:    a,
		f:           f,
		narrower:    reporting.Silenced(),
		annotations: map[ast.Type]converted{},
		conds:       map[ast.Expr]recognised{},
		edges:       map[edge]Env{},
		cut:         map[*cfg.Block]bool{},
		logger:      a.logger.With("func", f.Name),
	}
	res := &Result{Func: f}
	if err := r.solve(); err != nil {
		res.Failures = append(res.Failures, err)
	}

	r.narrower = reporting
	r.reporting = true
	r.finalPass()

	res.Probes = r.probes
	res.Exit = r.in(f.Exit)
	res.Errors = dedup(r.errs.Merge(reporting.Errors()))
	r.logger.Debug("analysed", "errors", res.Errors, "exit", res.Exit)
	return res
}

type edge struct {
	from *cfg.Block
	succ int
}

type converted struct {
	t    types.Type
	errs *ilerr.Errors
}

type recognised struct {
	c    guard.Cond
	errs *ilerr.Errors
}

// run is the state of the analysis of one function. Diagnostics are only
// recorded once the environments are final, during the reporting pass
type run struct {
	*Analyzer
	f           *cfg.Func
	narrower    *narrowing.Narrower
	reporting   bool
	errs        *ilerr.Errors
	probes      []Probe
	annotations map[ast.Type]converted
	conds       map[ast.Expr]recognised
	edges       map[edge]Env
	// cut are the blocks whose trailing statements were reported as unreachable
	cut    map[*cfg.Block]bool
	logger *slog.Logger
}

func (r *run) report(errs ...ilerr.IleError) {
	if r.reporting {
		r.errs = r.errs.With(errs...)
	}
}

func (r *run) reportAll(errs *ilerr.Errors) {
	r.report(errs.Errors()...)
}

// annotation converts a type written in the program, once per node
func (r *run) annotation(t ast.Type) types.Type {
	c, ok := r.annotations[t]
	if !ok {
		c.t, c.errs = r.universe.FromAST(t)
		r.annotations[t] = c
	}
	r.reportAll(c.errs)
	return c.t
}

// condOf recognises the guards of a condition, once per node
func (r *run) condOf(e ast.Expr) guard.Cond {
	c, ok := r.conds[e]
	if !ok {
		c.c, c.errs = r.rec.FromExpr(e)
		r.conds[e] = c
	}
	r.reportAll(c.errs)
	return c.c
}

func (r *run) refine(env Env, c guard.Cond, branchTaken bool) Env {
	refined, errs := Refine(r.narrower, env, c, branchTaken)
	r.reportAll(errs)
	return refined
}

func (r *run) entry() Env {
	env := NewEnv()
	for _, p := range r.f.Params {
		t := r.annotation(p.Type)
		env = env.Declare(p.Name, t, t, false)
	}
	return env
}

// in joins the environments flowing into b along every edge computed so far
func (r *run) in(b *cfg.Block) Env {
	env := Unreachable()
	if b == r.f.Entry {
		env = r.entry()
	}
	for _, pred := range b.Preds {
		for i, succ := range pred.Succs {
			if succ != b {
				continue
			}
			if out, ok := r.edges[edge{pred, i}]; ok {
				env = Join(env, out)
			}
		}
	}
	return env
}

// solve iterates over the blocks in reverse post-order until no edge
// environment changes
func (r *run) solve() error {
	order := r.f.ReversePostOrder()
	for pass := 1; ; pass++ {
		changed := false
		for _, b := range order {
			for i, out := range r.transfer(b, r.in(b)) {
				key := edge{b, i}
				if old, ok := r.edges[key]; ok && old.Equal(out) {
					continue
				}
				r.edges[key] = out
				changed = true
			}
		}
		if !changed {
			r.logger.Debug("converged", "passes", pass)
			return nil
		}
		if pass >= r.MaxPasses {
			return fmt.Errorf("analysis of %s did not converge after %d passes", r.f.Name, pass)
		}
	}
}

// finalPass goes over every block once more with the final environments,
// recording diagnostics and probes
func (r *run) finalPass() {
	for _, b := range r.f.Blocks {
		r.transfer(b, r.in(b))
	}
	slices.SortStableFunc(r.probes, func(a, b Probe) int { return cmp.Compare(a.PosStart, b.PosStart) })
	r.reportUnreachable()
}

// transfer runs the statements of b from env, and returns the environment
// flowing along each of its successor edges
func (r *run) transfer(b *cfg.Block, env Env) []Env {
	outs := make([]Env, len(b.Succs))
	if env.unreachable {
		for i := range outs {
			outs[i] = env
		}
		return outs
	}
	for i, s := range b.Stmts {
		env = r.stmt(env, s)
		if env.unreachable && i+1 < len(b.Stmts) && r.reporting {
			r.report(ilerr.New(ilerr.NewUnreachableCode{Positioner: ast.RangeOf(b.Stmts[i+1])}))
			r.cut[b] = true
			break
		}
	}
	switch b.Kind {
	case cfg.BlockIf:
		outs[0] = r.refine(env, b.Cond, true)
		outs[1] = r.refine(env, b.Cond, false)
		return outs
	case cfg.BlockReturn, cfg.BlockThrow:
		if b.Value != nil {
			r.typeOf(env, b.Value)
		}
	}
	for i := range outs {
		outs[i] = env
	}
	return outs
}

func (r *run) stmt(env Env, s ast.Stmt) Env {
	if env.unreachable {
		return env
	}
	switch s := s.(type) {
	case *ast.Let:
		return r.let(env, s)
	case *ast.Assign:
		return r.assign(env, s)
	case *ast.Access:
		r.typeOf(env, s.X)
		return env
	case *ast.Assert:
		return r.refine(env, r.condOf(s.Cond), true)
	case *ast.Probe:
		r.probe(env, s)
		return env
	}
	panic(fmt.Sprintf("unexpected statement %T in a basic block", s))
}

func (r *run) let(env Env, s *ast.Let) Env {
	var value types.Type
	if s.Init != nil {
		value = r.typeOf(env, s.Init)
	}
	if s.Type == nil {
		if s.Init == nil {
			return env.Declare(s.Name, types.Any, types.Any, s.Const)
		}
		if !s.Const {
			value = types.Widen(value)
		}
		return env.Declare(s.Name, value, value, s.Const)
	}
	declared := r.annotation(s.Type)
	if s.Init == nil {
		return env.Declare(s.Name, declared, declared, s.Const)
	}
	return env.Declare(s.Name, declared, r.assigned(s, s.Name, declared, value), s.Const)
}

func (r *run) assign(env Env, s *ast.Assign) Env {
	value := r.typeOf(env, s.Value)
	b, ok := env.binding(s.Name)
	if !ok {
		_, err := env.resolve(s.Name, s)
		if err != nil {
			r.report(err)
		}
		return env
	}
	if b.isConst {
		r.report(ilerr.New(ilerr.NewConstAssignment{Positioner: s.Range, Name: s.Name}))
		return env
	}
	return env.Narrow(s.Name, r.assigned(s, s.Name, b.declared, value))
}

// assigned is the type of a reference declared as declared right after
// a value of type value is assigned to it: the declared members the value
// may be. Values out of the declared range are reported, and leave the
// reference with its declared type
func (r *run) assigned(at ast.Positioner, name string, declared, value types.Type) types.Type {
	if declared.IsAny() {
		return types.Any
	}
	if !types.Assignable(value, declared) {
		r.report(ilerr.New(ilerr.NewAssignmentOutOfDeclaredRange{
			Positioner: ast.RangeOf(at),
			Name:       name,
			Declared:   declared,
			Assigned:   value,
		}))
		return declared
	}
	if value.IsAny() {
		return declared
	}
	values := value.Members()
	return types.Filter(declared, func(d types.Member) bool {
		return slices.ContainsFunc(values, func(v types.Member) bool {
			return types.MemberAssignable(v, types.Of(d))
		})
	})
}

func (r *run) probe(env Env, s *ast.Probe) {
	t := r.typeOf(env, s.X)
	if !r.reporting {
		return
	}
	r.probes = append(r.probes, Probe{Range: s.Range, Name: s.X.String(), Type: t})
	if s.Expect == nil {
		return
	}
	if expected := r.annotation(s.Expect); !expected.Equal(t) {
		r.report(ilerr.New(ilerr.NewProbeMismatch{
			Positioner: s.Range,
			Name:       s.X.String(),
			Expected:   expected,
			Actual:     t,
		}))
	}
}

// reportUnreachable reports the first piece of code of every region of
// blocks that no path reaches
func (r *run) reportUnreachable() {
	unreachable := make(map[*cfg.Block]bool)
	for _, b := range r.f.Blocks {
		if b != r.f.Exit && r.in(b).unreachable {
			unreachable[b] = true
		}
	}
	visited := make(map[*cfg.Block]bool)
	for _, root := range r.f.Blocks {
		if !unreachable[root] || visited[root] || slices.ContainsFunc(root.Preds, func(p *cfg.Block) bool { return unreachable[p] || r.cut[p] }) {
			continue
		}
		var region []*cfg.Block
		queue := []*cfg.Block{root}
		visited[root] = true
		for len(queue) > 0 {
			b := queue[0]
			queue = queue[1:]
			region = append(region, b)
			for _, s := range b.Succs {
				if unreachable[s] && !visited[s] {
					visited[s] = true
					queue = append(queue, s)
				}
			}
		}
		first, ok := firstCode(region)
		if !ok {
			continue
		}
		r.report(ilerr.New(ilerr.NewUnreachableCode{Positioner: first}))
	}
}

// firstCode returns the range of the earliest code in blocks
func firstCode(blocks []*cfg.Block) (ast.Range, bool) {
	var code []ast.Range
	for _, b := range blocks {
		for _, s := range b.Stmts {
			code = append(code, ast.RangeOf(s))
		}
		if b.Cond != nil {
			code = append(code, ast.RangeOf(b.Cond))
		}
		if b.Value != nil {
			code = append(code, ast.RangeOf(b.Value))
		}
	}
	if len(code) == 0 {
		return ast.Range{}, false
	}
	return slices.MinFunc(code, func(a, b ast.Range) int { return cmp.Compare(a.PosStart, b.PosStart) }), true
}

// dedup drops repeated diagnostics and sorts the rest by position
func dedup(errs *ilerr.Errors) *ilerr.Errors {
	type key struct {
		code ilerr.ErrCode
		pos  ast.Range
		msg  string
	}
	seen := make(map[key]bool)
	var res *ilerr.Errors
	for _, e := range errs.Sorted() {
		k := key{e.Code(), ast.RangeOf(e), e.Error()}
		if seen[k] {
			continue
		}
		seen[k] = true
		res = res.With(e)
	}
	return res
}
