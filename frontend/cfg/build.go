package cfg

import (
	"fmt"

	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/guard"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/util"
)

// jumpTargets are where break and continue go from inside a loop or switch
type jumpTargets struct {
	brk  *Block
	cont *Block // nil inside a switch that is not itself in a loop
}

type builder struct {
	f       *Func
	cur     *Block // nil after an unconditional jump
	targets util.Stack[jumpTargets]
	rec     *guard.Recognizer
	errs    *ilerr.Errors
}

// Build lowers fn into a control-flow graph. Conditions are recognised
// with rec; the guards it rejects are reported in the returned errors
func Build(fn *ast.Function, rec *guard.Recognizer) (*Func, *ilerr.Errors) {
	b := &builder{
		f:   &Func{Name: fn.Name, Params: fn.Params, Range: fn.Range},
		rec: rec,
	}
	b.f.Entry = b.f.newBlock(BlockPlain, fn.Range)
	b.f.Exit = b.f.newBlock(BlockExit, ast.Range{PosStart: fn.End(), PosEnd: fn.End()})
	b.cur = b.f.Entry
	b.stmts(fn.Body)
	if b.cur != nil {
		b.cur.AddSucc(b.f.Exit)
	}
	return b.f, b.errs
}

func (b *builder) cond(e ast.Expr) guard.Cond {
	c, errs := b.rec.FromExpr(e)
	b.errs = b.errs.Merge(errs)
	return c
}

// block returns the current block, starting a new one with no
// predecessors if the previous statement jumped away
func (b *builder) block(at ast.Positioner) *Block {
	if b.cur == nil {
		b.cur = b.f.newBlock(BlockPlain, ast.RangeOf(at))
	}
	return b.cur
}

func (b *builder) stmts(stmts []ast.Stmt) {
	for _, s := range stmts {
		b.stmt(s)
	}
}

func (b *builder) stmt(s ast.Stmt) {
	switch s := s.(type) {
	case *ast.Let, *ast.Assign, *ast.Access, *ast.Assert, *ast.Probe:
		cur := b.block(s)
		cur.Stmts = append(cur.Stmts, s)
	case *ast.If:
		b.ifStmt(s)
	case *ast.While:
		b.whileStmt(s)
	case *ast.Switch:
		b.switchStmt(s)
	case *ast.Return:
		cur := b.block(s)
		cur.Kind = BlockReturn
		cur.Value = s.Value
		cur.AddSucc(b.f.Exit)
		b.cur = nil
	case *ast.Throw:
		cur := b.block(s)
		cur.Kind = BlockThrow
		cur.Value = s.Value
		b.cur = nil
	case *ast.Break:
		target, ok := b.targets.Peek()
		if !ok {
			b.misplaced(s, "break")
			return
		}
		b.block(s).AddSucc(target.brk)
		b.cur = nil
	case *ast.Continue:
		target, ok := b.targets.Peek()
		if !ok || target.cont == nil {
			b.misplaced(s, "continue")
			return
		}
		b.block(s).AddSucc(target.cont)
		b.cur = nil
	default:
		panic(fmt.Sprintf("unexpected statement %T", s))
	}
}

func (b *builder) misplaced(s ast.Stmt, keyword string) {
	b.errs = b.errs.With(ilerr.New(ilerr.NewParse{
		Positioner:    ast.RangeOf(s),
		ParserMessage: fmt.Sprintf("'%s' outside of a loop", keyword),
	}))
}

// branch ends the current block with cond, and returns the blocks
// reached when it holds and when it does not
func (b *builder) branch(cond guard.Cond, at ast.Positioner) (then, els *Block) {
	cur := b.block(at)
	cur.Kind = BlockIf
	cur.Cond = cond
	then = b.f.newBlock(BlockPlain, ast.RangeOf(at))
	els = b.f.newBlock(BlockPlain, ast.RangeOf(at))
	cur.AddSucc(then)
	cur.AddSucc(els)
	return then, els
}

func (b *builder) ifStmt(s *ast.If) {
	then, els := b.branch(b.cond(s.Cond), s.Cond)
	join := b.f.newBlock(BlockPlain, s.Range)

	b.cur = then
	b.stmts(s.Then)
	if b.cur != nil {
		b.cur.AddSucc(join)
	}
	b.cur = els
	b.stmts(s.Else)
	if b.cur != nil {
		b.cur.AddSucc(join)
	}
	b.cur = join
}

func (b *builder) whileStmt(s *ast.While) {
	header := b.f.newBlock(BlockPlain, ast.RangeOf(s.Cond))
	b.block(s).AddSucc(header)
	b.cur = header
	body, exit := b.branch(b.cond(s.Cond), s.Cond)

	b.targets.Push(jumpTargets{brk: exit, cont: header})
	b.cur = body
	b.stmts(s.Body)
	if b.cur != nil {
		b.cur.AddSucc(header)
	}
	b.targets.Pop()
	b.cur = exit
}

// switchStmt lowers a switch into a chain of equality tests, one per case,
// in source order. The default clause, wherever it is written, runs when
// no test matches. Clauses do not fall through into each other
func (b *builder) switchStmt(s *ast.Switch) {
	after := b.f.newBlock(BlockPlain, s.Range)
	outer, _ := b.targets.Peek()
	b.targets.Push(jumpTargets{brk: after, cont: outer.cont})
	defer b.targets.Pop()

	var defaultCase *ast.Case
	b.block(s)
	for i := range s.Cases {
		c := &s.Cases[i]
		if c.Default {
			defaultCase = c
			continue
		}
		if len(c.Values) == 0 {
			continue
		}
		then, els := b.branch(b.caseCond(s.Subject, c), c)
		b.cur = then
		b.stmts(c.Body)
		if b.cur != nil {
			b.cur.AddSucc(after)
		}
		b.cur = els
	}
	if defaultCase != nil {
		b.stmts(defaultCase.Body)
	}
	if b.cur != nil {
		b.cur.AddSucc(after)
	}
	b.cur = after
}

// caseCond is subject === v1 || subject === v2 ... for the values of c.
// switch (true) tests each value as a condition of its own
func (b *builder) caseCond(subject ast.Expr, c *ast.Case) guard.Cond {
	var cond guard.Cond
	for _, v := range c.Values {
		var test ast.Expr = &ast.Binary{Range: ast.RangeOf(v), Op: ast.StrictEq, Left: subject, Right: v}
		if lit, ok := subject.(*ast.Literal); ok && lit.Kind == ast.LitBool && lit.Value == "true" {
			test = v
		}
		next := b.cond(test)
		if cond == nil {
			cond = next
			continue
		}
		cond = &guard.Or{Range: ast.RangeBetween(cond, next), X: cond, Y: next}
	}
	return cond
}
