package flow

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/benbjohnson/immutable"
	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/ilerr"
	"github.com/cottand/narrow/frontend/types"
)

// binding is what an environment knows about a reference. Paths like
// shape.kind are bound too once they have been narrowed, with the type the
// property had when the binding was made as their declared type
type binding struct {
	declared types.Type
	current  types.Type
	isConst  bool
}

func (b binding) equal(other binding) bool {
	return b.isConst == other.isConst && b.declared.Equal(other.declared) && b.current.Equal(other.current)
}

// Env maps references to their types along one path of execution. Envs are
// persistent: every update returns a new Env and leaves the receiver as it was
type Env struct {
	unreachable bool
	vars        *immutable.SortedMap[string, binding]
}

// NewEnv returns a reachable environment with no bindings
func NewEnv() Env {
	return Env{vars: immutable.NewSortedMap[string, binding](nil)}
}

// Unreachable is the environment of a path that never executes. It is the
// identity of Join
func Unreachable() Env {
	return Env{unreachable: true, vars: immutable.NewSortedMap[string, binding](nil)}
}

func (e Env) IsUnreachable() bool { return e.unreachable }

// Declare binds name to a new variable, forgetting everything known about
// a previous variable of the same name
func (e Env) Declare(name string, declared, current types.Type, isConst bool) Env {
	if e.unreachable {
		return e
	}
	e = e.invalidate(name)
	e.vars = e.vars.Set(name, binding{declared: declared, current: current, isConst: isConst})
	return e
}

// Lookup returns the current type of the variable or path ref, if the
// environment knows about it
func (e Env) Lookup(ref string) (types.Type, bool) {
	t, err := e.resolve(ref, ast.Range{})
	return t, err == nil
}

// resolve computes the type of ref. Paths that are not bound are looked up
// as properties of their parent. A non-nil error means ref does not exist
// as written, and the returned type is the best approximation of it
func (e Env) resolve(ref string, at ast.Positioner) (types.Type, ilerr.IleError) {
	if b, ok := e.vars.Get(ref); ok {
		return b.current, nil
	}
	dot := strings.LastIndexByte(ref, '.')
	if dot < 0 {
		return types.Any, ilerr.New(ilerr.NewUndefinedVariable{Positioner: ast.RangeOf(at), Name: ref})
	}
	parentRef, member := ref[:dot], ref[dot+1:]
	parent, err := e.resolve(parentRef, at)
	if err != nil {
		return types.Any, err
	}
	if parent.IsNever() {
		return types.Never, ilerr.New(ilerr.NewUnreachableCode{
			Positioner: ast.RangeOf(at),
			Detail:     fmt.Sprintf("'%s' has type 'never'", parentRef),
		})
	}
	t, some, all := types.Lookup(parent, member)
	if all {
		return t, nil
	}
	if !some {
		t = types.Any
	}
	return t, ilerr.New(ilerr.NewInvalidMemberAccess{
		Positioner: ast.RangeOf(at),
		Subject:    parentRef,
		Member:     member,
		Type:       parent,
		Partial:    some,
	})
}

// binding returns the binding of ref, creating the binding of a path from
// the type of its parent
func (e Env) binding(ref string) (binding, bool) {
	if b, ok := e.vars.Get(ref); ok {
		return b, true
	}
	if !strings.Contains(ref, ".") {
		return binding{}, false
	}
	t, err := e.resolve(ref, ast.Range{})
	if err != nil {
		return binding{}, false
	}
	return binding{declared: t, current: t}, true
}

// Narrow sets the current type of ref. Everything known about the
// properties of ref is forgotten
func (e Env) Narrow(ref string, t types.Type) Env {
	if e.unreachable {
		return e
	}
	b, ok := e.binding(ref)
	if !ok {
		return e
	}
	b.current = t
	e = e.invalidate(ref)
	e.vars = e.vars.Set(ref, b)
	return e
}

// invalidate drops the bindings of every path below ref
func (e Env) invalidate(ref string) Env {
	prefix := ref + "."
	var stale []string
	itr := e.vars.Iterator()
	itr.Seek(prefix)
	for !itr.Done() {
		k, _, _ := itr.Next()
		if !strings.HasPrefix(k, prefix) {
			break
		}
		stale = append(stale, k)
	}
	for _, k := range stale {
		e.vars = e.vars.Delete(k)
	}
	return e
}

// Join is the environment after two paths meet: each reference has the
// union of its types on both paths. References only one path knows about
// are kept when the other path can still resolve them
func Join(a, b Env) Env {
	if a.unreachable {
		return b
	}
	if b.unreachable {
		return a
	}
	joined := NewEnv()
	itr := a.vars.Iterator()
	for !itr.Done() {
		k, ba, _ := itr.Next()
		bb, ok := b.binding(k)
		if !ok {
			continue
		}
		ba.current = types.Union(ba.current, bb.current)
		joined.vars = joined.vars.Set(k, ba)
	}
	itr = b.vars.Iterator()
	for !itr.Done() {
		k, bb, _ := itr.Next()
		if _, ok := a.vars.Get(k); ok {
			continue
		}
		ba, ok := a.binding(k)
		if !ok {
			continue
		}
		bb.current = types.Union(ba.current, bb.current)
		joined.vars = joined.vars.Set(k, bb)
	}
	return joined
}

// Equal reports whether e and other bind the same references to the same types
func (e Env) Equal(other Env) bool {
	if e.unreachable || other.unreachable {
		return e.unreachable == other.unreachable
	}
	if e.vars.Len() != other.vars.Len() {
		return false
	}
	itr := e.vars.Iterator()
	for !itr.Done() {
		k, b, _ := itr.Next()
		ob, ok := other.vars.Get(k)
		if !ok || !b.equal(ob) {
			return false
		}
	}
	return true
}

func (e Env) String() string {
	if e.unreachable {
		return "unreachable"
	}
	sb := strings.Builder{}
	sb.WriteString("{")
	itr := e.vars.Iterator()
	for i := 0; !itr.Done(); i++ {
		k, b, _ := itr.Next()
		if i > 0 {
			sb.WriteString(", ")
		}
		fmt.Fprintf(&sb, "%s: %v", k, b.current)
	}
	sb.WriteString("}")
	return sb.String()
}

func (e Env) LogValue() slog.Value {
	return slog.StringValue(e.String())
}
