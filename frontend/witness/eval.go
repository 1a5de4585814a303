package witness

import (
	"fmt"
	"math/big"
	"reflect"
	"slices"
	"strings"

	"github.com/cottand/narrow/frontend/types"
	"github.com/traefik/yaegi/interp"
	"github.com/traefik/yaegi/stdlib"
)

// ClassKey is the key of a map literal naming the class of the instance it
// stands for, as in map[string]any{"__class": "Dog", "name": "rex"}
const ClassKey = "__class"

// Evaluator turns Go expressions into Values with an embedded interpreter.
// The math, math/big and strings packages are imported
type Evaluator struct {
	universe *types.Universe
	interp   *interp.Interpreter
	// witnesses evaluated so far, naming the variable each one is bound to
	evaluated int
}

func NewEvaluator(u *types.Universe) (*Evaluator, error) {
	i := interp.New(interp.Options{})
	if err := i.Use(stdlib.Symbols); err != nil {
		return nil, fmt.Errorf("error loading Go interpreter: %w", err)
	}
	for _, pkg := range []string{"math", "math/big", "strings"} {
		if _, err := i.Eval(fmt.Sprintf("import %q", pkg)); err != nil {
			return nil, fmt.Errorf("error importing %s: %w", pkg, err)
		}
	}
	return &Evaluator{universe: u, interp: i}, nil
}

// Eval evaluates src and converts the result. null, undefined, NaN and Symbol()
// are recognised as they are written in the modelled language, and
// 10n is a bigint
func (e *Evaluator) Eval(src string) (Value, error) {
	src = strings.TrimSpace(src)
	switch {
	case src == "undefined":
		return Undefined, nil
	case src == "null" || src == "nil":
		return Null, nil
	case src == "NaN":
		return NaN, nil
	case strings.HasPrefix(src, "Symbol(") && strings.HasSuffix(src, ")"):
		return Symbol(), nil
	case isBigintLiteral(src):
		i, ok := new(big.Int).SetString(strings.TrimSuffix(src, "n"), 10)
		if ok {
			return Bigint(i), nil
		}
	}
	// a function literal evaluated on its own comes back as a nil
	// interface, while a bound variable keeps its func value
	e.evaluated++
	name := fmt.Sprintf("witness%d", e.evaluated)
	res, err := e.interp.Eval(fmt.Sprintf("%s := %s; %s", name, src, name))
	if err != nil {
		return Value{}, fmt.Errorf("could not evaluate %s: %w", src, err)
	}
	v, err := e.FromGo(res)
	if err != nil {
		return Value{}, fmt.Errorf("could not convert %s: %w", src, err)
	}
	return v, nil
}

func isBigintLiteral(src string) bool {
	digits, ok := strings.CutSuffix(src, "n")
	digits = strings.TrimPrefix(digits, "-")
	return ok && digits != "" && strings.Trim(digits, "0123456789") == ""
}

var bigIntType = reflect.TypeOf((*big.Int)(nil))

// FromGo converts a Go value: nil is null, Go numbers are numbers,
// *big.Int is a bigint, maps with string keys are objects (instances if
// they have a ClassKey), slices are arrays and funcs are functions
func (e *Evaluator) FromGo(rv reflect.Value) (Value, error) {
	if !rv.IsValid() {
		return Null, nil
	}
	if rv.Type() == bigIntType {
		if rv.IsNil() {
			return Null, nil
		}
		return Bigint(rv.Interface().(*big.Int)), nil
	}
	switch rv.Kind() {
	case reflect.Interface, reflect.Pointer:
		if rv.IsNil() {
			return Null, nil
		}
		return e.FromGo(rv.Elem())
	case reflect.String:
		return String(rv.String()), nil
	case reflect.Bool:
		return Bool(rv.Bool()), nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return Number(float64(rv.Int())), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return Number(float64(rv.Uint())), nil
	case reflect.Float32, reflect.Float64:
		return Number(rv.Float()), nil
	case reflect.Func:
		if rv.IsNil() {
			return Null, nil
		}
		return Function(), nil
	case reflect.Slice, reflect.Array:
		elems := make([]Value, rv.Len())
		for i := range elems {
			elem, err := e.FromGo(rv.Index(i))
			if err != nil {
				return Value{}, err
			}
			elems[i] = elem
		}
		return Array(elems...), nil
	case reflect.Map:
		return e.fromMap(rv)
	}
	return Value{}, fmt.Errorf("unsupported Go value of type %v", rv.Type())
}

func (e *Evaluator) fromMap(rv reflect.Value) (Value, error) {
	if rv.Type().Key().Kind() != reflect.String {
		return Value{}, fmt.Errorf("unsupported map key type %v", rv.Type().Key())
	}
	var class *types.Class
	var props []Prop
	keys := rv.MapKeys()
	slices.SortFunc(keys, func(a, b reflect.Value) int { return strings.Compare(a.String(), b.String()) })
	for _, k := range keys {
		v, err := e.FromGo(rv.MapIndex(k))
		if err != nil {
			return Value{}, fmt.Errorf("property %s: %w", k.String(), err)
		}
		if k.String() != ClassKey {
			props = append(props, Prop{Name: k.String(), Value: v})
			continue
		}
		c, ok := e.universe.Class(v.Str)
		if v.Tag != types.TagString || !ok {
			return Value{}, fmt.Errorf("unknown class %v", v)
		}
		class = c
	}
	if class != nil {
		return Instance(class, props...), nil
	}
	return Object(props...), nil
}
