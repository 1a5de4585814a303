package witness

import (
	"fmt"

	"github.com/cottand/narrow/frontend/guard"
	"github.com/cottand/narrow/frontend/narrowing"
	"github.com/cottand/narrow/frontend/types"
)

// Outcome is what happened to a witness when its guard was evaluated
type Outcome struct {
	Witness  Value
	Branch   bool
	Narrowed types.Type
	// Sound is whether Narrowed contains the witness
	Sound bool
}

// Check evaluates g on v, a value of type declared, and narrows declared to
// the branch v takes. A *ThrowsError is returned when g throws for v
func Check(n *narrowing.Narrower, declared types.Type, g guard.Guard, v Value) (Outcome, error) {
	actual := TypeOf(v)
	if !types.Assignable(actual, declared) {
		return Outcome{}, fmt.Errorf("witness %v of type %v is not a value of %v", v, actual, declared)
	}
	branch, err := Holds(g, v)
	if err != nil {
		return Outcome{}, err
	}
	narrowed := n.Narrow(declared, g, branch)
	return Outcome{
		Witness:  v,
		Branch:   branch,
		Narrowed: narrowed,
		Sound:    types.Assignable(actual, narrowed),
	}, nil
}
