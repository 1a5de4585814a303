// Package cfg lowers function bodies into control-flow graphs of basic blocks.
package cfg

import (
	"fmt"
	"strings"

	"github.com/cottand/narrow/frontend/ast"
	"github.com/cottand/narrow/frontend/guard"
)

type BlockKind uint8

const (
	BlockInvalid BlockKind = iota
	BlockPlain             // falls through to its single successor
	BlockIf                // Succs[0] when Cond holds, Succs[1] otherwise
	BlockReturn            // returns Value, Succs[0] is the exit block
	BlockThrow             // throws Value, no successors
	BlockExit              // end of the function
)

var blockKindNames = [...]string{
	BlockInvalid: "invalid",
	BlockPlain:   "plain",
	BlockIf:      "if",
	BlockReturn:  "return",
	BlockThrow:   "throw",
	BlockExit:    "exit",
}

func (k BlockKind) String() string {
	if int(k) < len(blockKindNames) {
		return blockKindNames[k]
	}
	return fmt.Sprintf("BlockKind(%d)", k)
}

// Block is a basic block: straight-line statements followed by a transfer
// of control described by Kind
type Block struct {
	ID    int
	Kind  BlockKind
	Stmts []ast.Stmt
	// Cond is the branch condition of BlockIf blocks
	Cond guard.Cond
	// Value is the operand of BlockReturn and BlockThrow blocks, if any
	Value ast.Expr
	Succs []*Block
	Preds []*Block
	ast.Range
}

func (b *Block) String() string {
	return fmt.Sprintf("b%d", b.ID)
}

// AddSucc adds an edge from b to succ
func (b *Block) AddSucc(succ *Block) {
	b.Succs = append(b.Succs, succ)
	succ.Preds = append(succ.Preds, b)
}

// Func is the control-flow graph of a function
type Func struct {
	Name   string
	Params []ast.Param
	Blocks []*Block
	Entry  *Block
	Exit   *Block
	ast.Range
}

func (f *Func) newBlock(kind BlockKind, r ast.Range) *Block {
	b := &Block{ID: len(f.Blocks), Kind: kind, Range: r}
	f.Blocks = append(f.Blocks, b)
	return b
}

// Dump renders the graph, one block per line
func (f *Func) Dump() string {
	sb := strings.Builder{}
	fmt.Fprintf(&sb, "%s:\n", f.Name)
	for _, b := range f.Blocks {
		fmt.Fprintf(&sb, "  %v %v", b, b.Kind)
		for _, s := range b.Stmts {
			fmt.Fprintf(&sb, " [%v]", s)
		}
		if b.Cond != nil {
			fmt.Fprintf(&sb, " if %v", b.Cond)
		}
		if b.Value != nil {
			fmt.Fprintf(&sb, " %v", b.Value)
		}
		if len(b.Succs) > 0 {
			sb.WriteString(" ->")
			for _, s := range b.Succs {
				fmt.Fprintf(&sb, " %v", s)
			}
		}
		sb.WriteString("\n")
	}
	return sb.String()
}
