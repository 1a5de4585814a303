package cfg

import (
	"slices"
)

// ReversePostOrder returns the blocks reachable from the entry block so
// that, loops aside, every block comes after its predecessors
func (f *Func) ReversePostOrder() []*Block {
	visited := make([]bool, len(f.Blocks))
	order := make([]*Block, 0, len(f.Blocks))
	var visit func(b *Block)
	visit = func(b *Block) {
		visited[b.ID] = true
		for _, s := range b.Succs {
			if !visited[s.ID] {
				visit(s)
			}
		}
		order = append(order, b)
	}
	visit(f.Entry)
	slices.Reverse(order)
	return order
}

// Unreachable returns the blocks that cannot be reached from the entry
// block by following edges, in ID order
func (f *Func) Unreachable() []*Block {
	reachable := make([]bool, len(f.Blocks))
	for _, b := range f.ReversePostOrder() {
		reachable[b.ID] = true
	}
	var unreachable []*Block
	for _, b := range f.Blocks {
		if !reachable[b.ID] {
			unreachable = append(unreachable, b)
		}
	}
	return unreachable
}
