package flow

// detectCycles runs a depth-first search over the nodes in the order they
// were added, following links in creation order. The first back edge found
// is reported with the full path around the cycle.
func (g *Graph) detectCycles() error {
	const (
		unvisited = iota
		inProgress
		done
	)
	state := make(map[*Node]int, len(g.nodes))
	var stack []*Node

	var visit func(n *Node) error
	visit = func(n *Node) error {
		state[n] = inProgress
		stack = append(stack, n)
		for _, l := range n.out {
			switch state[l.To] {
			case inProgress:
				return cycleFrom(stack, l)
			case unvisited:
				if err := visit(l.To); err != nil {
					return err
				}
			}
		}
		stack = stack[:len(stack)-1]
		state[n] = done
		return nil
	}

	for _, n := range g.nodes {
		if state[n] == unvisited {
			if err := visit(n); err != nil {
				return err
			}
		}
	}
	return nil
}

// cycleFrom builds the error for the back edge closing, which is blamed for
// the cycle.
func cycleFrom(stack []*Node, closing *Link) *CycleError {
	start := closing.To
	i := len(stack) - 1
	for stack[i] != start {
		i--
	}
	path := make([]string, 0, len(stack)-i+1)
	for _, n := range stack[i:] {
		path = append(path, n.Key)
	}
	path = append(path, start.Key)
	return &CycleError{Path: path, Range: closing.Range}
}
