package roots

import (
	"github.com/mutagen-io/fswatch/pkg/filesystem"
)

// node is a single trie node. Nodes refer to each other by arena index.
type node struct {
	// request is the request that owns the node's exact path, if any.
	request *WatchRequest
	// children maps path segments to child node indices.
	children map[string]int
}

// Trie is a path-segment trie holding the effective watch requests computed by
// Normalize. It is never modified after construction.
type Trie struct {
	// nodes is the node arena. Index 0 is a virtual node above all volumes.
	nodes []node
}

// child returns the index of the child of parent with the specified segment,
// creating it if necessary.
func (t *Trie) child(parent int, segment string) int {
	if index, ok := t.nodes[parent].children[segment]; ok {
		return index
	}
	if t.nodes[parent].children == nil {
		t.nodes[parent].children = make(map[string]int)
	}
	t.nodes = append(t.nodes, node{})
	index := len(t.nodes) - 1
	t.nodes[parent].children[segment] = index
	return index
}

// prune marks every request held below the specified node as dominated and
// detaches the node's children.
func (t *Trie) prune(index int, dominance map[RequestID]bool) {
	stack := make([]int, 0, len(t.nodes[index].children))
	for _, child := range t.nodes[index].children {
		stack = append(stack, child)
	}
	for len(stack) > 0 {
		current := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if request := t.nodes[current].request; request != nil {
			dominance[request.ID] = true
		}
		for _, child := range t.nodes[current].children {
			stack = append(stack, child)
		}
	}
	t.nodes[index].children = nil
}

// Normalize reduces a set of watch requests to the minimal set of roots that
// must be watched. Requests whose path is already covered by a recursive
// request are dominated, as are duplicate requests for the same path. At a
// single path, a recursive request beats a flat one, and otherwise the earlier
// request wins, so callers must supply requests in a stable order.
//
// It returns the non-dominated requests (in input order), the dominance state
// of every request, and the resulting trie. The input requests are not
// modified.
func Normalize(requests []*WatchRequest) ([]*WatchRequest, map[RequestID]bool, *Trie) {
	// Create the trie with its virtual top node and the dominance map.
	trie := &Trie{nodes: []node{{}}}
	dominance := make(map[RequestID]bool, len(requests))

	// Insert each request.
	for _, request := range requests {
		// Assume that the request is effective until shown otherwise.
		dominance[request.ID] = false

		// Walk down the trie, stopping if we pass through a recursive request.
		current := 0
		covered := false
		for _, segment := range filesystem.Segments(request.Path) {
			if owner := trie.nodes[current].request; owner != nil && owner.Recursive {
				covered = true
				break
			}
			current = trie.child(current, segment)
		}
		if covered {
			dominance[request.ID] = true
			continue
		}

		// Resolve any conflict at the terminal node.
		if existing := trie.nodes[current].request; existing != nil {
			if request.Recursive && !existing.Recursive {
				dominance[existing.ID] = true
			} else {
				dominance[request.ID] = true
				continue
			}
		}
		trie.nodes[current].request = request

		// A recursive request covers its whole subtree.
		if request.Recursive && len(trie.nodes[current].children) > 0 {
			trie.prune(current, dominance)
		}
	}

	// Collect the effective requests in input order.
	var minimal []*WatchRequest
	for _, request := range requests {
		if !dominance[request.ID] {
			minimal = append(minimal, request)
		}
	}

	// Done.
	return minimal, dominance, trie
}

// IsAlreadyWatched returns whether or not a path is covered by the requests in
// the trie, i.e. whether it's at or below a recursive root, equal to a flat
// root, or an immediate child of a flat root.
func (t *Trie) IsAlreadyWatched(path string) bool {
	// Handle nil tries, which cover nothing.
	if t == nil {
		return false
	}

	// Walk the trie, tracking the parent node of the current node.
	segments := filesystem.Segments(path)
	current, parent := 0, -1
	for i, segment := range segments {
		if owner := t.nodes[current].request; owner != nil && owner.Recursive {
			return true
		}
		child, ok := t.nodes[current].children[segment]
		if !ok {
			// Only a direct child of a flat root can still be covered.
			return i == len(segments)-1 && t.nodes[current].request != nil
		}
		parent, current = current, child
	}

	// The path corresponds to a node. It's watched if it has a request itself
	// or if its parent holds a (necessarily flat) request.
	if t.nodes[current].request != nil {
		return true
	}
	return parent > 0 && t.nodes[parent].request != nil
}
