package process

import (
	"cardpilot/domain/cards"
)

// Chain is an ordered sequence of at least two cards forming a directed path
// through connections confined to a candidate set. Chains are ephemeral and
// recomputed per query.
type Chain struct {
	Name       string   `json:"name"`
	CardIDs    []string `json:"cardIds"`
	Confidence float64  `json:"confidence"`
}

// Steps returns the number of cards on the chain.
func (c Chain) Steps() int {
	return len(c.CardIDs)
}

// Walker discovers multi-card processes among the top search results'
// outgoing connections.
type Walker struct {
	maxDepth int // maximum path depth in edges
}

// NewWalker creates a walker with the given edge-depth cap.
func NewWalker(maxDepth int) *Walker {
	if maxDepth <= 0 {
		maxDepth = 5
	}
	return &Walker{maxDepth: maxDepth}
}

// Discover runs a bounded depth-first traversal from every candidate id.
// Only edges whose source and target both appear in the candidate set are
// followed. The visited set is per root: a node is never revisited within one
// root's exploration, but different roots explore independently. Duplicate
// connections and cycles are tolerated. titles supplies display names for
// chain labels; unknown ids fall back to the id itself.
func (w *Walker) Discover(candidates []string, conns []cards.Connection, titles map[string]string) []Chain {
	if len(candidates) < 2 || len(conns) == 0 {
		return nil
	}

	inSet := make(map[string]bool, len(candidates))
	for _, id := range candidates {
		inSet[id] = true
	}

	// Adjacency restricted to the candidate set. Duplicate edges collapse
	// here so a target is pushed at most once per source.
	adj := make(map[string][]string)
	for _, conn := range conns {
		if !inSet[conn.FromCardID] || !inSet[conn.ToCardID] {
			continue
		}
		if containsID(adj[conn.FromCardID], conn.ToCardID) {
			continue
		}
		adj[conn.FromCardID] = append(adj[conn.FromCardID], conn.ToCardID)
	}
	if len(adj) == 0 {
		return nil
	}

	var chains []Chain
	for _, root := range candidates {
		chains = append(chains, w.walkFrom(root, adj, titles)...)
	}
	return chains
}

// walkFrom explores a single root with an explicit stack. The iterative form
// keeps pathological inputs from exhausting goroutine stack space.
func (w *Walker) walkFrom(root string, adj map[string][]string, titles map[string]string) []Chain {
	visited := map[string]bool{root: true}
	stack := [][]string{{root}}

	var chains []Chain
	for len(stack) > 0 {
		path := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		last := path[len(path)-1]
		depth := len(path) - 1

		if depth >= w.maxDepth {
			chains = append(chains, w.emit(path, titles))
			continue
		}

		extended := false
		for _, target := range adj[last] {
			if visited[target] {
				continue
			}
			visited[target] = true
			next := make([]string, len(path), len(path)+1)
			copy(next, path)
			stack = append(stack, append(next, target))
			extended = true
		}

		// A leaf within the candidate set ends the path.
		if !extended && len(path) >= 2 {
			chains = append(chains, w.emit(path, titles))
		}
	}
	return chains
}

func (w *Walker) emit(path []string, titles map[string]string) Chain {
	ids := make([]string, len(path))
	copy(ids, path)

	name := titles[ids[0]]
	if name == "" {
		name = ids[0]
	}

	confidence := float64(len(ids)) * 0.2
	if confidence > 0.8 {
		confidence = 0.8
	}

	return Chain{
		Name:       name,
		CardIDs:    ids,
		Confidence: confidence,
	}
}

func containsID(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}
