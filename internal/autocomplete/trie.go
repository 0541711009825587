// Package autocomplete implements the prefix-indexed top-K term
// suggester built from the union of all segment lexicons on every
// reload.
package autocomplete

import (
	"sort"
	"strings"
)

// DefaultKNode is the default per-node candidate list cap.
const DefaultKNode = 10

type candidate struct {
	term  string
	score float64
}

type node struct {
	children map[byte]*node
	top      []candidate // sorted (score desc, term asc), len <= kNode
}

func newNode() *node {
	return &node{children: make(map[byte]*node)}
}

// Trie is a character trie over lowercase term prefixes; every node
// carries a size-bounded, pre-sorted list of the best-scoring terms that
// pass through it.
type Trie struct {
	root  *node
	kNode int
}

// Build constructs a trie from term -> score (the sum of df across
// segments for that term), bounding each node's candidate list to
// kNode. A kNode <= 0 uses DefaultKNode.
func Build(scores map[string]float64, kNode int) *Trie {
	if kNode <= 0 {
		kNode = DefaultKNode
	}
	t := &Trie{root: newNode(), kNode: kNode}
	terms := make([]string, 0, len(scores))
	for term := range scores {
		terms = append(terms, term)
	}
	sort.Strings(terms)
	for _, term := range terms {
		t.insert(term, scores[term])
	}
	return t
}

func (t *Trie) insert(term string, score float64) {
	n := t.root
	n.offer(candidate{term, score}, t.kNode)
	for i := 0; i < len(term); i++ {
		c := n.children[term[i]]
		if c == nil {
			c = newNode()
			n.children[term[i]] = c
		}
		c.offer(candidate{term, score}, t.kNode)
		n = c
	}
}

// offer performs the bounded top-K insertion: append and re-sort while
// under capacity, otherwise replace the minimum iff the incoming score
// beats it.
func (n *node) offer(c candidate, kNode int) {
	if len(n.top) < kNode {
		n.top = append(n.top, c)
		sortCandidates(n.top)
		return
	}
	min := n.top[len(n.top)-1]
	if c.score > min.score || (c.score == min.score && c.term < min.term) {
		n.top[len(n.top)-1] = c
		sortCandidates(n.top)
	}
}

func sortCandidates(cs []candidate) {
	sort.Slice(cs, func(i, j int) bool {
		if cs[i].score != cs[j].score {
			return cs[i].score > cs[j].score
		}
		return cs[i].term < cs[j].term
	})
}

// Suggest lowercases prefix using the same normalization tokenization
// uses, walks to the prefix's node, and returns up to
// min(kQuery, kNode) terms in (score desc, term asc) order. A prefix
// that exits the trie returns an empty list.
func (t *Trie) Suggest(prefix string, kQuery int) []string {
	prefix = strings.ToLower(prefix)
	n := t.root
	for i := 0; i < len(prefix); i++ {
		c := prefix[i]
		if c < 'a' || c > 'z' {
			return nil
		}
		next := n.children[c]
		if next == nil {
			return nil
		}
		n = next
	}
	if kQuery > len(n.top) {
		kQuery = len(n.top)
	}
	if kQuery < 0 {
		kQuery = 0
	}
	out := make([]string, kQuery)
	for i := 0; i < kQuery; i++ {
		out[i] = n.top[i].term
	}
	return out
}
