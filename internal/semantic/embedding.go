// Package semantic implements the optional static word-embedding index
// used for cosine-similarity query expansion. It is intentionally not
// transformer/LLM-based: it loads classic static vectors (Word2Vec /
// GloVe / FastText-style .vec/.txt exports) restricted to a needed
// vocabulary, grounded in the reference implementation's SemanticIndex.
package semantic

import (
	"bufio"
	"log/slog"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"
)

// WeightedTerm is one term produced by Expand.
type WeightedTerm struct {
	Term   string
	Weight float64
}

// Index is a row-major, L2-normalized embedding store restricted to the
// terms that appeared in at least one loaded segment's lexicon.
type Index struct {
	dim     int
	terms   []string
	vecs    [][]float32
	termRow map[string]int
	enabled bool
}

// Load reads a text embedding file, keeping only vectors whose word is
// in needed. An optional "<vocab> <dim>" header line is recognized and
// skipped. Dim is inferred from the first accepted line; lines whose
// width disagrees are dropped and counted. A missing file or a file with
// zero accepted vectors yields a disabled, but non-error, Index.
func Load(path string, needed map[string]struct{}) *Index {
	idx := &Index{termRow: make(map[string]int)}
	f, err := os.Open(path)
	if err != nil {
		return idx
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	first := true
	dropped := 0
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Fields(line)
		if first && len(fields) == 2 {
			if _, errA := strconv.Atoi(fields[0]); errA == nil {
				if _, errB := strconv.Atoi(fields[1]); errB == nil {
					first = false
					continue
				}
			}
		}
		first = false
		word := fields[0]
		if _, want := needed[word]; !want {
			continue
		}
		values := fields[1:]
		if idx.dim == 0 {
			idx.dim = len(values)
		}
		if len(values) != idx.dim {
			dropped++
			continue
		}
		vec := make([]float32, idx.dim)
		bad := false
		for i, s := range values {
			v, err := strconv.ParseFloat(s, 32)
			if err != nil {
				bad = true
				break
			}
			vec[i] = float32(v)
		}
		if bad {
			dropped++
			continue
		}
		l2Normalize(vec)
		idx.termRow[word] = len(idx.terms)
		idx.terms = append(idx.terms, word)
		idx.vecs = append(idx.vecs, vec)
	}
	if dropped > 0 {
		slog.Warn("semantic embedding: dropped mismatched-width lines", "count", dropped)
	}
	idx.enabled = len(idx.terms) > 0
	return idx
}

// Enabled reports whether at least one vector was successfully loaded.
func (idx *Index) Enabled() bool {
	return idx != nil && idx.enabled
}

func l2Normalize(v []float32) {
	var sumSq float64
	for _, x := range v {
		sumSq += float64(x) * float64(x)
	}
	if sumSq == 0 {
		return
	}
	norm := math.Sqrt(sumSq)
	for i := range v {
		v[i] = float32(float64(v[i]) / norm)
	}
}

func dot(a, b []float32) float64 {
	var s float64
	for i := range a {
		s += float64(a[i]) * float64(b[i])
	}
	return s
}

// Expand implements the reference expansion algorithm: originals at
// weight 1.0, per-term neighbors and a centroid-neighbor pass at weight
// alpha*sim, deduplicated by max weight and truncated to
// maxTotalTerms.
func (idx *Index) Expand(queryTerms []string, perTerm, globalTopK int, minSim, alpha float64, maxTotalTerms int) []WeightedTerm {
	weight := make(map[string]float64, len(queryTerms))
	order := make([]string, 0, len(queryTerms))
	for _, t := range queryTerms {
		if _, seen := weight[t]; !seen {
			order = append(order, t)
		}
		weight[t] = 1.0
	}

	if !idx.Enabled() {
		out := make([]WeightedTerm, len(order))
		for i, t := range order {
			out[i] = WeightedTerm{Term: t, Weight: 1.0}
		}
		return out
	}

	banned := make(map[int]struct{})
	var queryVecs [][]float32
	for _, t := range queryTerms {
		row, ok := idx.termRow[t]
		if !ok {
			continue
		}
		banned[row] = struct{}{}
		queryVecs = append(queryVecs, idx.vecs[row])
		neighbors := idx.mostSimilar(idx.vecs[row], perTerm, minSim, map[int]struct{}{row: {}})
		for _, n := range neighbors {
			term := idx.terms[n.row]
			w := alpha * n.sim
			if cur, ok := weight[term]; !ok || w > cur {
				weight[term] = w
			}
		}
	}

	if len(queryVecs) > 0 {
		centroid := make([]float32, idx.dim)
		for _, v := range queryVecs {
			for i, x := range v {
				centroid[i] += x
			}
		}
		l2Normalize(centroid)
		neighbors := idx.mostSimilar(centroid, globalTopK, minSim, banned)
		for _, n := range neighbors {
			term := idx.terms[n.row]
			w := alpha * n.sim
			if cur, ok := weight[term]; !ok || w > cur {
				weight[term] = w
			}
		}
	}

	extra := make([]WeightedTerm, 0, len(weight))
	originalSet := make(map[string]struct{}, len(order))
	for _, t := range order {
		originalSet[t] = struct{}{}
	}
	for term, w := range weight {
		if _, isOriginal := originalSet[term]; isOriginal {
			continue
		}
		extra = append(extra, WeightedTerm{Term: term, Weight: w})
	}
	sort.Slice(extra, func(i, j int) bool {
		if extra[i].Weight != extra[j].Weight {
			return extra[i].Weight > extra[j].Weight
		}
		return extra[i].Term < extra[j].Term
	})

	out := make([]WeightedTerm, 0, len(order)+len(extra))
	for _, t := range order {
		out = append(out, WeightedTerm{Term: t, Weight: 1.0})
	}
	remaining := maxTotalTerms - len(out)
	if remaining < 0 {
		remaining = 0
	}
	if remaining < len(extra) {
		extra = extra[:remaining]
	}
	out = append(out, extra...)
	return out
}

type simRow struct {
	row int
	sim float64
}

// mostSimilar returns the topK rows most similar to qvec (cosine
// similarity, both sides already L2-normalized so a dot product
// suffices), excluding banned rows and anything below minSim.
func (idx *Index) mostSimilar(qvec []float32, topK int, minSim float64, banned map[int]struct{}) []simRow {
	if topK <= 0 {
		return nil
	}
	var results []simRow
	for row, v := range idx.vecs {
		if _, skip := banned[row]; skip {
			continue
		}
		sim := dot(qvec, v)
		if sim < minSim {
			continue
		}
		results = append(results, simRow{row: row, sim: sim})
	}
	sort.Slice(results, func(i, j int) bool {
		if results[i].sim != results[j].sim {
			return results[i].sim > results[j].sim
		}
		return idx.terms[results[i].row] < idx.terms[results[j].row]
	})
	if len(results) > topK {
		results = results[:topK]
	}
	return results
}
