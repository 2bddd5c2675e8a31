package embed

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	log "github.com/sirupsen/logrus"

	"similarity-lab/db"
	"similarity-lab/ranker"
)

// maxDimensions bounds the vector size a word2vec header may declare.
const maxDimensions = 1 << 16

/*
WordVectors is a vocabulary of unit-length word vectors.

Vectors are normalized on load, so similarities between vocabulary words are
plain dot products. MostSimilar ranks with ranker.Cosine and accepts queries
that are not unit length, such as analogy offsets.
*/
type WordVectors struct {
	dims       int
	words      []string
	index      map[string]int
	vectors    [][]float32
	candidates []ranker.Candidate
}

func newWordVectors() *WordVectors {
	return &WordVectors{index: make(map[string]int)}
}

/*
LoadWordVectors opens path and reads it as "glove" text or "word2vec" binary.
limit > 0 stops after that many words.
*/
func LoadWordVectors(path, format string, limit int) (*WordVectors, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	var wv *WordVectors
	switch format {
	case "", "glove":
		wv, err = LoadGloVe(file, limit)
	case "word2vec":
		wv, err = LoadWord2Vec(file, limit)
	default:
		return nil, fmt.Errorf("unknown word vector format %q", format)
	}
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", path, err)
	}
	log.Debugf("loaded %d word vectors (%d dims) from %s", wv.Len(), wv.Dimensions(), path)
	return wv, nil
}

/*
LoadGloVe reads the text format: one "word v1 v2 ..." entry per line. A
leading "count dims" line, as written by word2vec's text mode, is skipped.
*/
func LoadGloVe(r io.Reader, limit int) (*WordVectors, error) {
	wv := newWordVectors()
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	line := 0
	for scanner.Scan() {
		line++
		fields := strings.Fields(scanner.Text())
		if len(fields) == 0 {
			continue
		}
		if line == 1 && len(fields) == 2 {
			if _, err := strconv.Atoi(fields[0]); err == nil {
				continue
			}
		}

		vector := make([]float32, len(fields)-1)
		for i, f := range fields[1:] {
			val, err := strconv.ParseFloat(f, 32)
			if err != nil {
				return nil, fmt.Errorf("line %d: %w", line, err)
			}
			vector[i] = float32(val)
		}
		if err := wv.add(fields[0], vector); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
		if limit > 0 && wv.Len() >= limit {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return wv, nil
}

/*
LoadWord2Vec reads the binary format: a "count dims\n" header followed by
entries of "word " and dims little-endian float32 values.
*/
func LoadWord2Vec(r io.Reader, limit int) (*WordVectors, error) {
	reader := bufio.NewReader(r)

	var count, dims int
	if _, err := fmt.Fscanf(reader, "%d %d\n", &count, &dims); err != nil {
		return nil, fmt.Errorf("read header: %w", err)
	}
	if count < 0 || dims <= 0 || dims > maxDimensions {
		return nil, fmt.Errorf("%w: header %d %d", ErrBadHeader, count, dims)
	}
	if limit > 0 && limit < count {
		count = limit
	}

	wv := newWordVectors()
	for i := 0; i < count; i++ {
		word, err := readWord(reader)
		if err != nil {
			return nil, fmt.Errorf("read word %d: %w", i+1, err)
		}
		vector := make([]float32, dims)
		if err := binary.Read(reader, binary.LittleEndian, vector); err != nil {
			return nil, fmt.Errorf("read vector of %q: %w", word, err)
		}
		if err := wv.add(word, vector); err != nil {
			return nil, err
		}
	}
	return wv, nil
}

// readWord reads up to the next space, skipping the newline some writers put after each vector
func readWord(reader *bufio.Reader) (string, error) {
	var word []byte
	for {
		c, err := reader.ReadByte()
		if err != nil {
			if len(word) > 0 && errors.Is(err, io.EOF) {
				return string(word), nil
			}
			return "", err
		}
		if c == ' ' {
			return string(word), nil
		}
		if c == '\n' && len(word) == 0 {
			continue
		}
		word = append(word, c)
	}
}

func (wv *WordVectors) add(word string, vector []float32) error {
	candidate, err := ranker.NewCandidate(word, vector, ranker.Meta{Name: word})
	if err != nil {
		return err
	}
	if wv.dims == 0 {
		wv.dims = len(vector)
	}
	if len(vector) != wv.dims {
		return fmt.Errorf("%w: %q has %d dimensions, expected %d", ranker.ErrDimensionMismatch, word, len(vector), wv.dims)
	}
	if _, exists := wv.index[word]; exists {
		// first occurrence wins
		return nil
	}

	db.NormalizeVector(vector)
	wv.index[word] = len(wv.words)
	wv.words = append(wv.words, word)
	wv.vectors = append(wv.vectors, vector)
	wv.candidates = append(wv.candidates, candidate)
	return nil
}

// Len returns the vocabulary size.
func (wv *WordVectors) Len() int {
	return len(wv.words)
}

func (wv *WordVectors) Dimensions() int {
	return wv.dims
}

// Words returns the vocabulary in file order.
func (wv *WordVectors) Words() []string {
	return append([]string(nil), wv.words...)
}

/*
Vector returns a copy of the unit vector of word. Lookups fall back to the
lower-cased word.
*/
func (wv *WordVectors) Vector(word string) ([]float32, error) {
	i, ok := wv.lookup(word)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownWord, word)
	}
	return clone(wv.vectors[i]), nil
}

func (wv *WordVectors) lookup(word string) (int, bool) {
	if i, ok := wv.index[word]; ok {
		return i, true
	}
	i, ok := wv.index[strings.ToLower(word)]
	return i, ok
}

// Has reports whether word is in the vocabulary.
func (wv *WordVectors) Has(word string) bool {
	_, ok := wv.lookup(word)
	return ok
}

// Similarity returns the cosine similarity of two words.
func (wv *WordVectors) Similarity(a, b string) (float32, error) {
	va, err := wv.Vector(a)
	if err != nil {
		return 0, err
	}
	vb, err := wv.Vector(b)
	if err != nil {
		return 0, err
	}
	return ranker.Score(ranker.Dot, va, vb)
}

/*
MostSimilar ranks the whole vocabulary against query by cosine similarity,
skipping the excluded words
*/
func (wv *WordVectors) MostSimilar(query []float32, k int, exclude ...string) ([]ranker.ScoredResult, error) {
	return ranker.Rank(query, wv.candidates, ranker.Options{
		K:       k,
		Metric:  ranker.Cosine,
		Exclude: ranker.ExcludeIDs(wv.canonical(exclude)...),
	})
}

// MostSimilarWord returns the k nearest words to word, excluding word itself.
func (wv *WordVectors) MostSimilarWord(word string, k int) ([]ranker.ScoredResult, error) {
	v, err := wv.Vector(word)
	if err != nil {
		return nil, err
	}
	return wv.MostSimilar(v, k, word)
}

/*
Analogy answers "a is to b as ? is to c" with the words nearest to a - b + c,
excluding a, b and c. Analogy("king", "man", "woman", 1) is expected to
return "queen".
*/
func (wv *WordVectors) Analogy(a, b, c string, k int) ([]ranker.ScoredResult, error) {
	query, err := wv.AnalogyQuery(a, b, c)
	if err != nil {
		return nil, err
	}
	return wv.MostSimilar(query, k, a, b, c)
}

// AnalogyQuery returns the offset vector a - b + c.
func (wv *WordVectors) AnalogyQuery(a, b, c string) ([]float32, error) {
	va, err := wv.Vector(a)
	if err != nil {
		return nil, err
	}
	vb, err := wv.Vector(b)
	if err != nil {
		return nil, err
	}
	vc, err := wv.Vector(c)
	if err != nil {
		return nil, err
	}
	return db.Offset(va, vb, vc)
}

/*
IndexInto adds every word to a collection so lookups can go through its HNSW graph
*/
func (wv *WordVectors) IndexInto(col *db.Collection) error {
	for i, word := range wv.words {
		v := db.Vector{ID: word, Data: wv.vectors[i], Meta: ranker.Meta{Name: word}}
		if err := col.Add(v); err != nil {
			return fmt.Errorf("index %q: %w", word, err)
		}
		if i > 0 && i%10000 == 0 {
			log.Infof("indexed %d words...", i)
		}
	}
	return nil
}

/*
WriteGloVe writes the given words, or the whole vocabulary when none are
given, in the text format. Unknown words are skipped.
*/
func (wv *WordVectors) WriteGloVe(w io.Writer, words ...string) (int, error) {
	bw := bufio.NewWriter(w)
	written := 0
	for _, i := range wv.selection(words) {
		parts := make([]string, 0, wv.dims+1)
		parts = append(parts, wv.words[i])
		for _, val := range wv.vectors[i] {
			parts = append(parts, strconv.FormatFloat(float64(val), 'f', 6, 32))
		}
		if _, err := fmt.Fprintln(bw, strings.Join(parts, " ")); err != nil {
			return written, err
		}
		written++
	}
	return written, bw.Flush()
}

/*
WriteWord2Vec writes the given words, or the whole vocabulary, in the binary format
*/
func (wv *WordVectors) WriteWord2Vec(w io.Writer, words ...string) (int, error) {
	selected := wv.selection(words)
	bw := bufio.NewWriter(w)
	if _, err := fmt.Fprintf(bw, "%d %d\n", len(selected), wv.dims); err != nil {
		return 0, err
	}
	for n, i := range selected {
		if _, err := bw.WriteString(wv.words[i] + " "); err != nil {
			return n, err
		}
		if err := binary.Write(bw, binary.LittleEndian, wv.vectors[i]); err != nil {
			return n, err
		}
		if err := bw.WriteByte('\n'); err != nil {
			return n, err
		}
	}
	return len(selected), bw.Flush()
}

func (wv *WordVectors) selection(words []string) []int {
	if len(words) == 0 {
		all := make([]int, len(wv.words))
		for i := range all {
			all[i] = i
		}
		return all
	}
	seen := make(map[int]bool, len(words))
	selected := make([]int, 0, len(words))
	for _, word := range words {
		if i, ok := wv.lookup(word); ok && !seen[i] {
			seen[i] = true
			selected = append(selected, i)
		}
	}
	return selected
}

func (wv *WordVectors) canonical(words []string) []string {
	out := make([]string, 0, len(words))
	for _, w := range words {
		if i, ok := wv.lookup(w); ok {
			out = append(out, wv.words[i])
		} else {
			out = append(out, w)
		}
	}
	return out
}
