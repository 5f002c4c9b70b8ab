package feature

import (
	"math"
	"sort"
	"strings"

	"github.com/ledgerloom/ledgerloom/internal/common"
	"github.com/ledgerloom/ledgerloom/internal/model"
)

// tokenizeLower produces lowercased vocabulary terms from a raw description.
func tokenizeLower(description string) []string {
	return common.Tokenize(strings.ToLower(common.NormalizeText(description)))
}

// fitVocabulary builds the batch-scoped TF-IDF vocabulary: the top
// DescriptionDims terms by document frequency, ties broken alphabetically so
// the fit is deterministic.
func (s *VectorizerState) fitVocabulary(transactions []model.Transaction) {
	docFreq := make(map[string]int)
	for i := range transactions {
		seen := make(map[string]bool)
		for _, tok := range tokenizeLower(transactions[i].Description) {
			if !seen[tok] {
				seen[tok] = true
				docFreq[tok]++
			}
		}
	}

	terms := make([]string, 0, len(docFreq))
	for term := range docFreq {
		terms = append(terms, term)
	}
	sort.Slice(terms, func(i, j int) bool {
		if docFreq[terms[i]] != docFreq[terms[j]] {
			return docFreq[terms[i]] > docFreq[terms[j]]
		}
		return terms[i] < terms[j]
	})
	if len(terms) > DescriptionDims {
		terms = terms[:DescriptionDims]
	}

	s.numDocs = len(transactions)
	s.Vocabulary = terms
	s.vocabIndex = make(map[string]int, len(terms))
	s.docFreq = make([]int, len(terms))
	for i, term := range terms {
		s.vocabIndex[term] = i
		s.docFreq[i] = docFreq[term]
	}
}

// encodeDescription writes the TF-IDF sub-vector for one description,
// l2-normalized so description length does not dominate distance.
func (s *VectorizerState) encodeDescription(dst []float64, description string) int {
	for i := range dst {
		dst[i] = 0
	}

	tokens := tokenizeLower(description)
	if len(tokens) == 0 {
		return DescriptionDims
	}

	counts := make(map[int]int)
	for _, tok := range tokens {
		if idx, ok := s.vocabIndex[tok]; ok {
			counts[idx]++
		}
	}

	var norm float64
	for idx, count := range counts {
		tf := float64(count) / float64(len(tokens))
		idf := math.Log(float64(1+s.numDocs)/float64(1+s.docFreq[idx])) + 1
		dst[idx] = tf * idf
		norm += dst[idx] * dst[idx]
	}
	if norm > 0 {
		norm = math.Sqrt(norm)
		for idx := range counts {
			dst[idx] /= norm
		}
	}

	return DescriptionDims
}
