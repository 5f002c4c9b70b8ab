package recurring

import (
	"sort"
	"strings"

	"github.com/ledgerloom/ledgerloom/internal/common"
	"github.com/ledgerloom/ledgerloom/internal/model"
)

// merchantShape is the extracted merchant text rule of a cluster.
type merchantShape struct {
	Pattern             string
	Mode                model.MerchantMatchMode
	CandidateExclusions []string
}

const (
	minPrefixLen    = 5
	minSubstringLen = 3
	maxExclusions   = 5
)

// extractMerchant derives a merchant text pattern from the cluster's
// normalized descriptions. The longest common prefix is preferred when long
// enough; otherwise the longest common substring with contains matching.
// Both are present in every member by construction, so the rule reproduces
// the cluster. Returns ok=false when the descriptions share no usable text.
func extractMerchant(descriptions []string) (merchantShape, bool) {
	normalized := make([]string, len(descriptions))
	for i, d := range descriptions {
		normalized[i] = strings.ToLower(common.NormalizeText(d))
	}

	shape := merchantShape{CandidateExclusions: leftoverTokens(normalized)}

	prefix := strings.TrimSpace(commonPrefix(normalized))
	if len(prefix) >= minPrefixLen {
		shape.Pattern = prefix
		shape.Mode = model.MatchPrefix
		return shape, true
	}

	substr := strings.TrimSpace(commonSubstring(normalized))
	if len(substr) >= minSubstringLen {
		shape.Pattern = substr
		shape.Mode = model.MatchContains
		return shape, true
	}

	if prefix == "" && substr == "" {
		return merchantShape{}, false
	}

	// Short shared text is still usable as a contains rule.
	pat := substr
	if len(prefix) > len(substr) {
		pat = prefix
	}
	shape.Pattern = pat
	shape.Mode = model.MatchContains
	return shape, true
}

func commonPrefix(texts []string) string {
	prefix := texts[0]
	for _, t := range texts[1:] {
		for !strings.HasPrefix(t, prefix) {
			prefix = prefix[:len(prefix)-1]
			if prefix == "" {
				return ""
			}
		}
	}
	return prefix
}

// commonSubstring folds pairwise longest-common-substring across all texts.
// The result is a substring of every input.
func commonSubstring(texts []string) string {
	acc := texts[0]
	for _, t := range texts[1:] {
		acc = longestCommonSubstring(acc, t)
		if acc == "" {
			return ""
		}
	}
	return acc
}

func longestCommonSubstring(a, b string) string {
	if len(a) == 0 || len(b) == 0 {
		return ""
	}
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)
	bestLen, bestEnd := 0, 0
	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
				if curr[j] > bestLen {
					bestLen = curr[j]
					bestEnd = i
				}
			} else {
				curr[j] = 0
			}
		}
		prev, curr = curr, prev
	}
	return a[bestEnd-bestLen : bestEnd]
}

// leftoverTokens surfaces tokens that appear in only a minority of the
// cluster's descriptions as candidate exclusion terms for a reviewer. They
// are advisory: applying them blindly could exclude cluster members.
func leftoverTokens(normalized []string) []string {
	counts := make(map[string]int)
	for _, text := range normalized {
		seen := make(map[string]bool)
		for _, tok := range common.Tokenize(text) {
			if !seen[tok] {
				seen[tok] = true
				counts[tok]++
			}
		}
	}

	half := len(normalized) / 2
	var candidates []string
	for tok, c := range counts {
		if c <= half {
			candidates = append(candidates, tok)
		}
	}
	sort.Strings(candidates)
	if len(candidates) > maxExclusions {
		candidates = candidates[:maxExclusions]
	}
	return candidates
}
