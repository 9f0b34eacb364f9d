package contracts

import (
	"fmt"
	"strings"

	"github.com/sahilm/fuzzy"
)

// FuzzySource adapts the merged definition listing to the fuzzy matcher.
type FuzzySource []Summary

func (s FuzzySource) Len() int {
	return len(s)
}

func (s FuzzySource) String(i int) string {
	kind := "loaded"
	if s[i].Builtin {
		kind = "builtin"
	}
	return fmt.Sprintf("%s_%s", s[i].Name, kind)
}

// Search fuzzy-matches query against the merged definition names and returns
// up to 10 results, best first.
func (r *Registry) Search(query string) []Summary {
	source := FuzzySource(r.ListAll())
	matches := fuzzy.FindFrom(strings.Replace(query, " ", "_", -1), source)
	res := []Summary{}
	for i := 0; i < 10 && i < len(matches); i++ {
		res = append(res, source[matches[i].Index])
	}
	return res
}
