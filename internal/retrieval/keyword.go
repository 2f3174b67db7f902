package retrieval

import (
	"database/sql/driver"
	"strings"
	"unicode"

	"modernc.org/sqlite"
)

func init() {
	if err := sqlite.RegisterDeterministicScalarFunction("keyword_score", 2, keywordScoreFunc); err != nil {
		panic("retrieval: register keyword_score: " + err.Error())
	}
}

func keywordScoreFunc(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	content, _ := args[0].(string)
	query, _ := args[1].(string)
	return keywordScore(content, query), nil
}

// keywordScore is the fraction of distinct query terms (three or more
// letters) that occur in content, case-insensitively.
func keywordScore(content, query string) float64 {
	terms := queryTerms(query)
	if len(terms) == 0 {
		return 0
	}
	lower := strings.ToLower(content)
	matched := 0
	for _, t := range terms {
		if strings.Contains(lower, t) {
			matched++
		}
	}
	return float64(matched) / float64(len(terms))
}

func queryTerms(query string) []string {
	seen := make(map[string]bool)
	var terms []string
	for _, f := range strings.FieldsFunc(strings.ToLower(query), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	}) {
		if len([]rune(f)) < 3 || seen[f] {
			continue
		}
		seen[f] = true
		terms = append(terms, f)
	}
	return terms
}
