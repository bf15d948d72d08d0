package quiz

import (
	"fmt"
	"regexp"
	"strings"
)

// RegexPrefix marks a search query as a regular expression. Queries
// without it are escaped and matched literally.
const RegexPrefix = "re:"

// Match is one search hit. All fields are highlighted copies; the stored
// corpus is never mutated.
type Match struct {
	ID      string   `json:"id"`
	Body    string   `json:"body"`
	Options []string `json:"options"`
	Answer  string   `json:"answer"`
}

const (
	markOpen  = "<mark>"
	markClose = "</mark>"
)

// Search scans the corpus for query. Matching is case-insensitive over the
// identifier, body, options, and a synthesized "答案:" answer field. An
// empty query returns the full corpus with no highlighting.
func (s *Store) Search(query string) ([]Match, error) {
	if query == "" {
		out := make([]Match, len(s.corpus))
		for i, q := range s.corpus {
			out[i] = Match{
				ID:      q.ID,
				Body:    q.Body,
				Options: append([]string(nil), q.Options...),
				Answer:  "答案:" + q.Answer,
			}
		}
		return out, nil
	}

	pattern := query
	if strings.HasPrefix(query, RegexPrefix) {
		pattern = strings.TrimPrefix(query, RegexPrefix)
	} else {
		pattern = regexp.QuoteMeta(pattern)
	}

	re, err := regexp.Compile("(?i)" + pattern)
	if err != nil {
		return nil, fmt.Errorf("bad search pattern: %w", err)
	}

	var out []Match
	for _, q := range s.corpus {
		m, hit := highlightQuestion(re, q)
		if hit {
			out = append(out, m)
		}
	}
	return out, nil
}

func highlightQuestion(re *regexp.Regexp, q Question) (Match, bool) {
	hit := false

	mark := func(s string) string {
		if !re.MatchString(s) {
			return s
		}
		hit = true
		return re.ReplaceAllStringFunc(s, func(m string) string {
			return markOpen + m + markClose
		})
	}

	m := Match{
		ID:      mark(q.ID),
		Body:    mark(q.Body),
		Options: make([]string, len(q.Options)),
		Answer:  mark("答案:" + q.Answer),
	}
	for i, o := range q.Options {
		m.Options[i] = mark(o)
	}
	return m, hit
}
