package quiz

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// LoadError reports a source that could not be loaded. It is fatal to that
// source only; other sources in the same Load call still load.
type LoadError struct {
	Source string
	Err    error
}

func (e *LoadError) Error() string {
	return fmt.Sprintf("load %s: %v", e.Source, e.Err)
}

func (e *LoadError) Unwrap() error { return e.Err }

// rawRecord is one entry in a question-bank file, in the format the PDF
// ingester emits (題別/題號/題目/選項/答案/出處).
type rawRecord struct {
	Kind    string   `json:"題別"`
	Number  string   `json:"題號"`
	Body    string   `json:"題目"`
	Options []string `json:"選項"`
	Answer  string   `json:"答案"`
	Source  string   `json:"出處"`
	Image   string   `json:"圖片"`
}

// Load reads every bank file in paths and builds a Store over the merged
// corpus. A malformed or unreadable file is skipped and reported in the
// returned LoadError slice; the remaining files still load. Within a file,
// identifier collisions are renamed with a numeric suffix; a file whose
// identifiers collide with an already-loaded file is rejected.
func Load(paths []string) (*Store, []*LoadError) {
	var (
		corpus  []Question
		index   = make(map[string]int)
		failed  []*LoadError
	)

	for _, path := range paths {
		qs, err := loadFile(path)
		if err != nil {
			failed = append(failed, &LoadError{Source: path, Err: err})
			continue
		}

		// Reject the whole file on cross-file collision; the corpus must
		// stay uniquely addressable.
		collided := ""
		for _, q := range qs {
			if _, dup := index[q.ID]; dup {
				collided = q.ID
				break
			}
		}
		if collided != "" {
			failed = append(failed, &LoadError{
				Source: path,
				Err:    fmt.Errorf("duplicate question id %q", collided),
			})
			continue
		}

		for _, q := range qs {
			index[q.ID] = len(corpus)
			corpus = append(corpus, q)
		}
	}

	return newStore(corpus), failed
}

func loadFile(path string) ([]Question, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	if err := validateBank(raw); err != nil {
		return nil, err
	}

	var records []rawRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, fmt.Errorf("parse bank: %w", err)
	}

	stem := sourceStem(path)
	seen := make(map[string]int)
	qs := make([]Question, 0, len(records))

	for _, r := range records {
		q := normalize(r, stem)

		// In-file collisions (the PDF tables occasionally repeat a row
		// number) get a numeric suffix rather than dropping the record.
		// The first repeat of "x" becomes "x_1", the next "x_2".
		if n, dup := seen[q.ID]; dup {
			seen[q.ID] = n + 1
			q.ID = fmt.Sprintf("%s_%d", q.ID, n)
		}
		seen[q.ID]++
		qs = append(qs, q)
	}

	return qs, nil
}

// normalize maps a raw bank record onto the canonical Question shape:
// newlines collapsed, fullwidth letters folded, identifier namespaced by
// the source stem. Prefixing is idempotent so re-ingested files keep
// stable identifiers.
func normalize(r rawRecord, stem string) Question {
	id := strings.TrimSpace(r.Number)
	if !strings.HasPrefix(id, stem+"_") {
		id = stem + "_" + id
	}

	opts := make([]string, len(r.Options))
	for i, o := range r.Options {
		opts[i] = FoldFullwidth(collapseSpace(o))
	}

	kind := KindSingle
	if strings.TrimSpace(r.Kind) == "複" {
		kind = KindMulti
	}

	return Question{
		ID:      id,
		Kind:    kind,
		Body:    collapseSpace(r.Body),
		Options: opts,
		Answer:  NormalizeAnswer(r.Answer),
		Source:  strings.TrimSpace(r.Source),
		Image:   r.Image,
	}
}

func sourceStem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}
