package ingest

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const expectedOptionCount = 5

var fullwidthLetters = strings.NewReplacer(
	"Ａ", "A", "Ｂ", "B", "Ｃ", "C", "Ｄ", "D", "Ｅ", "E",
	"ａ", "a", "ｂ", "b", "ｃ", "c", "ｄ", "d", "ｅ", "e",
)

func foldFullwidthLetters(s string) string {
	return fullwidthLetters.Replace(s)
}

func hasFullwidthLetter(s string) bool {
	return strings.ContainsAny(s, "ＡＢＣＤＥａｂｃｄｅ")
}

// Issue reports a bank record that needed fixing or looks suspect.
type Issue struct {
	Number string
	Detail string
}

func (i Issue) String() string {
	return fmt.Sprintf("題號 %s: %s", i.Number, i.Detail)
}

// FixRecords normalizes fullwidth option letters in options and answers
// and reports what it touched, plus records whose option count deviates
// from the usual five.
func FixRecords(records []Record) ([]Record, []Issue) {
	var issues []Issue
	fixed := make([]Record, len(records))

	for i, r := range records {
		for _, opt := range r.Options {
			if hasFullwidthLetter(opt) {
				issues = append(issues, Issue{Number: r.Number, Detail: "選項含全形字母"})
				break
			}
		}
		if hasFullwidthLetter(r.Answer) {
			issues = append(issues, Issue{
				Number: r.Number,
				Detail: fmt.Sprintf("答案含全形字母: %s", r.Answer),
			})
		}

		opts := make([]string, len(r.Options))
		for j, opt := range r.Options {
			opts[j] = foldFullwidthLetters(opt)
		}
		r.Options = opts
		r.Answer = foldFullwidthLetters(r.Answer)

		if len(r.Options) != expectedOptionCount {
			issues = append(issues, Issue{
				Number: r.Number,
				Detail: fmt.Sprintf("選項數量為 %d", len(r.Options)),
			})
		}

		fixed[i] = r
	}

	return fixed, issues
}

// FixFile reads a bank file, normalizes it, and writes the result to
// outPath. The issues found are returned for reporting.
func FixFile(path, outPath string) ([]Issue, error) {
	records, err := ReadBank(path)
	if err != nil {
		return nil, err
	}

	fixed, issues := FixRecords(records)
	if err := os.MkdirAll(filepath.Dir(outPath), 0o755); err != nil {
		return nil, err
	}
	if err := WriteBank(outPath, fixed); err != nil {
		return nil, err
	}
	return issues, nil
}
