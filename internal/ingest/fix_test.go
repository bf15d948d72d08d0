package ingest

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFixRecords_FoldsFullwidthLetters(t *testing.T) {
	records := []Record{
		{
			Number:  "1",
			Body:    "題目",
			Options: []string{"（Ａ）甲", "（Ｂ）乙", "(C)丙", "(D)丁", "(E)戊"},
			Answer:  "Ｂ",
		},
	}

	fixed, issues := FixRecords(records)

	assert.Equal(t, "（A）甲", fixed[0].Options[0])
	assert.Equal(t, "B", fixed[0].Answer)

	// One issue for the options, one for the answer.
	require.Len(t, issues, 2)
}

func TestFixRecords_ReportsOptionCount(t *testing.T) {
	records := []Record{
		{Number: "7", Body: "題目", Options: []string{"(A)甲", "(B)乙"}, Answer: "A"},
	}

	_, issues := FixRecords(records)
	require.Len(t, issues, 1)
	assert.Contains(t, issues[0].Detail, "選項數量為 2")
	assert.Equal(t, "7", issues[0].Number)
}

func TestFixRecords_CleanRecordNoIssues(t *testing.T) {
	records := []Record{
		{
			Number:  "3",
			Body:    "題目",
			Options: []string{"(A)甲", "(B)乙", "(C)丙", "(D)丁", "(E)戊"},
			Answer:  "AC",
		},
	}

	fixed, issues := FixRecords(records)
	require.Empty(t, issues)
	assert.Equal(t, "AC", fixed[0].Answer)
}

func TestFixFile(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "bank.json")
	out := filepath.Join(dir, "fixed", "bank.json")

	records := []Record{
		{Number: "1", Body: "題目",
			Options: []string{"(Ａ)甲", "(B)乙", "(C)丙", "(D)丁", "(E)戊"},
			Answer:  "Ａ"},
	}
	require.NoError(t, WriteBank(in, records))

	issues, err := FixFile(in, out)
	require.NoError(t, err)
	require.Len(t, issues, 2)

	fixed, err := ReadBank(out)
	require.NoError(t, err)
	assert.Equal(t, "A", fixed[0].Answer)
}
