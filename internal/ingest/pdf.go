package ingest

import (
	"encoding/json"
	"fmt"
	"os"
	"os/exec"
	"regexp"
	"strings"
)

// Record is one question-bank entry in the JSON format the quiz loader
// reads (題別/題號/題目/選項/答案/出處).
type Record struct {
	Kind    string   `json:"題別"`
	Number  string   `json:"題號"`
	Body    string   `json:"題目"`
	Options []string `json:"選項"`
	Answer  string   `json:"答案"`
	Source  string   `json:"出處"`
}

// Parser extracts question records from an exam PDF.
type Parser struct {
	pdfPath string

	// AutoItem splits option texts out of the question body when the
	// source PDF does not separate them.
	AutoItem bool
}

// NewParser creates a parser for the given PDF file.
func NewParser(pdfPath string) *Parser {
	return &Parser{pdfPath: pdfPath}
}

// Parse extracts the text with pdftotext and parses it into records.
func (p *Parser) Parse() ([]Record, error) {
	text, err := p.extractText()
	if err != nil {
		return nil, fmt.Errorf("extract text from PDF: %w", err)
	}
	records := ParseText(text, p.AutoItem)
	if len(records) == 0 {
		return nil, fmt.Errorf("no questions found in %s", p.pdfPath)
	}
	return records, nil
}

// extractText uses pdftotext to extract text content.
func (p *Parser) extractText() (string, error) {
	cmd := exec.Command("pdftotext", "-layout", p.pdfPath, "-")
	output, err := cmd.Output()
	if err != nil {
		return "", fmt.Errorf("pdftotext failed: %w", err)
	}
	return string(output), nil
}

var (
	// questionStartPattern matches a question line: an optional kind
	// marker, the number, then the body, e.g. 「複 12、題目...」.
	questionStartPattern = regexp.MustCompile(`^\s*(單|複)?\s*(\d+)\s*[.、．]\s*(.*)$`)

	answerPattern = regexp.MustCompile(`^\s*答案?\s*[：:]\s*([A-EＡ-Ｅa-e]+)\s*$`)
	sourcePattern = regexp.MustCompile(`^\s*出處\s*[：:]\s*(.+)$`)

	// optionStartPattern locates the beginning of each option within a
	// block, matching (A). / (B) / A. / A、 and the fullwidth variants.
	optionStartPattern = regexp.MustCompile(`(?m)^\s*[(（]?[A-EＡ-Ｅ](?:[.．)）\s]|：|:|、)`)
)

// ParseText parses extracted PDF text into bank records. Each question
// starts at a numbered line and runs until the next one; answer and
// source markers inside the block are lifted into their own fields.
func ParseText(text string, autoItem bool) []Record {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	lines := strings.Split(text, "\n")

	var records []Record
	var current *Record
	var block []string

	flush := func() {
		if current == nil {
			return
		}
		body := strings.TrimSpace(strings.Join(block, "\n"))
		if autoItem {
			current.Body, current.Options = SplitOptions(body)
		} else {
			current.Body = collapseLines(body)
		}
		if current.Options == nil {
			current.Options = []string{}
		}
		if current.Kind == "" {
			if len(current.Answer) > 1 {
				current.Kind = "複"
			} else {
				current.Kind = "單"
			}
		}
		if current.Body != "" {
			records = append(records, *current)
		}
		current = nil
		block = nil
	}

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}

		if m := answerPattern.FindStringSubmatch(trimmed); m != nil && current != nil {
			current.Answer = strings.ToUpper(foldFullwidthLetters(m[1]))
			continue
		}
		if m := sourcePattern.FindStringSubmatch(trimmed); m != nil && current != nil {
			current.Source = strings.TrimSpace(m[1])
			continue
		}

		if m := questionStartPattern.FindStringSubmatch(trimmed); m != nil {
			flush()
			current = &Record{Kind: m[1], Number: m[2]}
			if rest := strings.TrimSpace(m[3]); rest != "" {
				block = append(block, rest)
			}
			continue
		}

		if current != nil {
			block = append(block, trimmed)
		}
	}
	flush()

	return records
}

// SplitOptions separates a question body from its option texts. The
// body runs up to the first option marker; options are then split at
// each subsequent marker. A body with no markers comes back unchanged
// with no options.
func SplitOptions(text string) (string, []string) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")

	starts := optionStartPattern.FindAllStringIndex(text, -1)
	if len(starts) == 0 {
		return collapseLines(text), nil
	}

	body := collapseLines(text[:starts[0][0]])

	options := make([]string, 0, len(starts))
	for i, loc := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		if opt := collapseLines(text[loc[0]:end]); opt != "" {
			options = append(options, opt)
		}
	}

	return body, options
}

// WriteBank writes records as an indented JSON bank file.
func WriteBank(path string, records []Record) error {
	data, err := json.MarshalIndent(records, "", "    ")
	if err != nil {
		return fmt.Errorf("marshal bank: %w", err)
	}
	data = append(data, '\n')
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write bank: %w", err)
	}
	return nil
}

// ReadBank reads a JSON bank file back into records.
func ReadBank(path string) ([]Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parse bank %s: %w", path, err)
	}
	return records, nil
}

// collapseLines flattens newline runs into single spaces and trims.
func collapseLines(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
