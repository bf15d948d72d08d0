package quiz

import "strings"

// Kind discriminates single-answer from multi-answer questions.
type Kind int

const (
	KindSingle Kind = iota
	KindMulti
)

// String returns the bank-format marker for the kind (單/複).
func (k Kind) String() string {
	if k == KindMulti {
		return "複"
	}
	return "單"
}

// Question is one loaded multiple-choice question. Questions are immutable
// after load; presentation flags live on Annotated copies, never here.
type Question struct {
	// ID is globally unique within a corpus: "<sourceStem>_<rawId>".
	ID string `json:"id"`

	Kind Kind `json:"kind"`

	// Body is the question text with newlines collapsed to spaces.
	Body string `json:"body"`

	// Options holds the choice texts in display order, typically five.
	Options []string `json:"options"`

	// Answer is the correct letter set, e.g. "B" or "AC".
	Answer string `json:"answer"`

	// Source records provenance (exam name, year).
	Source string `json:"source,omitempty"`

	// Image is an optional embedded image payload (base64).
	Image string `json:"image,omitempty"`
}

// Annotated is a presentation copy of a Question carrying the two
// UI-derived flags. These flags are computed on read and must never be
// persisted back into the corpus.
type Annotated struct {
	Question
	IsMarked   bool `json:"is_marked"`
	IsMultiple bool `json:"is_multiple"`
}

// Annotate builds the presentation copy of q.
func Annotate(q Question, marked bool) Annotated {
	return Annotated{
		Question:   q,
		IsMarked:   marked,
		IsMultiple: q.Kind == KindMulti,
	}
}

// NormalizeAnswer canonicalizes a user- or bank-supplied answer string for
// comparison: trimmed, uppercased, fullwidth letters folded to ASCII.
func NormalizeAnswer(s string) string {
	s = strings.TrimSpace(s)
	s = FoldFullwidth(s)
	return strings.ToUpper(s)
}

var fullwidthFolder = strings.NewReplacer(
	"Ａ", "A", "Ｂ", "B", "Ｃ", "C", "Ｄ", "D", "Ｅ", "E",
	"ａ", "a", "ｂ", "b", "ｃ", "c", "ｄ", "d", "ｅ", "e",
)

// FoldFullwidth replaces fullwidth option letters with their ASCII forms.
func FoldFullwidth(s string) string {
	return fullwidthFolder.Replace(s)
}

// collapseSpace flattens CRLF/LF runs into single spaces and trims.
func collapseSpace(s string) string {
	s = strings.ReplaceAll(s, "\r\n", " ")
	s = strings.ReplaceAll(s, "\n", " ")
	return strings.TrimSpace(s)
}
