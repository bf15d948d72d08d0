package explain

import (
	"regexp"
	"strings"

	"github.com/linchen/gokao/internal/quiz"
)

// Params selects the framing of the generated explanation. Any change
// to these values produces a different prompt string, which invalidates
// the per-question cache entry.
type Params struct {
	// Detail asks for a full-length explanation instead of the
	// one-minute summary.
	Detail bool

	// Honest asks the model to admit uncertainty rather than invent
	// statutes or citations.
	Honest bool

	// ChoiceOnly restricts the explanation to the options themselves.
	ChoiceOnly bool
}

const (
	promptBrief  = "請以繁體中文，針對以下問題，生成 1 分鐘內可以閱讀完的詳解，包含關鍵概念和每個選項解釋，文字簡明，重點清楚："
	promptDetail = "請以繁體中文，針對以下問題提供詳細的解釋："

	promptHonest     = "若不確定答案的依據，請誠實說明不確定，不要編造法條或出處。"
	promptChoiceOnly = "請僅針對各選項逐一解釋，不要延伸其他內容。"
)

// crossRefPattern finds a cross-reference marker in a question body,
// e.g. 「承第12題」 or 「同第 3 題」.
var crossRefPattern = regexp.MustCompile(`第\s*([0-9]+)\s*題`)

// digitFolder maps fullwidth digits to ASCII so the marker pattern
// matches either form.
var digitFolder = strings.NewReplacer(
	"０", "0", "１", "1", "２", "2", "３", "3", "４", "4",
	"５", "5", "６", "6", "７", "7", "８", "8", "９", "9",
)

// trailingDigits matches the trailing numeral of a question identifier.
var trailingDigits = regexp.MustCompile(`[0-9]+$`)

// BuildPrompt produces the deterministic prompt string for a question.
// relatedBody, when non-empty, is the body of the question the current
// one cross-references; it is appended so the model has the context the
// question assumes.
func BuildPrompt(q quiz.Question, p Params, relatedBody string) string {
	var b strings.Builder

	if p.Detail {
		b.WriteString(promptDetail)
	} else {
		b.WriteString(promptBrief)
	}
	if p.Honest {
		b.WriteString("\n")
		b.WriteString(promptHonest)
	}
	if p.ChoiceOnly {
		b.WriteString("\n")
		b.WriteString(promptChoiceOnly)
	}

	b.WriteString("\n\n題目：")
	b.WriteString(q.Body)
	b.WriteString("\n選項：")
	b.WriteString(strings.Join(q.Options, " "))
	b.WriteString("\n答案：")
	b.WriteString(q.Answer)

	if relatedBody != "" {
		b.WriteString("\n\n關聯題目：")
		b.WriteString(relatedBody)
	}

	return b.String()
}

// RelatedID resolves a cross-reference in the question body to a full
// question identifier. A body containing 「承第3題」 on a question with
// identifier "113司法-12" yields "113司法-3". It returns "" when the
// body has no marker or the identifier has no trailing numeral to
// substitute.
func RelatedID(q quiz.Question) string {
	m := crossRefPattern.FindStringSubmatch(digitFolder.Replace(q.Body))
	if m == nil {
		return ""
	}
	if !trailingDigits.MatchString(q.ID) {
		return ""
	}
	related := trailingDigits.ReplaceAllString(q.ID, m[1])
	if related == q.ID {
		return ""
	}
	return related
}
