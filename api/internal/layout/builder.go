// Package layout reconstructs logical question blocks from classified
// regions sorted into reading order.
package layout

import (
	"regexp"
	"strconv"
	"strings"

	"homework-check/api/internal/region"
)

// AnswerOption is one lettered choice inside a block.
type AnswerOption struct {
	Letter string `json:"letter"`
	Text   string `json:"text"`
}

// QuestionBlock groups everything that belongs to one exercise item.
type QuestionBlock struct {
	Number   int                       `json:"number"`
	Numbered bool                      `json:"numbered"` // false for fallback blocks without a detected number
	Box      region.Rect               `json:"box"`
	Parts    []region.ClassifiedRegion `json:"parts"`
	Options  []AnswerOption            `json:"options,omitempty"`
	Formulas []region.ClassifiedRegion `json:"formulas,omitempty"`
}

// Text returns the block body in reading order, number prefix included.
func (b QuestionBlock) Text() string {
	var sb strings.Builder
	for i, p := range b.Parts {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(strings.TrimSpace(p.Text))
	}
	return sb.String()
}

// Build runs the block state machine over reading-order-sorted regions. A
// question-number region flushes the active block and opens a new one;
// regions seen before the first number attach to no block and survive only in
// the raw-text view.
func Build(regions []region.ClassifiedRegion) []QuestionBlock {
	var blocks []QuestionBlock
	var cur *QuestionBlock

	flush := func() {
		if cur != nil {
			blocks = append(blocks, *cur)
			cur = nil
		}
	}

	for _, r := range regions {
		if r.Type == region.TypeQuestionNumber {
			flush()
			cur = &QuestionBlock{
				Number:   r.Props.QuestionNo,
				Numbered: true,
				Box:      r.Box,
				Parts:    []region.ClassifiedRegion{r},
			}
			continue
		}
		if cur == nil {
			continue // stray content before the first question number
		}
		cur.Box = cur.Box.Union(r.Box)
		switch r.Type {
		case region.TypeChoiceOption:
			cur.Options = append(cur.Options, AnswerOption{
				Letter: r.Props.OptionLetter,
				Text:   r.Props.OptionText,
			})
			cur.Parts = append(cur.Parts, r)
		case region.TypeFormula:
			cur.Formulas = append(cur.Formulas, r)
			cur.Parts = append(cur.Parts, r)
		default:
			cur.Parts = append(cur.Parts, r)
		}
	}
	flush()
	return blocks
}

// RawText concatenates region texts in their given order, one space apart.
func RawText(regions []region.ClassifiedRegion) string {
	parts := make([]string, 0, len(regions))
	for _, r := range regions {
		if s := strings.TrimSpace(r.Text); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, " ")
}

var reInlineNumber = regexp.MustCompile(`(^|\s)(\d+)\s*[.、)）]`)

// BuildFromText is the fallback for inputs where no region classified as a
// question number: segment the concatenated raw text on a number+separator
// pattern. Resulting blocks carry no bounding boxes.
func BuildFromText(raw string) []QuestionBlock {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil
	}
	locs := reInlineNumber.FindAllStringSubmatchIndex(raw, -1)
	if len(locs) == 0 {
		return nil
	}

	var blocks []QuestionBlock
	for i, loc := range locs {
		start := loc[4] // start of the digits group
		end := len(raw)
		if i+1 < len(locs) {
			end = locs[i+1][4]
		}
		seg := strings.TrimSpace(raw[start:end])
		if seg == "" {
			continue
		}
		n, _ := strconv.Atoi(raw[loc[4]:loc[5]])
		blocks = append(blocks, QuestionBlock{
			Number:   n,
			Numbered: true,
			Parts: []region.ClassifiedRegion{
				region.Classify(region.TextRegion{Text: seg, Confidence: 1}),
			},
		})
	}
	return blocks
}
