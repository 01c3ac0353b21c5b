package models

import (
	"encoding/json"
	"fmt"
	"slices"
	"sort"
)

type QuestionType string

const (
	MultipleChoice QuestionType = "multiple_choice"
	TrueFalse      QuestionType = "true_false"
	ShortAnswer    QuestionType = "short_answer"
	Essay          QuestionType = "essay"
	Matching       QuestionType = "matching"
	Ordering       QuestionType = "ordering"
	FillInBlank    QuestionType = "fill_blank"
	Hotspot        QuestionType = "hotspot"
	DragDrop       QuestionType = "drag_drop"
)

// QuestionTypes lists every supported question type in declaration order.
var QuestionTypes = []QuestionType{
	MultipleChoice, TrueFalse, ShortAnswer, Essay, Matching, Ordering, FillInBlank, Hotspot, DragDrop,
}

type DifficultyLevel string

const (
	DifficultyEasy   DifficultyLevel = "easy"
	DifficultyMedium DifficultyLevel = "medium"
	DifficultyHard   DifficultyLevel = "hard"
)

// CriterionType classifies the evidence a question collects for a competency standard.
type CriterionType string

const (
	CriterionPerformance CriterionType = "DESEMPENO"
	CriterionKnowledge   CriterionType = "CONOCIMIENTO"
	CriterionProduct     CriterionType = "PRODUCTO"
	CriterionAttitude    CriterionType = "ACTITUD"
)

const DefaultQuestionPoints = 10.0

// Question is an authored, immutable question. The type-specific payload lives in
// Content and is one of the *...Content variants below; on the wire the payload
// fields are flattened next to the base fields.
type Question struct {
	ID          string          `json:"id" validate:"required"`
	Type        QuestionType    `json:"type" validate:"required,question_type"`
	Text        string          `json:"question" validate:"required"`
	Points      float64         `json:"points,omitempty" validate:"gte=0"`
	Explanation string          `json:"explanation,omitempty"`
	Hint        string          `json:"hint,omitempty"`
	Tags        []string        `json:"tags,omitempty"`
	Difficulty  DifficultyLevel `json:"difficulty,omitempty" validate:"omitempty,difficulty_level"`

	// Competency metadata
	ECCode        string        `json:"ec_code,omitempty"`
	CriterionCode string        `json:"criterion_code,omitempty"`
	CriterionType CriterionType `json:"criterion_type,omitempty" validate:"omitempty,criterion_type"`
	ElementIndex  *int          `json:"element_index,omitempty"`

	Content QuestionContent `json:"-" validate:"-"`
}

// MaxPoints returns the declared points, falling back to DefaultQuestionPoints.
func (q *Question) MaxPoints() float64 {
	if q.Points <= 0 {
		return DefaultQuestionPoints
	}
	return q.Points
}

// QuestionContent is the closed set of type-specific payloads.
type QuestionContent interface {
	ContentType() QuestionType
	sanitized() QuestionContent
}

type MultipleChoiceContent struct {
	Options         []string `json:"options"`
	Correct         *int     `json:"correct,omitempty"`
	MultiSelect     bool     `json:"multi_select,omitempty"`
	CorrectMultiple []int    `json:"correct_multiple,omitempty"`
}

type TrueFalseContent struct {
	Correct *bool `json:"correct,omitempty"`
}

type ShortAnswerContent struct {
	SampleAnswer  string   `json:"sample_answer,omitempty"`
	Keywords      []string `json:"keywords,omitempty"`
	ExactMatch    bool     `json:"exact_match,omitempty"`
	FuzzyMatch    bool     `json:"fuzzy_match,omitempty"`
	CaseSensitive bool     `json:"case_sensitive,omitempty"`
}

type RubricLevel struct {
	Label       string  `json:"label"`
	Points      float64 `json:"points"`
	Description string  `json:"description,omitempty"`
}

type RubricCriterion struct {
	Criterion   string        `json:"criterion"`
	Description string        `json:"description,omitempty"`
	MaxPoints   float64       `json:"max_points"`
	Levels      []RubricLevel `json:"levels,omitempty"`
}

type EssayContent struct {
	Rubric   []RubricCriterion `json:"rubric"`
	MinWords int               `json:"min_words,omitempty"`
	MaxWords int               `json:"max_words,omitempty"`
}

type MatchPair struct {
	Left  string `json:"left"`
	Right string `json:"right"`
}

type MatchingContent struct {
	Pairs []MatchPair `json:"pairs,omitempty"`

	// Populated only on sanitized copies, so a learner sees both columns
	// without the pairing.
	LeftItems  []string `json:"left_items,omitempty"`
	RightItems []string `json:"right_items,omitempty"`
}

type OrderingContent struct {
	Items        []string `json:"items"`
	CorrectOrder []int    `json:"correct_order,omitempty"`
}

type Blank struct {
	ID              string   `json:"id,omitempty"`
	AcceptedAnswers []string `json:"accepted_answers,omitempty"`
	CaseSensitive   bool     `json:"case_sensitive,omitempty"`
}

type FillBlankContent struct {
	Template string  `json:"template"`
	Blanks   []Blank `json:"blanks"`
}

// HotspotContent and DragDropContent are carried opaquely; their structure is
// owned by the authoring UI.
type HotspotContent struct {
	Image   string          `json:"image,omitempty"`
	Regions json.RawMessage `json:"regions,omitempty"`
}

type DragDropContent struct {
	Items json.RawMessage `json:"items,omitempty"`
	Zones json.RawMessage `json:"zones,omitempty"`
}

func (*MultipleChoiceContent) ContentType() QuestionType { return MultipleChoice }
func (*TrueFalseContent) ContentType() QuestionType      { return TrueFalse }
func (*ShortAnswerContent) ContentType() QuestionType    { return ShortAnswer }
func (*EssayContent) ContentType() QuestionType          { return Essay }
func (*MatchingContent) ContentType() QuestionType       { return Matching }
func (*OrderingContent) ContentType() QuestionType       { return Ordering }
func (*FillBlankContent) ContentType() QuestionType      { return FillInBlank }
func (*HotspotContent) ContentType() QuestionType        { return Hotspot }
func (*DragDropContent) ContentType() QuestionType       { return DragDrop }

func (c *MultipleChoiceContent) sanitized() QuestionContent {
	return &MultipleChoiceContent{Options: slices.Clone(c.Options), MultiSelect: c.MultiSelect}
}

func (c *TrueFalseContent) sanitized() QuestionContent {
	return &TrueFalseContent{}
}

func (c *ShortAnswerContent) sanitized() QuestionContent {
	return &ShortAnswerContent{}
}

func (c *EssayContent) sanitized() QuestionContent {
	out := *c
	out.Rubric = slices.Clone(c.Rubric)
	return &out
}

func (c *MatchingContent) sanitized() QuestionContent {
	out := &MatchingContent{}
	for _, p := range c.Pairs {
		out.LeftItems = append(out.LeftItems, p.Left)
		out.RightItems = append(out.RightItems, p.Right)
	}
	sort.Strings(out.RightItems)
	return out
}

func (c *OrderingContent) sanitized() QuestionContent {
	return &OrderingContent{Items: slices.Clone(c.Items)}
}

func (c *FillBlankContent) sanitized() QuestionContent {
	out := &FillBlankContent{Template: c.Template, Blanks: make([]Blank, len(c.Blanks))}
	for i, b := range c.Blanks {
		out.Blanks[i] = Blank{ID: b.ID}
	}
	return out
}

func (c *HotspotContent) sanitized() QuestionContent {
	return &HotspotContent{Image: c.Image}
}

func (c *DragDropContent) sanitized() QuestionContent {
	return &DragDropContent{Items: c.Items}
}

// Sanitized returns a copy of the question with every correctness-revealing
// field removed. The engine never calls this itself; hosts must apply it before
// a question reaches a learner.
func (q *Question) Sanitized() *Question {
	out := *q
	out.Explanation = ""
	out.Tags = slices.Clone(q.Tags)
	if q.Content != nil {
		out.Content = q.Content.sanitized()
	}
	return &out
}

// NewQuestionContent returns an empty payload for the given type, or nil when
// the type is unknown.
func NewQuestionContent(t QuestionType) QuestionContent {
	switch t {
	case MultipleChoice:
		return &MultipleChoiceContent{}
	case TrueFalse:
		return &TrueFalseContent{}
	case ShortAnswer:
		return &ShortAnswerContent{}
	case Essay:
		return &EssayContent{}
	case Matching:
		return &MatchingContent{}
	case Ordering:
		return &OrderingContent{}
	case FillInBlank:
		return &FillBlankContent{}
	case Hotspot:
		return &HotspotContent{}
	case DragDrop:
		return &DragDropContent{}
	default:
		return nil
	}
}

type questionAlias Question

func (q Question) MarshalJSON() ([]byte, error) {
	base, err := json.Marshal(questionAlias(q))
	if err != nil {
		return nil, err
	}
	if q.Content == nil {
		return base, nil
	}

	content, err := json.Marshal(q.Content)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s content: %w", q.Type, err)
	}

	fields := map[string]json.RawMessage{}
	if err := json.Unmarshal(base, &fields); err != nil {
		return nil, err
	}
	extra := map[string]json.RawMessage{}
	if err := json.Unmarshal(content, &extra); err != nil {
		return nil, err
	}
	for k, v := range extra {
		if _, exists := fields[k]; !exists {
			fields[k] = v
		}
	}
	return json.Marshal(fields)
}

// UnmarshalJSON decodes the flat wire format. An unknown type leaves Content nil
// so the validator, not the decoder, rejects the question.
func (q *Question) UnmarshalJSON(data []byte) error {
	var alias questionAlias
	if err := json.Unmarshal(data, &alias); err != nil {
		return err
	}

	content := NewQuestionContent(alias.Type)
	if content != nil {
		if err := json.Unmarshal(data, content); err != nil {
			return fmt.Errorf("invalid %s content: %w", alias.Type, err)
		}
	}

	*q = Question(alias)
	q.Content = content
	return nil
}
