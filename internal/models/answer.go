package models

import "time"

// QuestionResponse is one recorded answer within a session. Answer holds the
// type-dependent shape:
//
//	multiple_choice  int, or []int when multi-select
//	true_false       bool
//	short_answer     string
//	essay            string
//	matching         []MatchPair or map[string]string (left -> right)
//	ordering         []int (item indices in submitted order)
//	fill_blank       []string (by blank position) or map[string]string (by blank id)
//
// Values decoded from JSON (float64, []any, map[string]any) are accepted too.
type QuestionResponse struct {
	QuestionID string    `json:"question_id"`
	Answer     any       `json:"answer"`
	Timestamp  time.Time `json:"timestamp"`
	TimeSpent  int       `json:"time_spent"` // seconds
}

// ResponseMap indexes responses by question id.
func ResponseMap(responses []QuestionResponse) map[string]any {
	out := make(map[string]any, len(responses))
	for _, r := range responses {
		out[r.QuestionID] = r.Answer
	}
	return out
}
