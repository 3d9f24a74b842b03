// Package ideation holds a project's clarifying Q&A, pitch and PRD.
package ideation

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// QnA is one clarifying question and its answer.
type QnA struct {
	Question string `json:"question"`
	Answer   string `json:"answer"`
}

// QnAList decodes either a JSON array of QnA or an object wrapping one under
// "qna" or "q_n_a".
type QnAList []QnA

func (l *QnAList) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*l = nil
		return nil
	}
	if data[0] == '[' {
		var items []QnA
		if err := json.Unmarshal(data, &items); err != nil {
			return err
		}
		*l = items
		return nil
	}
	var wrapped map[string]json.RawMessage
	if err := json.Unmarshal(data, &wrapped); err != nil {
		return fmt.Errorf("q_n_a must be a list of question/answer pairs")
	}
	for _, key := range []string{"qna", "q_n_a"} {
		if raw, ok := wrapped[key]; ok {
			return l.UnmarshalJSON(raw)
		}
	}
	*l = QnAList{}
	return nil
}

// Record is one row of ideation_stage.
type Record struct {
	ProjectID string
	QnA       []QnA
	Pitch     string
	PRD       string
}

// HasQnA reports whether generated questions are cached.
func (r Record) HasQnA() bool { return len(r.QnA) > 0 }

// HasPRD reports whether a PRD is cached.
func (r Record) HasPRD() bool { return strings.TrimSpace(r.PRD) != "" }

// Update writes only the non-nil fields and leaves the rest untouched.
type Update struct {
	ProjectID string
	QnA       *[]QnA
	Pitch     *string
	PRD       *string
}

// Apply merges u into r.
func (u Update) Apply(r Record) Record {
	r.ProjectID = u.ProjectID
	if u.QnA != nil {
		r.QnA = append([]QnA(nil), (*u.QnA)...)
	}
	if u.Pitch != nil {
		r.Pitch = *u.Pitch
	}
	if u.PRD != nil {
		r.PRD = *u.PRD
	}
	return r
}

// MinPRDLength is the shortest PRD accepted from a manual save.
const MinPRDLength = 10
