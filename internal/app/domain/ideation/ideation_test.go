package ideation

import (
	"encoding/json"
	"testing"
)

func TestQnAListAcceptsListAndWrappedObject(t *testing.T) {
	inputs := []string{
		`[{"question":"Who?","answer":"Us"}]`,
		`{"qna":[{"question":"Who?","answer":"Us"}]}`,
		`{"q_n_a":[{"question":"Who?","answer":"Us"}]}`,
	}
	for _, in := range inputs {
		var l QnAList
		if err := json.Unmarshal([]byte(in), &l); err != nil {
			t.Fatalf("Unmarshal(%s) error = %v", in, err)
		}
		if len(l) != 1 || l[0].Question != "Who?" || l[0].Answer != "Us" {
			t.Errorf("Unmarshal(%s) = %+v", in, l)
		}
	}

	var l QnAList
	if err := json.Unmarshal([]byte(`"nope"`), &l); err == nil {
		t.Error("Unmarshal(string) should fail")
	}
}

func TestUpdateApplyPreservesUnsetFields(t *testing.T) {
	rec := Record{ProjectID: "p1", QnA: []QnA{{Question: "q"}}, Pitch: "pitch"}
	prd := "the product requirements"

	got := Update{ProjectID: "p1", PRD: &prd}.Apply(rec)
	if got.PRD != prd || got.Pitch != "pitch" || len(got.QnA) != 1 {
		t.Errorf("Apply() = %+v", got)
	}
	if !got.HasPRD() || !got.HasQnA() {
		t.Error("HasPRD/HasQnA should be true")
	}
}
