package research

import (
	"reflect"
	"testing"
)

func TestGroupByAssignee(t *testing.T) {
	topics := []Topic{
		{Topic: "market", AssignedTo: "u2"},
		{Topic: "models", AssignedTo: "u1"},
		{Topic: "pricing", AssignedTo: "u2"},
		{Topic: "orphan"},
	}

	got := GroupByAssignee(topics)
	want := []Group{
		{UserID: "u2", Topics: []string{"market", "pricing"}},
		{UserID: "u1", Topics: []string{"models"}},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("GroupByAssignee() = %+v, want %+v", got, want)
	}
}

func TestHasTasks(t *testing.T) {
	if (Assignment{Tasks: []string{" ", ""}}).HasTasks() {
		t.Error("blank tasks should not count")
	}
	if !(Assignment{Tasks: []string{"x"}}).HasTasks() {
		t.Error("HasTasks() = false, want true")
	}
}
