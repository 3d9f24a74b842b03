package project

import "testing"

func TestStageLabelsRoundTrip(t *testing.T) {
	want := map[Stage]string{
		StageManageTeam:     "Manage Team",
		StageResearch:       "Research",
		StageIdeation:       "Ideation",
		StagePRD:            "PRD",
		StageImplementation: "Implementation",
	}
	for stage, label := range want {
		if got := stage.Label(); got != label {
			t.Errorf("Stage(%d).Label() = %q, want %q", stage, got, label)
		}
		back, ok := StageFromLabel(label)
		if !ok || back != stage {
			t.Errorf("StageFromLabel(%q) = %d, %v", label, back, ok)
		}
	}
}

func TestInvalidStages(t *testing.T) {
	for _, s := range []Stage{0, 6, -1} {
		if s.Valid() {
			t.Errorf("Stage(%d).Valid() = true", s)
		}
		if s.Label() != "" {
			t.Errorf("Stage(%d).Label() = %q, want empty", s, s.Label())
		}
	}
	if _, ok := StageFromLabel("research"); ok {
		t.Error("StageFromLabel is case sensitive; lowercase must not match")
	}
}

func TestMembershipStage(t *testing.T) {
	if got := (Membership{CurrentStatus: "PRD"}).Stage(); got != StagePRD {
		t.Errorf("Stage() = %d, want %d", got, StagePRD)
	}
	if got := (Membership{CurrentStatus: "Archived"}).Stage(); got != 0 {
		t.Errorf("Stage() for unknown label = %d, want 0", got)
	}
}
