package response

import (
	"encoding/json"
	"testing"
)

func TestNewSetsMetadataTimestampAndVersion(t *testing.T) {
	r := New(StatusSuccess, "done")

	md := r.Metadata()
	if _, ok := md["timestamp"]; !ok {
		t.Error("metadata missing timestamp")
	}
	if md["version"] != Version {
		t.Errorf("metadata version = %v, want %q", md["version"], Version)
	}
	if !ValidateID(r.ID()) {
		t.Errorf("invalid response ID %q", r.ID())
	}
}

func TestFactories(t *testing.T) {
	tests := []struct {
		name string
		resp *EnhancedResponse
		want Status
	}{
		{"success", Success("ok"), StatusSuccess},
		{"error", Error("boom"), StatusError},
		{"warning", Warning("careful"), StatusWarning},
		{"info", Info("fyi"), StatusInfo},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.resp.Status() != tt.want {
				t.Errorf("status = %q, want %q", tt.resp.Status(), tt.want)
			}
		})
	}
}

func TestMutatorsChain(t *testing.T) {
	r := Success("committed").
		AddContext("operation", "git.commit.success").
		AddMetadata("tool", "git_commit").
		AddSuggestion("create_pr", "Open a pull request", "high").
		AddRisk(RiskLow, "large changeset", "split the commit")

	if got := r.Context()["operation"]; got != "git.commit.success" {
		t.Errorf("context operation = %v", got)
	}
	if got := r.Metadata()["tool"]; got != "git_commit" {
		t.Errorf("metadata tool = %v", got)
	}
	if len(r.Suggestions()) != 1 || len(r.Risks()) != 1 {
		t.Errorf("suggestions = %d, risks = %d, want 1 and 1",
			len(r.Suggestions()), len(r.Risks()))
	}
}

func TestAppendOnly(t *testing.T) {
	r := Success("ok")
	const n = 7
	for i := 0; i < n; i++ {
		r.AddSuggestion("a", "d", "low")
		r.AddRisk(RiskMedium, "d", "m")
	}
	if len(r.Suggestions()) != n {
		t.Errorf("suggestions = %d, want %d", len(r.Suggestions()), n)
	}
	if len(r.Risks()) != n {
		t.Errorf("risks = %d, want %d", len(r.Risks()), n)
	}
}

func TestContextLastWriteWins(t *testing.T) {
	r := Success("ok").
		AddContext("branch", "main").
		AddContext("branch", "feature/x")
	if got := r.Context()["branch"]; got != "feature/x" {
		t.Errorf("branch = %v, want feature/x", got)
	}
}

func TestSetTeamActivityReplaces(t *testing.T) {
	r := Success("ok")
	if r.TeamActivity() != nil {
		t.Fatal("teamActivity should start nil")
	}
	r.SetTeamActivity(map[string]any{"contributors": 2})
	r.SetTeamActivity(map[string]any{"contributors": 3})
	got, ok := r.TeamActivity().(map[string]any)
	if !ok || got["contributors"] != 3 {
		t.Errorf("teamActivity = %v, want replaced value", r.TeamActivity())
	}
}

func TestHighestRiskLevel(t *testing.T) {
	tests := []struct {
		name   string
		levels []RiskLevel
		want   RiskLevel
	}{
		{"empty", nil, RiskNone},
		{"single", []RiskLevel{RiskLow}, RiskLow},
		{"max wins", []RiskLevel{RiskLow, RiskHigh, RiskMedium}, RiskHigh},
		{"critical", []RiskLevel{RiskCritical, RiskLow}, RiskCritical},
		{"unknown excluded", []RiskLevel{"catastrophic", RiskMedium}, RiskMedium},
		{"only unknown", []RiskLevel{"weird"}, RiskNone},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := Success("ok")
			for _, l := range tt.levels {
				r.AddRisk(l, "d", "m")
			}
			if got := r.HighestRiskLevel(); got != tt.want {
				t.Errorf("HighestRiskLevel() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestStatusQueries(t *testing.T) {
	if !Error("boom").HasErrors() {
		t.Error("error response should report HasErrors")
	}
	if Success("ok").HasErrors() {
		t.Error("success response should not report HasErrors")
	}
	if !Warning("careful").HasWarnings() {
		t.Error("warning response should report HasWarnings")
	}
	if !Success("ok").AddRisk(RiskLow, "d", "m").HasWarnings() {
		t.Error("response with risks should report HasWarnings")
	}
	if !Success("ok").IsSuccess() {
		t.Error("success response should report IsSuccess")
	}
}

func TestRecordEnhancementError(t *testing.T) {
	r := Success("ok").
		RecordEnhancementError("risk-assessment", "boom", false).
		RecordEnhancementError("team-activity", "deadline exceeded", true)

	errs := r.EnhancementErrors()
	if len(errs) != 2 {
		t.Fatalf("recorded %d errors, want 2", len(errs))
	}
	if errs[0].Enhancer != "risk-assessment" || errs[0].TimedOut {
		t.Errorf("first entry = %+v", errs[0])
	}
	if !errs[1].TimedOut {
		t.Errorf("second entry should be a timeout: %+v", errs[1])
	}
}

func TestWireShape(t *testing.T) {
	r := Success("committed").
		SetData(map[string]any{"sha": "abc123"}).
		AddContext("operation", "git.commit.success").
		AddSuggestion("create_pr", "Open a pull request", "high").
		AddRisk(RiskMedium, "pushing to main", "use a feature branch")

	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	for _, key := range []string{"status", "message", "data", "context", "metadata", "suggestions", "risks", "teamActivity"} {
		if _, ok := obj[key]; !ok {
			t.Errorf("wire shape missing key %q", key)
		}
	}
	if obj["status"] != "success" {
		t.Errorf("status = %v", obj["status"])
	}
	if _, ok := obj["suggestions"].([]any); !ok {
		t.Errorf("suggestions should be an array, got %T", obj["suggestions"])
	}
}

func TestMarshalEmptyArraysNeverNull(t *testing.T) {
	data, err := json.Marshal(Success("ok"))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var obj map[string]any
	if err := json.Unmarshal(data, &obj); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if _, ok := obj["suggestions"].([]any); !ok {
		t.Errorf("empty suggestions should marshal as [], got %v", obj["suggestions"])
	}
	if _, ok := obj["risks"].([]any); !ok {
		t.Errorf("empty risks should marshal as [], got %v", obj["risks"])
	}
}

func TestObjectMatchesJSON(t *testing.T) {
	r := Info("state").
		AddMetadata("enhancedAt", "2026-01-01T00:00:00Z").
		AddSuggestion("commit", "Commit staged changes", "medium")

	fromObject, err := json.Marshal(r.Object())
	if err != nil {
		t.Fatalf("marshal object: %v", err)
	}
	fromJSON, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("marshal response: %v", err)
	}

	var a, b map[string]any
	if err := json.Unmarshal(fromObject, &a); err != nil {
		t.Fatal(err)
	}
	if err := json.Unmarshal(fromJSON, &b); err != nil {
		t.Fatal(err)
	}
	for _, key := range []string{"status", "message", "context", "metadata", "suggestions", "risks"} {
		aj, _ := json.Marshal(a[key])
		bj, _ := json.Marshal(b[key])
		if string(aj) != string(bj) {
			t.Errorf("Object and MarshalJSON disagree on %q: %s vs %s", key, aj, bj)
		}
	}
}
