package response

import "testing"

func TestRiskLevelOrdinal(t *testing.T) {
	tests := []struct {
		level RiskLevel
		want  int
	}{
		{RiskNone, 0},
		{RiskLow, 1},
		{RiskMedium, 2},
		{RiskHigh, 3},
		{RiskCritical, 4},
		{"catastrophic", -1},
		{"", -1},
	}
	for _, tt := range tests {
		if got := tt.level.Ordinal(); got != tt.want {
			t.Errorf("Ordinal(%q) = %d, want %d", tt.level, got, tt.want)
		}
	}
}

func TestRiskLevelCompare(t *testing.T) {
	if RiskHigh.Compare(RiskLow) <= 0 {
		t.Error("high should compare above low")
	}
	if RiskMedium.Compare(RiskMedium) != 0 {
		t.Error("equal levels should compare equal")
	}
	if RiskLevel("weird").Compare(RiskNone) >= 0 {
		t.Error("unknown levels should compare below none")
	}
}

func TestIDFormat(t *testing.T) {
	id := NewID()
	if !ValidateID(id) {
		t.Errorf("NewID produced invalid ID %q", id)
	}
	if ValidateID("resp_abc") {
		t.Error("foreign prefix should not validate")
	}
	if NewID() == NewID() {
		t.Error("IDs should be unique")
	}
}
