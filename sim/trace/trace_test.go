package trace

import (
	"testing"
)

func TestSessionTrace_RecordResolution_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for decisions
	st := NewSessionTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN a resolution record is recorded
	st.RecordResolution(ResolutionRecord{
		RequestID: "req_1",
		Query:     "解放碑",
		HubKey:    "解放碑",
		Matched:   true,
	})

	// THEN the trace contains one resolution record with correct data
	if len(st.Resolutions) != 1 {
		t.Fatalf("expected 1 resolution, got %d", len(st.Resolutions))
	}
	if st.Resolutions[0].RequestID != "req_1" {
		t.Errorf("expected request ID req_1, got %s", st.Resolutions[0].RequestID)
	}
	if !st.Resolutions[0].Matched {
		t.Error("expected matched=true")
	}
}

func TestSessionTrace_RecordAssignment_AppendsRecord(t *testing.T) {
	// GIVEN a trace configured for decisions
	st := NewSessionTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN an assignment record is recorded
	st.RecordAssignment(AssignmentRecord{
		RequestID:      "req_1",
		HubKey:         "WFC",
		SpotName:       "五四路社区-共享停车点",
		DistanceMeters: 312,
	})

	// THEN the trace contains one assignment record with correct data
	if len(st.Assignments) != 1 {
		t.Fatalf("expected 1 assignment, got %d", len(st.Assignments))
	}
	if st.Assignments[0].DistanceMeters != 312 {
		t.Errorf("expected distance 312, got %d", st.Assignments[0].DistanceMeters)
	}
}

func TestSessionTrace_MultipleRecords_PreservesOrder(t *testing.T) {
	// GIVEN a trace
	st := NewSessionTrace(TraceConfig{Level: TraceLevelDecisions})

	// WHEN multiple records are added
	st.RecordForecast(ForecastRecord{RequestID: "req_1", Classification: "MODERATE", Deferred: true})
	st.RecordForecast(ForecastRecord{RequestID: "req_2", Classification: "HIGH_DEMAND"})
	st.RecordFailure(FailureRecord{RequestID: "req_3", Reason: "boom"})

	// THEN order is preserved
	if len(st.Forecasts) != 2 {
		t.Fatalf("expected 2 forecasts, got %d", len(st.Forecasts))
	}
	if st.Forecasts[0].RequestID != "req_1" || st.Forecasts[1].RequestID != "req_2" {
		t.Error("forecast order not preserved")
	}
	if len(st.Failures) != 1 || st.Failures[0].RequestID != "req_3" {
		t.Error("failure record mismatch")
	}
}

func TestTraceConfig_Enabled(t *testing.T) {
	if (TraceConfig{Level: TraceLevelNone}).Enabled() {
		t.Error("none level must be disabled")
	}
	if (TraceConfig{}).Enabled() {
		t.Error("empty level must be disabled")
	}
	if !(TraceConfig{Level: TraceLevelDecisions}).Enabled() {
		t.Error("decisions level must be enabled")
	}
}

func TestIsValidTraceLevel_ValidLevels(t *testing.T) {
	tests := []struct {
		level string
		valid bool
	}{
		{"none", true},
		{"decisions", true},
		{"", true}, // empty defaults to none
		{"detailed", false},
		{"foobar", false},
		{"NONE", false}, // case-sensitive
	}
	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			if got := IsValidTraceLevel(tt.level); got != tt.valid {
				t.Errorf("IsValidTraceLevel(%q) = %v, want %v", tt.level, got, tt.valid)
			}
		})
	}
}
