package alerts

import (
	"testing"

	catalog "farmpulse/internal/catalog/domain"
)

func testRequirement() *catalog.Requirement {
	return &catalog.Requirement{
		ID:              "req-1",
		StageID:         "st-veg",
		ReadingTypeCode: "SOIL_MOISTURE",
		MinValue:        55,
		MaxValue:        75,
		OptimalMin:      60,
		OptimalMax:      70,
	}
}

func TestClassify_BelowMin(t *testing.T) {
	cls := Classify(50, testRequirement())
	if cls.Status != StatusBelowMin {
		t.Fatalf("expected BelowMin, got %s", cls.Status)
	}
	if !cls.Breached() {
		t.Fatal("expected breach")
	}
	if cls.ThresholdType() != ThresholdBelowMin {
		t.Fatalf("expected threshold type %s, got %s", ThresholdBelowMin, cls.ThresholdType())
	}
}

func TestClassify_AboveMax(t *testing.T) {
	cls := Classify(80, testRequirement())
	if cls.Status != StatusAboveMax {
		t.Fatalf("expected AboveMax, got %s", cls.Status)
	}
}

func TestClassify_BoundariesInclusive(t *testing.T) {
	req := testRequirement()
	for _, value := range []float64{55, 75} {
		cls := Classify(value, req)
		if cls.Status != StatusOK {
			t.Fatalf("value %.0f: expected OK at band edge, got %s", value, cls.Status)
		}
	}
}

func TestClassify_OptimalSubset(t *testing.T) {
	req := testRequirement()

	cls := Classify(65, req)
	if cls.Status != StatusOK || !cls.WithinOptimal {
		t.Fatalf("expected OK within optimal, got %+v", cls)
	}

	// Tolerable but outside the optimal band.
	cls = Classify(57, req)
	if cls.Status != StatusOK {
		t.Fatalf("expected OK, got %s", cls.Status)
	}
	if cls.WithinOptimal {
		t.Fatal("expected outside optimal")
	}
}

func TestClassify_NilRequirementIsOK(t *testing.T) {
	cls := Classify(9999, nil)
	if cls.Status != StatusOK {
		t.Fatalf("expected OK without a requirement, got %s", cls.Status)
	}
	if cls.Breached() {
		t.Fatal("absence of a rule must not breach")
	}
}

func TestSeverityFor(t *testing.T) {
	req := *testRequirement() // band width 20, quarter = 5

	if got := SeverityFor(52, req, StatusBelowMin); got != SeverityWarning {
		t.Fatalf("overshoot 3: expected Warning, got %s", got)
	}
	if got := SeverityFor(50, req, StatusBelowMin); got != SeverityCritical {
		t.Fatalf("overshoot 5: expected Critical, got %s", got)
	}
	if got := SeverityFor(85, req, StatusAboveMax); got != SeverityCritical {
		t.Fatalf("overshoot 10: expected Critical, got %s", got)
	}
	if got := SeverityFor(65, req, StatusOK); got != SeverityInfo {
		t.Fatalf("no breach: expected Info, got %s", got)
	}
}

func TestBuildMessage(t *testing.T) {
	req := *testRequirement()

	msg := BuildMessage("Soil Moisture", "%", 50, StatusBelowMin, req)
	want := "Soil Moisture 50.0 % is below the minimum 55.0 % (allowed 55.0 - 75.0)"
	if msg != want {
		t.Fatalf("unexpected message:\n got %q\nwant %q", msg, want)
	}

	msg = BuildMessage("", "", 80, StatusAboveMax, req)
	if msg == "" {
		t.Fatal("expected fallback message")
	}
}
