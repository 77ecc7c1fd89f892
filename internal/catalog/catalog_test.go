package catalog

import "testing"

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want Category
		ok   bool
	}{
		{"chain", CategoryChain, true},
		{" Tire-Front ", CategoryTireFront, true},
		{"BRAKE-PAD-REAR", CategoryBrakePadRear, true},
		{"tire", "", false}, // pooled catalog name, not an installable slot
		{"frame", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := Parse(tt.in)
		if ok != tt.ok || got != tt.want {
			t.Errorf("Parse(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.ok)
		}
	}
}

func TestCanonical(t *testing.T) {
	tests := []struct {
		in   Category
		want Category
	}{
		{CategoryTireFront, CategoryTire},
		{CategoryTireRear, CategoryTire},
		{CategoryBrakePadFront, CategoryBrakePad},
		{CategorySealantRear, CategorySealant},
		{CategoryBrakeRotorFr, CategoryBrakeRotor},
		{CategoryWheelsetRear, CategoryWheel},
		{CategoryChain, CategoryChain},
		{CategoryChainLube, CategoryChainLube},
	}
	for _, tt := range tests {
		if got := Canonical(tt.in); got != tt.want {
			t.Errorf("Canonical(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Continental", "continental"},
		{"  GP  5000 ", "gp 5000"},
		{"Dura\tAce", "dura ace"},
		{"", ""},
	}
	for _, tt := range tests {
		if got := NormalizeName(tt.in); got != tt.want {
			t.Errorf("NormalizeName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestDistanceTracked(t *testing.T) {
	if !DistanceTracked(CategoryChain) {
		t.Errorf("chain should accrue wear with distance")
	}
	if DistanceTracked(CategoryChainLube) {
		t.Errorf("chain lube ages by the calendar, not distance")
	}
	if DistanceTracked(CategorySealantFront) {
		t.Errorf("sealant ages by the calendar, not distance")
	}
}
