package raster

import (
	"math"
	"testing"
)

func TestParseFocalStat(t *testing.T) {
	tests := []struct {
		in   string
		want FocalStat
	}{
		{"", FocalMean},
		{"mean", FocalMean},
		{"min", FocalMin},
		{"max", FocalMax},
		{"median", FocalMedian},
	}
	for _, tt := range tests {
		got, err := ParseFocalStat(tt.in)
		if err != nil || got != tt.want {
			t.Errorf("ParseFocalStat(%q): got %v, %v", tt.in, got, err)
		}
	}
	if _, err := ParseFocalStat("variance"); err == nil {
		t.Error("expected error for unknown statistic")
	}
}

func TestFocalMean(t *testing.T) {
	src := rampRaster(3, 3, 1, 0) // values 0..8

	out, err := Focal(src, 1, FocalMean)
	if err != nil {
		t.Fatalf("Focal failed: %v", err)
	}
	if out.Meta().DType != Float32 {
		t.Errorf("DType: got %s, want float32", out.Meta().DType)
	}

	// Center cell sees the full 3x3 window.
	if got := out.Value(1, 1, 1); got != 4 {
		t.Errorf("center: got %g, want 4", got)
	}
	// Corner cell sees only 4 neighbors: 0,1,3,4.
	if got := out.Value(1, 0, 0); got != 2 {
		t.Errorf("corner: got %g, want 2", got)
	}
}

func TestFocalSkipsNaN(t *testing.T) {
	src := constRaster(3, 3, 0, 10)
	src.SetValue(1, 1, 1, math.NaN())

	out, err := Focal(src, 1, FocalMean)
	if err != nil {
		t.Fatalf("Focal failed: %v", err)
	}
	if got := out.Value(1, 1, 1); got != 10 {
		t.Errorf("center with NaN self: got %g, want 10", got)
	}

	allNaN := New(gridMeta(2, 2, 1, 0))
	out, err = Focal(allNaN, 1, FocalMean)
	if err != nil {
		t.Fatalf("Focal failed: %v", err)
	}
	if !math.IsNaN(out.Value(1, 0, 0)) {
		t.Error("all-NaN window should stay NaN")
	}
}

func TestFocalMinMaxMedian(t *testing.T) {
	src := rampRaster(3, 3, 1, 0)

	tests := []struct {
		stat FocalStat
		want float64
	}{
		{FocalMin, 0},
		{FocalMax, 8},
		{FocalMedian, 4},
	}
	for _, tt := range tests {
		out, err := Focal(src, 1, tt.stat)
		if err != nil {
			t.Fatalf("Focal failed: %v", err)
		}
		if got := out.Value(1, 1, 1); got != tt.want {
			t.Errorf("stat %v center: got %g, want %g", tt.stat, got, tt.want)
		}
	}
}

func TestFocalRadiusValidation(t *testing.T) {
	src := rampRaster(3, 3, 1, 0)
	if _, err := Focal(src, 0, FocalMean); err == nil {
		t.Error("expected error for zero radius")
	}
}

func TestFocalSingleWorker(t *testing.T) {
	SetWorkers(1)
	defer SetWorkers(0)

	src := rampRaster(5, 5, 1, 0)
	out, err := Focal(src, 1, FocalMean)
	if err != nil {
		t.Fatalf("Focal failed: %v", err)
	}
	if got := out.Value(1, 2, 2); got != 12 {
		t.Errorf("center: got %g, want 12", got)
	}
}
