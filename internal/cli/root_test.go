package cli

import (
	"reflect"
	"testing"
)

func TestParseBands(t *testing.T) {
	tests := []struct {
		in   string
		want []int
	}{
		{"4,3", []int{4, 3}},
		{"1", []int{1}},
		{" 1 , 2 , 3 ", []int{1, 2, 3}},
	}
	for _, tt := range tests {
		got, err := parseBands(tt.in)
		if err != nil {
			t.Errorf("parseBands(%q) failed: %v", tt.in, err)
			continue
		}
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("parseBands(%q): got %v, want %v", tt.in, got, tt.want)
		}
	}

	for _, bad := range []string{"", "a,b", "1,,2"} {
		if _, err := parseBands(bad); err == nil {
			t.Errorf("parseBands(%q) should fail", bad)
		}
	}
}

func TestParseFloats(t *testing.T) {
	got, err := parseFloats("0, 1.5, -2e3")
	if err != nil {
		t.Fatalf("parseFloats failed: %v", err)
	}
	if !reflect.DeepEqual(got, []float64{0, 1.5, -2000}) {
		t.Errorf("got %v", got)
	}

	if got, err := parseFloats("  "); err != nil || got != nil {
		t.Errorf("blank input: got %v, %v", got, err)
	}
	if _, err := parseFloats("1,x"); err == nil {
		t.Error("expected error for a non-number")
	}
}

func TestCommandTree(t *testing.T) {
	root := newRootCmd(BuildInfo{Version: "test"})

	want := []string{
		"info", "stats", "convert", "stack", "merge", "crop", "mask",
		"warp", "resample", "match", "index", "normalize", "reclassify",
		"focal", "sample", "render", "serve", "version",
	}
	for _, name := range want {
		found := false
		for _, c := range root.Commands() {
			if c.Name() == name {
				found = true
				break
			}
		}
		if !found {
			t.Errorf("command %q is missing", name)
		}
	}

	if root.PersistentFlags().Lookup("config") == nil {
		t.Error("root should expose a --config flag")
	}
}
