package update

import (
	"context"
	"errors"
	"testing"
)

func TestCompareVersions(t *testing.T) {
	tests := []struct {
		current string
		latest  string
		want    int
	}{
		{"v0.3.0", "v0.4.0", -1},
		{"v1.0.0", "1.0.0", 0},
		{"v2.1.0", "v2.0.9", 1},
		{"0.3.0-2-g1a2b3c", "0.3.0", -1},
		{"0.4.0", "0.3.0-2-g1a2b3c", 1},
		{"dev", "v0.1.0", -1},
		{"v0.1.0", "dev", 1},
		{"dev", "", 0},
	}

	for _, tt := range tests {
		t.Run(tt.current+"_vs_"+tt.latest, func(t *testing.T) {
			if got := CompareVersions(tt.current, tt.latest); got != tt.want {
				t.Errorf("CompareVersions(%q, %q) = %d, want %d", tt.current, tt.latest, got, tt.want)
			}
		})
	}
}

func TestCheckSkipsDevBuilds(t *testing.T) {
	for _, v := range []string{"", "dev", "not-a-version"} {
		rel, err := Check(context.Background(), v, Repo)
		if err != nil {
			t.Fatalf("Check(%q): unexpected error: %v", v, err)
		}
		if rel != nil {
			t.Errorf("Check(%q) = %+v, want nil", v, rel)
		}
	}
}

func TestApplyRefusesDevBuild(t *testing.T) {
	_, err := Apply(context.Background(), "dev", Repo)
	if !errors.Is(err, ErrDevBuild) {
		t.Errorf("got %v, want ErrDevBuild", err)
	}
}

func TestParseSemver(t *testing.T) {
	tests := []struct {
		input   string
		wantErr bool
	}{
		{"v1.0.0", false},
		{"0.1.0-3-gabcdef", false},
		{"v0.1.0-rc.1", false},
		{"dev", true},
		{"", true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, err := parseSemver(tt.input)
			if (err != nil) != tt.wantErr {
				t.Errorf("parseSemver(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
		})
	}
}
