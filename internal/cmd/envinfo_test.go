package cmd

import "testing"

func TestPresetsFileLabel(t *testing.T) {
	cases := []struct {
		path string
		want string
	}{
		{"", "(embedded defaults)"},
		{"/etc/renderlens/presets.yaml", "/etc/renderlens/presets.yaml"},
	}

	for _, tc := range cases {
		if got := presetsFileLabel(tc.path); got != tc.want {
			t.Fatalf("presetsFileLabel(%q) = %q, want %q", tc.path, got, tc.want)
		}
	}
}

func TestSetVersionInfo(t *testing.T) {
	SetVersionInfo("1.0.0", "abc1234", "2026-01-02T00:00:00Z")

	if versionInfo.Version != "1.0.0" {
		t.Fatalf("version = %q", versionInfo.Version)
	}
	if versionInfo.Commit != "abc1234" {
		t.Fatalf("commit = %q", versionInfo.Commit)
	}
	if versionInfo.BuildDate != "2026-01-02T00:00:00Z" {
		t.Fatalf("build date = %q", versionInfo.BuildDate)
	}
}
