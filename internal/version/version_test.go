package version

import (
	"strings"
	"testing"
)

func TestGetVersion(t *testing.T) {
	tests := []struct {
		name      string
		version   string
		commit    string
		buildTime string
		want      string
	}{
		{
			name:    "all values provided",
			version: "v0.3.0",
			commit:  "abcdef1234567890",
			want:    "v0.3.0-abcdef1",
		},
		{
			name:   "empty version",
			commit: "abcdef1234567890",
			want:   "dev-abcdef1",
		},
		{
			name:    "short commit",
			version: "v0.3.0",
			commit:  "abc",
			want:    "v0.3.0-abc",
		},
		{
			name:    "no commit",
			version: "v0.3.0",
			want:    "v0.3.0",
		},
		{
			name: "nothing set",
			want: "dev",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := GetVersion(tt.version, tt.commit, tt.buildTime)
			if got != tt.want {
				t.Errorf("GetVersion() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestGetDetailedVersion(t *testing.T) {
	result := GetDetailedVersion("v0.3.0", "abcdef1234567890", "2024-01-01T00:00:00Z")

	for _, want := range []string{
		"lvdsctl",
		"Version:    v0.3.0",
		"Commit:     abcdef1234567890",
		"Built:      2024-01-01T00:00:00Z",
		"Go version:",
		"OS/Arch:",
	} {
		if !strings.Contains(result, want) {
			t.Errorf("GetDetailedVersion() should contain %q", want)
		}
	}

	if !strings.Contains(GetDetailedVersion("", "", ""), "Commit:     unknown") {
		t.Error("GetDetailedVersion() should default the commit to unknown")
	}
}
