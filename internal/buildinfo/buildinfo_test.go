package buildinfo

import "testing"

func TestFormat(t *testing.T) {
	t.Parallel()

	tests := []struct {
		version, backend, tags string
		want                   string
	}{
		{"dev", "gogit", "", "dev (default backend: gogit)"},
		{"v1.2.3", "gitcli", "gitcli,libgit2", "v1.2.3 (default backend: gitcli, tags: gitcli,libgit2)"},
	}
	for _, tt := range tests {
		if got := format(tt.version, tt.backend, tt.tags); got != tt.want {
			t.Fatalf("format(%q, %q, %q) = %q, want %q", tt.version, tt.backend, tt.tags, got, tt.want)
		}
	}
}

func TestVersionNotEmpty(t *testing.T) {
	t.Parallel()

	if Version() == "" {
		t.Fatal("Version() is empty")
	}
}
