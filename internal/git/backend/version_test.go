package backend

import "testing"

func TestParseGitVersion(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		in   string
		want gitVersion
		ok   bool
	}{
		{name: "empty", in: "", ok: false},
		{name: "plain", in: "git version 2.44.0\n", want: gitVersion{2, 44, 0}, ok: true},
		{name: "apple_git", in: "git version 2.39.3 (Apple Git-146)\n", want: gitVersion{2, 39, 3}, ok: true},
		{name: "windows_suffix", in: "git version 2.39.3.windows.1\n", want: gitVersion{2, 39, 3}, ok: true},
		{name: "no_prefix", in: "2.42.1\n", want: gitVersion{2, 42, 1}, ok: true},
		{name: "no_patch", in: "git version 2.42\n", want: gitVersion{2, 42, 0}, ok: true},
		{name: "invalid", in: "git version not-a-version\n", ok: false},
		{name: "single_number", in: "git version 3\n", ok: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, ok := parseGitVersion(tt.in)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v (got=%v)", ok, tt.ok, got)
			}
			if ok && got != tt.want {
				t.Fatalf("got %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCheckGitVersion(t *testing.T) {
	t.Parallel()

	if err := checkGitVersion("git version " + requiredGit.String() + "\n"); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := checkGitVersion("git version 2.23.9\n"); err == nil {
		t.Fatal("expected error for old git")
	}
	if err := checkGitVersion("git version 10.0\n"); err != nil {
		t.Fatalf("expected ok for newer major, got %v", err)
	}
	if err := checkGitVersion("garbage"); err == nil {
		t.Fatal("expected parse error")
	}
}
