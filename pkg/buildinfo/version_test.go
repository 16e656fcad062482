package buildinfo

import (
	"strings"
	"testing"
)

func TestTemplate(t *testing.T) {
	old := [3]string{Version, Commit, Date}
	t.Cleanup(func() { Version, Commit, Date = old[0], old[1], old[2] })

	Version, Commit, Date = "v1.4.2", "abc123", "2025-02-14T00:00:00Z"
	got := Template()
	for _, want := range []string{"{{.Name}} v1.4.2", "commit: abc123", "built: 2025-02-14T00:00:00Z"} {
		if !strings.Contains(got, want) {
			t.Errorf("Template() = %q, missing %q", got, want)
		}
	}
	if s := String(); s != "v1.4.2 (abc123, 2025-02-14T00:00:00Z)" {
		t.Errorf("String() = %q", s)
	}
}
