package territory

import (
	"os"
	"path/filepath"
	"testing"
)

func TestNewRequiresDefault(t *testing.T) {
	_, err := New(map[string]string{"US": "us-team@company.com"})
	if err == nil {
		t.Fatal("New() without DEFAULT succeeded, want error")
	}
}

func TestResolve(t *testing.T) {
	table, err := New(map[string]string{
		"US":      "us-team@company.com",
		"ca":      "canada-team@company.com",
		"DEFAULT": "general@company.com",
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tests := []struct {
		country     string
		wantOwner   string
		wantMatched bool
	}{
		{"US", "us-team@company.com", true},
		{"us", "us-team@company.com", true},
		{" ca ", "canada-team@company.com", true},
		{"DE", "general@company.com", false},
		{"", "general@company.com", false},
	}

	for _, tt := range tests {
		owner, matched := table.Resolve(tt.country)
		if owner != tt.wantOwner || matched != tt.wantMatched {
			t.Errorf("Resolve(%q) = (%q, %v), want (%q, %v)",
				tt.country, owner, matched, tt.wantOwner, tt.wantMatched)
		}
	}
}

func TestLoadFromYAML(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "routing.yaml")
	content := []byte("US: us-team@company.com\nUK: emea-team@company.com\nDEFAULT: general@company.com\n")
	if err := os.WriteFile(path, content, 0o644); err != nil {
		t.Fatal(err)
	}

	table, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if owner, matched := table.Resolve("UK"); owner != "emea-team@company.com" || !matched {
		t.Errorf("Resolve(UK) = (%q, %v), want emea-team match", owner, matched)
	}
	if got := table.Countries(); got != 2 {
		t.Errorf("Countries() = %d, want 2", got)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/routing.yaml"); err == nil {
		t.Fatal("Load() on missing file succeeded, want error")
	}
}
