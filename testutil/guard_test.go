package testutil

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestPredicates(t *testing.T) {
	module := ModuleImportForbidden("pcspec")
	internal := ModuleImportForbidden("pcspec/internal")
	cases := []struct {
		name string
		pred func(string) bool
		in   string
		want bool
	}{
		{"internal", internal, "pcspec/internal/config", true},
		{"internal pkg", internal, "pcspec/pkg/domain", false},
		{"third party", ThirdPartyImportForbidden, "go.uber.org/zap", true},
		{"stdlib", ThirdPartyImportForbidden, "encoding/json", false},
		{"stdlib single", ThirdPartyImportForbidden, "strings", false},
		{"module root", module, "pcspec", true},
		{"module pkg", module, "pcspec/internal/core", true},
		{"module prefix only", module, "pcspecx/foo", false},
		{"any of", AnyOf(internal, ThirdPartyImportForbidden), "github.com/spf13/cobra", true},
		{"any of none", AnyOf(internal, ThirdPartyImportForbidden), "sort", false},
	}
	for _, c := range cases {
		if got := c.pred(c.in); got != c.want {
			t.Fatalf("%s: pred(%q)=%v want %v", c.name, c.in, got, c.want)
		}
	}
}

func writeGo(t *testing.T, dir, name, src string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(src), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func TestDirectImportViolations(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "a.go", "package tmp\nimport (\n\t\"fmt\"\n\t\"go.uber.org/zap\"\n)\nvar _ = fmt.Sprint\nvar _ = zap.L\n")
	writeGo(t, dir, "a_test.go", "package tmp\nimport \"github.com/google/go-cmp/cmp\"\nvar _ = cmp.Diff\n")
	viols, err := directImportViolations(dir, ThirdPartyImportForbidden)
	if err != nil {
		t.Fatalf("scan: %v", err)
	}
	if len(viols) != 1 || !strings.HasPrefix(viols[0], "go.uber.org/zap") {
		t.Fatalf("unexpected violations %v", viols)
	}
}

func TestDirectImportViolationsParseError(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "bad.go", "package tmp\nimport (\n")
	if _, err := directImportViolations(dir, ThirdPartyImportForbidden); err == nil {
		t.Fatal("expected parse error")
	}
	if _, err := directImportViolations(filepath.Join(dir, "missing"), ThirdPartyImportForbidden); err == nil {
		t.Fatal("expected read error")
	}
}

func TestAssertNoDirectImports(t *testing.T) {
	dir := t.TempDir()
	writeGo(t, dir, "x.go", "package tmp\nimport \"fmt\"\nfunc X(){fmt.Println(1)}")
	AssertNoDirectImports(t, dir, ThirdPartyImportForbidden, "stdlib only")
}

type recorder struct{ msg string }

func (r *recorder) Fatalf(format string, args ...any) { r.msg = fmt.Sprintf(format, args...) }

func TestFailHelpers(t *testing.T) {
	r := &recorder{}
	failIfDirectViolations(r, "why", nil)
	failIfTransitiveViolations(r, "why", nil)
	if r.msg != "" {
		t.Fatalf("no violations must not fail: %q", r.msg)
	}
	failIfDirectViolations(r, "stdlib only", []string{"go.uber.org/zap (in a.go)"})
	if !strings.Contains(r.msg, "stdlib only") || !strings.Contains(r.msg, "go.uber.org/zap") {
		t.Fatalf("unexpected message %q", r.msg)
	}
	failIfTransitiveViolations(r, "layering", []string{"pcspec/internal/core"})
	if !strings.Contains(r.msg, "transitive") {
		t.Fatalf("unexpected message %q", r.msg)
	}
}

func TestTransitiveDependencyViolations(t *testing.T) {
	orig := goListDeps
	defer func() { goListDeps = orig }()

	goListDeps = func(string) ([]byte, error) {
		return []byte("fmt\npcspec/pkg/domain\n\npcspec/internal/core\n"), nil
	}
	viols, _, err := transitiveDependencyViolations("./...", ModuleImportForbidden("pcspec/internal"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(viols) != 1 || viols[0] != "pcspec/internal/core" {
		t.Fatalf("unexpected violations %v", viols)
	}

	goListDeps = func(string) ([]byte, error) { return []byte("boom"), errors.New("exit 1") }
	if _, out, err := transitiveDependencyViolations(".", ThirdPartyImportForbidden); err == nil || string(out) != "boom" {
		t.Fatalf("expected go list failure, got out=%q err=%v", out, err)
	}
}
