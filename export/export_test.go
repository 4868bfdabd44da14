package export

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/corebank/bankdef/config"
	"github.com/corebank/bankdef/resolver"
	"github.com/corebank/bankdef/workspace"
)

func setup(t *testing.T) (*workspace.Workspace, config.Config) {
	t.Helper()
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "files"), 0o755); err != nil {
		t.Fatal(err)
	}
	cfg := config.Defaults()
	return workspace.New(root, cfg), cfg
}

func TestResolvedTextScenario2(t *testing.T) {
	ws, cfg := setup(t)
	b, err := ws.Open(1)
	if err != nil {
		t.Fatal(err)
	}
	b.Title = "demo"
	b.Set(1, 1, []byte("alpha"))
	b.Set(2, 0, []byte("r01.0001"))

	r := resolver.New(ws, cfg)
	out, err := ResolvedText(context.Background(), r, b, cfg)
	if err != nil {
		t.Fatal(err)
	}

	s := string(out)
	if !strings.Contains(s, "02\n\t0000\talpha\n") {
		t.Fatalf("expected register 02 address 0000 = alpha, got:\n%s", s)
	}
	if !strings.Contains(s, "01\n\t0001\talpha\n") {
		t.Fatalf("expected register 01 address 0001 = alpha, got:\n%s", s)
	}
}

func TestJSONEscaping(t *testing.T) {
	ws, cfg := setup(t)
	b, err := ws.Open(1)
	if err != nil {
		t.Fatal(err)
	}
	b.Title = `has "quotes" and \ backslash`
	b.Set(1, 0, []byte("line one\nline two"))

	r := resolver.New(ws, cfg)
	out, err := JSON(context.Background(), r, b, cfg)
	if err != nil {
		t.Fatal(err)
	}

	s := string(out)
	if !strings.Contains(s, `has \"quotes\" and \\ backslash`) {
		t.Fatalf("title not escaped correctly: %s", s)
	}
	if !strings.Contains(s, `line one\nline two`) {
		t.Fatalf("newline not escaped correctly: %s", s)
	}
	if !strings.Contains(s, `"bank": "x00001"`) {
		t.Fatalf("missing bank field: %s", s)
	}
}

func TestJSONOrdering(t *testing.T) {
	ws, cfg := setup(t)
	b, err := ws.Open(1)
	if err != nil {
		t.Fatal(err)
	}
	b.Set(3, 0, []byte("third-reg"))
	b.Set(1, 5, []byte("later-addr"))
	b.Set(1, 1, []byte("first-addr"))

	r := resolver.New(ws, cfg)
	out, err := JSON(context.Background(), r, b, cfg)
	if err != nil {
		t.Fatal(err)
	}

	s := string(out)
	firstIdx := strings.Index(s, `"id": "01"`)
	thirdIdx := strings.Index(s, `"id": "03"`)
	if firstIdx == -1 || thirdIdx == -1 || firstIdx > thirdIdx {
		t.Fatalf("registers not in ascending order: %s", s)
	}

	addr1Idx := strings.Index(s, `"id": "0001"`)
	addr5Idx := strings.Index(s, `"id": "0005"`)
	if addr1Idx == -1 || addr5Idx == -1 || addr1Idx > addr5Idx {
		t.Fatalf("addresses not in ascending order: %s", s)
	}
}
