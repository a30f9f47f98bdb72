package adapter

// Repo-wide static check: no canonical-domain package may import a
// concrete ecosystem adapter directly. Every ecosystem crossing must
// go through the Adapter interface this package defines; a core
// package reaching past it to a specific adapter implementation is
// exactly the coupling the boundary exists to prevent.
//
// Grounded on the pack's export-allowlist guard idiom
// (engine_allowlist_guard_test.go's parser.ParseDir + ast.Inspect scan
// over a package directory), adapted from scanning exported
// identifiers to scanning import paths.

import (
	"go/parser"
	"go/token"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

// corePackageDirs are the canonical-domain packages (A, D, E, F, G, H,
// I, J, K, L, M, and their shared glue) that must stay ecosystem-blind.
var corePackageDirs = []string{
	"pkg/types",
	"internal/attention",
	"internal/policy",
	"internal/device",
	"internal/realize",
	"internal/aggregator",
	"internal/trace",
	"internal/session",
	"internal/pairing",
	"internal/frame",
	"internal/weather",
	"internal/pipeline",
	"internal/sessionmgr",
	"internal/profile",
}

// reservedImportPrefixes are import paths only a concrete ecosystem
// adapter implementation may use.
var reservedImportPrefixes = []string{
	"github.com/trestlehq/coordinator/internal/refadapter",
}

func TestCorePackagesNeverImportConcreteAdapters(t *testing.T) {
	_, thisFile, _, ok := runtime.Caller(0)
	if !ok {
		t.Fatal("could not resolve this test file's path")
	}
	// internal/adapter/boundary_scan_test.go -> module root is two levels up.
	moduleRoot := filepath.Dir(filepath.Dir(filepath.Dir(thisFile)))

	fset := token.NewFileSet()
	for _, rel := range corePackageDirs {
		dir := filepath.Join(moduleRoot, rel)
		entries, err := os.ReadDir(dir)
		if err != nil {
			t.Fatalf("reading %s: %v", rel, err)
		}
		for _, entry := range entries {
			name := entry.Name()
			if entry.IsDir() || !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
				continue
			}
			path := filepath.Join(dir, name)
			f, err := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
			if err != nil {
				t.Fatalf("parsing %s: %v", path, err)
			}
			for _, imp := range f.Imports {
				importPath := strings.Trim(imp.Path.Value, `"`)
				for _, reserved := range reservedImportPrefixes {
					if strings.HasPrefix(importPath, reserved) {
						t.Errorf("%s imports %s: canonical-domain packages may only reach a concrete ecosystem adapter through the Adapter interface", path, importPath)
					}
				}
			}
		}
	}
}
