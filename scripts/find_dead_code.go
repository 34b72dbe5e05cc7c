// scripts/find_dead_code.go

// Wiring audit for the monitor tree. Flags unexported declarations that
// nothing else references, and verifies the assembly checkpoints below
// so a component cannot silently fall out of the build.
//
// Usage: go run scripts/find_dead_code.go <directory>
package main

import (
	"fmt"
	"go/ast"
	"go/parser"
	"go/token"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Assembly checkpoints: constructors and operations that must be
// referenced somewhere beyond their declaration for the monitor to work
// end to end.
var checkpoints = map[string][]string{
	"core": {
		"NewService", "OnTick", "RegisterSink", "Worst", "RecentAlerts",
	},
	"feed": {
		"NewClient", "NewNormalizer", "ListCurrencyPairs", "SelectUniverse",
	},
	"surfaces": {
		"NewDashboard", "NewCollector", "NewBus", "NewLogBuffer",
		"NewCSVSink", "NewWebhookSink",
	},
	"assembly": {
		"NewRunner", "NewShutdownHandler", "NewSafeFileWriter", "NewSafeCSVWriter",
	},
}

type decl struct {
	name string
	kind string
	pkg  string
	pos  token.Position
	doc  string
}

// auditor counts identifier occurrences across the tree. A name seen
// exactly once appears only at its own declaration.
type auditor struct {
	fset  *token.FileSet
	decls []decl
	refs  map[string]int
}

func newAuditor() *auditor {
	return &auditor{
		fset: token.NewFileSet(),
		refs: make(map[string]int),
	}
}

func (a *auditor) walk(root string) error {
	return filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			name := info.Name()
			if name != "." && (name == "vendor" || name == "_examples" || strings.HasPrefix(name, ".")) {
				return filepath.SkipDir
			}
			return nil
		}
		if !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		return a.scan(path)
	})
}

func (a *auditor) scan(path string) error {
	src, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	file, err := parser.ParseFile(a.fset, path, src, parser.ParseComments)
	if err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	pkg := file.Name.Name

	ast.Inspect(file, func(n ast.Node) bool {
		switch node := n.(type) {
		case *ast.FuncDecl:
			a.record(node.Name.Name, "func", pkg, node.Name.Pos(), node.Doc.Text())
		case *ast.GenDecl:
			kind := "var"
			if node.Tok == token.CONST {
				kind = "const"
			}
			for _, spec := range node.Specs {
				switch s := spec.(type) {
				case *ast.ValueSpec:
					for _, id := range s.Names {
						a.record(id.Name, kind, pkg, id.Pos(), "")
					}
				case *ast.TypeSpec:
					a.record(s.Name.Name, "type", pkg, s.Name.Pos(), node.Doc.Text())
				}
			}
		case *ast.Ident:
			a.refs[node.Name]++
		}
		return true
	})
	return nil
}

func (a *auditor) record(name, kind, pkg string, pos token.Pos, doc string) {
	if name == "" || name == "_" {
		return
	}
	a.decls = append(a.decls, decl{
		name: name,
		kind: kind,
		pkg:  pkg,
		pos:  a.fset.Position(pos),
		doc:  strings.TrimSpace(doc),
	})
}

// unreferenced returns unexported declarations whose name never occurs
// outside the declaration itself. Counting is by bare name, so a name
// shared across packages is never flagged; the output is review hints,
// not proof.
func (a *auditor) unreferenced() []decl {
	var dead []decl
	for _, d := range a.decls {
		if ast.IsExported(d.name) || d.name == "main" || d.name == "init" {
			continue
		}
		if a.refs[d.name] <= 1 {
			dead = append(dead, d)
		}
	}
	sort.Slice(dead, func(i, j int) bool {
		if dead[i].pos.Filename != dead[j].pos.Filename {
			return dead[i].pos.Filename < dead[j].pos.Filename
		}
		return dead[i].pos.Line < dead[j].pos.Line
	})
	return dead
}

// wired reports whether a checkpoint is referenced beyond its own
// declaration.
func (a *auditor) wired(name string) bool {
	return a.refs[name] >= 2
}

func main() {
	if len(os.Args) < 2 {
		log.Fatal("Usage: go run scripts/find_dead_code.go <directory>")
	}

	a := newAuditor()
	if err := a.walk(os.Args[1]); err != nil {
		log.Fatalf("Analysis failed: %v", err)
	}

	fmt.Printf("🔍 Scanned %d declarations, %d distinct identifiers\n", len(a.decls), len(a.refs))

	dead := a.unreferenced()
	fmt.Printf("\n📊 Potentially unused (%d):\n", len(dead))
	for _, d := range dead {
		fmt.Printf("  • %s %s.%s  %s:%d\n",
			d.kind, d.pkg, d.name, filepath.Base(d.pos.Filename), d.pos.Line)
		if d.doc != "" {
			doc := d.doc
			if len(doc) > 60 {
				doc = doc[:60] + "..."
			}
			fmt.Printf("    %s\n", doc)
		}
	}
	if len(dead) == 0 {
		fmt.Println("  🎉 nothing flagged")
	}

	fmt.Println("\n🔌 Wiring status:")
	areas := make([]string, 0, len(checkpoints))
	for area := range checkpoints {
		areas = append(areas, area)
	}
	sort.Strings(areas)

	broken := 0
	for _, area := range areas {
		fmt.Printf("\n%s:\n", area)
		for _, name := range checkpoints[area] {
			if a.wired(name) {
				fmt.Printf("  ✅ %s\n", name)
			} else {
				fmt.Printf("  ❌ %s is never referenced\n", name)
				broken++
			}
		}
	}

	if broken > 0 {
		fmt.Printf("\n⚠️  %d checkpoints unwired\n", broken)
		os.Exit(1)
	}
	fmt.Println("\n✨ All checkpoints wired")
}
