package main

import (
	"flag"
	"fmt"
	"go/parser"
	"go/token"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

const modulePath = "clypzy"

type violation struct {
	File   string
	Line   int
	Import string
	Rule   string
}

// layerRule lists the import prefixes a service layer may use besides the
// standard library. "%s" expands to the service's own import prefix.
type layerRule struct {
	allowed []string
}

var layerRules = map[string]layerRule{
	"domain": {allowed: []string{
		"%s/domain",
		"github.com/shopspring/decimal",
	}},
	"ports": {allowed: []string{
		"%s/domain",
		modulePath + "/contracts",
		"github.com/shopspring/decimal",
	}},
	"application": {allowed: []string{
		"%s/application",
		"%s/domain",
		"%s/ports",
		modulePath + "/contracts",
		"github.com/shopspring/decimal",
	}},
}

func main() {
	root := flag.String("root", ".", "repository root")
	flag.Parse()

	var violations []violation
	violations = append(violations, checkContexts(filepath.Join(*root, "contexts"), *root)...)
	violations = append(violations, checkPlatform(filepath.Join(*root, "internal", "platform"), *root)...)
	if len(violations) == 0 {
		fmt.Println("boundary checks passed")
		return
	}

	sort.Slice(violations, func(i, j int) bool {
		if violations[i].File != violations[j].File {
			return violations[i].File < violations[j].File
		}
		if violations[i].Line != violations[j].Line {
			return violations[i].Line < violations[j].Line
		}
		return violations[i].Import < violations[j].Import
	})

	fmt.Println("boundary violations found:")
	for _, v := range violations {
		fmt.Printf("- %s:%d imports %q (%s)\n", v.File, v.Line, v.Import, v.Rule)
	}
	os.Exit(1)
}

// checkContexts enforces service isolation and the per-layer allowlists.
func checkContexts(dir string, root string) []violation {
	var violations []violation
	walkSources(dir, root, func(rel string, imports []importRef) {
		parts := strings.Split(rel, "/")
		if len(parts) < 4 {
			return
		}
		servicePrefix := fmt.Sprintf("%s/contexts/%s/%s", modulePath, parts[1], parts[2])
		rule, layered := layerRules[parts[3]]

		for _, imp := range imports {
			if imp.path == unparseable {
				violations = append(violations, violation{rel, imp.line, "", "file must parse"})
				continue
			}
			if strings.HasPrefix(imp.path, modulePath+"/contexts/") && !hasPrefix(imp.path, servicePrefix) {
				violations = append(violations, violation{rel, imp.line, imp.path, "cross-service imports are forbidden, go through ports"})
			}
			if !layered {
				continue
			}
			if strings.Contains(imp.path, "/adapters/") {
				violations = append(violations, violation{rel, imp.line, imp.path, parts[3] + " must not import adapters"})
				continue
			}
			if hasPrefix(imp.path, modulePath+"/internal") {
				violations = append(violations, violation{rel, imp.line, imp.path, parts[3] + " must not import runtime infrastructure"})
				continue
			}
			if !isStdlib(imp.path) && !rule.permits(imp.path, servicePrefix) {
				violations = append(violations, violation{rel, imp.line, imp.path, parts[3] + " import is outside explicit allowlist"})
			}
		}
	})
	return violations
}

// checkPlatform keeps shared infrastructure free of service code.
func checkPlatform(dir string, root string) []violation {
	var violations []violation
	walkSources(dir, root, func(rel string, imports []importRef) {
		for _, imp := range imports {
			if imp.path == unparseable {
				violations = append(violations, violation{rel, imp.line, "", "file must parse"})
				continue
			}
			if hasPrefix(imp.path, modulePath+"/contexts") {
				violations = append(violations, violation{rel, imp.line, imp.path, "platform must not import services"})
			}
		}
	})
	return violations
}

const unparseable = "<unparseable>"

type importRef struct {
	path string
	line int
}

func walkSources(dir string, root string, visit func(rel string, imports []importRef)) {
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() || !strings.HasSuffix(path, ".go") || strings.HasSuffix(path, "_test.go") {
			return nil
		}
		rel, relErr := filepath.Rel(root, path)
		if relErr != nil {
			rel = path
		}
		rel = filepath.ToSlash(rel)

		fset := token.NewFileSet()
		file, parseErr := parser.ParseFile(fset, path, nil, parser.ImportsOnly)
		if parseErr != nil {
			visit(rel, []importRef{{path: unparseable, line: 1}})
			return nil
		}
		imports := make([]importRef, 0, len(file.Imports))
		for _, imp := range file.Imports {
			imports = append(imports, importRef{
				path: strings.Trim(imp.Path.Value, "\""),
				line: fset.Position(imp.Pos()).Line,
			})
		}
		visit(rel, imports)
		return nil
	})
}

func (r layerRule) permits(importPath string, servicePrefix string) bool {
	for _, allowed := range r.allowed {
		if strings.Contains(allowed, "%s") {
			allowed = fmt.Sprintf(allowed, servicePrefix)
		}
		if hasPrefix(importPath, allowed) {
			return true
		}
	}
	return false
}

func hasPrefix(path string, prefix string) bool {
	return path == prefix || strings.HasPrefix(path, prefix+"/")
}

func isStdlib(importPath string) bool {
	if hasPrefix(importPath, modulePath) {
		return false
	}
	first, _, _ := strings.Cut(importPath, "/")
	return !strings.Contains(first, ".")
}
