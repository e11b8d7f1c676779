// Package staticlint holds the project-specific analyzers wired into
// cmd/staticlint.
package staticlint

import (
	"go/ast"

	"golang.org/x/tools/go/analysis"
)

const exitInMainMessage = "direct os.Exit call in main"

// ExitMainAnalyzer reports direct os.Exit calls inside func main of a main
// package. The binaries release resources through deferred teardown, which
// os.Exit skips.
var ExitMainAnalyzer = &analysis.Analyzer{
	Name: "exitmain",
	Doc:  "reports direct os.Exit calls in func main",
	Run:  runExitMain,
}

func runExitMain(pass *analysis.Pass) (any, error) {
	for _, file := range pass.Files {
		if file.Name.Name != "main" {
			continue
		}

		osName, imported := osImportName(file)
		if !imported {
			continue
		}

		for _, decl := range file.Decls {
			fn, ok := decl.(*ast.FuncDecl)
			if !ok || fn.Recv != nil || fn.Name.Name != "main" || fn.Body == nil {
				continue
			}

			ast.Inspect(fn.Body, func(node ast.Node) bool {
				if call, ok := node.(*ast.CallExpr); ok && isExitCall(call, osName) {
					pass.Reportf(call.Pos(), exitInMainMessage)
				}
				return true
			})
		}
	}

	return nil, nil
}

// osImportName resolves the local name the os package is imported under,
// "." included.
func osImportName(file *ast.File) (string, bool) {
	for _, imp := range file.Imports {
		if imp.Path.Value != `"os"` {
			continue
		}
		if imp.Name != nil {
			return imp.Name.Name, true
		}
		return "os", true
	}
	return "", false
}

func isExitCall(call *ast.CallExpr, osName string) bool {
	switch fun := call.Fun.(type) {
	case *ast.SelectorExpr:
		pkg, ok := fun.X.(*ast.Ident)
		return ok && pkg.Obj == nil && pkg.Name == osName && fun.Sel.Name == "Exit"
	case *ast.Ident:
		return osName == "." && fun.Name == "Exit"
	}
	return false
}
