// Command staticlint runs the project's static analysis suite: every SA
// analyzer from staticcheck, a selection of the S/ST/QF classes, the
// relevant x/tools passes, bodyclose, go-critic and the local exit-in-main
// check.
//
// Usage:
//
//	staticlint ./...
package main

import (
	"strings"

	gocritic "github.com/go-critic/go-critic/checkers/analyzer"
	"github.com/timakin/bodyclose/passes/bodyclose"
	"golang.org/x/tools/go/analysis"
	"golang.org/x/tools/go/analysis/multichecker"
	"golang.org/x/tools/go/analysis/passes/loopclosure"
	"golang.org/x/tools/go/analysis/passes/printf"
	"golang.org/x/tools/go/analysis/passes/unreachable"
	"honnef.co/go/tools/analysis/lint"
	"honnef.co/go/tools/quickfix"
	"honnef.co/go/tools/simple"
	"honnef.co/go/tools/staticcheck"
	"honnef.co/go/tools/stylecheck"

	"github.com/chaitanya-699/url-shortener/internal/staticlint"
)

func main() {
	checks := make([]*analysis.Analyzer, 0, 150)

	for _, v := range staticcheck.Analyzers {
		if strings.HasPrefix(v.Analyzer.Name, "SA") {
			checks = append(checks, v.Analyzer)
		}
	}

	checks = append(checks, pick(simple.Analyzers, "S1005", "S1040")...)
	checks = append(checks, pick(stylecheck.Analyzers, "ST1012", "ST1015")...)
	checks = append(checks, pick(quickfix.Analyzers, "QF1004", "QF1009")...)

	checks = append(checks,
		printf.Analyzer,
		unreachable.Analyzer,
		loopclosure.Analyzer,
		bodyclose.Analyzer,
		gocritic.Analyzer,
		staticlint.ExitMainAnalyzer,
	)

	multichecker.Main(checks...)
}

func pick(analyzers []*lint.Analyzer, names ...string) []*analysis.Analyzer {
	picked := make([]*analysis.Analyzer, 0, len(names))

	for _, v := range analyzers {
		for _, name := range names {
			if v.Analyzer.Name == name {
				picked = append(picked, v.Analyzer)
				break
			}
		}
	}
	return picked
}
