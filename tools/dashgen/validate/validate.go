// Package validate checks generated dashboards and rule files against the
// metrics listing-tracker exports.
package validate

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/prometheus/prometheus/promql/parser"

	"github.com/donaldgifford/listing-tracker/tools/dashgen/rules"
)

// histogramSuffixes are series a histogram exposes under its base name.
var histogramSuffixes = []string{"_bucket", "_sum", "_count"}

// Result collects validation findings. Errors fail generation.
type Result struct {
	Errors   []string
	Warnings []string
}

// Ok reports whether there were no errors.
func (r Result) Ok() bool {
	return len(r.Errors) == 0
}

func (r *Result) merge(o Result) {
	r.Errors = append(r.Errors, o.Errors...)
	r.Warnings = append(r.Warnings, o.Warnings...)
}

// Expr parses a PromQL expression and checks every metric it selects is in
// known. where prefixes findings.
func Expr(where, expr string, known map[string]bool) Result {
	var res Result

	node, err := parser.ParseExpr(expr)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("%s: invalid PromQL %q: %v", where, expr, err))
		return res
	}

	selectors := 0
	parser.Inspect(node, func(n parser.Node, _ []parser.Node) error {
		vs, ok := n.(*parser.VectorSelector)
		if !ok {
			return nil
		}
		selectors++
		if !knownMetric(vs.Name, known) {
			res.Errors = append(res.Errors, fmt.Sprintf("%s: unknown metric %q", where, vs.Name))
		}
		return nil
	})
	if selectors == 0 {
		res.Warnings = append(res.Warnings, fmt.Sprintf("%s: expression selects no metrics: %q", where, expr))
	}

	return res
}

func knownMetric(name string, known map[string]bool) bool {
	if known[name] {
		return true
	}
	for _, suffix := range histogramSuffixes {
		if base, ok := strings.CutSuffix(name, suffix); ok && known[base] {
			return true
		}
	}
	return false
}

// Dashboard validates every query expression in a built dashboard. The
// dashboard is walked in its JSON form so nested row panels are covered.
func Dashboard(dash any, known map[string]bool) Result {
	var res Result

	data, err := json.Marshal(dash)
	if err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("marshaling dashboard: %v", err))
		return res
	}
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		res.Errors = append(res.Errors, fmt.Sprintf("decoding dashboard: %v", err))
		return res
	}

	exprs := 0
	walkExprs(doc, "dashboard", func(where, expr string) {
		exprs++
		res.merge(Expr(where, expr, known))
	})
	if exprs == 0 {
		res.Warnings = append(res.Warnings, "dashboard has no queries")
	}

	return res
}

// walkExprs calls fn for every "expr" string field, naming its location by
// the nearest enclosing panel title.
func walkExprs(v any, where string, fn func(where, expr string)) {
	switch node := v.(type) {
	case map[string]any:
		if title, ok := node["title"].(string); ok && title != "" {
			where = title
		}
		if expr, ok := node["expr"].(string); ok {
			fn(where, expr)
		}
		for _, child := range node {
			walkExprs(child, where, fn)
		}
	case []any:
		for _, child := range node {
			walkExprs(child, where, fn)
		}
	}
}

// Rules validates a rule CR. Records defined by earlier rules may be used by
// later ones and by the rules in later calls that share known.
func Rules(cr rules.PrometheusRule, known map[string]bool) Result {
	var res Result
	for _, g := range cr.Spec.Groups {
		for _, r := range g.Rules {
			res.merge(Expr(g.Name+"/"+r.Name(), r.Expr, known))
			if r.Record != "" {
				known[r.Record] = true
			}
		}
	}
	return res
}
