package internal

import (
	"regexp"

	"github.com/phuslu/log"
)

// MatchedValues re-applies ref's own anchored pattern to body and
// returns the captured placeholder values in order. Unlike the per-file
// Hyperscan/fallback matcher, which only answers "did pattern i match",
// this recovers the actual substrings once a specific SourceRef has
// already been selected as the best candidate.
func MatchedValues(ref *SourceRef, body string) []string {
	re, err := regexp.Compile(ref.Pattern)
	if err != nil {
		log.Warn().Err(err).Str("pattern", ref.Pattern).Msg("failed to recompile pattern for value extraction")
		return nil
	}
	m := re.FindStringSubmatch(body)
	if m == nil {
		return nil
	}
	return m[1:]
}

// VariablePair associates one placeholder's source expression with the
// runtime value captured for it from an emitted log line, per §4.9.
type VariablePair struct {
	Expr  string
	Value string
}

// unknownValue is substituted for a value when values has fewer entries
// than ref.Args, and for an expression when a positional or plain
// placeholder has no corresponding entry in ref.Vars.
const unknownValue = "<unknown>"

// ExtractVariables pairs each of ref's format arguments with the value
// captured for it in values (in capture-group order from the matcher's
// regex re-application). Named arguments take their name as the
// expression; positional arguments take ref.Vars[Pos], and plain
// placeholders take ref.Vars at their own index in ref.Args.
func ExtractVariables(ref *SourceRef, values []string) []VariablePair {
	var pairs []VariablePair
	for i, arg := range ref.Args {
		val := unknownValue
		if i < len(values) {
			val = values[i]
		}
		switch arg.Kind {
		case ArgNamed:
			pairs = append(pairs, VariablePair{Expr: arg.Name, Value: val})
		case ArgPositional:
			if arg.Pos >= 0 && arg.Pos < len(ref.Vars) {
				pairs = append(pairs, VariablePair{Expr: ref.Vars[arg.Pos], Value: val})
			} else {
				pairs = append(pairs, VariablePair{Expr: unknownValue, Value: val})
			}
		case ArgPlaceholder:
			expr := unknownValue
			if i < len(ref.Vars) {
				expr = ref.Vars[i]
			}
			pairs = append(pairs, VariablePair{Expr: expr, Value: val})
		}
	}
	return pairs
}
