package internal

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/muesli/termenv"
)

const refColumnSeparator = " | "

// RenderOptions controls the CLI's terminal rendering of a resolved
// mapping, mirroring the teacher's ViewConfig knobs that actually apply
// once matching has already happened upstream in LogMatcher.
type RenderOptions struct {
	SourceColumnWidth int
	LinkTemplate      string // "{file}" and "{line}" substituted in
	Highlight         bool
}

// BuildRefColumn renders the fixed-width "path:line | " prefix column
// for a resolved SourceRef, colorized and hyperlinked when the target
// supports it. Passing a nil ref renders a blank column of the same
// width, so unmatched lines still align in a stream of output.
func BuildRefColumn(opts RenderOptions, ref *SourceRef) string {
	output := termenv.NewOutput(os.Stdout)
	if opts.SourceColumnWidth == 0 {
		return ""
	}

	var res strings.Builder
	if ref == nil {
		for i := 0; i < opts.SourceColumnWidth-len(refColumnSeparator); i++ {
			res.WriteByte(' ')
		}
		res.WriteString(refColumnSeparator)
		return res.String()
	}

	local := fmt.Sprintf("%s:%d", ref.SourcePath, ref.LineNo)
	budget := opts.SourceColumnWidth - len(refColumnSeparator)
	if len(local) > budget {
		truncated := local
		if budget > 3 {
			truncated = local[:budget-3] + "..."
		}
		res.WriteString(output.String(truncated).Foreground(output.Color("#dddddd")).String())
	} else {
		res.WriteString(output.String(local).Foreground(output.Color("#dddddd")).String())
		for i := 0; i < budget-len(local); i++ {
			res.WriteByte(' ')
		}
	}
	res.WriteString(refColumnSeparator)

	if opts.LinkTemplate == "" {
		return res.String()
	}
	link := strings.ReplaceAll(opts.LinkTemplate, "{file}", ref.SourcePath)
	link = strings.ReplaceAll(link, "{line}", strconv.Itoa(ref.LineNo))
	return termenv.Hyperlink(link, res.String())
}

// HighlightArguments re-renders body with each captured value preceded by
// a styled label holding its source expression (from ExtractVariables).
// Each value is located by searching body, left to right from the end of
// the previous value, for its text rather than by the regex's capture
// offsets; a value whose text is not found there gets no label.
func HighlightArguments(body string, ref *SourceRef, values []string) string {
	output := termenv.NewOutput(os.Stdout)
	pairs := ExtractVariables(ref, values)

	var b strings.Builder
	cursor := 0
	for i, v := range values {
		idx := strings.Index(body[cursor:], v)
		if idx < 0 {
			continue
		}
		start := cursor + idx
		b.WriteString(body[cursor:start])
		expr := "?"
		if i < len(pairs) {
			expr = pairs[i].Expr
		}
		styled := output.String("|" + expr + "|").Foreground(output.Color("#006633")).Background(output.Color("#202020")).String()
		b.WriteString(styled)
		b.WriteString(v)
		cursor = start + len(v)
	}
	b.WriteString(body[cursor:])
	return b.String()
}

// FormatMapping renders a fully resolved LogMapping as one line of CLI
// output: the ref column, followed by the (optionally argument-
// highlighted) log body.
func FormatMapping(opts RenderOptions, mapping LogMapping, matchedValues []string) string {
	column := BuildRefColumn(opts, &mapping.Source)
	body := mapping.Details.Body
	if opts.Highlight && len(matchedValues) > 0 {
		body = HighlightArguments(body, &mapping.Source, matchedValues)
	}
	return column + body
}
