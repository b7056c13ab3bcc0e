package internal

import (
	"sort"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/phuslu/log"
)

// QueryMatch is one captured node from running a language profile's query
// against a CodeSource, in the shape the source-reference builder
// consumes: a capture-name tag, its byte range, row/column span, and the
// captured text.
type QueryMatch struct {
	Kind       string
	StartByte  uint32
	EndByte    uint32
	StartPoint sitter.Point
	EndPoint   sitter.Point
	Text       string
}

// RunQuery executes the code source's language profile query and returns
// matches in source order, so the builder can pair each string literal
// with the argument captures that follow it.
func RunQuery(code *CodeSource) ([]QueryMatch, error) {
	q, err := sitter.NewQuery([]byte(code.profile.query), code.profile.grammar)
	if err != nil {
		return nil, err
	}
	defer q.Close()

	cursor := sitter.NewQueryCursor()
	defer cursor.Close()
	cursor.Exec(q, code.Tree.RootNode())

	source := []byte(code.Buffer)
	var results []QueryMatch
	for {
		match, ok := cursor.NextMatch()
		if !ok {
			break
		}
		match = cursor.FilterPredicates(match, source)
		for _, capture := range match.Captures {
			name := q.CaptureNameForId(capture.Index)
			node := capture.Node
			results = append(results, QueryMatch{
				Kind:       name,
				StartByte:  node.StartByte(),
				EndByte:    node.EndByte(),
				StartPoint: node.StartPoint(),
				EndPoint:   node.EndPoint(),
				Text:       node.Content(source),
			})
			log.Trace().Str("kind", name).Str("text", node.Content(source)).Msg("query capture")
		}
	}
	// Captures across matches aren't guaranteed to already be in byte
	// order (tree-sitter orders by pattern, then by match); the builder
	// requires strict source order, so sort defensively.
	sort.SliceStable(results, func(i, j int) bool {
		return results[i].StartByte < results[j].StartByte
	})
	return results, nil
}
