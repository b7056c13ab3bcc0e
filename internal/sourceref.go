package internal

import (
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// SourceRef describes one extracted call site: its location, enclosing
// function, the original literal text, the argument expressions
// collected for it, the format-argument descriptors derived from its
// placeholders, and the anchored regex pattern derived from its literal.
type SourceRef struct {
	SourcePath string
	LineNo     int // 1-based
	EndLineNo  int
	Column     int // 0-based, matching the original's start_point.column (scenario 1, §8)
	Name       string // enclosing function name, best-effort
	Text       string // raw literal text, including quotes
	Vars       []string
	Args       []FormatArgument
	Pattern    string
}

// StatementsInFile bundles all source references extracted from one file
// with the per-file matcher built from their patterns.
type StatementsInFile struct {
	ID            int
	Path          string
	LogStatements []SourceRef
	Matcher       *PerFileMatcher
}

// builderState is the sequential state machine of §4.4, scoped to one
// file's ordered query matches.
type builderState struct {
	code    *CodeSource
	profile *languageProfile
	refs    []SourceRef

	// seenArgRanges guards against the same source node being appended
	// twice to the current ref, which happens when a language's query
	// has more than one pattern matching the same argument (the Java
	// profile's dedicated `this` pattern overlaps its general argument
	// wildcard whenever a grammar treats `this` as a named node).
	seenArgRanges map[[2]uint32]bool
}

// ExtractLogStatements runs §4.3 and §4.4 against one code source and
// returns the resulting StatementsInFile, or nil if no call sites were
// found.
func ExtractLogStatements(code *CodeSource, id int) (*StatementsInFile, error) {
	matches, err := RunQuery(code)
	if err != nil {
		return nil, err
	}

	st := &builderState{code: code, profile: code.profile}
	for _, m := range matches {
		switch m.Kind {
		case "string_literal", "arguments":
			st.startRef(m)
		case "args", "this":
			st.appendArg(m)
		default:
			// ignored: object-name, method-name, fname, and any other
			// capture kind carry no state-machine meaning on their own.
		}
	}

	if len(st.refs) == 0 {
		return nil, nil
	}

	patterns := make([]string, len(st.refs))
	for i, r := range st.refs {
		patterns[i] = r.Pattern
	}
	return &StatementsInFile{
		ID:            id,
		Path:          st.refs[0].SourcePath,
		LogStatements: st.refs,
		Matcher:       NewPerFileMatcher(patterns),
	}, nil
}

func (st *builderState) startRef(m QueryMatch) {
	content, ok := unquoteLiteral(st.profile.lang, m.Text)
	if !ok {
		return
	}
	pattern, args := translatePattern(st.profile.lang, content)
	ref := SourceRef{
		SourcePath: st.code.Path,
		LineNo:     int(m.StartPoint.Row) + 1,
		EndLineNo:  int(m.EndPoint.Row) + 1,
		Column:     int(m.StartPoint.Column),
		Name:       enclosingFunctionName(st.code, m.StartPoint),
		Text:       m.Text,
		Vars:       nil,
		Args:       args,
		Pattern:    pattern,
	}
	st.refs = append(st.refs, ref)
	st.seenArgRanges = make(map[[2]uint32]bool)
}

func (st *builderState) appendArg(m QueryMatch) {
	if len(st.refs) == 0 {
		return
	}
	text := strings.TrimSpace(m.Text)
	if text == "" {
		return
	}
	if st.profile.isDenylisted(text) {
		return
	}
	byteRange := [2]uint32{m.StartByte, m.EndByte}
	if st.seenArgRanges[byteRange] {
		return
	}
	st.seenArgRanges[byteRange] = true
	cur := &st.refs[len(st.refs)-1]
	if int(m.EndPoint.Row)+1 > cur.EndLineNo {
		cur.EndLineNo = int(m.EndPoint.Row) + 1
	}
	cur.Vars = append(cur.Vars, splitTopLevelArgs(text)...)
}

// splitTopLevelArgs splits a captured argument-expression token on commas
// that sit at nesting depth zero (outside (), [], {} and string/char
// literals). Some grammars hand back an entire multi-argument macro
// argument list as a single token-tree capture; this recovers the
// individual expressions per §9's "top-level commas" open question.
func splitTopLevelArgs(text string) []string {
	var out []string
	depth := 0
	inString := byte(0)
	start := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case inString != 0:
			if c == '\\' {
				i++
			} else if c == inString {
				inString = 0
			}
		case c == '"' || c == '\'':
			inString = c
		case c == '(' || c == '[' || c == '{':
			depth++
		case c == ')' || c == ']' || c == '}':
			depth--
		case c == ',' && depth == 0:
			if part := strings.TrimSpace(text[start:i]); part != "" {
				out = append(out, part)
			}
			start = i + 1
		}
	}
	if part := strings.TrimSpace(text[start:]); part != "" {
		out = append(out, part)
	}
	if len(out) == 0 {
		return []string{text}
	}
	return out
}

// unquoteLiteral strips the surrounding quotes from a raw string-literal
// token and applies the language's escape processing, preserving literal
// newlines embedded via `\n` so multi-line literals still match
// multi-line log bodies.
func unquoteLiteral(lang SourceLanguage, raw string) (string, bool) {
	if len(raw) < 2 {
		return "", false
	}
	inner := raw[1 : len(raw)-1]
	switch lang {
	case LanguageRust, LanguageJava, LanguageCpp:
		return decodeEscapes(inner), true
	default:
		return inner, true
	}
}

func decodeEscapes(s string) string {
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] != '\\' || i+1 >= len(s) {
			b.WriteByte(s[i])
			continue
		}
		switch s[i+1] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case '\\':
			b.WriteByte('\\')
		case '"':
			b.WriteByte('"')
		case '\'':
			b.WriteByte('\'')
		case '0':
			b.WriteByte(0)
		default:
			b.WriteByte('\\')
			b.WriteByte(s[i+1])
		}
		i++
	}
	return b.String()
}

// functionNodeTypes maps each language to the tree-sitter node type(s)
// that denote an enclosing function/method declaration.
var functionNodeTypes = map[SourceLanguage][]string{
	LanguageRust: {"function_item"},
	LanguageJava: {"method_declaration", "constructor_declaration"},
	LanguageCpp:  {"function_definition"},
}

// enclosingFunctionName walks up from the literal's position looking for
// the nearest enclosing function/method node and returns its name,
// best-effort. Returns "" if none is found.
func enclosingFunctionName(code *CodeSource, at sitter.Point) string {
	root := code.Tree.RootNode()
	node := root.NamedDescendantForPointRange(at, at)
	if node == nil {
		return ""
	}
	types := functionNodeTypes[code.Language]
	source := []byte(code.Buffer)
	for n := node; n != nil; n = n.Parent() {
		for _, t := range types {
			if n.Type() == t {
				if name := n.ChildByFieldName("name"); name != nil {
					return name.Content(source)
				}
				if fn := firstIdentifier(n, source); fn != "" {
					return fn
				}
			}
		}
	}
	return ""
}

// firstIdentifier is the C++ fallback: walk the declarator subtree for
// the first identifier-shaped node, since a function's name there can be
// nested arbitrarily deep under pointer/reference declarators.
func firstIdentifier(n *sitter.Node, source []byte) string {
	declarator := n.ChildByFieldName("declarator")
	if declarator == nil {
		return ""
	}
	var walk func(*sitter.Node) string
	walk = func(node *sitter.Node) string {
		if node == nil {
			return ""
		}
		if node.Type() == "identifier" || node.Type() == "field_identifier" {
			return node.Content(source)
		}
		for i := 0; i < int(node.ChildCount()); i++ {
			if name := walk(node.Child(i)); name != "" {
				return name
			}
		}
		return ""
	}
	return walk(declarator)
}
