package internal

import (
	"path/filepath"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
	sitterCpp "github.com/smacker/go-tree-sitter/cpp"
	sitterJava "github.com/smacker/go-tree-sitter/java"
	sitterRust "github.com/smacker/go-tree-sitter/rust"
)

// SourceLanguage tags one of the three syntaxes this engine understands.
// The set is closed at build time: extensions, query and denylist are
// a fixed triple per language, not an extensible plugin interface.
type SourceLanguage int

const (
	LanguageRust SourceLanguage = iota
	LanguageJava
	LanguageCpp
)

// String returns the display name used for serialization ("Rust", "Java", "C++").
func (l SourceLanguage) String() string {
	switch l {
	case LanguageRust:
		return "Rust"
	case LanguageJava:
		return "Java"
	case LanguageCpp:
		return "C++"
	default:
		return "unknown"
	}
}

func (l SourceLanguage) MarshalJSON() ([]byte, error) {
	return []byte(`"` + l.String() + `"`), nil
}

// languageProfile is the static (extensions, query, denylist) triple for a
// language, plus the tree-sitter grammar used to parse it.
type languageProfile struct {
	lang       SourceLanguage
	extensions []string
	query      string
	denylist   map[string]struct{}
	grammar    *sitter.Language
}

// Rust: any macro invocation (its name is not checked) whose first named
// token-tree child is a string literal. Argument expressions are the
// remaining tokens of the invocation, captured individually; a later
// splitting pass (splitTopLevelArgs) breaks up any single capture that
// turned out to hold more than one comma-separated expression, since the
// macro grammar doesn't expose argument boundaries the way a function
// call's argument_list does.
const rustQuery = `
(macro_invocation
  macro: (identifier) @method
  (token_tree
    .
    (string_literal) @string_literal
    (_)* @args
  )
)
`

// Java: a method call on something that looks like a logger object, whose
// first argument is a string literal (directly, or as the template
// argument of a template/format expression). `this` is matched by a
// second, separate pattern because some tree-sitter-java grammar
// versions parse it as an anonymous token that the first pattern's
// `(_)* @args` wildcard (which only matches named nodes) would miss
// otherwise. Grammar versions that instead parse `this` as a named node
// make the two patterns overlap, capturing the same `this` node twice;
// builderState.appendArg dedupes captures by byte range so that case is
// harmless rather than producing a duplicate Vars entry.
const javaQuery = `
(method_invocation
  object: (identifier) @object-name
  name: (identifier) @method-name
  arguments: (argument_list
    .
    (string_literal) @arguments
    (_)* @args
  )
  (#match? @object-name "log(ger)?|LOG(GER)?")
  (#match? @method-name "fine|debug|info|warn|trace")
)
(method_invocation
  arguments: (argument_list (this) @this)
)
`

// C++: any call expression whose first argument is a string literal,
// excluding snprintf/sprintf (those are formatting helpers, not log
// emitters). Deliberately over-selects; the denylist plus failed
// runtime matching prune the false positives.
const cppQuery = `
(
  (call_expression
    function: (_) @fname
    arguments: (argument_list
      .
      (string_literal) @arguments
      (_)* @args
    )
  )
  (#not-match? @fname "snprintf|sprintf")
)
`

var rustDenylist = setOf("debug", "info", "warn")
var javaDenylist = setOf("logger", "log", "fine", "debug", "info", "warn", "trace")
var cppDenylist = setOf("debug", "info", "warn", "trace")

func setOf(words ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(words))
	for _, w := range words {
		m[w] = struct{}{}
	}
	return m
}

var languageProfiles = []languageProfile{
	{
		lang:       LanguageRust,
		extensions: []string{"rs"},
		query:      rustQuery,
		denylist:   rustDenylist,
		grammar:    sitterRust.GetLanguage(),
	},
	{
		lang:       LanguageJava,
		extensions: []string{"java"},
		query:      javaQuery,
		denylist:   javaDenylist,
		grammar:    sitterJava.GetLanguage(),
	},
	{
		lang:       LanguageCpp,
		extensions: []string{"h", "hh", "hpp", "hxx", "tpp", "cc", "cpp", "cxx"},
		query:      cppQuery,
		denylist:   cppDenylist,
		grammar:    sitterCpp.GetLanguage(),
	},
}

// profileForPath detects the language from a file path's extension. The
// extension sets above are pairwise disjoint, so at most one profile
// matches.
func profileForPath(path string) (*languageProfile, bool) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	if ext == "" {
		return nil, false
	}
	for i := range languageProfiles {
		for _, e := range languageProfiles[i].extensions {
			if e == ext {
				return &languageProfiles[i], true
			}
		}
	}
	return nil, false
}

func (p *languageProfile) isDenylisted(text string) bool {
	_, ok := p.denylist[strings.ToLower(text)]
	return ok
}
