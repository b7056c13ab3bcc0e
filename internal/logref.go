package internal

import "regexp"

// LogFormat is a user-supplied pre-parser for raw log lines that don't
// consist of nothing but the logged body: a regex with named capture
// groups, where "file", "line" and "body" are recognized specially and
// any other named group is carried through as free-form metadata.
type LogFormat struct {
	re *regexp.Regexp
}

// NewLogFormat compiles pattern as a LogFormat. pattern must use Go
// regexp named-group syntax, e.g. `^(?P<file>\S+):(?P<line>\d+): (?P<body>.*)$`.
func NewLogFormat(pattern string) (*LogFormat, error) {
	re, err := regexp.Compile(pattern)
	if err != nil {
		return nil, err
	}
	return &LogFormat{re: re}, nil
}

// LogRef is the part of a raw log line that locates its origin: an
// optional file hint and line number extracted by a LogFormat, plus the
// remaining free-form named groups.
type LogRef struct {
	File  string
	Line  int
	Extra map[string]string
}

// LogDetails is one raw log line after optional pre-parsing: its
// resolved LogRef (zero value if no format was supplied or the format
// didn't match) and the body text that gets matched against source
// patterns.
type LogDetails struct {
	Ref  LogRef
	Body string
}

// NewLogDetails treats the whole line as the body, with no ref
// information. Grounded in lib.rs's LogRef::new/LogDetails without a
// format.
func NewLogDetails(line string) LogDetails {
	return LogDetails{Body: line}
}

// FromParsed applies format to line and returns the resulting
// LogDetails. If the format doesn't match, the whole line is treated as
// the body, same as NewLogDetails. Grounded in lib.rs's
// LogRef::from_parsed/with_format.
func FromParsed(line string, format *LogFormat) LogDetails {
	if format == nil {
		return NewLogDetails(line)
	}
	m := format.re.FindStringSubmatch(line)
	if m == nil {
		return NewLogDetails(line)
	}
	names := format.re.SubexpNames()
	ref := LogRef{Extra: make(map[string]string)}
	body := line
	for i, name := range names {
		if i == 0 || name == "" || i >= len(m) {
			continue
		}
		switch name {
		case "file":
			ref.File = m[i]
		case "line":
			ref.Line = atoiSafe(m[i])
		case "body":
			body = m[i]
		default:
			ref.Extra[name] = m[i]
		}
	}
	return LogDetails{Ref: ref, Body: body}
}

func atoiSafe(s string) int {
	n := 0
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0
		}
		n = n*10 + int(c-'0')
	}
	return n
}

// LogMapping is the final, fully resolved answer to a match query: the
// raw details that were matched, the source reference they resolved to,
// and the variable pairs extracted from the body.
type LogMapping struct {
	Details   LogDetails
	Source    SourceRef
	Variables []VariablePair
}

// FilterLog selects the inclusive line range [from, to] (1-based; to<=0
// means "through the end") out of buffer, applying format to each
// selected line if given. Lines that the format doesn't match still
// appear, with the raw line as their body, per lib.rs's filter_log.
func FilterLog(buffer string, from, to int, format *LogFormat) []LogDetails {
	lines := splitLines(buffer)
	if from < 1 {
		from = 1
	}
	if to <= 0 || to > len(lines) {
		to = len(lines)
	}
	var out []LogDetails
	for i := from; i <= to && i <= len(lines); i++ {
		out = append(out, FromParsed(lines[i-1], format))
	}
	return out
}

func splitLines(buffer string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(buffer); i++ {
		if buffer[i] == '\n' {
			end := i
			if end > start && buffer[end-1] == '\r' {
				end--
			}
			lines = append(lines, buffer[start:end])
			start = i + 1
		}
	}
	if start < len(buffer) {
		lines = append(lines, buffer[start:])
	}
	return lines
}
