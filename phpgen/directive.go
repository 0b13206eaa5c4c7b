package phpgen

import (
	"fmt"
	"strings"
)

// directivePrefix marks an export directive in a doc comment.
const directivePrefix = "//php:"

// Directive is one parsed php: comment line.
type Directive struct {
	// Kind is the word after the prefix: function, method, class, prop,
	// enum, case, const, or startup.
	Kind string
	// Opts holds key=value options.
	Opts map[string]string
	// Flags holds bare options such as static or constructor.
	Flags map[string]bool
	// Defaults holds default:arg=expr options keyed by argument name.
	Defaults map[string]string
}

// directiveKinds is the accepted directive vocabulary.
var directiveKinds = map[string]bool{
	"function": true,
	"method":   true,
	"class":    true,
	"prop":     true,
	"enum":     true,
	"case":     true,
	"const":    true,
	"startup":  true,
}

// IsDirective reports whether a comment line is a php: directive.
func IsDirective(line string) bool {
	return strings.HasPrefix(strings.TrimSpace(line), directivePrefix)
}

// ParseDirective parses one directive line. The line must include the
// comment markers, exactly as it appears in source.
func ParseDirective(line string) (*Directive, error) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), directivePrefix)
	if !ok {
		return nil, fmt.Errorf("phpgen: not a directive: %q", line)
	}

	tokens, err := splitOptions(rest)
	if err != nil {
		return nil, err
	}
	if len(tokens) == 0 {
		return nil, fmt.Errorf("phpgen: empty directive")
	}

	d := &Directive{
		Kind:     tokens[0],
		Opts:     map[string]string{},
		Flags:    map[string]bool{},
		Defaults: map[string]string{},
	}
	if !directiveKinds[d.Kind] {
		return nil, fmt.Errorf("phpgen: unknown directive php:%s", d.Kind)
	}

	for _, tok := range tokens[1:] {
		key, value, hasValue := strings.Cut(tok, "=")
		switch {
		case !hasValue:
			if d.Flags[key] {
				return nil, fmt.Errorf("phpgen: duplicate flag %q", key)
			}
			d.Flags[key] = true
		case strings.HasPrefix(key, "default:"):
			arg := strings.TrimPrefix(key, "default:")
			if arg == "" {
				return nil, fmt.Errorf("phpgen: default option needs an argument name")
			}
			if _, dup := d.Defaults[arg]; dup {
				return nil, fmt.Errorf("phpgen: duplicate default for %q", arg)
			}
			d.Defaults[arg] = value
		default:
			if key == "" {
				return nil, fmt.Errorf("phpgen: option %q has no key", tok)
			}
			if _, dup := d.Opts[key]; dup {
				return nil, fmt.Errorf("phpgen: duplicate option %q", key)
			}
			d.Opts[key] = value
		}
	}
	return d, nil
}

// splitOptions splits a directive body on spaces, keeping double-quoted
// values intact. Quotes are stripped from the result.
func splitOptions(s string) ([]string, error) {
	var tokens []string
	var cur strings.Builder
	inQuote := false
	flush := func() {
		if cur.Len() > 0 {
			tokens = append(tokens, cur.String())
			cur.Reset()
		}
	}
	for _, r := range s {
		switch {
		case r == '"':
			inQuote = !inQuote
		case (r == ' ' || r == '\t') && !inQuote:
			flush()
		default:
			cur.WriteRune(r)
		}
	}
	if inQuote {
		return nil, fmt.Errorf("phpgen: unterminated quote in directive %q", s)
	}
	flush()
	return tokens, nil
}

// splitDoc separates a doc comment's lines into the single directive and the
// remaining documentation text. Doc lines keep a leading space so they drop
// straight into PHP docblocks. A comment with more than one directive is an
// error.
func splitDoc(lines []string) (*Directive, []string, error) {
	var d *Directive
	var docs []string
	for _, line := range lines {
		if !IsDirective(line) {
			text := strings.TrimPrefix(strings.TrimSpace(line), "//")
			if text != "" || len(docs) > 0 {
				docs = append(docs, text)
			}
			continue
		}
		if d != nil {
			return nil, nil, fmt.Errorf("phpgen: more than one directive on a declaration")
		}
		parsed, err := ParseDirective(line)
		if err != nil {
			return nil, nil, err
		}
		d = parsed
	}
	// Drop blank trailing lines left behind by the directive.
	for len(docs) > 0 && docs[len(docs)-1] == "" {
		docs = docs[:len(docs)-1]
	}
	return d, docs, nil
}
