package symbolic

import (
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// ParseCall splits "name(a, b)" into the head name and its argument tokens.
// "name" and "name()" both have zero arguments. Tokens are trimmed and
// NFC-normalised.
func ParseCall(text string) (string, []string, error) {
	s := strings.TrimSpace(text)
	open := strings.IndexByte(s, '(')
	if open < 0 {
		if err := checkToken(text, s); err != nil {
			return "", nil, err
		}
		return norm.NFC.String(s), nil, nil
	}

	name := strings.TrimSpace(s[:open])
	if err := checkToken(text, name); err != nil {
		return "", nil, err
	}
	if !strings.HasSuffix(s, ")") {
		return "", nil, &SyntaxError{Text: text, Message: "missing closing parenthesis"}
	}

	inner := strings.TrimSpace(s[open+1 : len(s)-1])
	if inner == "" {
		return norm.NFC.String(name), nil, nil
	}

	parts := strings.Split(inner, ",")
	args := make([]string, len(parts))
	for i, part := range parts {
		tok := strings.TrimSpace(part)
		if err := checkToken(text, tok); err != nil {
			return "", nil, err
		}
		args[i] = norm.NFC.String(tok)
	}
	return norm.NFC.String(name), args, nil
}

// checkToken rejects empty tokens and tokens with separators inside.
func checkToken(text, tok string) error {
	if tok == "" {
		return &SyntaxError{Text: text, Message: "empty name or argument"}
	}
	if !isSymbol(tok) {
		return &SyntaxError{Text: text, Message: "unexpected character in " + strconv.Quote(tok)}
	}
	return nil
}

// isSymbol reports whether name can appear as a token in a call or a
// rendered proposition: non-empty, with no whitespace, parentheses or commas.
// Rendered propositions key a State, so only symbols keep those keys unique.
func isSymbol(name string) bool {
	return name != "" && !strings.ContainsFunc(name, func(r rune) bool {
		return unicode.IsSpace(r) || r == '(' || r == ')' || r == ','
	})
}
