package source

import (
	"strings"

	"github.com/alecthomas/participle/v2/lexer"
)

// Rules are tried in order. Lower-case rule names are elided from the
// token stream by participle. Plain block comments nest, so they are
// lexed in their own state.
var rustLexer = lexer.MustStateful(lexer.Rules{
	"Root": {
		{Name: "whitespace", Pattern: `\s+`},
		{Name: "slashComment", Pattern: `////[^\n]*`},
		{Name: "OuterDoc", Pattern: `///[^\n]*`},
		{Name: "lineComment", Pattern: `//[^\n]*`},
		{Name: "BlockDoc", Pattern: `/\*\*[^*/](?:[^*/]|\*+[^*/]|/+[^*/])*\*+/`},
		{Name: "blockOpen", Pattern: `/\*`, Action: lexer.Push("BlockComment")},
		{Name: "RawString", Pattern: `b?r"[^"]*"|b?r#"(?:[^"]|"+[^"#])*"+#|b?r##"(?:[^"]|"+[^"#]|"+#[^#])*"+##`},
		{Name: "String", Pattern: `b?"(?:\\[\s\S]|[^"\\])*"`},
		{Name: "Char", Pattern: `b?'(?:\\.[^']*|[^'\\])'`},
		{Name: "Lifetime", Pattern: `'[\p{L}_][\p{L}\p{N}_]*`},
		{Name: "Ident", Pattern: `r#[\p{L}_][\p{L}\p{N}_]*|[\p{L}_][\p{L}\p{N}_]*`},
		{Name: "Number", Pattern: `[0-9][0-9A-Za-z_]*(?:\.[0-9][0-9A-Za-z_]*)?`},
		{Name: "Punct", Pattern: `::|->|=>|\.\.=|\.\.\.|\.\.|[-+*/%^!&|=<>@.,;:#$?~(){}\[\]\\]`},
	},
	"BlockComment": {
		{Name: "nestedOpen", Pattern: `/\*`, Action: lexer.Push("BlockComment")},
		{Name: "blockClose", Pattern: `\*/`, Action: lexer.Pop()},
		{Name: "blockText", Pattern: `[^*/]+|[*/]`},
	},
})

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokDoc
	tokBlockDoc
	tokRawString
	tokString
	tokChar
	tokLifetime
	tokIdent
	tokNumber
	tokPunct
)

type token struct {
	kind tokenKind
	text string
	pos  lexer.Position
}

func (t token) is(punct string) bool {
	return t.kind == tokPunct && t.text == punct
}

func (t token) isIdent(name string) bool {
	return t.kind == tokIdent && t.text == name
}

func (t token) isString() bool {
	return t.kind == tokString || t.kind == tokRawString
}

// wordy tokens need a space between them when joined back into text.
func (t token) wordy() bool {
	switch t.kind {
	case tokIdent, tokLifetime, tokNumber, tokString, tokRawString, tokChar:
		return true
	}
	return false
}

var kindBySymbol = func() map[lexer.TokenType]tokenKind {
	names := map[string]tokenKind{
		"EOF":       tokEOF,
		"OuterDoc":  tokDoc,
		"BlockDoc":  tokBlockDoc,
		"RawString": tokRawString,
		"String":    tokString,
		"Char":      tokChar,
		"Lifetime":  tokLifetime,
		"Ident":     tokIdent,
		"Number":    tokNumber,
		"Punct":     tokPunct,
	}
	out := make(map[lexer.TokenType]tokenKind, len(names))
	for name, sym := range rustLexer.Symbols() {
		if kind, ok := names[name]; ok {
			out[sym] = kind
		}
	}
	return out
}()

// tokenize lexes src into tokens, always ending with an EOF token.
func tokenize(filename, src string) ([]token, error) {
	lex, err := rustLexer.LexString(filename, src)
	if err != nil {
		return nil, err
	}
	raw, err := lexer.ConsumeAll(lex)
	if err != nil {
		return nil, err
	}
	toks := make([]token, 0, len(raw))
	for _, t := range raw {
		toks = append(toks, token{kind: kindBySymbol[t.Type], text: t.Value, pos: t.Pos})
	}
	return toks, nil
}

// joinTokens renders a token run back into compact source text.
func joinTokens(toks []token) string {
	var sb strings.Builder
	for i, t := range toks {
		if i > 0 && needsSpace(toks[i-1], t) {
			sb.WriteByte(' ')
		}
		sb.WriteString(t.text)
	}
	return sb.String()
}

func needsSpace(prev, next token) bool {
	if prev.wordy() && next.wordy() {
		return true
	}
	switch prev.text {
	case ",", ";", "->", "+", "=":
		return prev.kind == tokPunct
	}
	switch next.text {
	case "->", "+", "=":
		return next.kind == tokPunct
	}
	return false
}
