package source

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/JakeStanger/rust-bindocs/internal/catalogue"
	"github.com/alecthomas/participle/v2/lexer"
)

// File is the item-level view of one source file.
type File struct {
	Items []Item
}

// Item is either a module declaration or a documentable declaration.
type Item struct {
	Module *Module
	Decl   *catalogue.Declaration
}

// Module is a `mod` item. Inline modules carry their items; external
// modules (`mod name;`) live in another file.
type Module struct {
	Name   string
	Inline bool
	Items  []Item
}

// SyntaxError reports source that is not valid item syntax.
type SyntaxError struct {
	Pos lexer.Position
	Msg string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("%s: %s", e.Pos, e.Msg)
}

// Parse reads Rust source and returns its top-level items. Only modules,
// structs and enums are kept; every other item is skipped.
func Parse(r io.Reader, filename string) (*File, error) {
	src, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}

	toks, err := tokenize(filename, stripPreamble(string(src)))
	if err != nil {
		var lexErr *lexer.Error
		if errors.As(err, &lexErr) {
			return nil, &SyntaxError{Pos: lexErr.Pos, Msg: lexErr.Msg}
		}
		return nil, err
	}

	p := &parser{toks: toks}
	items, err := p.parseItems(false)
	if err != nil {
		return nil, err
	}
	return &File{Items: items}, nil
}

// stripPreamble drops a leading byte order mark and blanks a shebang line.
// The newline is kept so positions still match the file.
func stripPreamble(src string) string {
	src = strings.TrimPrefix(src, "\uFEFF")
	if strings.HasPrefix(src, "#!") {
		rest := strings.TrimLeft(src[2:], " \t")
		if !strings.HasPrefix(rest, "[") {
			if i := strings.IndexByte(src, '\n'); i >= 0 {
				return src[i:]
			}
			return ""
		}
	}
	return src
}

type parser struct {
	toks []token
	pos  int
}

// attrs holds the outer attributes and doc comments preceding an item.
type attrs struct {
	doc    []string
	rename RenameRule
}

func (a attrs) description() string {
	return strings.Join(a.doc, "\n")
}

func (p *parser) peek() token {
	return p.peekN(0)
}

func (p *parser) peekN(n int) token {
	if p.pos+n >= len(p.toks) {
		return p.toks[len(p.toks)-1]
	}
	return p.toks[p.pos+n]
}

func (p *parser) next() token {
	t := p.peek()
	if p.pos < len(p.toks)-1 {
		p.pos++
	}
	return t
}

func (p *parser) accept(punct string) bool {
	if p.peek().is(punct) {
		p.next()
		return true
	}
	return false
}

func (p *parser) expect(punct string) error {
	if !p.accept(punct) {
		return p.errorf("expected %q, found %s", punct, describe(p.peek()))
	}
	return nil
}

func (p *parser) expectIdent() (string, error) {
	t := p.peek()
	if t.kind != tokIdent {
		return "", p.errorf("expected identifier, found %s", describe(t))
	}
	p.next()
	return t.text, nil
}

func (p *parser) errorf(format string, args ...any) error {
	return &SyntaxError{Pos: p.peek().pos, Msg: fmt.Sprintf(format, args...)}
}

func describe(t token) string {
	if t.kind == tokEOF {
		return "end of file"
	}
	return strconv.Quote(t.text)
}

func (p *parser) parseItems(inBlock bool) ([]Item, error) {
	var items []Item
	for {
		t := p.peek()
		if t.kind == tokEOF {
			if inBlock {
				return nil, p.errorf("unexpected end of file, expected \"}\"")
			}
			return items, nil
		}
		if t.is("}") {
			if !inBlock {
				return nil, p.errorf("unexpected \"}\"")
			}
			p.next()
			return items, nil
		}

		item, err := p.parseItem()
		if err != nil {
			return nil, err
		}
		if item != nil {
			items = append(items, *item)
		}
	}
}

func (p *parser) parseItem() (*Item, error) {
	a, err := p.parseAttrs()
	if err != nil {
		return nil, err
	}
	if p.accept(";") {
		return nil, nil
	}
	if p.peek().is("}") || p.peek().kind == tokEOF {
		// Trailing inner attributes or doc comments with nothing to attach to.
		return nil, nil
	}
	if err := p.skipVisibility(); err != nil {
		return nil, err
	}

	t := p.peek()
	switch {
	case t.isIdent("mod"):
		return p.parseModule()
	case t.isIdent("struct"):
		decl, err := p.parseStruct(a)
		if err != nil {
			return nil, err
		}
		return &Item{Decl: decl}, nil
	case t.isIdent("enum"):
		decl, err := p.parseEnum(a)
		if err != nil {
			return nil, err
		}
		return &Item{Decl: decl}, nil
	}
	return nil, p.skipItem()
}

// parseAttrs collects doc comments and outer attributes. Inner attributes
// (#![...]) are consumed and dropped.
func (p *parser) parseAttrs() (attrs, error) {
	var a attrs
	for {
		t := p.peek()
		switch {
		case t.kind == tokDoc:
			p.next()
			a.doc = append(a.doc, docText(lineDocBody(t))...)
		case t.kind == tokBlockDoc:
			p.next()
			a.doc = append(a.doc, docText(blockDocBody(t))...)
		case t.is("#"):
			p.next()
			inner := p.accept("!")
			if !p.peek().is("[") {
				return a, p.errorf("expected \"[\" after \"#\", found %s", describe(p.peek()))
			}
			body, err := p.group()
			if err != nil {
				return a, err
			}
			if !inner {
				a.apply(body)
			}
		default:
			return a, nil
		}
	}
}

func (a *attrs) apply(body []token) {
	if len(body) == 0 || body[0].kind != tokIdent {
		return
	}
	switch body[0].text {
	case "doc":
		if len(body) >= 3 && body[1].is("=") && body[2].isString() {
			a.doc = append(a.doc, docText(unquote(body[2]))...)
		}
	case "serde":
		for i, t := range body {
			if !t.isIdent("rename_all") {
				continue
			}
			for _, v := range body[i+1:] {
				if v.isString() {
					a.rename = ParseRenameRule(unquote(v))
					return
				}
			}
		}
	}
}

// skipVisibility consumes `pub`, `pub(crate)`, `pub(in path)` and friends.
func (p *parser) skipVisibility() error {
	if !p.peek().isIdent("pub") {
		return nil
	}
	p.next()
	if p.peek().is("(") {
		switch inner := p.peekN(1); {
		case inner.isIdent("crate"), inner.isIdent("self"), inner.isIdent("super"), inner.isIdent("in"):
			_, err := p.group()
			return err
		}
	}
	return nil
}

// group consumes a balanced (), [] or {} group and returns its inner tokens.
func (p *parser) group() ([]token, error) {
	open := p.next()
	start := p.pos
	stack := []string{closer(open.text)}
	for len(stack) > 0 {
		t := p.next()
		switch {
		case t.kind == tokEOF:
			return nil, &SyntaxError{Pos: open.pos, Msg: fmt.Sprintf("unclosed %q", open.text)}
		case t.is("("), t.is("["), t.is("{"):
			stack = append(stack, closer(t.text))
		case t.is(")"), t.is("]"), t.is("}"):
			if t.text != stack[len(stack)-1] {
				return nil, &SyntaxError{Pos: t.pos, Msg: fmt.Sprintf("mismatched %q, expected %q", t.text, stack[len(stack)-1])}
			}
			stack = stack[:len(stack)-1]
		}
	}
	return p.toks[start : p.pos-1], nil
}

func closer(open string) string {
	switch open {
	case "(":
		return ")"
	case "[":
		return "]"
	}
	return "}"
}

// skipItem consumes an item we do not document. The item ends at a
// top-level `;` or after its first top-level brace group.
func (p *parser) skipItem() error {
	for {
		t := p.peek()
		switch {
		case t.kind == tokEOF:
			return p.errorf("unexpected end of file inside item")
		case t.is("}"):
			return nil
		case t.is(";"):
			p.next()
			return nil
		case t.is("{"):
			_, err := p.group()
			return err
		case t.is("("), t.is("["):
			if _, err := p.group(); err != nil {
				return err
			}
		case t.is(")"), t.is("]"):
			return p.errorf("unexpected %q", t.text)
		default:
			p.next()
		}
	}
}

func (p *parser) parseModule() (*Item, error) {
	p.next() // mod
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if p.accept(";") {
		return &Item{Module: &Module{Name: name}}, nil
	}
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	items, err := p.parseItems(true)
	if err != nil {
		return nil, err
	}
	return &Item{Module: &Module{Name: name, Inline: true, Items: items}}, nil
}

func (p *parser) parseStruct(a attrs) (*catalogue.Declaration, error) {
	p.next() // struct
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.skipGenerics(); err != nil {
		return nil, err
	}
	if err := p.skipWhere(); err != nil {
		return nil, err
	}

	decl := &catalogue.Declaration{
		Name:        unraw(name),
		Description: a.description(),
		Kind:        catalogue.KindStruct,
	}

	switch {
	case p.peek().is("{"):
		decl.Fields, err = p.parseNamedFields(a.rename)
	case p.peek().is("("):
		decl.Fields, err = p.parseTupleFields()
		if err == nil {
			err = p.skipWhere()
		}
		if err == nil {
			err = p.expect(";")
		}
	default:
		err = p.expect(";")
	}
	if err != nil {
		return nil, err
	}
	return decl, nil
}

func (p *parser) parseEnum(a attrs) (*catalogue.Declaration, error) {
	p.next() // enum
	name, err := p.expectIdent()
	if err != nil {
		return nil, err
	}
	if err := p.skipGenerics(); err != nil {
		return nil, err
	}
	if err := p.skipWhere(); err != nil {
		return nil, err
	}
	if err := p.expect("{"); err != nil {
		return nil, err
	}

	decl := &catalogue.Declaration{
		Name:        unraw(name),
		Description: a.description(),
		Kind:        catalogue.KindEnum,
	}

	for !p.accept("}") {
		va, err := p.parseAttrs()
		if err != nil {
			return nil, err
		}
		if p.accept("}") {
			break
		}
		if err := p.skipVisibility(); err != nil {
			return nil, err
		}
		vname, err := p.expectIdent()
		if err != nil {
			return nil, err
		}

		variant := catalogue.Variant{
			Name:        a.rename.ApplyToVariant(unraw(vname)),
			Description: va.description(),
		}
		switch {
		case p.peek().is("{"):
			variant.Fields, err = p.parseNamedFields(a.rename)
		case p.peek().is("("):
			variant.Fields, err = p.parseTupleFields()
		}
		if err != nil {
			return nil, err
		}
		if p.accept("=") {
			if err := p.skipUntil(",", "}"); err != nil {
				return nil, err
			}
		}
		decl.Variants = append(decl.Variants, variant)

		if !p.accept(",") {
			if err := p.expect("}"); err != nil {
				return nil, err
			}
			break
		}
	}
	return decl, nil
}

func (p *parser) parseNamedFields(rule RenameRule) ([]catalogue.Field, error) {
	if err := p.expect("{"); err != nil {
		return nil, err
	}
	var fields []catalogue.Field
	for !p.accept("}") {
		fa, err := p.parseAttrs()
		if err != nil {
			return nil, err
		}
		if p.accept("}") {
			break
		}
		if err := p.skipVisibility(); err != nil {
			return nil, err
		}
		name, err := p.expectIdent()
		if err != nil {
			return nil, err
		}
		if err := p.expect(":"); err != nil {
			return nil, err
		}
		ty, err := p.parseType("}")
		if err != nil {
			return nil, err
		}
		fields = append(fields, catalogue.Field{
			Name:        rule.ApplyToField(unraw(name)),
			Description: fa.description(),
			Type:        ty,
		})

		if !p.accept(",") {
			if err := p.expect("}"); err != nil {
				return nil, err
			}
			break
		}
	}
	return fields, nil
}

// parseTupleFields names positional fields by their index.
func (p *parser) parseTupleFields() ([]catalogue.Field, error) {
	if err := p.expect("("); err != nil {
		return nil, err
	}
	var fields []catalogue.Field
	for !p.accept(")") {
		fa, err := p.parseAttrs()
		if err != nil {
			return nil, err
		}
		if p.accept(")") {
			break
		}
		if err := p.skipVisibility(); err != nil {
			return nil, err
		}
		ty, err := p.parseType(")")
		if err != nil {
			return nil, err
		}
		fields = append(fields, catalogue.Field{
			Name:        strconv.Itoa(len(fields)),
			Description: fa.description(),
			Type:        ty,
		})

		if !p.accept(",") {
			if err := p.expect(")"); err != nil {
				return nil, err
			}
			break
		}
	}
	return fields, nil
}

// skipGenerics consumes a `<...>` parameter list if present.
func (p *parser) skipGenerics() error {
	if !p.peek().is("<") {
		return nil
	}
	depth := 0
	for {
		t := p.peek()
		switch {
		case t.kind == tokEOF:
			return p.errorf("unclosed generic parameter list")
		case t.is("<"):
			depth++
			p.next()
		case t.is(">"):
			depth--
			p.next()
			if depth == 0 {
				return nil
			}
		case t.is("("), t.is("["), t.is("{"):
			if _, err := p.group(); err != nil {
				return err
			}
		default:
			p.next()
		}
	}
}

// skipWhere consumes a where clause up to the item body or terminator.
func (p *parser) skipWhere() error {
	if !p.peek().isIdent("where") {
		return nil
	}
	p.next()
	return p.skipUntil("{", ";")
}

// skipUntil consumes tokens until one of stops appears outside any group.
// The stop token itself is not consumed.
func (p *parser) skipUntil(stops ...string) error {
	for {
		t := p.peek()
		if t.kind == tokEOF {
			return p.errorf("unexpected end of file")
		}
		for _, s := range stops {
			if t.is(s) {
				return nil
			}
		}
		switch {
		case t.is("("), t.is("["), t.is("{"):
			if _, err := p.group(); err != nil {
				return err
			}
		case t.is(")"), t.is("]"), t.is("}"):
			return p.errorf("unexpected %q", t.text)
		default:
			p.next()
		}
	}
}

func unraw(name string) string {
	return strings.TrimPrefix(name, "r#")
}

// parseType reads a field type ending before a top-level `,` or closer.
// Plain paths become structured types; references resolve to their target.
// Anything else keeps its source text as the name.
func (p *parser) parseType(closer string) (catalogue.TypeInfo, error) {
	start := p.pos
	if ty, ok := p.pathType(closer); ok {
		return ty, nil
	}
	p.pos = start

	toks, err := p.rawType(closer)
	if err != nil {
		return catalogue.TypeInfo{}, err
	}
	return catalogue.TypeInfo{Name: joinTokens(toks)}, nil
}

func (p *parser) atTypeEnd(closer string) bool {
	t := p.peek()
	return t.is(",") || t.is(closer)
}

func (p *parser) pathType(closer string) (catalogue.TypeInfo, bool) {
	for p.peek().is("&") || p.peek().kind == tokLifetime || p.peek().isIdent("mut") {
		p.next()
	}
	p.accept("::")

	var (
		info     catalogue.TypeInfo
		segments []string
	)
	for {
		if p.peek().kind != tokIdent {
			return info, false
		}
		segments = append(segments, p.next().text)

		if p.peek().is("::") && p.peekN(1).is("<") {
			p.next()
		}
		if p.peek().is("<") {
			args, ok := p.genericArgs()
			if !ok {
				return info, false
			}
			info.Generics = append(info.Generics, args...)
		}
		if !p.peek().is("::") || p.peekN(1).kind != tokIdent {
			break
		}
		p.next()
	}

	info.Name = strings.Join(segments, "::")
	return info, p.atTypeEnd(closer)
}

// genericArgs reads `<...>` keeping only type arguments. Lifetimes,
// const arguments and associated type bindings are dropped.
func (p *parser) genericArgs() ([]catalogue.TypeInfo, bool) {
	p.next() // <
	var args []catalogue.TypeInfo
	for !p.accept(">") {
		t := p.peek()
		switch {
		case t.kind == tokEOF:
			return nil, false
		case t.kind == tokLifetime, t.kind == tokNumber, t.kind == tokChar, t.isString(), t.is("-"), t.is("{"),
			t.kind == tokIdent && (p.peekN(1).is("=") || p.peekN(1).is(":")):
			if _, err := p.rawType(">"); err != nil {
				return nil, false
			}
		default:
			ty, err := p.parseType(">")
			if err != nil {
				return nil, false
			}
			args = append(args, ty)
		}
		if !p.accept(",") && !p.peek().is(">") {
			return nil, false
		}
	}
	return args, true
}

// rawType consumes the tokens of a type that has no structured form.
func (p *parser) rawType(closer string) ([]token, error) {
	start := p.pos
	angle := 0
loop:
	for {
		t := p.peek()
		switch {
		case t.kind == tokEOF:
			return nil, p.errorf("unexpected end of file in type")
		case angle == 0 && (t.is(",") || t.is(closer)):
			break loop
		case t.is("<"):
			angle++
			p.next()
		case t.is(">"):
			angle--
			p.next()
		case t.is("("), t.is("["), t.is("{"):
			if _, err := p.group(); err != nil {
				return nil, err
			}
		case t.is(")"), t.is("]"), t.is("}"):
			return nil, p.errorf("unexpected %q in type", t.text)
		default:
			p.next()
		}
	}
	if p.pos == start {
		return nil, p.errorf("expected type, found %s", describe(p.peek()))
	}
	return p.toks[start:p.pos], nil
}
