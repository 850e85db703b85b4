package source

import (
	"errors"
	"strings"
	"testing"

	"github.com/JakeStanger/rust-bindocs/internal/catalogue"
)

func parseString(t *testing.T, src string) *File {
	t.Helper()
	f, err := Parse(strings.NewReader(src), "lib.rs")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return f
}

func TestParse_StructWithDocs(t *testing.T) {
	src := `
use std::collections::HashMap;

/// Configuration for the bar.
///
/// # Example
#[derive(Debug, Clone)]
pub struct Config {
    /// The bar position.
    pub position: Position,
    // not a doc comment
    pub(crate) height: Option<u32>,
    /** Named icons. */
    icons: HashMap<String, Vec<u8>>,
}
`
	f := parseString(t, src)
	if len(f.Items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(f.Items))
	}
	decl := f.Items[0].Decl
	if decl == nil || decl.Kind != catalogue.KindStruct {
		t.Fatalf("expected struct declaration, got %+v", f.Items[0])
	}
	if decl.Name != "Config" {
		t.Errorf("expected name %q, got %q", "Config", decl.Name)
	}
	wantDesc := "Configuration for the bar.\n\n# Example"
	if decl.Description != wantDesc {
		t.Errorf("expected description %q, got %q", wantDesc, decl.Description)
	}
	if len(decl.Fields) != 3 {
		t.Fatalf("expected 3 fields, got %d", len(decl.Fields))
	}

	tests := []struct {
		name, desc, ty string
	}{
		{"position", "The bar position.", "Position"},
		{"height", "", "Option<u32>"},
		{"icons", "Named icons. ", "HashMap<String, Vec<u8>>"},
	}
	for i, tt := range tests {
		got := decl.Fields[i]
		if got.Name != tt.name {
			t.Errorf("field %d: expected name %q, got %q", i, tt.name, got.Name)
		}
		if got.Description != tt.desc {
			t.Errorf("field %d: expected description %q, got %q", i, tt.desc, got.Description)
		}
		if got.Type.String() != tt.ty {
			t.Errorf("field %d: expected type %q, got %q", i, tt.ty, got.Type.String())
		}
	}
}

func TestParse_EnumVariants(t *testing.T) {
	src := `
/// Bar position.
#[serde(rename_all = "snake_case")]
enum Position {
    /// Top edge.
    TopEdge,
    Bottom = 2,
    Custom { x_offset: i32, y: i32 },
    Tuple(String, #[serde(default)] bool),
}
`
	f := parseString(t, src)
	decl := f.Items[0].Decl
	if decl.Kind != catalogue.KindEnum {
		t.Fatalf("expected enum, got %v", decl.Kind)
	}

	var names []string
	for _, v := range decl.Variants {
		names = append(names, v.Name)
	}
	if got := strings.Join(names, ","); got != "top_edge,bottom,custom,tuple" {
		t.Errorf("unexpected variant names %q", got)
	}
	if decl.Variants[0].Description != "Top edge." {
		t.Errorf("expected variant description %q, got %q", "Top edge.", decl.Variants[0].Description)
	}

	custom := decl.Variants[2]
	if len(custom.Fields) != 2 || custom.Fields[0].Name != "x_offset" {
		t.Errorf("unexpected struct variant fields: %+v", custom.Fields)
	}

	tuple := decl.Variants[3]
	if len(tuple.Fields) != 2 {
		t.Fatalf("expected 2 tuple fields, got %d", len(tuple.Fields))
	}
	if tuple.Fields[0].Name != "0" || tuple.Fields[1].Name != "1" {
		t.Errorf("expected positional names, got %q and %q", tuple.Fields[0].Name, tuple.Fields[1].Name)
	}
	if tuple.Fields[1].Type.Name != "bool" {
		t.Errorf("expected bool, got %q", tuple.Fields[1].Type.Name)
	}
}

func TestParse_RenameAllFields(t *testing.T) {
	src := `
#[derive(Deserialize)]
#[serde(deny_unknown_fields, rename_all = "camelCase")]
struct Item {
    icon_size: u32,
    r#type: String,
}
`
	decl := parseString(t, src).Items[0].Decl
	if decl.Fields[0].Name != "iconSize" {
		t.Errorf("expected %q, got %q", "iconSize", decl.Fields[0].Name)
	}
	if decl.Fields[1].Name != "type" {
		t.Errorf("expected raw prefix stripped, got %q", decl.Fields[1].Name)
	}
}

func TestParse_DocAttribute(t *testing.T) {
	src := `
#[doc = "First line."]
#[doc = " Second line."]
struct Unit;
`
	decl := parseString(t, src).Items[0].Decl
	if decl.Description != "First line.\nSecond line." {
		t.Errorf("unexpected description %q", decl.Description)
	}
	if len(decl.Fields) != 0 {
		t.Errorf("expected no fields, got %d", len(decl.Fields))
	}
}

func TestParse_Modules(t *testing.T) {
	src := `
#![allow(dead_code)]

mod external;
pub mod r#async;

pub mod inline {
    /// Nested.
    pub struct Nested(pub u8);

    mod deeper {
        enum Empty {}
    }
}
`
	f := parseString(t, src)
	if len(f.Items) != 3 {
		t.Fatalf("expected 3 items, got %d", len(f.Items))
	}

	ext := f.Items[0].Module
	if ext == nil || ext.Name != "external" || ext.Inline {
		t.Errorf("unexpected external module: %+v", ext)
	}
	if raw := f.Items[1].Module; raw == nil || raw.Name != "r#async" {
		t.Errorf("expected raw module name kept for file lookup, got %+v", raw)
	}

	inline := f.Items[2].Module
	if inline == nil || !inline.Inline {
		t.Fatalf("expected inline module, got %+v", inline)
	}
	if len(inline.Items) != 2 {
		t.Fatalf("expected 2 inline items, got %d", len(inline.Items))
	}
	if inline.Items[0].Decl.Name != "Nested" {
		t.Errorf("expected Nested, got %q", inline.Items[0].Decl.Name)
	}
	deeper := inline.Items[1].Module
	if deeper == nil || len(deeper.Items) != 1 || deeper.Items[0].Decl.Name != "Empty" {
		t.Errorf("unexpected nested module: %+v", deeper)
	}
}

func TestParse_SkipsOtherItems(t *testing.T) {
	src := `
use crate::{a, b::c};
const SIZES: [u8; 3] = [1, 2, 3];
static DEFAULT: Config = Config { a: 1 };
type Alias<T> = Vec<T>;

impl<T: Clone> Display for Wrapper<T> where T: Debug {
    fn fmt(&self, f: &mut Formatter<'_>) -> Result {
        let x = { 1 };
        Ok(())
    }
}

macro_rules! thing {
    ($x:expr) => { $x };
}

thing!(1);

fn main() {}

struct Last;
`
	f := parseString(t, src)
	if len(f.Items) != 1 {
		t.Fatalf("expected only the struct, got %d items", len(f.Items))
	}
	if f.Items[0].Decl.Name != "Last" {
		t.Errorf("expected Last, got %q", f.Items[0].Decl.Name)
	}
}

func TestParse_NestedBlockComments(t *testing.T) {
	src := `
/* outer /* inner */ still a comment */
pub struct A;

/* a /* b /* c */ */ struct B; */
/**/
/***/
/** Documented. */
pub struct C;
`
	f := parseString(t, src)
	if len(f.Items) != 2 {
		t.Fatalf("expected 2 items, got %d", len(f.Items))
	}
	if f.Items[0].Decl.Name != "A" || f.Items[1].Decl.Name != "C" {
		t.Errorf("expected A and C, got %q and %q", f.Items[0].Decl.Name, f.Items[1].Decl.Name)
	}
	if f.Items[1].Decl.Description != "Documented." {
		t.Errorf("expected %q, got %q", "Documented.", f.Items[1].Decl.Description)
	}
}

func TestParse_Preamble(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"byte order mark", "\uFEFFpub struct A;\n"},
		{"shebang", "#!/usr/bin/env run-cargo-script\npub struct A;\n"},
		{"byte order mark and shebang", "\uFEFF#! /bin/sh\npub struct A;"},
		{"inner attribute", "#![allow(dead_code)]\npub struct A;\n"},
		{"inner attribute with space", "#! [allow(dead_code)]\npub struct A;\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := parseString(t, tt.src)
			if len(f.Items) != 1 || f.Items[0].Decl == nil {
				t.Fatalf("expected 1 declaration, got %+v", f.Items)
			}
			if f.Items[0].Decl.Name != "A" {
				t.Errorf("expected %q, got %q", "A", f.Items[0].Decl.Name)
			}
		})
	}
}

func TestParse_ShebangKeepsLines(t *testing.T) {
	_, err := Parse(strings.NewReader("#!/bin/sh\nstruct A { b }"), "bad.rs")
	var syn *SyntaxError
	if !errors.As(err, &syn) {
		t.Fatalf("expected *SyntaxError, got %v", err)
	}
	if syn.Pos.Line != 2 {
		t.Errorf("expected error on line 2, got %d", syn.Pos.Line)
	}
}

func TestParse_Types(t *testing.T) {
	src := `
struct Types<'a, T> where T: Clone {
    a: &'a str,
    b: &'a mut Vec<T>,
    c: std::sync::Arc<Mutex<Option<Box<str>>>>,
    d: Vec::<u8>,
    e: [u8; 4],
    f: (u8, u16),
    g: Box<dyn Fn(u8) -> u8 + Send>,
    h: Cow<'a, str>,
    i: Foo<N = 3, T>,
}
`
	decl := parseString(t, src).Items[0].Decl
	tests := []struct {
		full, simple string
	}{
		{"str", "String"},
		{"Vec<T>", "Vec"},
		{"std::sync::Arc<Mutex<Option<Box<str>>>>", "std::sync::Arc"},
		{"Vec<u8>", "Vec"},
		{"[u8; 4]", "[u8; 4]"},
		{"(u8, u16)", "(u8, u16)"},
		{"Box<dyn Fn(u8) -> u8 + Send>", "dyn Fn(u8) -> u8 + Send"},
		{"Cow<str>", "Cow"},
		{"Foo<T>", "Foo"},
	}
	if len(decl.Fields) != len(tests) {
		t.Fatalf("expected %d fields, got %d", len(tests), len(decl.Fields))
	}
	for i, tt := range tests {
		ty := decl.Fields[i].Type
		if got := ty.DocString(false); got != tt.full {
			t.Errorf("field %s: expected %q, got %q", decl.Fields[i].Name, tt.full, got)
		}
		if got := ty.DocString(true); got != tt.simple {
			t.Errorf("field %s: expected simplified %q, got %q", decl.Fields[i].Name, tt.simple, got)
		}
	}
}

func TestParse_Errors(t *testing.T) {
	tests := []struct {
		name string
		src  string
	}{
		{"unclosed module", "mod a { struct B;"},
		{"stray brace", "struct A; }"},
		{"missing field type", "struct A { b }"},
		{"mismatched group", "fn a() { ( }"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse(strings.NewReader(tt.src), "bad.rs")
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			var syn *SyntaxError
			if !errors.As(err, &syn) {
				t.Fatalf("expected *SyntaxError, got %T", err)
			}
			if syn.Pos.Filename != "bad.rs" {
				t.Errorf("expected filename %q, got %q", "bad.rs", syn.Pos.Filename)
			}
		})
	}
}

func TestRenameRules(t *testing.T) {
	tests := []struct {
		rule           string
		variant, field string
	}{
		{"lowercase", "verylongname", "very_long_name"},
		{"UPPERCASE", "VERYLONGNAME", "VERY_LONG_NAME"},
		{"PascalCase", "VeryLongName", "VeryLongName"},
		{"camelCase", "veryLongName", "veryLongName"},
		{"snake_case", "very_long_name", "very_long_name"},
		{"SCREAMING_SNAKE_CASE", "VERY_LONG_NAME", "VERY_LONG_NAME"},
		{"kebab-case", "very-long-name", "very-long-name"},
		{"SCREAMING-KEBAB-CASE", "VERY-LONG-NAME", "VERY-LONG-NAME"},
		{"unknown", "VeryLongName", "very_long_name"},
	}
	for _, tt := range tests {
		rule := ParseRenameRule(tt.rule)
		if got := rule.ApplyToVariant("VeryLongName"); got != tt.variant {
			t.Errorf("%s variant: expected %q, got %q", tt.rule, tt.variant, got)
		}
		if got := rule.ApplyToField("very_long_name"); got != tt.field {
			t.Errorf("%s field: expected %q, got %q", tt.rule, tt.field, got)
		}
	}
}

func TestUnquote(t *testing.T) {
	tests := []struct {
		tok  token
		want string
	}{
		{token{kind: tokString, text: `"plain"`}, "plain"},
		{token{kind: tokString, text: `"a\nb\t\"c\""`}, "a\nb\t\"c\""},
		{token{kind: tokString, text: `"\u{1F600}\x41"`}, "\U0001F600A"},
		{token{kind: tokRawString, text: `r#"raw "quoted""#`}, `raw "quoted"`},
		{token{kind: tokRawString, text: `r"x\n"`}, `x\n`},
	}
	for _, tt := range tests {
		if got := unquote(tt.tok); got != tt.want {
			t.Errorf("unquote(%s): expected %q, got %q", tt.tok.text, tt.want, got)
		}
	}
}
