package source

import "strings"

// RenameRule is a serde rename_all case convention.
type RenameRule int

const (
	RenameNone RenameRule = iota
	RenameLowerCase
	RenameUpperCase
	RenamePascalCase
	RenameCamelCase
	RenameSnakeCase
	RenameScreamingSnakeCase
	RenameKebabCase
	RenameScreamingKebabCase
)

var renameRules = map[string]RenameRule{
	"lowercase":            RenameLowerCase,
	"UPPERCASE":            RenameUpperCase,
	"PascalCase":           RenamePascalCase,
	"camelCase":            RenameCamelCase,
	"snake_case":           RenameSnakeCase,
	"SCREAMING_SNAKE_CASE": RenameScreamingSnakeCase,
	"kebab-case":           RenameKebabCase,
	"SCREAMING-KEBAB-CASE": RenameScreamingKebabCase,
}

// ParseRenameRule maps a rename_all value to its rule. Unknown values map to RenameNone.
func ParseRenameRule(s string) RenameRule {
	return renameRules[s]
}

// ApplyToVariant converts a PascalCase variant name.
func (r RenameRule) ApplyToVariant(variant string) string {
	switch r {
	case RenameLowerCase:
		return strings.ToLower(variant)
	case RenameUpperCase:
		return strings.ToUpper(variant)
	case RenameCamelCase:
		if variant == "" {
			return variant
		}
		return strings.ToLower(variant[:1]) + variant[1:]
	case RenameSnakeCase:
		var sb strings.Builder
		for i, ch := range variant {
			if i > 0 && isUpper(ch) {
				sb.WriteByte('_')
			}
			sb.WriteString(strings.ToLower(string(ch)))
		}
		return sb.String()
	case RenameScreamingSnakeCase:
		return strings.ToUpper(RenameSnakeCase.ApplyToVariant(variant))
	case RenameKebabCase:
		return strings.ReplaceAll(RenameSnakeCase.ApplyToVariant(variant), "_", "-")
	case RenameScreamingKebabCase:
		return strings.ReplaceAll(RenameScreamingSnakeCase.ApplyToVariant(variant), "_", "-")
	}
	return variant
}

// ApplyToField converts a snake_case field name.
func (r RenameRule) ApplyToField(field string) string {
	switch r {
	case RenameUpperCase, RenameScreamingSnakeCase:
		return strings.ToUpper(field)
	case RenamePascalCase:
		var sb strings.Builder
		capitalize := true
		for _, ch := range field {
			switch {
			case ch == '_':
				capitalize = true
			case capitalize:
				sb.WriteString(strings.ToUpper(string(ch)))
				capitalize = false
			default:
				sb.WriteRune(ch)
			}
		}
		return sb.String()
	case RenameCamelCase:
		pascal := RenamePascalCase.ApplyToField(field)
		if pascal == "" {
			return pascal
		}
		return strings.ToLower(pascal[:1]) + pascal[1:]
	case RenameKebabCase:
		return strings.ReplaceAll(field, "_", "-")
	case RenameScreamingKebabCase:
		return strings.ReplaceAll(strings.ToUpper(field), "_", "-")
	}
	return field
}

func isUpper(ch rune) bool {
	return strings.ToLower(string(ch)) != string(ch)
}
