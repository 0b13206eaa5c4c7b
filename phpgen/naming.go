package phpgen

import (
	"fmt"

	"github.com/iancoleman/strcase"
)

// RenameRule transforms Go declaration names into PHP names.
type RenameRule uint8

const (
	// RenameNone keeps names exactly as written.
	RenameNone RenameRule = iota
	// RenameCamel converts to camelCase. Default for methods.
	RenameCamel
	// RenameSnake converts to snake_case.
	RenameSnake
	// RenamePascal converts to PascalCase.
	RenamePascal
	// RenameScreaming converts to UPPER_CASE. Default for constants.
	RenameScreaming
)

// ParseRenameRule reads a rename rule from its directive spelling.
func ParseRenameRule(s string) (RenameRule, error) {
	switch s {
	case "none":
		return RenameNone, nil
	case "camelCase":
		return RenameCamel, nil
	case "snake_case":
		return RenameSnake, nil
	case "PascalCase":
		return RenamePascal, nil
	case "UPPER_CASE":
		return RenameScreaming, nil
	}
	return RenameNone, fmt.Errorf("phpgen: unknown rename rule %q", s)
}

func (r RenameRule) String() string {
	switch r {
	case RenameCamel:
		return "camelCase"
	case RenameSnake:
		return "snake_case"
	case RenamePascal:
		return "PascalCase"
	case RenameScreaming:
		return "UPPER_CASE"
	}
	return "none"
}

// magicNames pins the PHP magic methods to their canonical spelling. Keys
// cover both the snake aliases and the canonical names themselves so
// applying a rule twice changes nothing.
var magicNames = map[string]string{
	"__construct":   "__construct",
	"__destruct":    "__destruct",
	"__call":        "__call",
	"__call_static": "__callStatic",
	"__callStatic":  "__callStatic",
	"__get":         "__get",
	"__set":         "__set",
	"__isset":       "__isset",
	"__unset":       "__unset",
	"__sleep":       "__sleep",
	"__wakeup":      "__wakeup",
	"__serialize":   "__serialize",
	"__unserialize": "__unserialize",
	"__to_string":   "__toString",
	"__toString":    "__toString",
	"__invoke":      "__invoke",
	"__set_state":   "__set_state",
	"__clone":       "__clone",
	"__debug_info":  "__debugInfo",
	"__debugInfo":   "__debugInfo",
}

// Apply renames one identifier. Magic method names are never case-mapped,
// only pinned to their canonical spelling.
func (r RenameRule) Apply(name string) string {
	if r == RenameNone {
		return name
	}
	if magic, ok := magicNames[name]; ok {
		return magic
	}
	switch r {
	case RenameCamel:
		// Normalizing through snake_case keeps acronym boundaries:
		// HTTPStatus becomes httpStatus rather than httpstatus.
		return strcase.ToLowerCamel(strcase.ToSnake(name))
	case RenameSnake:
		return strcase.ToSnake(name)
	case RenamePascal:
		return strcase.ToCamel(name)
	case RenameScreaming:
		return strcase.ToScreamingSnake(name)
	}
	return name
}
