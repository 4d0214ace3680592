// Package validator implements the schema check shared by every handler: a
// list of (field, type, mandatory) conditions checked against an event's
// source-side paths.
package validator

import (
	"github.com/wazuh-io/scadecode/eventview"
	"github.com/wazuh-io/scadecode/fields"
)

// FieldType is the JSON type a Condition expects a field to hold.
type FieldType int

const (
	StringType FieldType = iota
	IntType
	BoolType
	ArrayType
	ObjectType
)

// Condition pins one field's expected type and whether its absence fails
// validation.
type Condition struct {
	Field     fields.Field
	Type      FieldType
	Mandatory bool
}

// IsValidEvent checks every condition against doc, reading each field at its
// source-side path from paths. The first failing condition short-circuits
// to false; condition order does not otherwise affect the outcome.
func IsValidEvent(doc *eventview.Document, paths fields.PathTable, conditions []Condition) bool {
	for _, c := range conditions {
		if !check(doc, paths, c) {
			return false
		}
	}
	return true
}

func check(doc *eventview.Document, paths fields.PathTable, c Condition) bool {
	path, ok := paths.Path(c.Field)
	if !ok {
		return false
	}
	if !doc.Exists(path) {
		return !c.Mandatory
	}
	switch c.Type {
	case StringType:
		return doc.IsString(path)
	case IntType:
		return doc.IsInt(path)
	case BoolType:
		return doc.IsBool(path)
	case ArrayType:
		return doc.IsArray(path)
	case ObjectType:
		return doc.IsObject(path)
	default:
		return false
	}
}
