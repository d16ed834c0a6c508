package gorecord

import (
	"errors"
	"fmt"
	"reflect"
	"strings"

	"github.com/iancoleman/strcase"
	"github.com/jinzhu/inflection"
)

// TableNamer provides a custom table name for a model.
type TableNamer interface {
	TableName() string
}

var tableNamerType = reflect.TypeOf((*TableNamer)(nil)).Elem()

// TableName resolves the table of target: a string is used as is, a
// TableNamer reports its own name, and any other named struct maps to the
// plural snake_case form of its type name (Customer -> customers).
func TableName(target any) (string, error) {
	switch v := target.(type) {
	case nil:
		return "", errors.New("gorecord: nil table target")
	case string:
		name := strings.TrimSpace(v)
		if name == "" {
			return "", errors.New("gorecord: empty table name")
		}
		return name, nil
	case TableNamer:
		if rv := reflect.ValueOf(v); rv.Kind() != reflect.Pointer || !rv.IsNil() {
			return namerTable(v)
		}
	}

	typ := reflect.TypeOf(target)
	if typ.Kind() == reflect.Pointer {
		typ = typ.Elem()
	}
	if typ.Kind() != reflect.Struct {
		return "", fmt.Errorf("gorecord: unsupported table target %T", target)
	}
	if reflect.PointerTo(typ).Implements(tableNamerType) {
		return namerTable(reflect.New(typ).Interface().(TableNamer))
	}
	if typ.Name() == "" {
		return "", fmt.Errorf("gorecord: cannot derive table name for anonymous struct of type %v", typ)
	}
	return inflection.Plural(strcase.ToSnake(typ.Name())), nil
}

func namerTable(n TableNamer) (string, error) {
	name := strings.TrimSpace(n.TableName())
	if name == "" {
		return "", fmt.Errorf("gorecord: TableName returned empty string. %T", n)
	}
	return name, nil
}

// NewDescriptorFor is like NewDescriptor with the table resolved by TableName.
func NewDescriptorFor(target any, opts ...DescriptorOption) (*Descriptor, error) {
	table, err := TableName(target)
	if err != nil {
		return nil, err
	}
	return NewDescriptor(table, opts...)
}
