// Package serializer renders models for a particular viewer, dropping the
// fields that viewer may not see. Visibility is declared with a szlr struct
// tag next to the json tag:
//
//	Email string `json:"email" szlr:"scope:admin,self"`
//
// Fields without a szlr tag are always visible.
package serializer

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/dangerclosesec/pathway/internal/model"
	"github.com/google/uuid"
)

// Scopes understood in szlr tags.
const (
	ScopeAlways = "always"
	ScopeAdmin  = "admin"
	ScopeSelf   = "self"
	ScopeMember = "member"
)

// Owned is implemented by records that belong to a single user.
type Owned interface {
	OwnerID() uuid.UUID
}

// Affiliated is implemented by records tied to an organization.
type Affiliated interface {
	Organization() *uuid.UUID
}

// ParseScopes extracts the scope portion from the tag. Example: "scope:admin,self" -> ["admin", "self"]
func ParseScopes(tag string) []string {
	prefix := "scope:"
	idx := strings.Index(tag, prefix)
	if idx == -1 {
		if tag == ScopeAlways {
			return []string{ScopeAlways}
		}
		return nil
	}

	scopes := strings.TrimSpace(strings.TrimPrefix(tag[idx:], prefix))
	if scopes == "" {
		return nil
	}
	return strings.Split(scopes, ",")
}

// CanViewField examines the szlr tag and decides if viewer can see the field
// of input. A nil viewer only sees untagged and "always" fields.
func CanViewField(szlrTag string, viewer *model.User, input any) bool {
	if szlrTag == "" {
		return true
	}

	for _, scope := range ParseScopes(szlrTag) {
		switch strings.TrimSpace(scope) {
		case ScopeAlways:
			return true
		case ScopeAdmin:
			if viewer != nil && viewer.Role == model.RoleAdmin {
				return true
			}
		case ScopeSelf:
			if o, ok := input.(Owned); ok && viewer != nil && o.OwnerID() == viewer.ID {
				return true
			}
		case ScopeMember:
			a, ok := input.(Affiliated)
			if !ok || viewer == nil || viewer.OrganizationID == nil {
				continue
			}
			if org := a.Organization(); org != nil && *org == *viewer.OrganizationID {
				return true
			}
		}
	}
	return false
}

// Sanitize returns a JSON-ready rendition of v for viewer. Structs become
// maps keyed by their json names with hidden fields removed; slices and
// pointers are handled element by element. Other values pass through.
func Sanitize(viewer *model.User, v any) (any, error) {
	return sanitize(viewer, reflect.ValueOf(v))
}

func sanitize(viewer *model.User, rv reflect.Value) (any, error) {
	if !rv.IsValid() {
		return nil, nil
	}

	switch rv.Kind() {
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, nil
		}
		if rv.Kind() == reflect.Pointer && rv.Elem().Kind() == reflect.Struct {
			return sanitizeStruct(viewer, rv.Elem(), rv.Interface())
		}
		return sanitize(viewer, rv.Elem())
	case reflect.Struct:
		return sanitizeStruct(viewer, rv, rv.Interface())
	case reflect.Slice, reflect.Array:
		if rv.Kind() == reflect.Slice && rv.IsNil() {
			return []any{}, nil
		}
		out := make([]any, rv.Len())
		for i := range out {
			item, err := sanitize(viewer, rv.Index(i))
			if err != nil {
				return nil, fmt.Errorf("item %d: %w", i, err)
			}
			out[i] = item
		}
		return out, nil
	}
	return rv.Interface(), nil
}

func sanitizeStruct(viewer *model.User, rv reflect.Value, original any) (any, error) {
	if !hasScopedFields(rv.Type()) {
		return original, nil
	}

	out := make(map[string]any, rv.NumField())
	rt := rv.Type()
	for i := 0; i < rt.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}

		name, omitEmpty, skip := jsonName(field)
		if skip {
			continue
		}
		if !CanViewField(field.Tag.Get("szlr"), viewer, original) {
			continue
		}

		fv := rv.Field(i)
		if omitEmpty && fv.IsZero() {
			continue
		}
		out[name] = fv.Interface()
	}
	return out, nil
}

func hasScopedFields(t reflect.Type) bool {
	for i := 0; i < t.NumField(); i++ {
		if _, ok := t.Field(i).Tag.Lookup("szlr"); ok {
			return true
		}
	}
	return false
}

func jsonName(f reflect.StructField) (name string, omitEmpty, skip bool) {
	tag := f.Tag.Get("json")
	if tag == "-" {
		return "", false, true
	}
	parts := strings.Split(tag, ",")
	name = parts[0]
	if name == "" {
		name = f.Name
	}
	for _, opt := range parts[1:] {
		if opt == "omitempty" {
			omitEmpty = true
		}
	}
	return name, omitEmpty, false
}
