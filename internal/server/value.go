package server

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/cockroachdb/errors"
	"gopkg.in/yaml.v3"
)

// RefPrefix is the scheme marking a value as held in OS secure storage.
const RefPrefix = "keychain:"

// VaultRef addresses one secret in OS secure storage by the pair
// (registry server name, credential key). Its string form is
// "keychain:<server>.<key>".
type VaultRef struct {
	Server string
	Key    string
}

// String returns the wire form of the reference.
func (r VaultRef) String() string {
	return RefPrefix + r.Server + "." + r.Key
}

// ParseRef parses a keychain reference string. The second return value is
// false when s does not use the reference grammar.
func ParseRef(s string) (VaultRef, bool) {
	rest, ok := strings.CutPrefix(s, RefPrefix)
	if !ok {
		return VaultRef{}, false
	}
	// Server names are sanitized and never contain dots, so the first dot
	// separates server from key.
	srv, key, ok := strings.Cut(rest, ".")
	if !ok || srv == "" || key == "" {
		return VaultRef{}, false
	}
	return VaultRef{Server: srv, Key: key}, true
}

// Kind discriminates the state of a Value.
type Kind int

const (
	// KindNull marks a value that has not been provided yet.
	KindNull Kind = iota
	// KindLiteral marks a plain string value.
	KindLiteral
	// KindRef marks an indirection into OS secure storage.
	KindRef
)

// Meta carries the prompt metadata of an extended env/header entry:
// everything the user needs to re-enter a credential except the value.
type Meta struct {
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
	Note        string `json:"note,omitempty" yaml:"note,omitempty"`
	Required    bool   `json:"required,omitempty" yaml:"required,omitempty"`
	Hidden      bool   `json:"hidden,omitempty" yaml:"hidden,omitempty"`
}

// Value is one entry in an env or header map. Its wire form is a plain
// string, null, or an extended object {value, description, note, required,
// hidden}; internally literal and vault-reference strings are kept apart.
//
// The zero Value is null with no metadata.
type Value struct {
	kind    Kind
	literal string
	ref     VaultRef
	meta    *Meta
}

// NewLiteral returns a literal string value. If s uses the keychain
// reference grammar it is tagged as a reference instead.
func NewLiteral(s string) Value {
	if ref, ok := ParseRef(s); ok {
		return Value{kind: KindRef, ref: ref}
	}
	return Value{kind: KindLiteral, literal: s}
}

// NewNull returns an explicit "not yet provided" value.
func NewNull() Value {
	return Value{kind: KindNull}
}

// NewRef returns a value standing in for a secret in OS secure storage.
func NewRef(ref VaultRef) Value {
	return Value{kind: KindRef, ref: ref}
}

// WithMeta returns a copy of v carrying extended prompt metadata.
func (v Value) WithMeta(m Meta) Value {
	v.meta = &m
	return v
}

// Kind returns the state of the value.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether the value has not been provided.
func (v Value) IsNull() bool { return v.kind == KindNull }

// Ref returns the vault reference and true when the value is an indirection.
func (v Value) Ref() (VaultRef, bool) {
	if v.kind == KindRef {
		return v.ref, true
	}
	return VaultRef{}, false
}

// Meta returns the extended metadata, or nil for plain values.
func (v Value) Meta() *Meta { return v.meta }

// String returns the display form: the literal text, the reference string,
// or "" for null.
func (v Value) String() string {
	switch v.kind {
	case KindLiteral:
		return v.literal
	case KindRef:
		return v.ref.String()
	default:
		return ""
	}
}

// Equal reports whether two values have the same state and display form.
// Metadata is not compared; drift detection cares about effective values.
func (v Value) Equal(o Value) bool {
	return v.kind == o.kind && v.String() == o.String()
}

// MarshalJSON writes the wire form described in the type comment.
func (v Value) MarshalJSON() ([]byte, error) {
	if v.meta == nil {
		return json.Marshal(v.scalar())
	}
	return json.Marshal(v.extended())
}

// UnmarshalJSON accepts a string, null, or extended object.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	parsed, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// MarshalYAML implements yaml.Marshaler with the same wire shapes as JSON.
func (v Value) MarshalYAML() (any, error) {
	if v.meta == nil {
		return v.scalar(), nil
	}
	return v.extended(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (v *Value) UnmarshalYAML(node *yaml.Node) error {
	var raw any
	if err := node.Decode(&raw); err != nil {
		return err
	}
	parsed, err := FromAny(raw)
	if err != nil {
		return err
	}
	*v = parsed
	return nil
}

// scalar returns the plain wire form: string or nil.
func (v Value) scalar() any {
	if v.kind == KindNull {
		return nil
	}
	return v.String()
}

// extended returns the object wire form carrying metadata.
func (v Value) extended() map[string]any {
	out := make(map[string]any)
	if v.kind != KindNull {
		out["value"] = v.String()
	}
	if v.meta.Description != "" {
		out["description"] = v.meta.Description
	}
	if v.meta.Note != "" {
		out["note"] = v.meta.Note
	}
	if v.meta.Required {
		out["required"] = true
	}
	if v.meta.Hidden {
		out["hidden"] = true
	}
	return out
}

// FromAny converts a decoded JSON/YAML/TOML value into a Value. It accepts
// nil, strings, and extended metadata maps; anything else is an error.
func FromAny(raw any) (Value, error) {
	switch t := raw.(type) {
	case nil:
		return NewNull(), nil
	case string:
		return NewLiteral(t), nil
	case map[string]any:
		return extendedFromMap(t)
	case map[any]any:
		// Older YAML decoders produce interface-keyed maps.
		converted := make(map[string]any, len(t))
		for k, val := range t {
			ks, ok := k.(string)
			if !ok {
				return Value{}, errors.Newf("invalid env value key %v", k)
			}
			converted[ks] = val
		}
		return extendedFromMap(converted)
	default:
		return Value{}, errors.Newf("invalid env value of type %T", raw)
	}
}

func extendedFromMap(m map[string]any) (Value, error) {
	var v Value
	switch val := m["value"].(type) {
	case nil:
		v = NewNull()
	case string:
		v = NewLiteral(val)
	default:
		return Value{}, errors.Newf("invalid extended value of type %T", val)
	}

	meta := Meta{
		Description: stringField(m, "description"),
		Note:        stringField(m, "note"),
		Required:    boolField(m, "required"),
		Hidden:      boolField(m, "hidden"),
	}
	return v.WithMeta(meta), nil
}

func stringField(m map[string]any, key string) string {
	if s, ok := m[key].(string); ok {
		return s
	}
	return ""
}

func boolField(m map[string]any, key string) bool {
	if b, ok := m[key].(bool); ok {
		return b
	}
	return false
}

// ToAny returns the generic wire form, suitable for insertion into a
// map[string]any document before serialization.
func (v Value) ToAny() any {
	if v.meta == nil {
		return v.scalar()
	}
	return v.extended()
}

// Scalar returns the plain wire form (string or nil), dropping any
// metadata. Agent config files receive this form; only the registry
// persists the extended object shape.
func (v Value) Scalar() any {
	return v.scalar()
}

// GoString aids debugging without leaking literal secrets into logs.
func (v Value) GoString() string {
	switch v.kind {
	case KindLiteral:
		return fmt.Sprintf("server.Value{literal, %d bytes}", len(v.literal))
	case KindRef:
		return fmt.Sprintf("server.Value{ref, %s}", v.ref)
	default:
		return "server.Value{null}"
	}
}
