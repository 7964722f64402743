// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package theme

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind discriminates the variants of a setting Value.
type Kind int

const (
	KindBool Kind = iota
	KindNumber
	KindText
	KindList
	KindObject
)

// Value is a typed theme-setting value. The persistence layer stores
// plain strings; Value is the tagged union everything above the storage
// edge works with.
type Value struct {
	Kind   Kind
	Bool   bool
	Number float64
	Text   string
	Raw    json.RawMessage // list/object payload, valid JSON
}

// MarshalJSON emits the natural JSON form of the value: true/false for
// booleans, a number, a string, or the raw list/object payload.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case KindBool:
		return json.Marshal(v.Bool)
	case KindNumber:
		return json.Marshal(v.Number)
	case KindText:
		return json.Marshal(v.Text)
	case KindList, KindObject:
		if len(v.Raw) == 0 {
			if v.Kind == KindList {
				return []byte("[]"), nil
			}
			return []byte("{}"), nil
		}
		return v.Raw, nil
	}
	return nil, fmt.Errorf("unknown value kind %d", v.Kind)
}

// Encode returns the storage representation: booleans as the literal
// "true"/"false", numbers in minimal decimal form, text verbatim, and
// lists/objects as serialized JSON.
func (v Value) Encode() string {
	switch v.Kind {
	case KindBool:
		return strconv.FormatBool(v.Bool)
	case KindNumber:
		return strconv.FormatFloat(v.Number, 'f', -1, 64)
	case KindText:
		return v.Text
	case KindList, KindObject:
		return string(v.Raw)
	}
	return ""
}

// ParseStored decodes a stored string back into a typed Value according
// to the manifest-declared type. Booleans recognize only the literal
// "true"; malformed numbers and JSON payloads are errors so callers can
// fall back to the manifest default.
func ParseStored(t SettingType, raw string) (Value, error) {
	switch t {
	case SettingBoolean:
		return Value{Kind: KindBool, Bool: raw == "true"}, nil
	case SettingNumber:
		n, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return Value{}, fmt.Errorf("parse number %q: %w", raw, err)
		}
		return Value{Kind: KindNumber, Number: n}, nil
	case SettingString, SettingSelect:
		return Value{Kind: KindText, Text: raw}, nil
	case SettingArray:
		var probe []json.RawMessage
		if err := json.Unmarshal([]byte(raw), &probe); err != nil {
			return Value{}, fmt.Errorf("parse array: %w", err)
		}
		return Value{Kind: KindList, Raw: json.RawMessage(raw)}, nil
	case SettingObject:
		var probe map[string]json.RawMessage
		if err := json.Unmarshal([]byte(raw), &probe); err != nil {
			return Value{}, fmt.Errorf("parse object: %w", err)
		}
		return Value{Kind: KindObject, Raw: json.RawMessage(raw)}, nil
	}
	return Value{}, fmt.Errorf("unknown setting type %q", t)
}

// ParseJSON decodes a caller-supplied JSON value (admin input or a
// manifest default) into a typed Value, enforcing the declared type.
func ParseJSON(t SettingType, data json.RawMessage) (Value, error) {
	switch t {
	case SettingBoolean:
		var b bool
		if err := json.Unmarshal(data, &b); err != nil {
			return Value{}, fmt.Errorf("expected boolean: %w", err)
		}
		return Value{Kind: KindBool, Bool: b}, nil
	case SettingNumber:
		var n float64
		if err := json.Unmarshal(data, &n); err != nil {
			return Value{}, fmt.Errorf("expected number: %w", err)
		}
		return Value{Kind: KindNumber, Number: n}, nil
	case SettingString, SettingSelect:
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return Value{}, fmt.Errorf("expected string: %w", err)
		}
		return Value{Kind: KindText, Text: s}, nil
	case SettingArray:
		var probe []json.RawMessage
		if err := json.Unmarshal(data, &probe); err != nil {
			return Value{}, fmt.Errorf("expected array: %w", err)
		}
		return Value{Kind: KindList, Raw: append(json.RawMessage(nil), data...)}, nil
	case SettingObject:
		var probe map[string]json.RawMessage
		if err := json.Unmarshal(data, &probe); err != nil {
			return Value{}, fmt.Errorf("expected object: %w", err)
		}
		return Value{Kind: KindObject, Raw: append(json.RawMessage(nil), data...)}, nil
	}
	return Value{}, fmt.Errorf("unknown setting type %q", t)
}

// DefaultValue decodes a setting's manifest default. A missing or
// malformed default degrades to the type's zero value rather than
// erroring, so a sloppy manifest can't break the settings screen.
func DefaultValue(s *Setting) Value {
	if len(s.Default) > 0 {
		if v, err := ParseJSON(s.Type, s.Default); err == nil {
			return v
		}
	}
	switch s.Type {
	case SettingBoolean:
		return Value{Kind: KindBool}
	case SettingNumber:
		return Value{Kind: KindNumber}
	case SettingArray:
		return Value{Kind: KindList, Raw: json.RawMessage("[]")}
	case SettingObject:
		return Value{Kind: KindObject, Raw: json.RawMessage("{}")}
	}
	return Value{Kind: KindText}
}
