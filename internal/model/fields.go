package model

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
)

// Optional distingue un campo ausente de uno enviado como null.
type Optional[T any] struct {
	Set   bool
	Null  bool
	Value T
}

func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: v}
}

func Null[T any]() Optional[T] {
	return Optional[T]{Set: true, Null: true}
}

func (o *Optional[T]) UnmarshalJSON(b []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(b), []byte("null")) {
		o.Null = true
		return nil
	}
	return json.Unmarshal(b, &o.Value)
}

// Present indica que el campo llegó con un valor distinto de null.
func (o Optional[T]) Present() bool {
	return o.Set && !o.Null
}

// StringList acepta solo arreglos; cualquier otro valor queda como lista vacía.
type StringList []string

func (l *StringList) UnmarshalJSON(b []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(b, &raw); err != nil || raw == nil {
		*l = StringList{}
		return nil
	}
	out := make(StringList, 0, len(raw))
	for _, item := range raw {
		var f FlexString
		if err := f.UnmarshalJSON(item); err != nil || !f.Valid {
			continue
		}
		out = append(out, string(f.Text))
	}
	*l = out
	return nil
}

// FlexString acepta string, número o booleano y conserva su forma textual.
type FlexString struct {
	Text  string
	Valid bool
}

func (f *FlexString) UnmarshalJSON(b []byte) error {
	var v any
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return err
	}
	switch t := v.(type) {
	case string:
		f.Text, f.Valid = t, true
	case json.Number:
		f.Text, f.Valid = t.String(), true
	case bool:
		f.Text, f.Valid = strconv.FormatBool(t), true
	default:
		f.Text, f.Valid = "", false
	}
	return nil
}

// Trimmed devuelve el texto sin espacios o "" si el valor no era escalar.
func (f FlexString) Trimmed() string {
	if !f.Valid {
		return ""
	}
	return strings.TrimSpace(f.Text)
}
