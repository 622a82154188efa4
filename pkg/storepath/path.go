package storepath

import (
	"fmt"
	"reflect"
	"strconv"
	"strings"
)

// Key is a single path segment.
type Key = any

// Marker is a reserved symbolic key. Markers never collide with string keys.
type Marker string

// String returns the encoded form of the marker.
func (m Marker) String() string {
	return "@" + string(m)
}

const (
	// WholeMarker denotes "the container as a whole".
	WholeMarker Marker = "whole"

	// Length is the reserved length key of a Sequence.
	Length = "length"

	// reservedPrefix marks internal record keys that bypass interception.
	reservedPrefix = "@@"
)

// Path is an ordered sequence of keys from the store root.
type Path []Key

// Pather is implemented by containers that know their own path.
type Pather interface {
	Path() Path
}

// Append returns a new path with keys appended. The receiver is not modified.
func (p Path) Append(keys ...Key) Path {
	out := make(Path, len(p), len(p)+len(keys))
	copy(out, p)
	return append(out, keys...)
}

// Parent returns the path without its last key. The root's parent is the root.
func (p Path) Parent() Path {
	if len(p) == 0 {
		return Path{}
	}
	return p[:len(p)-1:len(p)-1]
}

// Last returns the last key, or nil for the root.
func (p Path) Last() Key {
	if len(p) == 0 {
		return nil
	}
	return p[len(p)-1]
}

// Equal reports whether both paths have element-wise equal keys.
func (p Path) Equal(o Path) bool {
	if len(p) != len(o) {
		return false
	}
	for i := range p {
		if !keyEqual(p[i], o[i]) {
			return false
		}
	}
	return true
}

// HasPrefix reports whether prefix is a leading part of p.
func (p Path) HasPrefix(prefix Path) bool {
	if len(prefix) > len(p) {
		return false
	}
	return p[:len(prefix)].Equal(prefix)
}

// String returns the encoded path.
func (p Path) String() string {
	return Encode(p)
}

// IsWhole reports whether the path ends with the whole-container sentinel.
func (p Path) IsWhole() bool {
	m, ok := p.Last().(Marker)
	return ok && m == WholeMarker
}

// Extend returns the path of key inside container c.
func Extend(c Pather, key Key) Path {
	return c.Path().Append(key)
}

// Whole returns the whole-container path of c.
func Whole(c Pather) Path {
	return c.Path().Append(WholeMarker)
}

// IsReserved reports whether a record key is an internal marker.
func IsReserved(key string) bool {
	return strings.HasPrefix(key, reservedPrefix)
}

func keyEqual(a, b Key) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	ta, tb := reflect.TypeOf(a), reflect.TypeOf(b)
	if ta != tb || !ta.Comparable() {
		return false
	}
	return a == b
}

// Encode converts a path into its canonical string form.
func Encode(p Path) string {
	var b strings.Builder
	for i, k := range p {
		if i > 0 {
			b.WriteByte('.')
		}
		writeKey(&b, k)
	}
	return b.String()
}

func writeKey(b *strings.Builder, k Key) {
	switch v := k.(type) {
	case string:
		if needsTilde(v) {
			b.WriteByte('~')
		}
		writeEscaped(b, v)
	case int:
		b.WriteString(strconv.Itoa(v))
	case Marker:
		b.WriteByte('@')
		writeEscaped(b, string(v))
	case nil:
		b.WriteString("#nil")
	default:
		b.WriteByte('#')
		rv := reflect.ValueOf(k)
		switch rv.Kind() {
		case reflect.Pointer, reflect.Chan, reflect.UnsafePointer:
			writeEscaped(b, fmt.Sprintf("%T@%#x", k, rv.Pointer()))
		default:
			// %#v quotes strings and names every field, so distinct values
			// of one type never print alike.
			writeEscaped(b, typeName(rv.Type())+":"+fmt.Sprintf("%#v", k))
		}
	}
}

// typeName qualifies named types with their import path so that equally
// named types of different packages stay apart.
func typeName(t reflect.Type) string {
	if t.PkgPath() == "" || t.Name() == "" {
		return t.String()
	}
	return t.PkgPath() + "." + t.Name()
}

// needsTilde reports whether a string would otherwise read as another kind.
func needsTilde(s string) bool {
	if s == "" {
		return true
	}
	switch c := s[0]; {
	case c >= '0' && c <= '9', c == '-', c == '@', c == '#', c == '~':
		return true
	}
	return false
}

func writeEscaped(b *strings.Builder, s string) {
	for i := 0; i < len(s); i++ {
		if c := s[i]; c == '\\' || c == '.' {
			b.WriteByte('\\')
		}
		b.WriteByte(s[i])
	}
}

// Parse reads a path in encoded dot notation. Unescaped digit runs become
// ints and "@name" becomes a Marker; "~" forces a string. Keys encoded with
// "#" cannot be recovered and are returned as their encoded string.
func Parse(s string) Path {
	if s == "" {
		return Path{}
	}
	var (
		out     Path
		tok     strings.Builder
		escaped bool
	)
	flush := func() {
		out = append(out, parseToken(tok.String()))
		tok.Reset()
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch {
		case escaped:
			tok.WriteByte(c)
			escaped = false
		case c == '\\':
			// Keep escapes inside the token so parseToken sees the raw form.
			tok.WriteByte(c)
			escaped = true
		case c == '.':
			flush()
		default:
			tok.WriteByte(c)
		}
	}
	flush()
	return out
}

func parseToken(raw string) Key {
	if raw == "" {
		return ""
	}
	switch raw[0] {
	case '~':
		return unescape(raw[1:])
	case '@':
		return Marker(unescape(raw[1:]))
	case '#':
		return raw
	}
	if n, err := strconv.Atoi(raw); err == nil && strconv.Itoa(n) == raw {
		return n
	}
	return unescape(raw)
}

func unescape(s string) string {
	if !strings.Contains(s, `\`) {
		return s
	}
	var b strings.Builder
	for i := 0; i < len(s); i++ {
		if s[i] == '\\' && i+1 < len(s) {
			i++
		}
		b.WriteByte(s[i])
	}
	return b.String()
}
