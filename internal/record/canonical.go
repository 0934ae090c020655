package record

import (
	"bytes"
	"encoding/json"
	"fmt"

	"golang.org/x/text/unicode/norm"
)

// MarshalCanonical produces RFC 8785 canonical JSON for a Snapshot.
// This is the ONLY serialization used for hash computation; the store
// persists the same bytes so that verification re-reads exactly what
// was hashed.
//
// Key differences from standard json.Marshal:
//  1. Object keys sorted by UTF-16 code units (not UTF-8 bytes)
//  2. No HTML escaping (< > & are NOT escaped)
//  3. Strings are NFC normalized
//  4. No floats, no null (unrepresentable in Snapshot by construction)
func MarshalCanonical(s Snapshot) ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')

	for i, k := range s.SortedKeys() {
		if i > 0 {
			buf.WriteByte(',')
		}

		keyBytes, err := marshalCanonicalString(k)
		if err != nil {
			return nil, fmt.Errorf("key %q: %w", k, err)
		}
		buf.Write(keyBytes)
		buf.WriteByte(':')

		valBytes, err := marshalCanonicalValue(s[k])
		if err != nil {
			return nil, fmt.Errorf("value for key %q: %w", k, err)
		}
		buf.Write(valBytes)
	}

	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func marshalCanonicalValue(v Value) ([]byte, error) {
	switch val := v.(type) {
	case StringValue:
		return marshalCanonicalString(string(val))
	case IntValue:
		return []byte(fmt.Sprintf("%d", int64(val))), nil
	case BoolValue:
		if val {
			return []byte("true"), nil
		}
		return []byte("false"), nil
	case nil:
		return nil, fmt.Errorf("null is forbidden in canonical JSON")
	default:
		return nil, fmt.Errorf("unsupported snapshot value type %T", v)
	}
}

// marshalCanonicalString produces a canonical JSON string literal.
// RFC 8785 requirements:
//   - strings NFC normalized at the serialization boundary
//   - no HTML escaping (<, >, & stay literal)
//   - U+2028 and U+2029 are NOT escaped
//   - only control characters (U+0000-U+001F), backslash, and quote escape
func marshalCanonicalString(s string) ([]byte, error) {
	normalized := norm.NFC.String(s)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalized); err != nil {
		return nil, err
	}

	// json.Encoder adds a trailing newline; strip it.
	result := buf.Bytes()
	if len(result) > 0 && result[len(result)-1] == '\n' {
		result = result[:len(result)-1]
	}

	// Go's encoder escapes U+2028/U+2029 for JavaScript embedding, which
	// RFC 8785 forbids. Unescape them, leaving \\u2028 (escaped backslash
	// followed by literal "u2028") untouched.
	result = unescapeLineSeparators(result)

	return result, nil
}

// unescapeLineSeparators rewrites the six-byte escape sequences for
// U+2028 and U+2029 back to the literal characters. A sequence qualifies only when preceded by an
// even number of backslashes: an odd count means the leading backslash is
// itself escaped and the "u2028" text is literal.
func unescapeLineSeparators(data []byte) []byte {
	if !bytes.Contains(data, []byte(`\u202`)) {
		return data
	}

	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); {
		if i+6 <= len(data) &&
			data[i] == '\\' && data[i+1] == 'u' &&
			data[i+2] == '2' && data[i+3] == '0' && data[i+4] == '2' &&
			(data[i+5] == '8' || data[i+5] == '9') {

			backslashes := 0
			for j := len(out) - 1; j >= 0 && out[j] == '\\'; j-- {
				backslashes++
			}
			if backslashes%2 == 0 {
				if data[i+5] == '8' {
					out = append(out, 0xe2, 0x80, 0xa8)
				} else {
					out = append(out, 0xe2, 0x80, 0xa9)
				}
				i += 6
				continue
			}
		}
		out = append(out, data[i])
		i++
	}
	return out
}
