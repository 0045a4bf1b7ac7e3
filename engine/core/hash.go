package core

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"reflect"
	"sort"
)

// WriteStableJSON writes a canonical JSON-like representation of v into b.
// Map keys are sorted recursively; slice order is preserved.
func WriteStableJSON(b *bytes.Buffer, v any) {
	switch t := v.(type) {
	case map[string]any:
		writeSortedMap(b, len(t), func(yield func(string, any)) {
			for k, val := range t {
				yield(k, val)
			}
		})
	case []any:
		b.WriteByte('[')
		for i, e := range t {
			if i > 0 {
				b.WriteByte(',')
			}
			WriteStableJSON(b, e)
		}
		b.WriteByte(']')
	case nil:
		b.WriteString("null")
	default:
		rv := reflect.ValueOf(v)
		switch {
		case rv.Kind() == reflect.Map && rv.Type().Key().Kind() == reflect.String:
			writeSortedMap(b, rv.Len(), func(yield func(string, any)) {
				iter := rv.MapRange()
				for iter.Next() {
					yield(iter.Key().String(), iter.Value().Interface())
				}
			})
		case rv.Kind() == reflect.Slice || rv.Kind() == reflect.Array:
			b.WriteByte('[')
			for i := 0; i < rv.Len(); i++ {
				if i > 0 {
					b.WriteByte(',')
				}
				WriteStableJSON(b, rv.Index(i).Interface())
			}
			b.WriteByte(']')
		default:
			writeScalar(b, v)
		}
	}
}

func writeSortedMap(b *bytes.Buffer, size int, each func(yield func(string, any))) {
	entries := make(map[string]any, size)
	keys := make([]string, 0, size)
	each(func(k string, v any) {
		entries[k] = v
		keys = append(keys, k)
	})
	sort.Strings(keys)
	b.WriteByte('{')
	for i, k := range keys {
		if i > 0 {
			b.WriteByte(',')
		}
		writeScalar(b, k)
		b.WriteByte(':')
		WriteStableJSON(b, entries[k])
	}
	b.WriteByte('}')
}

func writeScalar(b *bytes.Buffer, v any) {
	bs, err := json.Marshal(v)
	if err != nil {
		b.WriteString("null")
		return
	}
	b.Write(bs)
}

// StableJSONBytes returns the canonical bytes for v.
func StableJSONBytes(v any) []byte {
	var b bytes.Buffer
	WriteStableJSON(&b, v)
	return b.Bytes()
}

// Fingerprint returns a deterministic SHA-256 hex digest of the canonical form of v.
func Fingerprint(v any) string {
	sum := sha256.Sum256(StableJSONBytes(v))
	return hex.EncodeToString(sum[:])
}
