package molecule

import (
	"encoding/binary"
	"sort"
)

// UnionValue is the value type of union codecs: the variant name and the
// variant's value.
type UnionValue struct {
	Type  string
	Value any
}

// Union builds a codec for a tagged choice between variants. The encoding is
// a 4-byte little-endian item id followed by the variant's encoding. Ids come
// from ids when given, otherwise from each variant's position in variants.
func Union(variants []FieldDef, ids map[string]uint32) (Codec[UnionValue, UnionValue], error) {
	byName := make(map[string]int, len(variants))
	byID := make(map[uint32]int, len(variants))
	idOf := make([]uint32, len(variants))

	for i, v := range variants {
		if _, dup := byName[v.Name]; dup {
			return Codec[UnionValue, UnionValue]{}, schemaViolation("union: duplicate variant %q", v.Name)
		}
		id := uint32(i)
		if ids != nil {
			var ok bool
			if id, ok = ids[v.Name]; !ok {
				return Codec[UnionValue, UnionValue]{}, schemaViolation("union: no id for variant %q", v.Name)
			}
		}
		if other, dup := byID[id]; dup {
			return Codec[UnionValue, UnionValue]{}, schemaViolation("union: variants %q and %q share id %d", variants[other].Name, v.Name, id)
		}
		byName[v.Name] = i
		byID[id] = i
		idOf[i] = id
	}

	encode := func(u UnionValue) ([]byte, error) {
		i, ok := byName[u.Type]
		if !ok {
			return nil, schemaViolation("union: unknown variant %q, expected one of %v", u.Type, variantNames(byName))
		}
		b, err := variants[i].codec.encodeAny(u.Value)
		if err != nil {
			return nil, withPath("union.("+u.Type+")", err)
		}
		out := make([]byte, headerFieldSize, headerFieldSize+len(b))
		binary.LittleEndian.PutUint32(out, idOf[i])
		return append(out, b...), nil
	}

	decode := func(b []byte) (UnionValue, error) {
		if len(b) < headerFieldSize {
			return UnionValue{}, malformed("union: too short buffer, expected at least %d bytes, got %d", headerFieldSize, len(b))
		}
		id := readUint32(b, 0)
		i, ok := byID[id]
		if !ok {
			return UnionValue{}, malformed("union: unknown item id %d", id)
		}
		v, err := variants[i].codec.decodeAny(b[headerFieldSize:])
		if err != nil {
			return UnionValue{}, withPath("union.("+variants[i].Name+")", err)
		}
		return UnionValue{Type: variants[i].Name, Value: v}, nil
	}

	return Dynamic(encode, decode), nil
}

func variantNames(byName map[string]int) []string {
	names := make([]string, 0, len(byName))
	for n := range byName {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
