package molecule

import "errors"

// Table builds a codec for an ordered set of named fields of any size. The
// encoding is a total-size field, one offset per field, then the fields.
//
// Decoding is strict: the first offset must equal the header size, so
// buffers produced by a newer schema with extra trailing fields are rejected.
func Table(fields ...FieldDef) Codec[Record, Record] {
	header := headerFieldSize * (1 + len(fields))

	encode := func(r Record) ([]byte, error) {
		parts := make([][]byte, len(fields))
		for i, f := range fields {
			b, err := f.codec.encodeAny(r[f.Name])
			if err != nil {
				return nil, withPath("table."+f.Name, err)
			}
			parts[i] = b
		}
		return packOffsets(parts), nil
	}

	decode := func(b []byte) (Record, error) {
		if len(b) < headerFieldSize {
			return nil, malformed("table: too short buffer, expected at least %d bytes, got %d", headerFieldSize, len(b))
		}
		total := int(readUint32(b, 0))
		if total != len(b) {
			return nil, malformed("table: invalid buffer size, header declares %d, got %d", total, len(b))
		}
		if total < header {
			return nil, malformed("table: too short buffer, expected at least %d bytes for %d fields, got %d", header, len(fields), total)
		}
		if len(fields) > 0 {
			if first := int(readUint32(b, headerFieldSize)); first != header {
				return nil, malformed("table: invalid first offset %d, expected %d", first, header)
			}
		} else if total != header {
			return nil, malformed("table: unexpected %d trailing bytes in empty table", total-header)
		}
		parts, err := sliceByOffsets(b, len(fields), "table")
		if err != nil {
			return nil, err
		}

		out := make(Record, len(fields))
		var errs []error
		for i, f := range fields {
			v, err := f.codec.decodeAny(parts[i])
			if err != nil {
				errs = append(errs, withPath("table."+f.Name, err))
				continue
			}
			out[f.Name] = v
		}
		if len(errs) > 0 {
			return nil, errors.Join(errs...)
		}
		return out, nil
	}

	return Dynamic(encode, decode)
}
