package molecule

// Option builds a codec whose absent value (nil) encodes as zero bytes and
// whose present value encodes exactly as inner does. Inside a struct or table,
// a missing record field is treated as absent.
func Option[E, D any](inner Codec[E, D]) Codec[*E, *D] {
	encode := func(v *E) ([]byte, error) {
		if v == nil {
			return []byte{}, nil
		}
		b, err := inner.Encode(*v)
		if err != nil {
			return nil, withPath("option", err)
		}
		return b, nil
	}

	decode := func(b []byte) (*D, error) {
		if len(b) == 0 {
			return nil, nil
		}
		v, err := inner.Decode(b)
		if err != nil {
			return nil, withPath("option", err)
		}
		return &v, nil
	}

	c := Dynamic(encode, decode)
	c.optional = true
	return c
}

// ByteVec wraps inner's encoding in a 4-byte length prefix.
func ByteVec[E, D any](inner Codec[E, D]) Codec[E, D] {
	encode := func(v E) ([]byte, error) {
		payload, err := inner.Encode(v)
		if err != nil {
			return nil, withPath("byteVec", err)
		}
		out := make([]byte, headerFieldSize, headerFieldSize+len(payload))
		putUint32(out, uint32(len(payload)))
		return append(out, payload...), nil
	}

	decode := func(b []byte) (D, error) {
		var zero D
		if len(b) < headerFieldSize {
			return zero, withPath("byteVec", malformed("too short buffer, expected at least %d bytes, got %d", headerFieldSize, len(b)))
		}
		declared := int(readUint32(b, 0))
		if declared != len(b)-headerFieldSize {
			return zero, withPath("byteVec", malformed("invalid buffer size, header declares %d, got %d", declared, len(b)-headerFieldSize))
		}
		v, err := inner.Decode(b[headerFieldSize:])
		if err != nil {
			return zero, withPath("byteVec", err)
		}
		return v, nil
	}

	return Dynamic(encode, decode)
}
