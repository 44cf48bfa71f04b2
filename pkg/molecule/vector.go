package molecule

import (
	"errors"
	"fmt"
)

// FixedItemVec builds a fixvec codec: a 4-byte item count followed by the
// items. The item codec must be fixed-size.
func FixedItemVec[E, D any](item Codec[E, D]) (Codec[[]E, []D], error) {
	itemSize, ok := item.ByteLength()
	if !ok {
		return Codec[[]E, []D]{}, schemaViolation("fixedItemVec: item codec must be fixed-size")
	}

	encode := func(items []E) ([]byte, error) {
		out := make([]byte, headerFieldSize, headerFieldSize+len(items)*itemSize)
		putUint32(out, uint32(len(items)))
		for i, it := range items {
			b, err := item.Encode(it)
			if err != nil {
				return nil, withPath(fmt.Sprintf("fixedItemVec[%d]", i), err)
			}
			out = append(out, b...)
		}
		return out, nil
	}

	decode := func(b []byte) ([]D, error) {
		if len(b) < headerFieldSize {
			return nil, malformed("fixedItemVec: too short buffer, expected at least %d bytes, got %d", headerFieldSize, len(b))
		}
		count := uint64(readUint32(b, 0))
		// uint64 arithmetic keeps count*itemSize from wrapping.
		want := uint64(headerFieldSize) + count*uint64(itemSize)
		if want != uint64(len(b)) {
			return nil, malformed("fixedItemVec: invalid buffer size, expected %d, got %d", want, len(b))
		}
		out := make([]D, count)
		var errs []error
		for i := range out {
			start := headerFieldSize + i*itemSize
			v, err := item.Decode(b[start : start+itemSize])
			if err != nil {
				errs = append(errs, withPath(fmt.Sprintf("fixedItemVec[%d]", i), err))
				continue
			}
			out[i] = v
		}
		if len(errs) > 0 {
			return nil, errors.Join(errs...)
		}
		return out, nil
	}

	return Dynamic(encode, decode), nil
}

// DynItemVec builds a dynvec codec: total size, one offset per item, then the
// items. Any item codec is accepted.
func DynItemVec[E, D any](item Codec[E, D]) Codec[[]E, []D] {
	encode := func(items []E) ([]byte, error) {
		parts := make([][]byte, len(items))
		for i, it := range items {
			b, err := item.Encode(it)
			if err != nil {
				return nil, withPath(fmt.Sprintf("dynItemVec[%d]", i), err)
			}
			parts[i] = b
		}
		return packOffsets(parts), nil
	}

	decode := func(b []byte) ([]D, error) {
		parts, err := unpackDynVec(b)
		if err != nil {
			return nil, err
		}
		out := make([]D, len(parts))
		var errs []error
		for i, p := range parts {
			v, err := item.Decode(p)
			if err != nil {
				errs = append(errs, withPath(fmt.Sprintf("dynItemVec[%d]", i), err))
				continue
			}
			out[i] = v
		}
		if len(errs) > 0 {
			return nil, errors.Join(errs...)
		}
		return out, nil
	}

	return Dynamic(encode, decode)
}

// Vector picks FixedItemVec for fixed-size items and DynItemVec otherwise.
func Vector[E, D any](item Codec[E, D]) Codec[[]E, []D] {
	if item.IsFixed() {
		return Must(FixedItemVec(item))
	}
	return DynItemVec(item)
}

// packOffsets lays out parts behind a total-size and offset header. It is the
// shared encoder of dynvec and table.
func packOffsets(parts [][]byte) []byte {
	header := headerFieldSize * (1 + len(parts))
	total := header
	for _, p := range parts {
		total += len(p)
	}
	out := make([]byte, header, total)
	putUint32(out, uint32(total))
	offset := header
	for i, p := range parts {
		putUint32(out[headerFieldSize*(1+i):], uint32(offset))
		offset += len(p)
		out = append(out, p...)
	}
	return out
}

func unpackDynVec(b []byte) ([][]byte, error) {
	if len(b) < headerFieldSize {
		return nil, malformed("dynItemVec: too short buffer, expected at least %d bytes, got %d", headerFieldSize, len(b))
	}
	total := int(readUint32(b, 0))
	if total != len(b) {
		return nil, malformed("dynItemVec: invalid buffer size, header declares %d, got %d", total, len(b))
	}
	if total == headerFieldSize {
		return nil, nil
	}
	if total < 2*headerFieldSize {
		return nil, malformed("dynItemVec: too short buffer, expected at least %d bytes, got %d", 2*headerFieldSize, total)
	}
	first := int(readUint32(b, headerFieldSize))
	if first%headerFieldSize != 0 || first < 2*headerFieldSize {
		return nil, malformed("dynItemVec: invalid first offset %d", first)
	}
	if first > total {
		return nil, malformed("dynItemVec: first offset %d beyond buffer size %d", first, total)
	}
	return sliceByOffsets(b, first/headerFieldSize-1, "dynItemVec")
}

// sliceByOffsets reads count offsets following the total-size field and
// returns the regions they delimit. Offsets must be non-decreasing and lie
// within the buffer.
func sliceByOffsets(b []byte, count int, what string) ([][]byte, error) {
	total := len(b)
	offsets := make([]int, count+1)
	for i := 0; i < count; i++ {
		offsets[i] = int(readUint32(b, headerFieldSize*(1+i)))
	}
	offsets[count] = total
	for i := 0; i < count; i++ {
		if offsets[i] > offsets[i+1] {
			return nil, malformed("%s: offset %d (%d) is larger than offset %d (%d)", what, i, offsets[i], i+1, offsets[i+1])
		}
	}
	parts := make([][]byte, count)
	for i := 0; i < count; i++ {
		parts[i] = b[offsets[i]:offsets[i+1]]
	}
	return parts, nil
}
