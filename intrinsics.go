package encodevorbis

// Guest pointers are signed i32 values; address 0 and anything at or above
// 2GiB are rejected as destinations.

func checkDest(op string, dest uint32) error {
	if int32(dest) <= 0 {
		return invalidAddress(op, "invalid destination %#x", dest)
	}
	return nil
}

// Memcpy copies count bytes from src to dest and returns dest.
// The ranges must not overlap.
func Memcpy(mem Memory, dest, src, count uint32) (uint32, error) {
	if err := checkDest(ImportMemcpy, dest); err != nil {
		return 0, err
	}
	d, s, err := views(ImportMemcpy, mem, dest, src, count)
	if err != nil {
		return 0, err
	}
	copy(d, s)
	return dest, nil
}

// Memmove copies count bytes from src to dest and returns dest. Overlapping
// ranges are copied ascending when dest <= src and descending otherwise.
func Memmove(mem Memory, dest, src, count uint32) (uint32, error) {
	if err := checkDest(ImportMemmove, dest); err != nil {
		return 0, err
	}
	d, s, err := views(ImportMemmove, mem, dest, src, count)
	if err != nil {
		return 0, err
	}
	if dest <= src {
		for i := range d {
			d[i] = s[i]
		}
	} else {
		for i := len(d) - 1; i >= 0; i-- {
			d[i] = s[i]
		}
	}
	return dest, nil
}

// Memset sets count bytes at dest to the low 8 bits of ch and returns dest.
func Memset(mem Memory, dest, ch, count uint32) (uint32, error) {
	if err := checkDest(ImportMemset, dest); err != nil {
		return 0, err
	}
	d, ok := mem.Read(dest, count)
	if !ok {
		return 0, invalidAddress(ImportMemset, "range [%#x, +%d) out of bounds", dest, count)
	}
	v := byte(ch)
	for i := range d {
		d[i] = v
	}
	return dest, nil
}

func views(op string, mem Memory, dest, src, count uint32) ([]byte, []byte, error) {
	d, ok := mem.Read(dest, count)
	if !ok {
		return nil, nil, invalidAddress(op, "destination [%#x, +%d) out of bounds", dest, count)
	}
	s, ok := mem.Read(src, count)
	if !ok {
		return nil, nil, invalidAddress(op, "source [%#x, +%d) out of bounds", src, count)
	}
	return d, s, nil
}
