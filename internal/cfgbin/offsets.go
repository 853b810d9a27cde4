package cfgbin

import "fmt"

// readOffset decodes the 16-bit little-endian offset table entry i. The bytes
// are widened before shifting so the high byte survives.
func readOffset(buf []byte, i int) int {
	pos := headerRegionLen + i*offsetEntrySize
	return int(buf[pos]) | int(buf[pos+1])<<8
}

// ResolveOffsets turns the offset table into one byte range per package.
// Each package runs up to the next package's offset; the last one runs to the
// end of buf.
func ResolveOffsets(buf []byte, pkgNum int) ([]Range, error) {
	if pkgNum < 0 {
		return nil, fmt.Errorf("%w: negative package count %d", ErrInvalidSize, pkgNum)
	}
	if pkgNum == 0 {
		return []Range{}, nil
	}
	tableEnd := headerRegionLen + pkgNum*offsetEntrySize
	if tableEnd > len(buf) {
		return nil, fmt.Errorf("%w: offset table for %d packages ends at %d, buffer has %d", ErrInvalidSize, pkgNum, tableEnd, len(buf))
	}
	ranges := make([]Range, 0, pkgNum)
	for i := 0; i < pkgNum; i++ {
		start := readOffset(buf, i)
		if start > len(buf) {
			return nil, fmt.Errorf("%w: package %d offset %d past end of buffer (%d)", ErrInvalidSize, i, start, len(buf))
		}
		end := len(buf)
		if i < pkgNum-1 {
			next := readOffset(buf, i+1)
			if next <= start {
				return nil, fmt.Errorf("%w: package %d offset %d not after package %d offset %d", ErrInvalidOffset, i+1, next, i, start)
			}
			if next > len(buf) {
				return nil, fmt.Errorf("%w: package %d offset %d past end of buffer (%d)", ErrInvalidSize, i+1, next, len(buf))
			}
			end = next
		}
		ranges = append(ranges, Range{Index: i, Offset: start, Length: end - start})
	}
	return ranges, nil
}
