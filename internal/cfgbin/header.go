package cfgbin

import (
	"encoding/binary"
	"fmt"
)

// DecodeHeader reads the fixed file header from the start of buf.
func DecodeHeader(buf []byte) (BinHead, error) {
	var head BinHead
	if len(buf) < binHeadSize {
		return head, fmt.Errorf("%w: header needs %d bytes, have %d", ErrInvalidSize, binHeadSize, len(buf))
	}
	head.BinLen = binary.LittleEndian.Uint32(buf[0:4])
	head.Checksum = buf[4]
	copy(head.BinVersion[:], buf[5:9])
	head.PkgNum = buf[9]
	return head, nil
}

// Checksum returns the 8-bit wrapping sum of every byte from the version
// field to the end of buf.
func Checksum(buf []byte) uint8 {
	var sum uint8
	if len(buf) <= checksumStart {
		return sum
	}
	for _, b := range buf[checksumStart:] {
		sum += b
	}
	return sum
}

// VerifyChecksum checks the declared length against len(buf) and then the
// declared checksum against Checksum(buf).
func VerifyChecksum(buf []byte, head BinHead) error {
	if uint64(head.BinLen) != uint64(len(buf)) {
		return fmt.Errorf("%w: header declares %d bytes, buffer has %d", ErrLengthCheckFail, head.BinLen, len(buf))
	}
	if sum := Checksum(buf); sum != head.Checksum {
		return fmt.Errorf("%w: computed 0x%02X, header 0x%02X", ErrChecksumMismatch, sum, head.Checksum)
	}
	return nil
}
