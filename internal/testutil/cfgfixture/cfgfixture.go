// Package cfgfixture assembles cfg bin images for tests. It carries its own
// copy of the layout so decoder tests also check the layout constants.
package cfgfixture

import "encoding/binary"

const (
	HeaderRegionLen = 16
	ConstInfoLen    = 56
	RegInfoLen      = 65
	PackageHeadLen  = ConstInfoLen + RegInfoLen
	RegisterCount   = 14
)

// Package describes one package to emit.
type Package struct {
	ICType        string
	CfgType       uint8
	SensorID      uint8
	HwPID         [8]byte
	HwVID         [8]byte
	FwMask        [9]byte
	FwPatch       [4]byte
	XResOffset    uint16
	YResOffset    uint16
	TriggerOffset uint16
	Registers     [RegisterCount]uint16
	Payload       []byte
}

// Bin describes a whole image. Packages are laid out back to back right
// after the offset table.
type Bin struct {
	Version  [4]byte
	Packages []Package
}

// Len returns the encoded length of p.
func (p Package) Len() int {
	return PackageHeadLen + len(p.Payload)
}

func (p Package) appendTo(out []byte) []byte {
	head := make([]byte, PackageHeadLen)
	binary.LittleEndian.PutUint32(head[0:4], uint32(p.Len()))
	copy(head[4:19], p.ICType)
	head[19] = p.CfgType
	head[20] = p.SensorID
	copy(head[21:29], p.HwPID[:])
	copy(head[29:37], p.HwVID[:])
	copy(head[37:46], p.FwMask[:])
	copy(head[46:50], p.FwPatch[:])
	binary.LittleEndian.PutUint16(head[50:52], p.XResOffset)
	binary.LittleEndian.PutUint16(head[52:54], p.YResOffset)
	binary.LittleEndian.PutUint16(head[54:56], p.TriggerOffset)
	for i, addr := range p.Registers {
		pos := ConstInfoLen + i*4
		binary.LittleEndian.PutUint16(head[pos:pos+2], addr)
	}
	out = append(out, head...)
	return append(out, p.Payload...)
}

// Bytes encodes b with a correct length field and checksum.
func (b Bin) Bytes() []byte {
	n := len(b.Packages)
	out := make([]byte, HeaderRegionLen+2*n)
	copy(out[5:9], b.Version[:])
	out[9] = uint8(n)
	offset := len(out)
	for i, p := range b.Packages {
		PutOffset(out, i, offset)
		offset += p.Len()
	}
	for _, p := range b.Packages {
		out = p.appendTo(out)
	}
	Seal(out)
	return out
}

// PutOffset writes offset table entry i.
func PutOffset(buf []byte, i, offset int) {
	pos := HeaderRegionLen + i*2
	binary.LittleEndian.PutUint16(buf[pos:pos+2], uint16(offset))
}

// Seal rewrites the length and checksum fields to match buf.
func Seal(buf []byte) {
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(buf)))
	buf[4] = Sum(buf)
}

// Sum is the wrapping byte sum from offset 5 to the end.
func Sum(buf []byte) uint8 {
	var s uint8
	for _, c := range buf[5:] {
		s += c
	}
	return s
}

// Fill returns n copies of v.
func Fill(v byte, n int) []byte {
	out := make([]byte, n)
	for i := range out {
		out[i] = v
	}
	return out
}
