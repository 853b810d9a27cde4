package cfgbin

import (
	"bytes"
	"sort"
)

const (
	binHeadSize     = 10
	headReservedLen = 6
	headerRegionLen = binHeadSize + headReservedLen
	offsetEntrySize = 2

	// checksumStart is the first byte covered by the checksum; it skips the
	// length and checksum fields.
	checksumStart = 5

	binVersionLen = 4
	icTypeLen     = 15
	hwPIDLen      = 8
	hwVIDLen      = 8
	fwMaskLen     = 9
	fwPatchLen    = 4
	regReserved   = 9

	registerSize  = 4
	registerCount = 14

	ConstInfoSize  = 56
	RegInfoSize    = registerCount*registerSize + regReserved
	PackageHeadLen = ConstInfoSize + RegInfoSize

	// MaxConfigSize caps the raw config payload carried by one package.
	MaxConfigSize = 4096
)

type BinHead struct {
	BinLen     uint32
	Checksum   uint8
	BinVersion [binVersionLen]byte
	PkgNum     uint8
}

// Register is one register slot from the package register map. The address
// is passed through without interpretation.
type Register struct {
	Addr     uint16
	Reserved [2]byte
}

type ConstInfo struct {
	PkgLen        uint32
	ICType        [icTypeLen]byte
	CfgType       uint8
	SensorID      uint8
	HwPID         [hwPIDLen]byte
	HwVID         [hwVIDLen]byte
	FwMask        [fwMaskLen]byte
	FwPatch       [fwPatchLen]byte
	XResOffset    uint16
	YResOffset    uint16
	TriggerOffset uint16
}

// ICTypeName returns the chip identifier with trailing NUL and space padding
// removed.
func (c ConstInfo) ICTypeName() string {
	name := c.ICType[:]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	return string(bytes.TrimSpace(name))
}

type RegInfo struct {
	CfgSendFlag Register
	VersionBase Register
	PID         Register
	VID         Register
	SensorID    Register
	FwMask      Register
	FwStatus    Register
	CfgAddr     Register
	ESD         Register
	Command     Register
	Coor        Register
	Gesture     Register
	FwRequest   Register
	Proximity   Register
	Reserved    [regReserved]byte
}

// NamedRegister pairs a register with its field name in wire order.
type NamedRegister struct {
	Name     string
	Register Register
}

// Registers returns the register map in wire order.
func (r RegInfo) Registers() []NamedRegister {
	return []NamedRegister{
		{"cfg_send_flag", r.CfgSendFlag},
		{"version_base", r.VersionBase},
		{"pid", r.PID},
		{"vid", r.VID},
		{"sensor_id", r.SensorID},
		{"fw_mask", r.FwMask},
		{"fw_status", r.FwStatus},
		{"cfg_addr", r.CfgAddr},
		{"esd", r.ESD},
		{"command", r.Command},
		{"coor", r.Coor},
		{"gesture", r.Gesture},
		{"fw_request", r.FwRequest},
		{"proximity", r.Proximity},
	}
}

// Range is the byte span of one package inside the source buffer.
type Range struct {
	Index  int
	Offset int
	Length int
}

// End returns the exclusive end offset of the range.
func (r Range) End() int {
	return r.Offset + r.Length
}

// Package is one decoded chip-variant record.
type Package struct {
	ConstInfo ConstInfo
	RegInfo   RegInfo
	PkgLen    uint32
	Offset    int

	payload []byte
}

// Payload returns a copy of the raw config payload.
func (p Package) Payload() []byte {
	return cloneBytes(p.payload)
}

// PayloadLen reports the payload length without copying it.
func (p Package) PayloadLen() int {
	return len(p.payload)
}

// IcConfig is the registry entry for one cfg_type.
type IcConfig struct {
	Len  int32
	Data []byte
}

func (c IcConfig) clone() IcConfig {
	return IcConfig{Len: c.Len, Data: cloneBytes(c.Data)}
}

// CfgBin is a fully decoded cfg bin. It owns copies of every payload and is
// never modified after Decode returns; all accessors hand out copies.
type CfgBin struct {
	head      BinHead
	packages  []Package
	icConfigs map[uint8]IcConfig
}

func (b *CfgBin) Head() BinHead {
	return b.head
}

// Packages returns the decoded packages in offset-table order, including
// packages whose cfg_type was later overridden in the registry.
func (b *CfgBin) Packages() []Package {
	out := make([]Package, len(b.packages))
	for i, p := range b.packages {
		p.payload = cloneBytes(p.payload)
		out[i] = p
	}
	return out
}

// Config looks up the registry entry for cfgType.
func (b *CfgBin) Config(cfgType uint8) (IcConfig, bool) {
	c, ok := b.icConfigs[cfgType]
	if !ok {
		return IcConfig{}, false
	}
	return c.clone(), true
}

// CfgTypes lists the registry keys in ascending order.
func (b *CfgBin) CfgTypes() []uint8 {
	keys := make([]uint8, 0, len(b.icConfigs))
	for k := range b.icConfigs {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

// Configs returns a copy of the whole registry.
func (b *CfgBin) Configs() map[uint8]IcConfig {
	out := make(map[uint8]IcConfig, len(b.icConfigs))
	for k, c := range b.icConfigs {
		out[k] = c.clone()
	}
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}
