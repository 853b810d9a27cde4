package cfgbin

import (
	"encoding/binary"
	"fmt"
)

// DecodeConstInfo decodes the fixed constant-info record at the start of b.
func DecodeConstInfo(b []byte) (ConstInfo, error) {
	var ci ConstInfo
	if len(b) < ConstInfoSize {
		return ci, fmt.Errorf("%w: const info needs %d bytes, have %d", ErrInvalidSize, ConstInfoSize, len(b))
	}
	ci.PkgLen = binary.LittleEndian.Uint32(b[0:4])
	copy(ci.ICType[:], b[4:19])
	ci.CfgType = b[19]
	ci.SensorID = b[20]
	copy(ci.HwPID[:], b[21:29])
	copy(ci.HwVID[:], b[29:37])
	copy(ci.FwMask[:], b[37:46])
	copy(ci.FwPatch[:], b[46:50])
	ci.XResOffset = binary.LittleEndian.Uint16(b[50:52])
	ci.YResOffset = binary.LittleEndian.Uint16(b[52:54])
	ci.TriggerOffset = binary.LittleEndian.Uint16(b[54:56])
	return ci, nil
}

func decodeRegister(b []byte) Register {
	return Register{
		Addr:     binary.LittleEndian.Uint16(b[0:2]),
		Reserved: [2]byte{b[2], b[3]},
	}
}

// DecodeRegInfo decodes the fixed register-map record at the start of b.
func DecodeRegInfo(b []byte) (RegInfo, error) {
	var ri RegInfo
	if len(b) < RegInfoSize {
		return ri, fmt.Errorf("%w: register info needs %d bytes, have %d", ErrInvalidSize, RegInfoSize, len(b))
	}
	slots := []*Register{
		&ri.CfgSendFlag, &ri.VersionBase, &ri.PID, &ri.VID, &ri.SensorID,
		&ri.FwMask, &ri.FwStatus, &ri.CfgAddr, &ri.ESD, &ri.Command,
		&ri.Coor, &ri.Gesture, &ri.FwRequest, &ri.Proximity,
	}
	for i, slot := range slots {
		*slot = decodeRegister(b[i*registerSize : (i+1)*registerSize])
	}
	copy(ri.Reserved[:], b[registerCount*registerSize:RegInfoSize])
	return ri, nil
}

// DecodePackage decodes the package occupying r inside buf and returns it
// together with its registry entry. The payload is copied out of buf.
func DecodePackage(buf []byte, r Range) (Package, IcConfig, error) {
	if r.Offset < 0 || r.Length < 0 || r.End() > len(buf) {
		return Package{}, IcConfig{}, fmt.Errorf("%w: package %d range [%d,%d) outside buffer of %d bytes", ErrInvalidSize, r.Index, r.Offset, r.End(), len(buf))
	}
	cfgLen := r.Length - PackageHeadLen
	if cfgLen < 0 {
		return Package{}, IcConfig{}, fmt.Errorf("%w: package %d is %d bytes, shorter than its %d byte head", ErrInvalidSize, r.Index, r.Length, PackageHeadLen)
	}
	if cfgLen > MaxConfigSize {
		return Package{}, IcConfig{}, fmt.Errorf("%w: package %d config is %d bytes, limit %d", ErrInvalidSize, r.Index, cfgLen, MaxConfigSize)
	}
	span := buf[r.Offset:r.End()]
	ci, err := DecodeConstInfo(span[:ConstInfoSize])
	if err != nil {
		return Package{}, IcConfig{}, err
	}
	ri, err := DecodeRegInfo(span[ConstInfoSize:PackageHeadLen])
	if err != nil {
		return Package{}, IcConfig{}, err
	}
	data := make([]byte, cfgLen)
	copy(data, span[PackageHeadLen:])

	pkg := Package{
		ConstInfo: ci,
		RegInfo:   ri,
		PkgLen:    uint32(r.Length),
		Offset:    r.Offset,
		payload:   data,
	}
	return pkg, IcConfig{Len: int32(cfgLen), Data: cloneBytes(data)}, nil
}
