package cfgbin

import (
	"encoding/hex"
	"strconv"
)

// View is the JSON form of a decoded cfg bin. Field names follow the
// vendor's C structure names so output lines up with the vendor tooling.
type View struct {
	Head      HeadView                `json:"head"`
	Packages  []PackageView           `json:"cfg_pkgs"`
	ICConfigs map[string]ICConfigView `json:"ic_configs"`
}

type HeadView struct {
	BinLen     uint32 `json:"bin_len"`
	Checksum   uint8  `json:"checksum"`
	BinVersion string `json:"bin_version"`
	PkgNum     uint8  `json:"pkg_num"`
}

type PackageView struct {
	ConstInfo ConstInfoView           `json:"cnst_info"`
	RegInfo   map[string]RegisterView `json:"reg_info"`
	PkgLen    uint32                  `json:"pkg_len"`
}

type ConstInfoView struct {
	PkgLen        uint32 `json:"pkg_len"`
	ICType        string `json:"ic_type"`
	CfgType       uint8  `json:"cfg_type"`
	SensorID      uint8  `json:"sensor_id"`
	HwPID         string `json:"hw_pid"`
	HwVID         string `json:"hw_vid"`
	FwMask        string `json:"fw_mask"`
	FwPatch       string `json:"fw_patch"`
	XResOffset    uint16 `json:"x_res_offset"`
	YResOffset    uint16 `json:"y_res_offset"`
	TriggerOffset uint16 `json:"trigger_offset"`
}

type RegisterView struct {
	Addr     uint16 `json:"addr"`
	Reserved string `json:"reserved,omitempty"`
}

type ICConfigView struct {
	Len  int32  `json:"len"`
	Data string `json:"data"`
}

// NewView renders bin into its JSON-ready form. Raw byte arrays are hex
// encoded; ic_type is the trimmed chip name.
func NewView(bin *CfgBin) View {
	head := bin.Head()
	v := View{
		Head: HeadView{
			BinLen:     head.BinLen,
			Checksum:   head.Checksum,
			BinVersion: hex.EncodeToString(head.BinVersion[:]),
			PkgNum:     head.PkgNum,
		},
		Packages:  make([]PackageView, 0, len(bin.packages)),
		ICConfigs: make(map[string]ICConfigView, len(bin.icConfigs)),
	}
	for _, p := range bin.packages {
		ci := p.ConstInfo
		regs := make(map[string]RegisterView, registerCount+1)
		for _, nr := range p.RegInfo.Registers() {
			rv := RegisterView{Addr: nr.Register.Addr}
			if nr.Register.Reserved != [2]byte{} {
				rv.Reserved = hex.EncodeToString(nr.Register.Reserved[:])
			}
			regs[nr.Name] = rv
		}
		v.Packages = append(v.Packages, PackageView{
			ConstInfo: ConstInfoView{
				PkgLen:        ci.PkgLen,
				ICType:        ci.ICTypeName(),
				CfgType:       ci.CfgType,
				SensorID:      ci.SensorID,
				HwPID:         hex.EncodeToString(ci.HwPID[:]),
				HwVID:         hex.EncodeToString(ci.HwVID[:]),
				FwMask:        hex.EncodeToString(ci.FwMask[:]),
				FwPatch:       hex.EncodeToString(ci.FwPatch[:]),
				XResOffset:    ci.XResOffset,
				YResOffset:    ci.YResOffset,
				TriggerOffset: ci.TriggerOffset,
			},
			RegInfo: regs,
			PkgLen:  p.PkgLen,
		})
	}
	for k, c := range bin.icConfigs {
		v.ICConfigs[strconv.Itoa(int(k))] = ICConfigView{
			Len:  c.Len,
			Data: hex.EncodeToString(c.Data),
		}
	}
	return v
}
