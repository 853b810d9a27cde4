package cfgbin

import (
	"fmt"
	"os"

	"example.com/tscfg/internal/common"
)

// Decode parses a complete cfg bin held in memory. It either returns a fully
// populated CfgBin or the first error encountered; there is no partial
// result. buf is only read, and the result keeps no reference to it.
func Decode(buf []byte) (*CfgBin, error) {
	head, err := DecodeHeader(buf)
	if err != nil {
		return nil, err
	}
	if err := VerifyChecksum(buf, head); err != nil {
		return nil, err
	}
	ranges, err := ResolveOffsets(buf, int(head.PkgNum))
	if err != nil {
		return nil, err
	}

	bin := &CfgBin{
		head:      head,
		packages:  make([]Package, 0, len(ranges)),
		icConfigs: make(map[uint8]IcConfig, len(ranges)),
	}
	owner := make(map[uint8]int, len(ranges))
	for _, r := range ranges {
		pkg, cfg, err := DecodePackage(buf, r)
		if err != nil {
			return nil, err
		}
		key := pkg.ConstInfo.CfgType
		if prev, ok := owner[key]; ok {
			common.Logf("package %d overrides cfg_type %d from package %d", r.Index, key, prev)
		}
		owner[key] = r.Index
		bin.icConfigs[key] = cfg
		bin.packages = append(bin.packages, pkg)
	}
	return bin, nil
}

// DecodeFile reads path and decodes its contents.
func DecodeFile(path string) (*CfgBin, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read cfg bin: %w", err)
	}
	return Decode(data)
}
