package report

import (
	"encoding/hex"
	"fmt"
	"io"
	"text/tabwriter"

	"example.com/tscfg/internal/cfgbin"
)

// previewLen is how many payload bytes the text listing shows per entry.
const previewLen = 16

// WriteText renders bin as an aligned plain-text listing.
func WriteText(w io.Writer, bin *cfgbin.CfgBin) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	head := bin.Head()
	fmt.Fprintf(tw, "bin_len\t%d\n", head.BinLen)
	fmt.Fprintf(tw, "checksum\t0x%02X\n", head.Checksum)
	fmt.Fprintf(tw, "bin_version\t%s\n", hex.EncodeToString(head.BinVersion[:]))
	fmt.Fprintf(tw, "pkg_num\t%d\n", head.PkgNum)
	fmt.Fprintln(tw)

	for i, p := range bin.Packages() {
		ci := p.ConstInfo
		fmt.Fprintf(tw, "package %d\toffset %d\tpkg_len %d\n", i, p.Offset, p.PkgLen)
		fmt.Fprintf(tw, "  ic_type\t%s\n", ci.ICTypeName())
		fmt.Fprintf(tw, "  cfg_type\t%d\n", ci.CfgType)
		fmt.Fprintf(tw, "  sensor_id\t%d\n", ci.SensorID)
		fmt.Fprintf(tw, "  hw_pid\t%s\n", hex.EncodeToString(ci.HwPID[:]))
		fmt.Fprintf(tw, "  hw_vid\t%s\n", hex.EncodeToString(ci.HwVID[:]))
		fmt.Fprintf(tw, "  fw_mask\t%s\n", hex.EncodeToString(ci.FwMask[:]))
		fmt.Fprintf(tw, "  fw_patch\t%s\n", hex.EncodeToString(ci.FwPatch[:]))
		fmt.Fprintf(tw, "  x/y/trigger offsets\t%d/%d/%d\n", ci.XResOffset, ci.YResOffset, ci.TriggerOffset)
		for _, nr := range p.RegInfo.Registers() {
			fmt.Fprintf(tw, "  reg %s\t0x%04X\n", nr.Name, nr.Register.Addr)
		}
		fmt.Fprintf(tw, "  config bytes\t%d\n", p.PayloadLen())
		fmt.Fprintln(tw)
	}

	fmt.Fprintln(tw, "cfg_type\tlen\tdata")
	for _, k := range bin.CfgTypes() {
		c, _ := bin.Config(k)
		fmt.Fprintf(tw, "%d\t%d\t%s\n", k, c.Len, preview(c.Data))
	}
	return tw.Flush()
}

func preview(b []byte) string {
	if len(b) <= previewLen {
		return hex.EncodeToString(b)
	}
	return hex.EncodeToString(b[:previewLen]) + "..."
}
