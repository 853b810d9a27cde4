package cfgbin

import (
	"bytes"
	"encoding/binary"
	"errors"
	"testing"

	"example.com/tscfg/internal/testutil/cfgfixture"
)

func samplePackage(cfgType uint8, payload []byte) cfgfixture.Package {
	p := cfgfixture.Package{
		ICType:        "GT9886",
		CfgType:       cfgType,
		SensorID:      2,
		HwPID:         [8]byte{'9', '8', '8', '6'},
		HwVID:         [8]byte{0x01, 0x02},
		FwMask:        [9]byte{0xFF, 0xFF},
		FwPatch:       [4]byte{0x00, 0x01, 0x02, 0x03},
		XResOffset:    0x0102,
		YResOffset:    0x0304,
		TriggerOffset: 0x0506,
		Payload:       payload,
	}
	for i := range p.Registers {
		p.Registers[i] = 0x6F00 + uint16(i)
	}
	return p
}

func TestLayoutSizes(t *testing.T) {
	if ConstInfoSize != cfgfixture.ConstInfoLen {
		t.Fatalf("ConstInfoSize = %d, want %d", ConstInfoSize, cfgfixture.ConstInfoLen)
	}
	if RegInfoSize != cfgfixture.RegInfoLen {
		t.Fatalf("RegInfoSize = %d, want %d", RegInfoSize, cfgfixture.RegInfoLen)
	}
	if headerRegionLen != cfgfixture.HeaderRegionLen {
		t.Fatalf("headerRegionLen = %d, want %d", headerRegionLen, cfgfixture.HeaderRegionLen)
	}
}

func TestDecodeShortInputs(t *testing.T) {
	for n := 0; n < binHeadSize; n++ {
		_, err := Decode(make([]byte, n))
		if !errors.Is(err, ErrInvalidSize) {
			t.Fatalf("len %d: err = %v, want ErrInvalidSize", n, err)
		}
	}
}

func TestDecodeLengthMismatch(t *testing.T) {
	buf := cfgfixture.Bin{Packages: []cfgfixture.Package{samplePackage(1, []byte{1, 2, 3})}}.Bytes()
	tests := []struct {
		name string
		buf  []byte
	}{
		{name: "truncated", buf: buf[:len(buf)-1]},
		{name: "extended", buf: append(append([]byte{}, buf...), 0x00)},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Decode(tc.buf)
			if !errors.Is(err, ErrLengthCheckFail) {
				t.Fatalf("err = %v, want ErrLengthCheckFail", err)
			}
		})
	}
}

func TestDecodeLengthCheckedBeforeChecksum(t *testing.T) {
	buf := cfgfixture.Bin{}.Bytes()
	buf[4] ^= 0xFF
	binary.LittleEndian.PutUint32(buf[0:4], uint32(len(buf)+5))
	if _, err := Decode(buf); !errors.Is(err, ErrLengthCheckFail) {
		t.Fatalf("err = %v, want ErrLengthCheckFail", err)
	}
}

func TestDecodeChecksum(t *testing.T) {
	base := cfgfixture.Bin{
		Version:  [4]byte{1, 2, 3, 4},
		Packages: []cfgfixture.Package{samplePackage(4, cfgfixture.Fill(0x11, 16))},
	}.Bytes()

	if _, err := Decode(base); err != nil {
		t.Fatalf("Decode valid: %v", err)
	}

	for _, idx := range []int{checksumStart, 9, 20, len(base) - 1} {
		buf := append([]byte{}, base...)
		buf[idx]++
		_, err := Decode(buf)
		if !errors.Is(err, ErrChecksumMismatch) {
			t.Fatalf("byte %d changed: err = %v, want ErrChecksumMismatch", idx, err)
		}
	}

	// Compensating changes keep the sum intact.
	buf := append([]byte{}, base...)
	buf[len(buf)-1]++
	buf[len(buf)-2]--
	if _, err := Decode(buf); err != nil {
		t.Fatalf("Decode with compensated sum: %v", err)
	}

	buf = append([]byte{}, base...)
	buf[4]++
	if _, err := Decode(buf); !errors.Is(err, ErrChecksumMismatch) {
		t.Fatalf("header checksum changed: err = %v, want ErrChecksumMismatch", err)
	}
}

func TestChecksumWraps(t *testing.T) {
	buf := make([]byte, 5+300)
	for i := range buf {
		buf[i] = 0xFF
	}
	// 300 * 0xFF mod 256 = 300 * 255 mod 256 = 212
	if got := Checksum(buf); got != 212 {
		t.Fatalf("Checksum = %d, want 212", got)
	}
	if got := Checksum(buf[:5]); got != 0 {
		t.Fatalf("Checksum of header only = %d, want 0", got)
	}
}

func TestDecodeNoPackages(t *testing.T) {
	buf := cfgfixture.Bin{Version: [4]byte{'v', '1', '0', '0'}}.Bytes()
	bin, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if n := len(bin.Packages()); n != 0 {
		t.Fatalf("packages = %d, want 0", n)
	}
	if n := len(bin.CfgTypes()); n != 0 {
		t.Fatalf("registry entries = %d, want 0", n)
	}
	head := bin.Head()
	if head.BinLen != uint32(len(buf)) || head.PkgNum != 0 {
		t.Fatalf("head = %+v", head)
	}
	if head.BinVersion != [4]byte{'v', '1', '0', '0'} {
		t.Fatalf("BinVersion = %q", head.BinVersion[:])
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	payload := cfgfixture.Fill(0xAA, 32)
	buf := cfgfixture.Bin{Packages: []cfgfixture.Package{samplePackage(7, payload)}}.Bytes()

	bin, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	pkgs := bin.Packages()
	if len(pkgs) != 1 {
		t.Fatalf("packages = %d, want 1", len(pkgs))
	}
	pkg := pkgs[0]
	if pkg.ConstInfo.CfgType != 7 {
		t.Fatalf("CfgType = %d, want 7", pkg.ConstInfo.CfgType)
	}
	if pkg.PkgLen != uint32(PackageHeadLen+32) {
		t.Fatalf("PkgLen = %d, want %d", pkg.PkgLen, PackageHeadLen+32)
	}
	if pkg.ConstInfo.PkgLen != pkg.PkgLen {
		t.Fatalf("ConstInfo.PkgLen = %d, want %d", pkg.ConstInfo.PkgLen, pkg.PkgLen)
	}
	if got := pkg.ConstInfo.ICTypeName(); got != "GT9886" {
		t.Fatalf("ICTypeName = %q, want GT9886", got)
	}
	if pkg.ConstInfo.SensorID != 2 {
		t.Fatalf("SensorID = %d, want 2", pkg.ConstInfo.SensorID)
	}
	if pkg.ConstInfo.XResOffset != 0x0102 || pkg.ConstInfo.YResOffset != 0x0304 || pkg.ConstInfo.TriggerOffset != 0x0506 {
		t.Fatalf("resolution offsets = %#x %#x %#x", pkg.ConstInfo.XResOffset, pkg.ConstInfo.YResOffset, pkg.ConstInfo.TriggerOffset)
	}
	if pkg.ConstInfo.FwPatch != [4]byte{0, 1, 2, 3} {
		t.Fatalf("FwPatch = %v", pkg.ConstInfo.FwPatch)
	}
	for i, nr := range pkg.RegInfo.Registers() {
		if want := 0x6F00 + uint16(i); nr.Register.Addr != want {
			t.Fatalf("register %s addr = %#x, want %#x", nr.Name, nr.Register.Addr, want)
		}
	}
	if pkg.RegInfo.Proximity.Addr != 0x6F0D {
		t.Fatalf("Proximity addr = %#x, want 0x6F0D", pkg.RegInfo.Proximity.Addr)
	}
	if !bytes.Equal(pkg.Payload(), payload) {
		t.Fatalf("package payload = %x", pkg.Payload())
	}

	cfg, ok := bin.Config(7)
	if !ok {
		t.Fatalf("registry missing cfg_type 7")
	}
	if cfg.Len != 32 {
		t.Fatalf("Len = %d, want 32", cfg.Len)
	}
	if !bytes.Equal(cfg.Data, payload) {
		t.Fatalf("registry payload = %x", cfg.Data)
	}
}

func TestDecodeLastWriteWins(t *testing.T) {
	first := cfgfixture.Fill(0x01, 8)
	second := cfgfixture.Fill(0x02, 12)
	buf := cfgfixture.Bin{Packages: []cfgfixture.Package{
		samplePackage(3, first),
		samplePackage(5, []byte{0x55}),
		samplePackage(3, second),
	}}.Bytes()

	bin, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	pkgs := bin.Packages()
	if len(pkgs) != 3 {
		t.Fatalf("packages = %d, want 3", len(pkgs))
	}
	if !bytes.Equal(pkgs[0].Payload(), first) || !bytes.Equal(pkgs[2].Payload(), second) {
		t.Fatalf("package payloads not preserved")
	}
	cfg, ok := bin.Config(3)
	if !ok {
		t.Fatalf("registry missing cfg_type 3")
	}
	if cfg.Len != int32(len(second)) || !bytes.Equal(cfg.Data, second) {
		t.Fatalf("cfg_type 3 = len %d data %x, want later package", cfg.Len, cfg.Data)
	}
	if got := bin.CfgTypes(); len(got) != 2 || got[0] != 3 || got[1] != 5 {
		t.Fatalf("CfgTypes = %v, want [3 5]", got)
	}
}

func TestDecodePayloadLimits(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr error
	}{
		{name: "empty", size: 0},
		{name: "at limit", size: MaxConfigSize},
		{name: "over limit", size: MaxConfigSize + 1, wantErr: ErrInvalidSize},
		{name: "far over limit", size: 3 * MaxConfigSize, wantErr: ErrInvalidSize},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			buf := cfgfixture.Bin{Packages: []cfgfixture.Package{samplePackage(1, cfgfixture.Fill(0x5A, tc.size))}}.Bytes()
			bin, err := Decode(buf)
			if tc.wantErr != nil {
				if !errors.Is(err, tc.wantErr) {
					t.Fatalf("err = %v, want %v", err, tc.wantErr)
				}
				if bin != nil {
					t.Fatalf("expected no result on error")
				}
				return
			}
			if err != nil {
				t.Fatalf("Decode: %v", err)
			}
			cfg, _ := bin.Config(1)
			if int(cfg.Len) != tc.size || len(cfg.Data) != tc.size {
				t.Fatalf("Len = %d data %d, want %d", cfg.Len, len(cfg.Data), tc.size)
			}
		})
	}
}

func TestDecodePackageShorterThanHead(t *testing.T) {
	// Two packages where the first is cut down to 40 bytes.
	buf := cfgfixture.Bin{Packages: []cfgfixture.Package{
		samplePackage(1, nil),
		samplePackage(2, nil),
	}}.Bytes()
	first := int(binary.LittleEndian.Uint16(buf[16:18]))
	cfgfixture.PutOffset(buf, 1, first+40)
	cfgfixture.Seal(buf)
	if _, err := Decode(buf); !errors.Is(err, ErrInvalidSize) {
		t.Fatalf("err = %v, want ErrInvalidSize", err)
	}
}

func TestDecodeHighByteOffset(t *testing.T) {
	pkg := samplePackage(9, []byte{0xDE, 0xAD})
	buf := cfgfixture.Bin{Packages: []cfgfixture.Package{pkg}}.Bytes()
	body := append([]byte{}, buf[18:]...)

	// Move the package to 0x0123 so the offset needs both bytes.
	const start = 0x0123
	out := make([]byte, start, start+len(body))
	copy(out, buf[:18])
	out = append(out, body...)
	cfgfixture.PutOffset(out, 0, start)
	cfgfixture.Seal(out)

	bin, err := Decode(out)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	got := bin.Packages()[0]
	if got.Offset != start {
		t.Fatalf("Offset = %#x, want %#x", got.Offset, start)
	}
	if !bytes.Equal(got.Payload(), []byte{0xDE, 0xAD}) {
		t.Fatalf("payload = %x", got.Payload())
	}
}

func TestDecodeOwnsPayload(t *testing.T) {
	buf := cfgfixture.Bin{Packages: []cfgfixture.Package{samplePackage(2, cfgfixture.Fill(0x10, 4))}}.Bytes()
	bin, err := Decode(buf)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	for i := range buf {
		buf[i] = 0
	}
	cfg, _ := bin.Config(2)
	if !bytes.Equal(cfg.Data, cfgfixture.Fill(0x10, 4)) {
		t.Fatalf("registry aliases input: %x", cfg.Data)
	}
	cfg.Data[0] = 0xFF
	again, _ := bin.Config(2)
	if again.Data[0] != 0x10 {
		t.Fatalf("registry exposed internal buffer")
	}
	p := bin.Packages()[0].Payload()
	p[0] = 0xFF
	if bin.Packages()[0].Payload()[0] != 0x10 {
		t.Fatalf("package exposed internal buffer")
	}
}

func TestKind(t *testing.T) {
	tests := []struct {
		err  error
		want string
	}{
		{nil, ""},
		{ErrInvalidSize, KindInvalidSize},
		{ErrLengthCheckFail, KindLengthCheckFail},
		{ErrChecksumMismatch, KindChecksumMismatch},
		{ErrInvalidOffset, KindInvalidOffset},
		{errors.New("disk on fire"), KindIO},
	}
	for _, tc := range tests {
		if got := Kind(tc.err); got != tc.want {
			t.Fatalf("Kind(%v) = %q, want %q", tc.err, got, tc.want)
		}
	}
	if _, err := DecodeFile("does-not-exist.bin"); Kind(err) != KindIO || IsDecodeError(err) {
		t.Fatalf("missing file: kind %q", Kind(err))
	}
}
