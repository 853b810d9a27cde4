package manifest

import (
	"encoding/hex"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"example.com/tscfg/internal/cfgbin"
	"example.com/tscfg/internal/common"
)

type Item struct {
	Path       string  `json:"path"`
	Size       int64   `json:"size"`
	Sha256     string  `json:"sha256"`
	Type       string  `json:"type"`
	BinVersion string  `json:"binVersion,omitempty"`
	PkgNum     int     `json:"pkgNum,omitempty"`
	CfgTypes   []uint8 `json:"cfgTypes,omitempty"`
	DecodeErr  string  `json:"decodeError,omitempty"`
}

type Manifest struct {
	CreatedAt time.Time `json:"createdAt"`
	ShaAlgo   string    `json:"shaAlgo"`
	Items     []Item    `json:"items"`
}

// Build hashes every path. Files with a cfg bin extension are decoded and
// described; a file that fails to decode is still listed with its error.
func Build(paths []string) (Manifest, error) {
	m := Manifest{CreatedAt: time.Now().UTC(), ShaAlgo: "sha256"}
	for _, p := range paths {
		data, digest, err := common.ReadFileDigest(p)
		if err != nil {
			return m, err
		}
		item := Item{Path: p, Size: int64(len(data)), Sha256: digest, Type: "other"}
		switch {
		case hasExt(p, ".bin", ".cfg"):
			bin, err := cfgbin.Decode(data)
			if err != nil {
				item.DecodeErr = cfgbin.Kind(err)
				break
			}
			head := bin.Head()
			item.Type = "cfgbin"
			item.BinVersion = hex.EncodeToString(head.BinVersion[:])
			item.PkgNum = int(head.PkgNum)
			item.CfgTypes = bin.CfgTypes()
		case hasExt(p, ".json"):
			item.Type = "json"
		case hasExt(p, ".pdf"):
			item.Type = "pdf"
		}
		m.Items = append(m.Items, item)
	}
	return m, nil
}

func hasExt(path string, exts ...string) bool {
	ext := filepath.Ext(path)
	for _, e := range exts {
		if strings.EqualFold(ext, e) {
			return true
		}
	}
	return false
}

func Save(m Manifest, out string) error {
	b, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0644)
}
