package report

import (
	"encoding/json"
	"os"

	"example.com/tscfg/internal/cfgbin"
)

func SaveJSON(v cfgbin.View, out string) error {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(out, b, 0644)
}

func LoadJSON(path string) (cfgbin.View, error) {
	var v cfgbin.View
	b, err := os.ReadFile(path)
	if err != nil {
		return v, err
	}
	err = json.Unmarshal(b, &v)
	return v, err
}
