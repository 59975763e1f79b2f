package batch

import (
	"encoding/json"
	"os"
)

// ManifestEntry represents one rendered state in the output manifest.
type ManifestEntry struct {
	Index   int    `json:"index"`
	Name    string `json:"name"`
	Image   string `json:"image"`
	Drawn   int    `json:"drawn"`
	Skipped int    `json:"skipped,omitempty"`
}

// WriteManifest writes manifest.json listing the successful results.
func WriteManifest(path string, results []Result) error {
	entries := make([]ManifestEntry, 0, len(results))
	for _, r := range results {
		if !r.Success {
			continue
		}
		entries = append(entries, ManifestEntry{
			Index:   r.Index,
			Name:    r.Name,
			Image:   OutputName(r.Index),
			Drawn:   r.Drawn,
			Skipped: r.Failed,
		})
	}

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}
