package report

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/couchcryptid/weather-report/internal/domain"
)

// ResolvePlots turns plot file names into references under dir and records
// whether each image exists yet. Plots are produced by a separate step, so a
// missing file is not an error.
func ResolvePlots(dir string, files []string) []domain.PlotRef {
	refs := make([]domain.PlotRef, 0, len(files))
	for _, f := range files {
		path := filepath.ToSlash(filepath.Join(dir, f))
		_, err := os.Stat(path)
		refs = append(refs, domain.PlotRef{
			Name:   plotName(f),
			Path:   path,
			Exists: err == nil,
		})
	}
	return refs
}

// plotName derives a caption from a file name: "monthly_rainfall.png" -> "Monthly rainfall".
func plotName(file string) string {
	base := strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
	base = strings.NewReplacer("_", " ", "-", " ").Replace(base)
	if base == "" {
		return file
	}
	return strings.ToUpper(base[:1]) + base[1:]
}
