package report

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/kbukum/getfnative/errors"
)

const (
	// DefaultDirName is created next to the input when no output dir is set.
	DefaultDirName = "getfnative_results"
	// DefaultExt is the plot format used when none is configured.
	DefaultExt = "svg"
)

// DefaultDir returns the output directory for input.
func DefaultDir(input string) string {
	return filepath.Join(filepath.Dir(input), DefaultDirName)
}

// NormalizeExt lowercases ext and strips a leading dot.
func NormalizeExt(ext string) string {
	return strings.ToLower(strings.TrimPrefix(strings.TrimSpace(ext), "."))
}

// UniquePath creates dir if needed and returns
// dir/getfnative-f<frame>-bh<baseHeight>-<n>.<ext> for the smallest n >= 1
// that does not exist yet.
func UniquePath(dir string, frame, baseHeight int, ext string) (string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", errors.ReportFailed("create output dir", err)
	}
	stem := filepath.Join(dir, fmt.Sprintf("getfnative-f%d-bh%d", frame, baseHeight))
	ext = NormalizeExt(ext)
	for n := 1; ; n++ {
		path := fmt.Sprintf("%s-%d.%s", stem, n, ext)
		if _, err := os.Stat(path); os.IsNotExist(err) {
			return path, nil
		} else if err != nil {
			return "", errors.ReportFailed("stat output path", err)
		}
	}
}

// WithExt swaps the extension of path.
func WithExt(path, ext string) string {
	return strings.TrimSuffix(path, filepath.Ext(path)) + "." + NormalizeExt(ext)
}
