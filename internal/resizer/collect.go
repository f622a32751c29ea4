package resizer

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// imageExtensions lists recognized input extensions (lowercase).
var imageExtensions = map[string]bool{
	".jpg":  true,
	".jpeg": true,
	".png":  true,
	".gif":  true,
	".bmp":  true,
	".webp": true,
	".tiff": true,
	".tif":  true,
}

func isImageFile(path string) bool {
	return imageExtensions[strings.ToLower(filepath.Ext(path))]
}

// CollectImages returns all candidate image files under path. A file
// path yields itself when its extension matches; a directory is walked
// recursively. Unreadable entries are skipped.
func CollectImages(path string) ([]string, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat input: %w", err)
	}

	if !info.IsDir() {
		if isImageFile(path) {
			return []string{path}, nil
		}
		return nil, nil
	}

	var files []string
	walkErr := filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() && isImageFile(p) {
			files = append(files, p)
		}
		return nil
	})
	if walkErr != nil {
		return nil, fmt.Errorf("walk input: %w", walkErr)
	}
	return files, nil
}

// outputPath derives the destination for an input file: the configured
// output directory, or a sibling directory next to the input, with the
// suffix appended to the stem. The directory is created on demand.
func (r *Resizer) outputPath(inputPath string) (string, error) {
	outputDir := r.opts.OutputDir
	if outputDir == "" {
		outputDir = filepath.Join(filepath.Dir(inputPath), r.opts.OutputDirName)
	}

	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("create output dir: %w", err)
	}

	ext := filepath.Ext(inputPath)
	stem := strings.TrimSuffix(filepath.Base(inputPath), ext)
	ext = strings.TrimPrefix(ext, ".")

	return filepath.Join(outputDir, fmt.Sprintf("%s%s.%s", stem, r.opts.OutputSuffix, ext)), nil
}
