package observations

import (
	"fmt"
	"io/fs"
	"path"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/banshee-data/indicator.report/internal/monitoring"
)

var (
	// <utm zone>/<latitude band>/<grid square>/<year>/<month>/<day>/<sequence>
	awsS2TilePattern = regexp.MustCompile(`(?:^|/)(\d{1,2})/([C-X])/([A-Z]{2})/(\d{4})/(\d{1,2})/(\d{1,2})/(\d+)$`)

	// <variable>_A<year><day of year>[_<anything>].tif
	variableFilePattern = regexp.MustCompile(`^([A-Za-z0-9]+)_A(\d{4})(\d{3})(?:_[^.]*)?\.tiff?$`)
)

// Discover walks root inside fsys and returns a reference for every input
// whose type can be established. When accepted is non-empty only those types
// are returned. Entries that cannot be typed are skipped silently; URLs are
// prefixed with base so they can be opened outside fsys.
func Discover(fsys fs.FS, root, base string, accepted []string) ([]FileRef, error) {
	accept := make(map[string]bool, len(accepted))
	for _, a := range accepted {
		accept[a] = true
	}

	var refs []FileRef
	err := fs.WalkDir(fsys, root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		ref, ok := validate(fsys, p, d)
		if !ok {
			return nil
		}
		if len(accept) > 0 && !accept[ref.DataType] {
			return nil
		}
		ref.URL = filepath.Join(base, filepath.FromSlash(p))
		refs = append(refs, ref)
		if d.IsDir() {
			return fs.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan %s: %w", root, err)
	}
	SortFileRefs(refs)
	monitoring.Diagf("discovered %d input(s) under %s", len(refs), base)
	return refs, nil
}

// validate returns the typed reference for p, if it is a recognised input.
func validate(fsys fs.FS, p string, d fs.DirEntry) (FileRef, bool) {
	if d.IsDir() {
		return validateS2Tile(fsys, p)
	}
	return validateVariableFile(d.Name())
}

func validateS2Tile(fsys fs.FS, p string) (FileRef, bool) {
	m := awsS2TilePattern.FindStringSubmatch(p)
	if m == nil {
		return FileRef{}, false
	}
	entries, err := fs.ReadDir(fsys, p)
	if err != nil {
		return FileRef{}, false
	}
	hasBands := false
	for _, e := range entries {
		if !e.IsDir() && strings.HasSuffix(e.Name(), "_sur.tif") {
			hasBands = true
			break
		}
	}
	if !hasBands {
		return FileRef{}, false
	}
	year, _ := strconv.Atoi(m[4])
	month, _ := strconv.Atoi(m[5])
	day, _ := strconv.Atoi(m[6])
	start := time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
	if start.Month() != time.Month(month) || start.Day() != day {
		return FileRef{}, false
	}
	return FileRef{
		URL:       p,
		StartTime: start,
		EndTime:   start.Add(24*time.Hour - time.Second),
		DataType:  DataTypeAWSS2L2,
	}, true
}

func validateVariableFile(name string) (FileRef, bool) {
	m := variableFilePattern.FindStringSubmatch(path.Base(name))
	if m == nil {
		return FileRef{}, false
	}
	year, _ := strconv.Atoi(m[2])
	doy, _ := strconv.Atoi(m[3])
	if doy < 1 || doy > 366 {
		return FileRef{}, false
	}
	start := time.Date(year, time.January, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, doy-1)
	if start.Year() != year {
		return FileRef{}, false
	}
	return FileRef{
		URL:       name,
		StartTime: start,
		EndTime:   start.Add(24*time.Hour - time.Second),
		DataType:  strings.ToLower(m[1]),
	}, true
}
