// Package observations describes the input files of a post-processing run:
// typed file references found in a data directory, their grouping by
// acquisition date, and the in-memory observations handed to EO-data post
// processors.
package observations

import (
	"sort"
	"time"
)

// DateLayout keys acquisition-date groups.
const DateLayout = "2006-01-02"

// DataTypeAWSS2L2 is Sentinel-2 surface reflectance in the AWS tile layout.
const DataTypeAWSS2L2 = "AWS_S2_L2"

// FileRef points at one typed input: a file for bio-physical variables or a
// tile directory for EO data.
type FileRef struct {
	URL       string
	StartTime time.Time
	EndTime   time.Time
	DataType  string
}

// Date returns the acquisition date key of the reference.
func (f FileRef) Date() string {
	return f.StartTime.Format(DateLayout)
}

// SortFileRefs orders refs by start time, then data type, then URL.
func SortFileRefs(refs []FileRef) {
	sort.SliceStable(refs, func(i, j int) bool {
		a, b := refs[i], refs[j]
		if !a.StartTime.Equal(b.StartTime) {
			return a.StartTime.Before(b.StartTime)
		}
		if a.DataType != b.DataType {
			return a.DataType < b.DataType
		}
		return a.URL < b.URL
	})
}

// GroupByDate buckets refs by acquisition date. Order inside a group follows
// the input order.
func GroupByDate(refs []FileRef) map[string][]FileRef {
	groups := make(map[string][]FileRef)
	for _, ref := range refs {
		key := ref.Date()
		groups[key] = append(groups[key], ref)
	}
	return groups
}

// SortedDates returns the keys of groups in chronological order.
func SortedDates(groups map[string][]FileRef) []string {
	dates := make([]string, 0, len(groups))
	for d := range groups {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}

// ByDataType indexes the refs of one date group by data type. Later refs of
// the same type replace earlier ones.
func ByDataType(group []FileRef) map[string]FileRef {
	out := make(map[string]FileRef, len(group))
	for _, ref := range group {
		out[ref.DataType] = ref
	}
	return out
}
