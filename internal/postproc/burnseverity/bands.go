package burnseverity

import "github.com/banshee-data/indicator.report/internal/observations"

// bandSet names the bands and radiometry of one EO data type.
type bandSet struct {
	NoData      float64
	ScaleFactor float64
	NIR         string
	SMIR        string
	SWIR        string
}

var bandSets = map[string]bandSet{
	observations.DataTypeAWSS2L2: {
		NoData:      9999,
		ScaleFactor: 0.0001,
		NIR:         "B8A_sur.tif",
		SMIR:        "B11_sur.tif",
		SWIR:        "B12_sur.tif",
	},
}
