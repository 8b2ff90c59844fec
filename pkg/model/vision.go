package model

// Detection is one zero-shot classifier label with its confidence in [0,1].
type Detection struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// ColorCluster is one dominant-color cluster extracted from an image.
// AreaPct is the fraction of the image covered by the cluster, in [0,1].
type ColorCluster struct {
	Label   string  `json:"label"`
	Hex     string  `json:"hex"`
	AreaPct float64 `json:"area_pct"`
}

// VisualAnalysis is the fixed-shape output of the external vision
// classifier. Warmth and Complexity are scalar heuristics in [0,1]
// derived from the image; nil when the classifier did not report them.
type VisualAnalysis struct {
	Colors     []ColorCluster `json:"colors"`
	Materials  []Detection    `json:"materials"`
	Styles     []Detection    `json:"styles"`
	Warmth     *float64       `json:"warmth,omitempty"`
	Complexity *float64       `json:"complexity,omitempty"`
}

// Empty reports whether the analysis carries no usable detections.
func (v *VisualAnalysis) Empty() bool {
	if v == nil {
		return true
	}
	return len(v.Colors) == 0 && len(v.Materials) == 0 && len(v.Styles) == 0 &&
		v.Warmth == nil && v.Complexity == nil
}
