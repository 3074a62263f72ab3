package compare

// Name labels the compare workflow in logs, metrics and events.
const Name = "compare"

// Params is the body for POST /api/compare/{id}/submit.
type Params struct {
	AreaA string `json:"areaA" validate:"notblank,max=200"`
	AreaB string `json:"areaB" validate:"notblank,max=200"`
}

// CategoryCounts holds incident counts per crime category.
type CategoryCounts struct {
	Theft     int `json:"theft"`
	Assault   int `json:"assault"`
	Burglary  int `json:"burglary"`
	Vandalism int `json:"vandalism"`
}

// Total sums every category.
func (c CategoryCounts) Total() int {
	return c.Theft + c.Assault + c.Burglary + c.Vandalism
}

// Result compares two areas.
type Result struct {
	AreaA      string         `json:"areaA"`
	AreaB      string         `json:"areaB"`
	SeriesA    CategoryCounts `json:"seriesA"`
	SeriesB    CategoryCounts `json:"seriesB"`
	RiskScoreA int            `json:"riskScoreA"`
	RiskScoreB int            `json:"riskScoreB"`
}

// Row is one bar group of the breakdown chart.
type Row struct {
	Category string `json:"name"`
	A        int    `json:"areaA"`
	B        int    `json:"areaB"`
}

// Breakdown lays the two series out per category for charting.
func (r Result) Breakdown() []Row {
	return []Row{
		{"Theft", r.SeriesA.Theft, r.SeriesB.Theft},
		{"Assault", r.SeriesA.Assault, r.SeriesB.Assault},
		{"Burglary", r.SeriesA.Burglary, r.SeriesB.Burglary},
		{"Vandalism", r.SeriesA.Vandalism, r.SeriesB.Vandalism},
	}
}

// Riskier names the area with the higher risk score, or "" on a tie.
func (r Result) Riskier() string {
	switch {
	case r.RiskScoreA > r.RiskScoreB:
		return r.AreaA
	case r.RiskScoreB > r.RiskScoreA:
		return r.AreaB
	}
	return ""
}
