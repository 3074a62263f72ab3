package prediction

import "time"

// Name labels the prediction workflow in logs, metrics and events.
const Name = "prediction"

// Crime categories a prediction can be run for.
const (
	CategoryTheft     = "Theft"
	CategoryAssault   = "Assault"
	CategoryBurglary  = "Burglary"
	CategoryVandalism = "Vandalism"
)

// Categories lists every supported category in display order.
var Categories = []string{CategoryTheft, CategoryAssault, CategoryBurglary, CategoryVandalism}

// RiskLevel is the band a score falls in.
type RiskLevel string

const (
	RiskLow    RiskLevel = "Low"
	RiskMedium RiskLevel = "Medium"
	RiskHigh   RiskLevel = "High"
)

// Params is the body for POST /api/prediction/{id}/submit.
type Params struct {
	Area     string `json:"area" validate:"notblank,max=200"`
	Date     string `json:"date" validate:"required,datetime=2006-01-02"`
	Time     string `json:"time" validate:"required,datetime=15:04"`
	Category string `json:"category" validate:"required,oneof=Theft Assault Burglary Vandalism"`
}

// At combines Date and Time in loc.
func (p Params) At(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation("2006-01-02 15:04", p.Date+" "+p.Time, loc)
}

// Result is a scored prediction.
type Result struct {
	Score          int       `json:"score"`
	Confidence     int       `json:"confidence"`
	RiskLevel      RiskLevel `json:"riskLevel"`
	Recommendation string    `json:"recommendation"`
}
