package domain

import (
	"encoding/base64"
	"fmt"
)

// Coordinates is a WGS-84 latitude/longitude pair.
type Coordinates struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Valid reports whether both components are within range.
func (c Coordinates) Valid() bool {
	return ValidLatitude(c.Latitude) && ValidLongitude(c.Longitude)
}

// String formats the pair with six decimals, the precision geolocation
// results are reported at.
func (c Coordinates) String() string {
	return fmt.Sprintf("%.6f, %.6f", c.Latitude, c.Longitude)
}

// Image is a self-contained encoded image.
type Image struct {
	ContentType string `json:"content_type"`
	Data        []byte `json:"-"`
}

// DataURL renders the image as an RFC 2397 data URL.
func (i Image) DataURL() string {
	return "data:" + i.ContentType + ";base64," + base64.StdEncoding.EncodeToString(i.Data)
}

// AnalysisResult holds the mocked harvesting figures for one assessment.
type AnalysisResult struct {
	AverageRainfall     int    `json:"average_rainfall"`      // mm per year
	RecommendedTankSize int    `json:"recommended_tank_size"` // liters
	MonthlyStorage      int    `json:"monthly_storage"`       // liters
	ConstructionCost    int    `json:"construction_cost"`     // rupees
	Location            string `json:"location"`
}

// UserRecord is everything a wizard session has collected so far.
type UserRecord struct {
	Name         string          `json:"name"`
	Mobile       string          `json:"mobile"`
	Email        string          `json:"email"`
	Coordinates  *Coordinates    `json:"coordinates,omitempty"`
	RooftopImage *Image          `json:"-"`
	RooftopArea  *int            `json:"rooftop_area,omitempty"` // square meters
	Analysis     *AnalysisResult `json:"analysis,omitempty"`
}

// Analyzed reports whether the final analysis has been attached.
func (r UserRecord) Analyzed() bool {
	return r.Analysis != nil && r.RooftopArea != nil
}

// WithAnalysis returns a copy of r carrying area and result. Both are
// attached in one step so a record is never partially analyzed.
func (r UserRecord) WithAnalysis(area int, result AnalysisResult) UserRecord {
	r.RooftopArea = &area
	r.Analysis = &result
	return r
}

// Clone returns a copy that shares no pointers with r.
func (r UserRecord) Clone() UserRecord {
	out := r
	if r.Coordinates != nil {
		c := *r.Coordinates
		out.Coordinates = &c
	}
	if r.RooftopImage != nil {
		img := Image{ContentType: r.RooftopImage.ContentType, Data: append([]byte(nil), r.RooftopImage.Data...)}
		out.RooftopImage = &img
	}
	if r.RooftopArea != nil {
		a := *r.RooftopArea
		out.RooftopArea = &a
	}
	if r.Analysis != nil {
		res := *r.Analysis
		out.Analysis = &res
	}
	return out
}
