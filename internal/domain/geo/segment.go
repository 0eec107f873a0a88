package geo

// Package geo contains the map-data domain types served to clients. The
// gateway treats the mapping domain as a data collaborator: these types
// are read-only views assembled by the data layer.

// Restriction is a per-point curb-use restriction. JSON keys follow the
// compact wire format established by the original mobile clients.
type Restriction struct {
	Kind      string  `json:"t"` // restriction type code (e.g. "1P", "NP")
	Days      string  `json:"d"` // day mask
	StartTime string  `json:"s"` // local start of applicability, "HHMM"
	EndTime   string  `json:"e"` // local end of applicability, "HHMM"
	UpdatedBy string  `json:"u"` // username of the last contributor
	Bearing   string  `json:"b"` // curb side indicator
	Cost      float64 `json:"c"` // metered cost per hour, 0 when free
	Limit     float64 `json:"l"` // time limit in minutes, 0 when unlimited
	Permit    float64 `json:"p"` // permit zone number, 0 when none
	Rating    float64 `json:"r"` // aggregate contributor confidence
}

// Point is a surveyed curb point along a segment.
type Point struct {
	Coordinates  [2]float64    `json:"point"` // [lng, lat]
	Restrictions []Restriction `json:"restrs"`
}

// Segment is a street segment with its surveyed curb points.
type Segment struct {
	ID       string     `json:"id"`
	GID      int64      `json:"gid"`     // source GIS identifier
	CamsID   int64      `json:"cams_id"` // municipal street centerline id
	FullName string     `json:"fullname"`
	Status   string     `json:"status"`
	Type     string     `json:"type"`
	Start    [2]float64 `json:"start"` // [lng, lat]
	End      [2]float64 `json:"end"`   // [lng, lat]
	Points   []Point    `json:"points"`
}
