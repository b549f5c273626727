package babybuddy

import "encoding/json"

// API endpoint names, as discovered from GET /api/.
const (
	EndpointChildren    = "children"
	EndpointChanges     = "changes"
	EndpointFeedings    = "feedings"
	EndpointSleep       = "sleep"
	EndpointTemperature = "temperature"
	EndpointTimers      = "timers"
	EndpointTummyTimes  = "tummy-times"
	EndpointWeight      = "weight"
)

// DataEndpoints are the per-child endpoints polled on every refresh.
var DataEndpoints = []string{
	EndpointChanges,
	EndpointFeedings,
	EndpointSleep,
	EndpointTemperature,
	EndpointTimers,
	EndpointTummyTimes,
	EndpointWeight,
}

// page is the paginated list envelope every list endpoint returns.
type page struct {
	Count   int               `json:"count"`
	Results []json.RawMessage `json:"results"`
}

// Child is the wire form of a child record.
type Child struct {
	ID        int    `json:"id"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
	BirthDate string `json:"birth_date"`
	Slug      string `json:"slug"`
}

// Timer is the wire form of a timer record.
type Timer struct {
	ID     int    `json:"id"`
	Child  *int   `json:"child"`
	Name   string `json:"name"`
	Start  string `json:"start"`
	End    string `json:"end"`
	Active bool   `json:"active"`
}
