// Package domain defines the core types shared by the listing tracker:
// listings, jobs, waypoints and the records produced by providers.
package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// NotAvailable is the value stored for travel time and distance when a
// waypoint could not be resolved.
const NotAvailable = "N/A"

// TransportMode selects the routing profile for a waypoint.
type TransportMode string

// Transport mode constants.
const (
	ModeDriving TransportMode = "driving"
	ModeWalking TransportMode = "walking"
	ModeCycling TransportMode = "cycling"
	ModeTransit TransportMode = "transit"
)

// Valid reports whether m is one of the known transport modes.
func (m TransportMode) Valid() bool {
	switch m {
	case ModeDriving, ModeWalking, ModeCycling, ModeTransit:
		return true
	default:
		return false
	}
}

// Coordinates is a WGS84 latitude/longitude pair.
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lng float64 `json:"lng" yaml:"lng"`
}

// NotFound marks an address that was looked up and could not be geocoded.
var NotFound = Coordinates{Lat: -1, Lng: -1}

// Resolved reports whether c holds real coordinates rather than the
// NotFound sentinel.
func (c Coordinates) Resolved() bool {
	return c != NotFound
}

// RawRecord is a provider-specific record as extracted from a search page,
// keyed by the provider's field names.
type RawRecord map[string]string

// TravelInfo holds the formatted travel time and distance to one waypoint.
type TravelInfo struct {
	Time     string `json:"travel_time"`
	Distance string `json:"travel_distance"`
}

// Unavailable returns the sentinel pair used when a waypoint failed.
func Unavailable() TravelInfo {
	return TravelInfo{Time: NotAvailable, Distance: NotAvailable}
}

// Listing is a normalized classified-ad listing.
type Listing struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Price       string `json:"price,omitempty"`
	Size        string `json:"size,omitempty"`
	Address     string `json:"address,omitempty"`
	Link        string `json:"link"`
	Description string `json:"description,omitempty"`
	Image       string `json:"image,omitempty"`

	Latitude              *float64 `json:"latitude,omitempty"`
	Longitude             *float64 `json:"longitude,omitempty"`
	DistanceToDestination *float64 `json:"distance_to_destination,omitempty"`

	DateFound time.Time `json:"date_found"`

	Travel       map[string]TravelInfo `json:"travel,omitempty"`
	CustomFields map[string]any        `json:"custom_fields,omitempty"`
	EnhanceError string                `json:"enhance_error,omitempty"`
}

// Coordinates returns the listing position if it has been geocoded
// successfully.
func (l *Listing) Coordinates() (Coordinates, bool) {
	if l.Latitude == nil || l.Longitude == nil {
		return Coordinates{}, false
	}
	c := Coordinates{Lat: *l.Latitude, Lng: *l.Longitude}
	return c, c.Resolved()
}

// SetCoordinates stores c on the listing.
func (l *Listing) SetCoordinates(c Coordinates) {
	lat, lng := c.Lat, c.Lng
	l.Latitude = &lat
	l.Longitude = &lng
}

// Field returns the value of a named base field. Unknown names report false.
func (l *Listing) Field(name string) (string, bool) {
	switch name {
	case "id":
		return l.ID, true
	case "title":
		return l.Title, true
	case "price":
		return l.Price, true
	case "size":
		return l.Size, true
	case "address":
		return l.Address, true
	case "link":
		return l.Link, true
	case "description":
		return l.Description, true
	case "image":
		return l.Image, true
	default:
		return "", false
	}
}

// Record flattens the listing into the column/value map stored as an
// enriched listing. Base columns are always present; custom field and
// waypoint columns are present only when set.
func (l *Listing) Record() map[string]any {
	rec := map[string]any{
		"id":          l.ID,
		"title":       l.Title,
		"price":       l.Price,
		"size":        l.Size,
		"address":     l.Address,
		"link":        l.Link,
		"description": l.Description,
		"image":       l.Image,
		"date_found":  l.DateFound,
	}
	if l.Latitude != nil {
		rec["latitude"] = *l.Latitude
	}
	if l.Longitude != nil {
		rec["longitude"] = *l.Longitude
	}
	if l.DistanceToDestination != nil {
		rec["distance_to_destination"] = *l.DistanceToDestination
	}
	for name, v := range l.CustomFields {
		rec[name] = v
	}
	for id, info := range l.Travel {
		rec[TravelTimeColumn(id)] = info.Time
		rec[TravelDistanceColumn(id)] = info.Distance
	}
	if l.EnhanceError != "" {
		rec["enhance_error"] = l.EnhanceError
	}
	return rec
}

// Blacklisted reports whether any term occurs in the listing title or
// description. Matching is a case-sensitive substring test.
func (l *Listing) Blacklisted(terms []string) bool {
	for _, term := range terms {
		if term == "" {
			continue
		}
		if strings.Contains(l.Title, term) || strings.Contains(l.Description, term) {
			return true
		}
	}
	return false
}

// JobProvider binds a provider to the search URL a job watches on it.
type JobProvider struct {
	ID  string `json:"id"  yaml:"id"`
	URL string `json:"url" yaml:"url"`
}

// NotificationConfig selects a notification adapter and carries its
// per-job settings.
type NotificationConfig struct {
	ID     string            `json:"id"               yaml:"id"`
	Fields map[string]string `json:"fields,omitempty" yaml:"fields,omitempty"`
}

// CustomField describes a value extracted from a listing's detail page by
// the LLM enhancement step.
type CustomField struct {
	Name        string `json:"name"        yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Type        string `json:"type"        yaml:"type"`
}

// Waypoint is a place a user wants travel time and distance to.
type Waypoint struct {
	ID            string        `json:"id"             yaml:"id"`
	Name          string        `json:"name"           yaml:"name"`
	Location      string        `json:"location"       yaml:"location"`
	TransportMode TransportMode `json:"transport_mode" yaml:"transport_mode"`
}

// Job is a user-defined search across one or more providers.
type Job struct {
	ID            string               `json:"id"                    yaml:"id"`
	Name          string               `json:"name"                  yaml:"name"`
	Enabled       bool                 `json:"enabled"               yaml:"enabled"`
	Providers     []JobProvider        `json:"providers"             yaml:"providers"`
	Notifications []NotificationConfig `json:"notifications"         yaml:"notifications"`
	Blacklist     []string             `json:"blacklist,omitempty"   yaml:"blacklist,omitempty"`
	CustomFields  []CustomField        `json:"custom_fields,omitempty" yaml:"custom_fields,omitempty"`
	Waypoints     []Waypoint           `json:"waypoints,omitempty"   yaml:"waypoints,omitempty"`
	Destination   *Coordinates         `json:"destination,omitempty" yaml:"destination,omitempty"`
}

// ColumnDef is one column of a job's enriched listing schema.
type ColumnDef struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Column type constants.
const (
	ColumnText   = "text"
	ColumnNumber = "number"
)

// BaseColumns are present on every enriched listing.
var BaseColumns = []ColumnDef{
	{Name: "id", Type: ColumnText},
	{Name: "title", Type: ColumnText},
	{Name: "price", Type: ColumnText},
	{Name: "size", Type: ColumnText},
	{Name: "address", Type: ColumnText},
	{Name: "link", Type: ColumnText},
}

// TravelTimeColumn names the enriched column holding travel time to a
// waypoint.
func TravelTimeColumn(waypointID string) string {
	return "travel_time_" + waypointID
}

// TravelDistanceColumn names the enriched column holding travel distance
// to a waypoint.
func TravelDistanceColumn(waypointID string) string {
	return "travel_distance_" + waypointID
}

// EnrichedSchema derives the enriched listing schema of a job from the base
// columns, its custom fields and its waypoints.
func (j *Job) EnrichedSchema() []ColumnDef {
	cols := make([]ColumnDef, 0, len(BaseColumns)+len(j.CustomFields)+2*len(j.Waypoints))
	cols = append(cols, BaseColumns...)
	for _, f := range j.CustomFields {
		typ := ColumnText
		if f.Type == ColumnNumber {
			typ = ColumnNumber
		}
		cols = append(cols, ColumnDef{Name: f.Name, Type: typ})
	}
	for _, wp := range j.Waypoints {
		cols = append(cols,
			ColumnDef{Name: TravelTimeColumn(wp.ID), Type: ColumnText},
			ColumnDef{Name: TravelDistanceColumn(wp.ID), Type: ColumnText},
		)
	}
	return cols
}

// Validate reports every structural problem of the job definition.
// Waypoints with a missing location or transport mode are allowed; they
// enrich to N/A.
func (j *Job) Validate() error {
	var errs []error
	if strings.TrimSpace(j.ID) == "" {
		errs = append(errs, errors.New("job id is required"))
	}
	if len(j.Providers) == 0 {
		errs = append(errs, fmt.Errorf("job %s: at least one provider is required", j.ID))
	}
	for i, p := range j.Providers {
		if p.ID == "" {
			errs = append(errs, fmt.Errorf("job %s: providers[%d].id is required", j.ID, i))
		}
	}
	for i, n := range j.Notifications {
		if n.ID == "" {
			errs = append(errs, fmt.Errorf("job %s: notifications[%d].id is required", j.ID, i))
		}
	}
	seen := make(map[string]bool)
	for i, f := range j.CustomFields {
		if f.Name == "" {
			errs = append(errs, fmt.Errorf("job %s: custom_fields[%d].name is required", j.ID, i))
			continue
		}
		if seen[f.Name] {
			errs = append(errs, fmt.Errorf("job %s: duplicate custom field %q", j.ID, f.Name))
		}
		seen[f.Name] = true
	}
	wps := make(map[string]bool)
	for i, wp := range j.Waypoints {
		if wp.ID == "" {
			errs = append(errs, fmt.Errorf("job %s: waypoints[%d].id is required", j.ID, i))
			continue
		}
		if wps[wp.ID] {
			errs = append(errs, fmt.Errorf("job %s: duplicate waypoint %q", j.ID, wp.ID))
		}
		wps[wp.ID] = true
		if wp.TransportMode != "" && !wp.TransportMode.Valid() {
			errs = append(errs, fmt.Errorf("job %s: waypoint %s: unknown transport mode %q", j.ID, wp.ID, wp.TransportMode))
		}
	}
	return errors.Join(errs...)
}

// RunStatus is the final state of a pipeline execution.
type RunStatus string

// Run status constants.
const (
	RunRunning  RunStatus = "running"
	RunNotified RunStatus = "notified"
	RunEmpty    RunStatus = "empty"
	RunFailed   RunStatus = "failed"
)

// JobRun records one execution of a job against one provider.
type JobRun struct {
	ID          string     `json:"id"`
	JobID       string     `json:"job_id"`
	ProviderID  string     `json:"provider_id"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	Status      RunStatus  `json:"status"`
	Notified    int        `json:"notified"`
	ErrorText   string     `json:"error_text,omitempty"`
}
