// Package main implements a local stand-in for the services listing-tracker
// talks to: a classified-ad site, a Nominatim geocoder, an OSRM router and a
// notification webhook sink. It lets the whole pipeline run offline.
package main

import (
	"encoding/json"
	"flag"
	"fmt"
	"hash/fnv"
	"html/template"
	"log/slog"
	"net/http"
	"os"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/donaldgifford/listing-tracker/internal/geo"
	"github.com/donaldgifford/listing-tracker/pkg/logger"
)

// item is one ad on the mock site.
type item struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Price       string    `json:"price"`
	Size        string    `json:"size"`
	Address     string    `json:"address"`
	Description string    `json:"description"`
	Posted      time.Time `json:"posted"`
}

var defaultItems = []item{
	{ID: "1001", Title: "Bright 2-room flat near the park", Price: "950 EUR", Size: "54 m2", Address: "Kastanienallee 12, Berlin", Description: "Balcony, 3rd floor, no elevator. Pets allowed."},
	{ID: "1002", Title: "Studio in Kreuzberg", Price: "720 EUR", Size: "31 m2", Address: "Oranienstrasse 5, Berlin", Description: "Furnished studio, available immediately."},
	{ID: "1003", Title: "3 rooms with garden", Price: "1400 EUR", Size: "82 m2", Address: "Gartenweg 3, Potsdam", Description: "Ground floor, private garden, 2 bathrooms."},
	{ID: "1004", Title: "WG room short term", Price: "450 EUR", Size: "14 m2", Address: "", Description: "Room in shared flat, 3 months."},
}

// speeds are average travel speeds in km/h per OSRM profile.
var speeds = map[string]float64{
	"driving": 40,
	"car":     40,
	"bike":    15,
	"foot":    5,
}

// sink records notification payloads received by the mock.
type sink struct {
	mu       sync.Mutex
	payloads []json.RawMessage
}

func (s *sink) add(p json.RawMessage) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.payloads = append(s.payloads, p)
	return len(s.payloads)
}

func (s *sink) all() []json.RawMessage {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.payloads)
}

func main() {
	port := flag.Int("port", 8089, "port to listen on")
	fixtureFile := flag.String("fixture", "", "optional JSON file with the ads to serve")
	flag.Parse()

	log := logger.New("debug", "text")

	items := defaultItems
	if *fixtureFile != "" {
		loaded, err := loadFixture(*fixtureFile)
		if err != nil {
			log.Error("failed to load fixture", "path", *fixtureFile, "error", err)
			os.Exit(1)
		}
		items = loaded
	}
	stampPosted(items, time.Now())
	log.Info("serving ads", "count", len(items))

	addr := fmt.Sprintf(":%d", *port)
	log.Info("starting mock server", "addr", addr)

	srv := &http.Server{
		Addr:         addr,
		Handler:      requestLogger(log, newMux(log, items, &sink{})),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
	if err := srv.ListenAndServe(); err != nil {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func newMux(log *slog.Logger, items []item, notifications *sink) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /search", searchHandler(log, items))
	mux.HandleFunc("GET /ad/{id}", adHandler(items))
	mux.HandleFunc("GET /nominatim/search", nominatimHandler(log))
	mux.HandleFunc("GET /osrm/route/v1/{profile}/{coords}", osrmHandler(log))
	mux.HandleFunc("POST /notify", notifyHandler(log, notifications))
	mux.HandleFunc("GET /notify", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, notifications.all())
	})
	return mux
}

func loadFixture(path string) ([]item, error) {
	data, err := os.ReadFile(path) //nolint:gosec // fixture path from trusted CLI flag
	if err != nil {
		return nil, fmt.Errorf("reading fixture: %w", err)
	}
	var items []item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, fmt.Errorf("parsing fixture: %w", err)
	}
	return items, nil
}

// stampPosted gives undated ads descending post times, first ad newest.
func stampPosted(items []item, now time.Time) {
	for i := range items {
		if items[i].Posted.IsZero() {
			items[i].Posted = now.Add(-time.Duration(i) * time.Hour)
		}
	}
}

func requestLogger(log *slog.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		log.Debug("request", "method", r.Method, "path", r.URL.Path, "query", r.URL.RawQuery)
		next.ServeHTTP(w, r)
	})
}

var searchPage = template.Must(template.New("search").Parse(`<!DOCTYPE html>
<html><body>
<ul class="results">
{{- range . }}
  <li class="listing" data-id="{{ .ID }}">
    <a class="link" href="/ad/{{ .ID }}"><h2 class="title">{{ .Title }}</h2></a>
    <span class="price">{{ .Price }}</span>
    <span class="size">{{ .Size }}</span>
    <span class="address">{{ .Address }}</span>
    <p class="description">{{ .Description }}</p>
  </li>
{{- end }}
</ul>
</body></html>
`))

var adPage = template.Must(template.New("ad").Parse(`<!DOCTYPE html>
<html><body>
<article>
  <h1>{{ .Title }}</h1>
  <p>Rent: {{ .Price }}. Living space: {{ .Size }}.</p>
  <p>Location: {{ .Address }}</p>
  <p>{{ .Description }}</p>
</article>
</body></html>
`))

// searchHandler renders ads whose title contains q. sort=newest orders by
// post time; anything else keeps fixture order.
func searchHandler(log *slog.Logger, items []item) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := strings.ToLower(r.URL.Query().Get("q"))

		matched := make([]item, 0, len(items))
		for _, it := range items {
			if q == "" || strings.Contains(strings.ToLower(it.Title), q) {
				matched = append(matched, it)
			}
		}
		if r.URL.Query().Get("sort") == "newest" {
			slices.SortStableFunc(matched, func(a, b item) int {
				return b.Posted.Compare(a.Posted)
			})
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		if err := searchPage.Execute(w, matched); err != nil {
			log.Error("rendering search page", "error", err)
		}
		log.Info("search", "query", q, "matched", len(matched))
	}
}

func adHandler(items []item) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := r.PathValue("id")
		i := slices.IndexFunc(items, func(it item) bool { return it.ID == id })
		if i < 0 {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_ = adPage.Execute(w, items[i])
	}
}

// nominatimHandler resolves any address deterministically to a point near
// Berlin. Addresses containing "nowhere" are unknown; "ratelimit" answers
// 429 with a Retry-After header.
func nominatimHandler(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query().Get("q")
		lower := strings.ToLower(q)

		switch {
		case strings.Contains(lower, "ratelimit"):
			w.Header().Set("Retry-After", "60")
			writeJSON(w, http.StatusTooManyRequests, map[string]string{"error": "rate limited"})
			return
		case strings.TrimSpace(q) == "" || strings.Contains(lower, "nowhere"):
			writeJSON(w, http.StatusOK, []any{})
			return
		}

		lat, lng := pseudoLocation(q)
		log.Info("geocode", "q", q, "lat", lat, "lng", lng)
		writeJSON(w, http.StatusOK, []map[string]string{{
			"lat":          strconv.FormatFloat(lat, 'f', 6, 64),
			"lon":          strconv.FormatFloat(lng, 'f', 6, 64),
			"display_name": q,
		}})
	}
}

// pseudoLocation hashes address into a point within roughly 20 km of
// central Berlin.
func pseudoLocation(address string) (float64, float64) {
	h := fnv.New64a()
	_, _ = h.Write([]byte(strings.ToLower(strings.TrimSpace(address))))
	sum := h.Sum64()
	dLat := float64(sum%36000)/100000 - 0.18
	dLng := float64((sum/36000)%56000)/100000 - 0.28
	return 52.52 + dLat, 13.405 + dLng
}

type osrmRoute struct {
	Duration float64 `json:"duration"`
	Distance float64 `json:"distance"`
}

// osrmHandler answers with a straight-line route at the profile's average
// speed. Unknown profiles get OSRM's InvalidValue error.
func osrmHandler(log *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		profile := r.PathValue("profile")
		speed, ok := speeds[profile]
		if !ok {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"code":    "InvalidValue",
				"message": "unknown profile " + profile,
			})
			return
		}

		points, err := parseCoords(r.PathValue("coords"))
		if err != nil || len(points) != 2 {
			writeJSON(w, http.StatusBadRequest, map[string]string{
				"code":    "InvalidQuery",
				"message": "expected two lng,lat pairs",
			})
			return
		}

		meters := geo.Distance(points[0][1], points[0][0], points[1][1], points[1][0])
		route := osrmRoute{
			Distance: meters,
			Duration: meters / 1000 / speed * 3600,
		}
		log.Info("route", "profile", profile, "meters", meters)
		writeJSON(w, http.StatusOK, map[string]any{
			"code":   "Ok",
			"routes": []osrmRoute{route},
		})
	}
}

// parseCoords parses "lng,lat;lng,lat".
func parseCoords(s string) ([][2]float64, error) {
	var points [][2]float64
	for part := range strings.SplitSeq(s, ";") {
		lngStr, latStr, ok := strings.Cut(part, ",")
		if !ok {
			return nil, fmt.Errorf("malformed coordinate %q", part)
		}
		lng, err := strconv.ParseFloat(lngStr, 64)
		if err != nil {
			return nil, err
		}
		lat, err := strconv.ParseFloat(latStr, 64)
		if err != nil {
			return nil, err
		}
		points = append(points, [2]float64{lng, lat})
	}
	return points, nil
}

// notifyHandler accepts Discord and generic webhook payloads.
func notifyHandler(log *slog.Logger, notifications *sink) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var payload json.RawMessage
		if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON"})
			return
		}
		n := notifications.add(payload)
		log.Info("notification received", "bytes", len(payload), "total", n)
		w.WriteHeader(http.StatusNoContent)
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,gosec // best-effort write to HTTP response in mock server
	json.NewEncoder(w).Encode(v)
}
