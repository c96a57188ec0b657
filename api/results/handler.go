// Package results exposes stored sizing and scheduling results over HTTP.
package results

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"

	"github.com/kilianp07/chargehub/core/model"
	"github.com/kilianp07/chargehub/infra/chart"
	"github.com/kilianp07/chargehub/infra/store"
)

type chargerResult struct {
	Type      string  `json:"type"`
	Bays      int     `json:"bays"`
	Quota     float64 `json:"quota"`
	Target    float64 `json:"target"`
	Trucks    int     `json:"trucks"`
	Served    int     `json:"served"`
	Converged bool    `json:"converged"`
	Skipped   bool    `json:"skipped"`
}

type sizingResponse struct {
	Scenario string          `json:"scenario"`
	RunID    string          `json:"run_id,omitempty"`
	Cluster  int             `json:"cluster"`
	Results  []chargerResult `json:"results"`
	Arrivals int             `json:"arrivals"`
}

type loadPoint struct {
	Step    int     `json:"step"`
	TimeMin int     `json:"time_min"`
	PowerKW float64 `json:"power_kw"`
	Price   float64 `json:"price"`
}

type siteLoadResponse struct {
	Strategy string      `json:"strategy"`
	Points   []loadPoint `json:"points"`
}

// NewRouter returns the results API. Requests below /api/scenarios must
// include an Authorization header with "Bearer <token>" when token is
// non-empty.
func NewRouter(st store.ResultStore, token string) http.Handler {
	r := mux.NewRouter()
	r.HandleFunc("/api/health", healthHandler).Methods(http.MethodGet)
	s := r.PathPrefix("/api/scenarios/{scenario}").Subrouter()
	s.Use(bearer(token))
	s.HandleFunc("/sizing", sizingHandler(st)).Methods(http.MethodGet)
	s.HandleFunc("/site-load", siteLoadHandler(st)).Methods(http.MethodGet)
	s.HandleFunc("/chart", chartHandler(st)).Methods(http.MethodGet)
	return r
}

func bearer(token string) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if token != "" && !validToken(r.Header.Get("Authorization"), token) {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// validToken compares the bearer credential in constant time.
func validToken(header, token string) bool {
	got, ok := strings.CutPrefix(header, "Bearer ")
	if !ok {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(got), []byte(token)) == 1
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func sizingHandler(st store.ResultStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rec, err := st.LoadSizing(r.Context(), mux.Vars(r)["scenario"])
		if err != nil {
			writeError(w, err)
			return
		}
		resp := sizingResponse{Scenario: rec.Scenario, RunID: rec.RunID, Cluster: rec.Hub.Cluster, Arrivals: len(rec.Arrivals)}
		for _, c := range model.ChargerTypes {
			res, ok := rec.Hub.Results[c]
			if !ok {
				continue
			}
			resp.Results = append(resp.Results, chargerResult{
				Type: c.String(), Bays: res.Bays, Quota: res.Quota, Target: res.Target,
				Trucks: res.Trucks, Served: res.Served, Converged: res.Converged, Skipped: res.Skipped,
			})
		}
		writeJSON(w, resp)
	}
}

func siteLoadHandler(st store.ResultStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		schedules, err := st.LoadSiteLoads(r.Context(), mux.Vars(r)["scenario"])
		if err != nil {
			writeError(w, err)
			return
		}
		resp := make([]siteLoadResponse, 0, len(schedules))
		for _, s := range schedules {
			out := siteLoadResponse{Strategy: s.Strategy, Points: make([]loadPoint, 0, len(s.Site))}
			for _, p := range s.Site {
				out.Points = append(out.Points, loadPoint(p))
			}
			resp = append(resp, out)
		}
		writeJSON(w, resp)
	}
}

func chartHandler(st store.ResultStore) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := mux.Vars(r)["scenario"]
		schedules, err := st.LoadSiteLoads(r.Context(), name)
		if err != nil {
			writeError(w, err)
			return
		}
		html, err := chart.SiteLoadHTML(name, schedules)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(html))
	}
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, store.ErrNotFound) {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}
	http.Error(w, err.Error(), http.StatusInternalServerError)
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
