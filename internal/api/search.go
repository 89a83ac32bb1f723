package api

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"

	apperrors "repairer-search/internal/common/errors"
	"repairer-search/internal/models"

	"github.com/google/uuid"
)

const (
	maxQueryRunes = 500
	sessionHeader = "X-Session-ID"
)

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := strings.TrimSpace(q.Get("q"))
	if err := checkText("q", query, true); err != nil {
		s.writeError(w, err)
		return
	}

	matchOpts, err := parseMatchOptions(q)
	if err != nil {
		s.writeError(w, err)
		return
	}

	opts := models.SearchOptions{
		MatchOptions: matchOpts,
		SessionID:    r.Header.Get(sessionHeader),
		UserID:       q.Get("userId"),
	}
	if opts.SessionID == "" {
		opts.SessionID = uuid.NewString()
	}
	w.Header().Set(sessionHeader, opts.SessionID)

	writeJSON(w, http.StatusOK, s.searcher.Search(r.Context(), query, opts))
}

func (s *Server) handleQuickSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	term := strings.TrimSpace(q.Get("term"))
	if err := checkText("term", term, true); err != nil {
		s.writeError(w, err)
		return
	}
	opts, err := parseMatchOptions(q)
	if err != nil {
		s.writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, newRepairersResponse(s.searcher.QuickSearch(r.Context(), term, q.Get("city"), opts)))
}

func (s *Server) handleSearchNearby(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lat, err := parseFloat(q, "lat", true)
	if err != nil {
		s.writeError(w, err)
		return
	}
	lng, err := parseFloat(q, "lng", true)
	if err != nil {
		s.writeError(w, err)
		return
	}
	radius, err := parseFloat(q, "radiusKm", false)
	if err != nil {
		s.writeError(w, err)
		return
	}
	minRating, err := parseFloat(q, "minRating", false)
	if err != nil {
		s.writeError(w, err)
		return
	}

	point := models.GeoPoint{Lat: lat, Lng: lng}
	if err := point.Validate(); err != nil {
		s.writeError(w, apperrors.NewInvalidSearchOptionsError(err))
		return
	}
	filters := models.NearbyFilters{Brand: q.Get("brand"), RepairType: q.Get("repairType"), MinRating: minRating}
	if err := filters.Validate(); err != nil {
		s.writeError(w, apperrors.NewInvalidSearchOptionsError(err))
		return
	}
	if math.IsNaN(radius) || radius < 0 || radius > 1000 {
		s.writeError(w, apperrors.NewInvalidSearchInputError("radiusKm must be between 0 and 1000"))
		return
	}

	writeJSON(w, http.StatusOK, newRepairersResponse(s.searcher.SearchNearby(r.Context(), lat, lng, radius, filters)))
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	partial := r.URL.Query().Get("q")
	if err := checkText("q", partial, false); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string][]string{"suggestions": s.searcher.GetSuggestions(partial)})
}

type repairersResponse struct {
	Repairers    []models.MatchedRepairer `json:"repairers"`
	TotalResults int                      `json:"totalResults"`
}

func newRepairersResponse(repairers []models.MatchedRepairer) repairersResponse {
	if repairers == nil {
		repairers = []models.MatchedRepairer{}
	}
	return repairersResponse{Repairers: repairers, TotalResults: len(repairers)}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	stdErr, ok := apperrors.AsStandardError(err)
	if !ok {
		stdErr = apperrors.NewInvalidSearchInputError(err.Error())
	}
	s.logger.Debug("request rejected", map[string]interface{}{
		"code":    stdErr.Code,
		"details": stdErr.Details,
	})
	writeJSON(w, http.StatusBadRequest, stdErr)
}

func checkText(name, value string, required bool) error {
	if required && value == "" {
		return apperrors.NewInvalidSearchInputError(fmt.Sprintf("%s is required", name))
	}
	if utf8.RuneCountInString(value) > maxQueryRunes {
		return apperrors.NewInvalidSearchInputError(fmt.Sprintf("%s exceeds %d characters", name, maxQueryRunes))
	}
	return nil
}

// parseMatchOptions reads the shared matcher options from query parameters.
func parseMatchOptions(q url.Values) (models.MatchOptions, error) {
	var opts models.MatchOptions
	var err error

	if v := q.Get("maxResults"); v != "" {
		if opts.MaxResults, err = strconv.Atoi(v); err != nil {
			return opts, apperrors.NewInvalidSearchInputError("maxResults must be an integer")
		}
	}
	if opts.MaxDistanceKm, err = parseFloat(q, "maxDistanceKm", false); err != nil {
		return opts, err
	}
	if opts.MinRating, err = parseFloat(q, "minRating", false); err != nil {
		return opts, err
	}
	if opts.OnlyVerified, err = parseBool(q, "onlyVerified"); err != nil {
		return opts, err
	}
	if opts.OnlyClaimed, err = parseBool(q, "onlyClaimed"); err != nil {
		return opts, err
	}

	if q.Has("lat") || q.Has("lng") {
		lat, err := parseFloat(q, "lat", true)
		if err != nil {
			return opts, err
		}
		lng, err := parseFloat(q, "lng", true)
		if err != nil {
			return opts, err
		}
		opts.UserLocation = &models.GeoPoint{Lat: lat, Lng: lng}
	}

	if err := opts.Validate(); err != nil {
		return opts, apperrors.NewInvalidSearchOptionsError(err)
	}
	return opts, nil
}

func parseFloat(q url.Values, name string, required bool) (float64, error) {
	v := q.Get(name)
	if v == "" {
		if required {
			return 0, apperrors.NewInvalidSearchInputError(fmt.Sprintf("%s is required", name))
		}
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, apperrors.NewInvalidSearchInputError(fmt.Sprintf("%s must be a finite number", name))
	}
	return f, nil
}

func parseBool(q url.Values, name string) (bool, error) {
	v := q.Get(name)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, apperrors.NewInvalidSearchInputError(fmt.Sprintf("%s must be a boolean", name))
	}
	return b, nil
}
