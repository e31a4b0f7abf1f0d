package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
	_ "time/tzdata" // IANA zones for the tz request field

	"github.com/go-chi/chi/v5"

	"github.com/genyouth/wellness/internal/domain"
	"github.com/genyouth/wellness/internal/infra/metrics"
)

// ─── Request Types ──────────────────────────────────────────────────────────

type awardRequest struct {
	Amount *int64 `json:"amount"`
	Source string `json:"source"`
}

// activityRequest dates an activity on the caller's calendar. TZ is an IANA
// zone name; without it the server's zone decides the day.
type activityRequest struct {
	Date    string `json:"date"`
	Minutes int    `json:"minutes"`
	TZ      string `json:"tz"`
}

type challengeRequest struct {
	Delta *int `json:"delta"`
}

type checkInRequest struct {
	Tag    string `json:"tag"`
	Mood   int    `json:"mood"`
	Energy int    `json:"energy"`
	Stress int    `json:"stress"`
	Sleep  int    `json:"sleep"`
	Note   string `json:"note"`
	TZ     string `json:"tz"`
}

type deviceRequest struct {
	Token    string `json:"token"`
	Platform string `json:"platform"`
}

// ─── Health ─────────────────────────────────────────────────────────────────

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if s.health == nil {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}
	status, code := "ok", http.StatusOK
	if !s.health.IsHealthy() {
		status, code = "degraded", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": s.health.Statuses(),
	})
}

// ─── Catalog ────────────────────────────────────────────────────────────────

func (s *Server) handleContent(w http.ResponseWriter, r *http.Request) {
	kind := domain.ContentKind(domain.NormalizeTag(r.URL.Query().Get("kind")))
	switch kind {
	case "", domain.KindTrack, domain.KindActivity, domain.KindTool:
	default:
		writeError(w, http.StatusBadRequest, "unknown content kind: "+string(kind))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"content": s.matcher.ByKind(kind),
	})
}

func (s *Server) handleMoods(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"moods": s.matcher.Moods(),
	})
}

func (s *Server) handleRecommendations(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	query := q.Get("mood")
	if query == "" {
		query = q.Get("category")
	}
	if strings.TrimSpace(query) == "" {
		writeError(w, http.StatusBadRequest, "mood or category is required")
		return
	}
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items := s.matcher.Recommend(query, limit)
	result := "hit"
	if len(items) == 0 {
		result = "empty"
	}
	metrics.Recommendations.WithLabelValues(result).Inc()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":           domain.NormalizeTag(query),
		"recommendations": items,
	})
}

func (s *Server) handleCatalog(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.sessions.Definitions())
}

func (s *Server) handleResources(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	typ := domain.ResourceType(domain.NormalizeTag(q.Get("type")))
	if typ != "" && !typ.Known() {
		writeError(w, http.StatusBadRequest, "unknown resource type: "+string(typ))
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"resources": s.resources.ResourcesFor(q.Get("country"), typ),
	})
}

// ─── Progression ────────────────────────────────────────────────────────────

func (s *Server) handleProgress(w http.ResponseWriter, r *http.Request) {
	user, _ := UserID(r.Context())
	snap, err := s.sessions.Progress(r.Context(), user)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, snap)
}

func (s *Server) handlePointHistory(w http.ResponseWriter, r *http.Request) {
	user, _ := UserID(r.Context())
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	events, err := s.sessions.History(r.Context(), user, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}

func (s *Server) handleAwardPoints(w http.ResponseWriter, r *http.Request) {
	user, _ := UserID(r.Context())
	var req awardRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Amount == nil {
		writeError(w, http.StatusBadRequest, "amount is required")
		return
	}
	res, err := s.sessions.AwardPoints(r.Context(), user, *req.Amount, strings.TrimSpace(req.Source))
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleLogActivity(w http.ResponseWriter, r *http.Request) {
	user, _ := UserID(r.Context())
	var req activityRequest
	if !decodeBody(w, r, &req) {
		return
	}
	loc, ok := s.location(w, req.TZ)
	if !ok {
		return
	}
	date := s.now().In(loc)
	if req.Date != "" {
		d, err := time.ParseInLocation(time.DateOnly, req.Date, loc)
		if err != nil {
			writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
			return
		}
		date = d
	}
	res, err := s.sessions.LogActivity(r.Context(), user, date, req.Minutes)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleChallengeProgress(w http.ResponseWriter, r *http.Request) {
	user, _ := UserID(r.Context())
	var req challengeRequest
	if !decodeBody(w, r, &req) {
		return
	}
	if req.Delta == nil {
		writeError(w, http.StatusBadRequest, "delta is required")
		return
	}
	res, err := s.sessions.UpdateChallenge(r.Context(), user, chi.URLParam(r, "id"), *req.Delta)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRollover(w http.ResponseWriter, r *http.Request) {
	user, _ := UserID(r.Context())
	rolled, res, err := s.sessions.Rollover(r.Context(), user)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"rolled_over": rolled,
		"progress":    res.Snapshot,
	})
}

// ─── Mood Check-ins ─────────────────────────────────────────────────────────

func (s *Server) handleCheckIn(w http.ResponseWriter, r *http.Request) {
	user, _ := UserID(r.Context())
	var req checkInRequest
	if !decodeBody(w, r, &req) {
		return
	}
	loc, ok := s.location(w, req.TZ)
	if !ok {
		return
	}
	rec, err := s.checkins.Record(r.Context(), user, domain.CheckIn{
		Tag:    domain.MoodTag(req.Tag),
		Mood:   req.Mood,
		Energy: req.Energy,
		Stress: req.Stress,
		Sleep:  req.Sleep,
		Note:   req.Note,
	}, loc)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

func (s *Server) handleCheckInHistory(w http.ResponseWriter, r *http.Request) {
	user, _ := UserID(r.Context())
	days, err := queryInt(r, "days")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	loc, ok := s.location(w, r.URL.Query().Get("tz"))
	if !ok {
		return
	}
	h, err := s.checkins.History(r.Context(), user, days, loc)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, h)
}

// handleMyRecommendations recommends for the caller's latest check-in.
func (s *Server) handleMyRecommendations(w http.ResponseWriter, r *http.Request) {
	user, _ := UserID(r.Context())
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	latest, found, err := s.checkins.Latest(r.Context(), user)
	if err != nil {
		writeDomainError(w, err)
		return
	}

	var tag domain.MoodTag
	var basedOn *domain.CheckIn
	if found {
		tag, basedOn = latest.EffectiveTag(), &latest
	}
	items := s.matcher.Recommend(string(tag), limit)
	result := "hit"
	if len(items) == 0 {
		result = "empty"
	}
	metrics.Recommendations.WithLabelValues(result).Inc()

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"query":           tag,
		"based_on":        basedOn,
		"recommendations": items,
	})
}

// ─── Notifications ──────────────────────────────────────────────────────────

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	user, _ := UserID(r.Context())
	limit, err := queryInt(r, "limit")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	pending, err := s.notifications.Pending(r.Context(), user, limit)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	if pending == nil {
		pending = []domain.Notification{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"notifications": pending})
}

func (s *Server) handleNotificationShown(w http.ResponseWriter, r *http.Request) {
	user, _ := UserID(r.Context())
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid notification id")
		return
	}
	if err := s.notifications.MarkShown(r.Context(), user, id); err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleRegisterDevice(w http.ResponseWriter, r *http.Request) {
	user, _ := UserID(r.Context())
	var req deviceRequest
	if !decodeBody(w, r, &req) {
		return
	}
	d, err := s.notifications.RegisterDevice(r.Context(), user, req.Token, req.Platform)
	if err != nil {
		writeDomainError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, d)
}

// ─── Helpers ────────────────────────────────────────────────────────────────

// decodeBody decodes a JSON body into v. An empty body leaves v zeroed.
func decodeBody(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	err := json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v)
	if err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return false
	}
	return true
}

// location resolves an optional IANA zone name, defaulting to the server clock's zone.
func (s *Server) location(w http.ResponseWriter, name string) (*time.Location, bool) {
	if name == "" {
		return s.now().Location(), true
	}
	loc, err := time.LoadLocation(name)
	if err != nil {
		writeError(w, http.StatusBadRequest, "unknown time zone: "+name)
		return nil, false
	}
	return loc, true
}

// queryInt parses an optional non-negative integer query parameter.
func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, errors.New(name + " must be a non-negative integer")
	}
	return n, nil
}

func writeDomainError(w http.ResponseWriter, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeError(w, status, msg)
}
