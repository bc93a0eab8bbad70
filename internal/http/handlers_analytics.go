package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"tracker/internal/core"
)

// defaultNotificationDays is the window used when ?days is absent.
const defaultNotificationDays = 3

func (s *Server) handleAnalytics(w http.ResponseWriter, r *http.Request) {
	period, err := core.ParsePeriod(chi.URLParam(r, "period"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	query := r.URL.Query()
	year, err := optionalInt(query, "year")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	month, err := optionalInt(query, "month")
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	report, err := s.analytics.Analytics(r.Context(), userIDFrom(r), period, year, month, s.now())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toAnalyticsResponse(report))
}

func (s *Server) handleNotifications(w http.ResponseWriter, r *http.Request) {
	days, err := intOr(r.URL.Query(), "days", defaultNotificationDays)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	notifications, err := s.analytics.Notifications(r.Context(), userIDFrom(r), days, s.now())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toNotificationResponses(notifications))
}
