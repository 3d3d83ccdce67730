package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/leadrail/leadrail/internal/model"
	"github.com/leadrail/leadrail/internal/service"
	"github.com/leadrail/leadrail/internal/store"
)

// writeJSON serializes v as JSON and writes it to the response with the given
// HTTP status code. The Content-Type header is set to application/json.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

// writeError writes a structured error response using the standard error
// envelope. The optional ctx map provides additional context fields.
func writeError(w http.ResponseWriter, code int, message string, ctx ...map[string]interface{}) {
	var ctxMap map[string]interface{}
	if len(ctx) > 0 {
		ctxMap = ctx[0]
	}
	writeJSON(w, code, model.ErrorResponse{
		Error: model.ErrorDetail{
			Code:    code,
			Message: message,
			Context: ctxMap,
		},
	})
}

// writeStoreError maps store sentinels to HTTP responses. Anything that is
// not a known sentinel is treated as an internal error: the raw cause goes to
// the log only, never to the caller.
func writeStoreError(w http.ResponseWriter, logger *slog.Logger, err error, subject string) {
	switch {
	case errors.Is(err, store.ErrNotFound):
		writeError(w, http.StatusNotFound, subject+" not found")
	case errors.Is(err, store.ErrConflict):
		writeError(w, http.StatusConflict, subject+" already exists")
	default:
		logger.Error("store error", "subject", subject, "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// writePolicyError maps policy denials to HTTP responses. The restriction
// gate carries a machine-readable "restricted" marker so the dashboard can
// explain the denial instead of showing a generic forbidden error.
func writePolicyError(w http.ResponseWriter, logger *slog.Logger, err error) {
	switch {
	case errors.Is(err, service.ErrRestricted):
		writeError(w, http.StatusForbidden,
			"Lead editing is restricted to the assigned admin",
			map[string]interface{}{"restricted": true})
	case errors.Is(err, service.ErrForbidden):
		writeError(w, http.StatusForbidden, "Insufficient permissions")
	default:
		logger.Error("policy evaluation error", "error", err)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}

// readJSON decodes the request body as JSON into v. The body is closed after
// decoding regardless of success or failure.
func readJSON(r *http.Request, v interface{}) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}

// queryInt extracts an integer query parameter, returning defaultVal if the
// parameter is missing or cannot be parsed.
func queryInt(r *http.Request, key string, defaultVal int) int {
	val := r.URL.Query().Get(key)
	if val == "" {
		return defaultVal
	}
	n, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return n
}

// queryTime extracts an RFC 3339 or YYYY-MM-DD query parameter. Returns nil
// when absent or malformed.
func queryTime(r *http.Request, key string) *time.Time {
	val := r.URL.Query().Get(key)
	if val == "" {
		return nil
	}
	if t, err := time.Parse(time.RFC3339, val); err == nil {
		return &t
	}
	if t, err := time.Parse("2006-01-02", val); err == nil {
		return &t
	}
	return nil
}

// pagination extracts and clamps limit/offset query parameters.
func pagination(r *http.Request) (limit, offset int) {
	limit = clampInt(queryInt(r, "limit", 50), 1, 200)
	offset = queryInt(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// logFilter builds a LogFilter from the common query parameters shared by
// the three log list endpoints.
func logFilter(r *http.Request) model.LogFilter {
	limit, offset := pagination(r)
	filter := model.LogFilter{
		From:   queryTime(r, "from"),
		To:     queryTime(r, "to"),
		Limit:  limit,
		Offset: offset,
	}
	if actorStr := r.URL.Query().Get("actor_id"); actorStr != "" {
		if actor, err := strconv.ParseInt(actorStr, 10, 64); err == nil {
			filter.ActorID = &actor
		}
	}
	return filter
}

// clientInfo extracts the caller's address and user agent for login history.
func clientInfo(r *http.Request) service.ClientInfo {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return service.ClientInfo{IP: ip, UserAgent: r.UserAgent()}
}

// pathID parses the numeric {id} segment, writing a 400 on failure.
func pathID(w http.ResponseWriter, idStr string) (int64, bool) {
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "Invalid ID: "+idStr)
		return 0, false
	}
	return id, true
}

// clampInt constrains val to be within [min, max].
func clampInt(val, min, max int) int {
	if val < min {
		return min
	}
	if val > max {
		return max
	}
	return val
}
