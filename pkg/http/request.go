package http

import (
	"net/http"
	"strconv"

	"slotwise/pkg/config"
	apperrors "slotwise/pkg/errors"
)

func ExtractLimitOffset(r *http.Request) (int, int64, error) {
	query := r.URL.Query()

	limit := 0
	if s := query.Get("limit"); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid limit parameter: " + s)
		}
		limit = v
	}

	var offset int64 = 0
	if s := query.Get("offset"); s != "" {
		v, err := strconv.ParseInt(s, 10, 64)
		if err != nil {
			return 0, 0, apperrors.InvalidInput("invalid offset parameter: " + s)
		}
		offset = v
	}

	limit = config.NormalizePaginationLimit(limit)
	offset = config.NormalizeOffset(offset)

	return limit, offset, nil
}

// HostID resolves the acting host from the host_id query parameter,
// falling back to the configured default when absent.
func HostID(r *http.Request, fallback string) string {
	if id := r.URL.Query().Get("host_id"); id != "" {
		return id
	}
	return fallback
}
