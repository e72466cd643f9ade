package api

import (
	"encoding/json/v2"
	"net/http"
	"strconv"

	"github.com/bookhavenapp/bookhaven-server/internal/http/response"
	"github.com/bookhavenapp/bookhaven-server/internal/search"
	"github.com/bookhavenapp/bookhaven-server/internal/store/sqlite"
	"github.com/bookhavenapp/bookhaven-server/internal/util"
)

// decodeBody unmarshals a JSON request body into dst, writing a 400 on
// malformed input.
func (s *Server) decodeBody(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.UnmarshalRead(r.Body, dst); err != nil {
		response.BadRequest(w, "Invalid request body", s.logger.Logger)
		return false
	}
	return true
}

// parseBookFilter reads list-books query parameters. Bad numbers are
// treated as absent.
func parseBookFilter(r *http.Request) sqlite.BookFilter {
	q := r.URL.Query()
	filter := sqlite.BookFilter{
		Category: q.Get("category"),
		Author:   q.Get("author"),
	}
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		filter.Limit = limit
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil && offset > 0 {
		filter.Offset = offset
	}
	return filter
}

// parseSearchParams reads catalog-search query parameters. The category
// is slugified so callers may pass either display names or slugs.
func parseSearchParams(r *http.Request) search.Params {
	q := r.URL.Query()
	params := search.DefaultParams()
	params.Query = q.Get("q")
	params.CategorySlug = util.Slugify(q.Get("category"))
	if limit, err := strconv.Atoi(q.Get("limit")); err == nil && limit > 0 {
		params.Limit = limit
	}
	if offset, err := strconv.Atoi(q.Get("offset")); err == nil && offset > 0 {
		params.Offset = offset
	}
	return params
}
