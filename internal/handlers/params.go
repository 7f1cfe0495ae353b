package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/diewo77/quincaillerie/httpx"
	"github.com/diewo77/quincaillerie/internal/services"
	"github.com/diewo77/quincaillerie/validation"
)

const dateLayout = "2006-01-02"

// Date accepts either a calendar date or an RFC 3339 timestamp.
type Date struct{ time.Time }

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := parseTime(s)
	if err != nil {
		return err
	}
	d.Time = t
	return nil
}

func parseTime(s string) (time.Time, error) {
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, nil
	}
	return time.ParseInLocation(dateLayout, s, time.Local)
}

// queryParams collects typed query-string values and reports bad ones as violations.
type queryParams struct {
	r *http.Request
	v validation.Violations
}

func newQuery(r *http.Request) *queryParams {
	return &queryParams{r: r, v: validation.Violations{}}
}

func (q *queryParams) str(name string) string {
	return strings.TrimSpace(q.r.URL.Query().Get(name))
}

func (q *queryParams) id(name string) uint {
	s := q.str(name)
	if s == "" {
		return 0
	}
	n, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		q.v[name] = "invalid_value"
		return 0
	}
	return uint(n)
}

func (q *queryParams) flag(name string) bool {
	s := q.str(name)
	if s == "" {
		return false
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		q.v[name] = "invalid_value"
	}
	return b
}

func (q *queryParams) intPtr(name string) *int {
	s := q.str(name)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		q.v[name] = "invalid_value"
		return nil
	}
	return &n
}

func (q *queryParams) date(name string) *time.Time {
	s := q.str(name)
	if s == "" {
		return nil
	}
	t, err := parseTime(s)
	if err != nil {
		q.v[name] = "invalid_date"
		return nil
	}
	return &t
}

// err writes a 400 and returns true when any parameter was malformed.
func (q *queryParams) err(w http.ResponseWriter) bool {
	if q.v.Empty() {
		return false
	}
	httpx.JSONError(w, http.StatusBadRequest, "invalid_input", q.v)
	return true
}

func page(r *http.Request) (services.Page, httpx.Page) {
	p := httpx.ParsePage(r)
	return services.Page{Limit: p.Limit, Offset: p.Offset}, p
}

func writeList[T any](w http.ResponseWriter, items []T, total int64, p httpx.Page) {
	if items == nil {
		items = []T{}
	}
	httpx.JSON(w, http.StatusOK, httpx.ListResponse[T]{Items: items, Total: total, Limit: p.Limit, Offset: p.Offset})
}
