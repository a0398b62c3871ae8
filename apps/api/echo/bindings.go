package echoapi

import (
	"strconv"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/manitascreativas/escuela/core"
)

var orderingParam = "ordering"

type Ordering struct {
	Orderings []core.DBOrdering
}

func (ord *Ordering) Bind(ctx echo.Context) {
	data := ctx.QueryParams()
	if len(data) == 0 {
		return
	}
	val, ok := data[orderingParam]
	if !ok || len(val) == 0 || val[0] == "" {
		return
	}

	for _, field := range strings.Split(val[0], ",") {
		field = strings.TrimSpace(field)
		descending := strings.HasPrefix(field, "-")
		if descending {
			field = field[1:] // drop "-"
		}
		if field != "" {
			ord.Orderings = append(ord.Orderings, core.DBOrdering{Field: field, Ascending: !descending})
		}
	}
}

// paramID parses a positive integer path parameter.
func paramID(ctx echo.Context, name string) (int, error) {
	id, err := strconv.Atoi(ctx.Param(name))
	if err != nil || id <= 0 {
		return 0, core.NewArgumentError("invalid %s: %q", name, ctx.Param(name))
	}
	return id, nil
}

// queryInt parses an optional integer query parameter; 0 when absent.
func queryInt(ctx echo.Context, name string) (int, error) {
	raw := strings.TrimSpace(ctx.QueryParam(name))
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, core.NewArgumentError("invalid %s: %q", name, raw)
	}
	return n, nil
}

// requiredQueryInt is queryInt for parameters that must be present and positive.
func requiredQueryInt(ctx echo.Context, name string) (int, error) {
	n, err := queryInt(ctx, name)
	if err != nil {
		return 0, err
	}
	if n <= 0 {
		return 0, core.NewArgumentError("%s is required", name)
	}
	return n, nil
}

func queryBool(ctx echo.Context, name string, fallback bool) (bool, error) {
	raw := strings.TrimSpace(ctx.QueryParam(name))
	if raw == "" {
		return fallback, nil
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return false, core.NewArgumentError("invalid %s: %q", name, raw)
	}
	return b, nil
}

// queryDate accepts RFC 3339 timestamps or plain YYYY-MM-DD dates.
func queryDate(ctx echo.Context, name string) (time.Time, error) {
	raw := strings.TrimSpace(ctx.QueryParam(name))
	if raw == "" {
		return time.Time{}, core.NewArgumentError("%s is required", name)
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, raw); err == nil {
			return t, nil
		}
	}
	return time.Time{}, core.NewArgumentError("invalid %s: %q", name, raw)
}
