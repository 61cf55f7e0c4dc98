package httpapi

import (
	"errors"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/station-health/internal/collector"
	"github.com/i474232898/station-health/internal/health"
	"github.com/i474232898/station-health/internal/store"
)

var validate = validator.New()

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service *collector.Service, units *health.UnitTable) {
	v1 := app.Group("/api/v1")

	v1.Get("/records/latest", func(c *fiber.Ctx) error {
		rec, err := service.GetLatest(c.UserContext())
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no health records yet")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch health record")
		}

		return c.JSON(rec)
	})

	v1.Get("/records", func(c *fiber.Ctx) error {
		var req rangeQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		records, err := service.GetRange(c.UserContext(), req.From, req.To)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return fiber.NewError(fiber.StatusNotFound, "no health records for requested range")
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to fetch health records")
		}

		return c.JSON(fiber.Map{
			"from":    req.From,
			"to":      req.To,
			"records": records,
		})
	})

	v1.Get("/schema", func(c *fiber.Ctx) error {
		columns := make([]columnInfo, 0, len(health.Schema))
		for _, col := range health.Schema {
			info := columnInfo{
				Name:  col.Name,
				Type:  col.Kind.String(),
				Group: col.Group,
				Label: col.Label,
			}
			if units != nil {
				if u, ok := units.UnitOf(col.Name); ok {
					info.Unit = &u
				}
			}
			columns = append(columns, info)
		}
		return c.JSON(fiber.Map{"columns": columns})
	})
}

type columnInfo struct {
	Name  string       `json:"name"`
	Type  string       `json:"type"`
	Group string       `json:"group"`
	Label string       `json:"label"`
	Unit  *health.Unit `json:"unit,omitempty"`
}

// rangeQuery holds query parameters for the records endpoint.
type rangeQuery struct {
	From time.Time `validate:"required"`
	To   time.Time `validate:"required,gtefield=From"`
}

func (q *rangeQuery) bind(c *fiber.Ctx) error {
	fromStr := c.Query("from")
	toStr := c.Query("to")
	if fromStr == "" || toStr == "" {
		return errors.New("from and to query parameters are required")
	}

	from, err := parseTime(fromStr)
	if err != nil {
		return err
	}
	to, err := parseTime(toStr)
	if err != nil {
		return err
	}

	q.From = from
	q.To = to
	return nil
}

// parseTime tries to parse either RFC3339 or Unix seconds.
func parseTime(s string) (time.Time, error) {
	if ts, err := time.Parse(time.RFC3339, s); err == nil {
		return ts, nil
	}
	if unix, err := strconv.ParseInt(s, 10, 64); err == nil {
		return time.Unix(unix, 0).UTC(), nil
	}
	return time.Time{}, errors.New("invalid time format; use RFC3339 or unix seconds")
}
