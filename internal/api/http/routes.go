package httpapi

import (
	"context"
	"errors"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/airemonte/termica-bot/internal/forecast"
	"github.com/airemonte/termica-bot/internal/meteo"
)

var validate = validator.New()

// ForecastBuilder renders forecast tables for a set of locations.
type ForecastBuilder interface {
	BuildForecasts(ctx context.Context, locs []meteo.NamedLocation, horizonDays int) []string
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, builder ForecastBuilder) {
	v1 := app.Group("/api/v1")

	v1.Get("/forecast", func(c *fiber.Ctx) error {
		var req forecastQuery
		if err := req.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		if err := validate.Struct(req); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		loc := meteo.NamedLocation{Coord: meteo.Coordinate{Lat: req.Lat, Lon: req.Lon}}
		tables := builder.BuildForecasts(c.UserContext(), []meteo.NamedLocation{loc}, req.Days)

		return c.JSON(fiber.Map{
			"location": loc.Coord,
			"days":     req.Days,
			"tables":   tables,
		})
	})
}

// forecastQuery holds query parameters for the forecast endpoint.
type forecastQuery struct {
	Lat  float64 `validate:"gte=-90,lte=90"`
	Lon  float64 `validate:"gte=-180,lte=180"`
	Days int     `validate:"min=1,max=4"`
}

func (q *forecastQuery) bind(c *fiber.Ctx) error {
	latStr := c.Query("lat")
	lonStr := c.Query("lon")
	if latStr == "" || lonStr == "" {
		return errors.New("lat and lon query parameters are required")
	}

	lat, err := strconv.ParseFloat(latStr, 64)
	if err != nil {
		return errors.New("invalid lat value")
	}
	lon, err := strconv.ParseFloat(lonStr, 64)
	if err != nil {
		return errors.New("invalid lon value")
	}
	q.Lat = lat
	q.Lon = lon

	q.Days = forecast.DefaultHorizonDays
	if daysStr := c.Query("days"); daysStr != "" {
		days, err := strconv.Atoi(daysStr)
		if err != nil {
			return errors.New("invalid days value")
		}
		q.Days = days
	}
	return nil
}
