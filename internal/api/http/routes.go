package httpapi

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/team-weather/internal/dashboard"
	"github.com/i474232898/team-weather/internal/registry"
	"github.com/i474232898/team-weather/internal/search"
	"github.com/i474232898/team-weather/internal/weather"
)

var validate = validator.New()

// ErrorHandler renders every error as {"error": true, "message": ...}.
func ErrorHandler(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	var e *fiber.Error
	if errors.As(err, &e) {
		code = e.Code
	}
	return c.Status(code).JSON(fiber.Map{
		"error":   true,
		"message": err.Error(),
	})
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, d *dashboard.Dashboard) {
	v1 := app.Group("/api/v1")

	v1.Get("/locations", func(c *fiber.Ctx) error {
		return c.JSON(d.Roster())
	})

	v1.Post("/locations", func(c *fiber.Ctx) error {
		var req weather.SearchResult
		if err := bindJSON(c, &req); err != nil {
			return err
		}

		loc, err := d.AddLocation(c.UserContext(), req)
		if err != nil {
			return writeError(err, "failed to add location")
		}
		return c.Status(fiber.StatusAccepted).JSON(loc)
	})

	v1.Patch("/locations/:id", func(c *fiber.Ctx) error {
		var req renameRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}

		if err := d.RenameMember(c.UserContext(), c.Params("id"), req.Member); err != nil {
			return writeError(err, "failed to rename member")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Delete("/locations/:id", func(c *fiber.Ctx) error {
		if err := d.RemoveLocation(c.UserContext(), c.Params("id")); err != nil {
			return writeError(err, "failed to remove location")
		}
		return c.SendStatus(fiber.StatusNoContent)
	})

	v1.Get("/weather", func(c *fiber.Ctx) error {
		unit := weather.ParseUnit(c.Query("unit"))
		return c.JSON(fiber.Map{
			"unit":  unit,
			"cards": d.Cards(unit),
		})
	})

	v1.Post("/weather/refresh", func(c *fiber.Ctx) error {
		d.Refresh()
		return c.SendStatus(fiber.StatusAccepted)
	})

	v1.Get("/ambient", func(c *fiber.Ctx) error {
		return c.JSON(d.Ambient())
	})

	v1.Get("/search", func(c *fiber.Ctx) error {
		return c.JSON(searchView(d.Search()))
	})

	v1.Put("/search", func(c *fiber.Ctx) error {
		var req queryRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		d.Search().SetQuery(req.Query)
		return c.JSON(searchView(d.Search()))
	})

	v1.Post("/search/select", func(c *fiber.Ctx) error {
		var req selectRequest
		if err := bindJSON(c, &req); err != nil {
			return err
		}
		if err := d.Search().Select(*req.Index); err != nil {
			if errors.Is(err, search.ErrNoSuchResult) {
				return fiber.NewError(fiber.StatusNotFound, err.Error())
			}
			return fiber.NewError(fiber.StatusInternalServerError, "failed to select result")
		}
		return c.SendStatus(fiber.StatusAccepted)
	})

	v1.Get("/notice", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"message": d.Notice()})
	})

	v1.Delete("/notice", func(c *fiber.Ctx) error {
		d.DismissNotice()
		return c.SendStatus(fiber.StatusNoContent)
	})
}

type renameRequest struct {
	Member string `json:"member" validate:"max=64"`
}

type queryRequest struct {
	Query string `json:"query" validate:"max=128"`
}

type selectRequest struct {
	Index *int `json:"index" validate:"required,gte=0"`
}

func bindJSON(c *fiber.Ctx, out any) error {
	if err := c.BodyParser(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if err := validate.Struct(out); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}
	return nil
}

func writeError(err error, fallback string) error {
	switch {
	case errors.Is(err, registry.ErrLocationNotFound):
		return fiber.NewError(fiber.StatusNotFound, "location not found")
	case errors.Is(err, registry.ErrWriteFailed):
		return fiber.NewError(fiber.StatusBadGateway, fallback)
	default:
		return fiber.NewError(fiber.StatusInternalServerError, fallback)
	}
}

func searchView(s *search.Controller) fiber.Map {
	return fiber.Map{
		"query":   s.Query(),
		"state":   s.State(),
		"results": s.Results(),
	}
}
