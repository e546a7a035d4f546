package storage

import (
	"errors"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service) {
	r.Get("/:id", func(c *fiber.Ctx) error {
		data, contentType, err := svc.Open(c.Context(), c.Params("id"))
		if errors.Is(err, ErrObjectNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "image not found")
		}
		if errors.Is(err, ErrUnavailable) {
			return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		c.Set(fiber.HeaderContentType, contentType)
		c.Set(fiber.HeaderCacheControl, "public, max-age=86400")
		return c.Send(data)
	})
}
