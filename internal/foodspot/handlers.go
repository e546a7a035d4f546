package foodspot

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v2"
)

func RegisterRoutes(r fiber.Router, svc *Service, maxImageBytes int64) {
	r.Get("/", func(c *fiber.Ctx) error {
		listings, err := svc.List(c.Context())
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(listings)
	})

	r.Get("/:id", func(c *fiber.Ctx) error {
		listing, err := svc.Get(c.Context(), c.Params("id"))
		if errors.Is(err, ErrNotFound) {
			return fiber.NewError(fiber.StatusNotFound, "food spot not found")
		}
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(listing)
	})

	r.Post("/", func(c *fiber.Ctx) error {
		req, err := parseCreateRequest(c, maxImageBytes)
		if err != nil {
			return err
		}
		listing, err := svc.Create(c.Context(), req)
		switch {
		case errors.Is(err, ErrTooFar):
			return fiber.NewError(fiber.StatusBadRequest, "Error: "+err.Error())
		case errors.Is(err, ErrImageUpload):
			return fiber.NewError(fiber.StatusInternalServerError, "Image upload failed")
		case err != nil:
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(listing)
	})

	r.Post("/:id/vote-finished", func(c *fiber.Ctx) error {
		res, err := svc.VoteFinished(c.Context(), c.Params("id"))
		switch {
		case errors.Is(err, ErrNotFound):
			return fiber.NewError(fiber.StatusNotFound, "food spot not found")
		case errors.Is(err, ErrAlreadyClosed):
			return fiber.NewError(fiber.StatusBadRequest, "Spot is already closed.")
		case err != nil:
			return fiber.NewError(fiber.StatusInternalServerError, err.Error())
		}
		return c.JSON(fiber.Map{
			"id":                res.ID,
			"verificationCount": res.VerificationCount,
			"status":            res.Status,
			"message":           fmt.Sprintf("Vote registered. Current votes: %d", res.VerificationCount),
		})
	})
}

func parseCreateRequest(c *fiber.Ctx, maxImageBytes int64) (CreateRequest, error) {
	coords := make(map[string]float64, 4)
	for _, field := range []string{"latitude", "longitude", "deviceLatitude", "deviceLongitude"} {
		v, err := strconv.ParseFloat(strings.TrimSpace(c.FormValue(field)), 64)
		if err != nil {
			return CreateRequest{}, fiber.NewError(fiber.StatusBadRequest, "latitude, longitude, deviceLatitude and deviceLongitude must be numbers")
		}
		coords[field] = v
	}
	if !ValidCoordinates(coords["latitude"], coords["longitude"]) || !ValidCoordinates(coords["deviceLatitude"], coords["deviceLongitude"]) {
		return CreateRequest{}, fiber.NewError(fiber.StatusBadRequest, ErrInvalidCoordinates.Error())
	}

	req := CreateRequest{
		Title:           c.FormValue("title"),
		Description:     c.FormValue("description"),
		Latitude:        coords["latitude"],
		Longitude:       coords["longitude"],
		DeviceLatitude:  coords["deviceLatitude"],
		DeviceLongitude: coords["deviceLongitude"],
	}

	fh, err := c.FormFile("image")
	if err != nil || fh.Size == 0 {
		return req, nil
	}
	if maxImageBytes > 0 && fh.Size > maxImageBytes {
		return CreateRequest{}, fiber.NewError(fiber.StatusRequestEntityTooLarge, "image too large")
	}
	file, err := fh.Open()
	if err != nil {
		return CreateRequest{}, fiber.NewError(fiber.StatusBadRequest, "cannot read image")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return CreateRequest{}, fiber.NewError(fiber.StatusBadRequest, "cannot read image")
	}
	req.Image = &Image{
		Data:        data,
		Filename:    fh.Filename,
		ContentType: fh.Header.Get("Content-Type"),
	}
	return req, nil
}
