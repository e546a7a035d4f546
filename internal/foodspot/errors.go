package foodspot

import (
	"errors"
	"fmt"
)

var (
	ErrTooFar             = errors.New("device is too far from the food spot")
	ErrImageUpload        = errors.New("image upload failed")
	ErrNotFound           = errors.New("food spot not found")
	ErrAlreadyClosed      = errors.New("food spot is already closed")
	ErrInvalidCoordinates = errors.New("invalid coordinates")
)

// TooFarError reports the measured device-to-pin distance of a rejected creation.
type TooFarError struct {
	DistanceMeters float64
	LimitMeters    float64
}

func (e *TooFarError) Error() string {
	return fmt.Sprintf("you are too far away (%.1fm): you must be within %.0fm of the food spot", e.DistanceMeters, e.LimitMeters)
}

func (e *TooFarError) Unwrap() error { return ErrTooFar }

type ImageUploadError struct {
	Err error
}

func (e *ImageUploadError) Error() string {
	return fmt.Sprintf("image upload failed: %v", e.Err)
}

func (e *ImageUploadError) Is(target error) bool { return target == ErrImageUpload }

func (e *ImageUploadError) Unwrap() error { return e.Err }
