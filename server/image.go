package server

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/papercomputeco/cortex/pkg/image"
	"github.com/papercomputeco/cortex/pkg/llm"
)

// emptyDescriptionWarning is shown when the image form is submitted blank.
const emptyDescriptionWarning = "Write a description first."

type warningResponse struct {
	Warning string `json:"warning"`
}

// handleImage renders a description and returns the image bytes. The seed
// and source URL travel in headers so the page can caption the picture.
func (s *Server) handleImage(c *fiber.Ctx) error {
	var req image.Request
	if err := json.Unmarshal(c.Body(), &req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{Error: "invalid request body"})
	}

	img, err := s.panel.Generate(c.UserContext(), req)
	if err != nil {
		if errors.Is(err, image.ErrEmptyDescription) {
			return c.Status(fiber.StatusBadRequest).JSON(warningResponse{Warning: emptyDescriptionWarning})
		}

		s.logger.Warn("image generation failed", zap.Error(err))

		var fe *image.FetchError
		if errors.As(err, &fe) {
			return c.Status(fiber.StatusBadGateway).JSON(llm.ErrorResponse{Error: fe.Error()})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: err.Error()})
	}

	c.Set(fiber.HeaderContentType, img.ContentType)
	c.Set("X-Image-Seed", strconv.Itoa(img.Seed))
	c.Set("X-Image-Url", img.URL)
	return c.Send(img.Data)
}
