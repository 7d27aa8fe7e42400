package preview

import (
	"errors"
	"fmt"
	"log"

	"github.com/gofiber/fiber/v2"

	"github.com/team-educhange/gibo-api/services"
	"github.com/team-educhange/gibo-api/services/lockfile"
	"github.com/team-educhange/gibo-api/services/preview"
	"github.com/team-educhange/gibo-api/utils/response"
)

// PreviewHandler exposes the shared preview slot pool
type PreviewHandler struct {
	limiter *preview.Limiter
}

func NewPreviewHandler(limiter *preview.Limiter) *PreviewHandler {
	return &PreviewHandler{limiter: limiter}
}

// AcquireSlot handles POST /api/v1/preview/slots
//
// Rendering a record preview is memory heavy, so the pool is capped. A full
// pool answers 429 with the queue position and a wait estimate instead of
// holding the request open.
func (h *PreviewHandler) AcquireSlot(c *fiber.Ctx) error {
	slot, err := h.limiter.TryAcquireSlot(c.Context())
	if err != nil {
		if errors.Is(err, lockfile.ErrWaitBudgetExceeded) {
			return response.TooManyRequests(c, services.MsgBusy)
		}
		log.Printf("Preview: failed to acquire slot: %v", err)
		return response.InternalServerError(c, "")
	}

	if !slot.Granted {
		return c.Status(fiber.StatusTooManyRequests).JSON(response.Response{
			Success: false,
			Message: fmt.Sprintf("현재 제출자가 많아 잠시후 다시 시도해주세요. 현재 대기 인원: %d/%d",
				slot.Position, slot.Capacity),
			Data: fiber.Map{
				"queue_position":         slot.Position,
				"capacity":               slot.Capacity,
				"estimated_wait_seconds": slot.EstimatedWaitSeconds(),
			},
		})
	}

	return response.Success(c, fiber.Map{
		"granted":  true,
		"position": slot.Position,
		"capacity": slot.Capacity,
	})
}

// ReleaseSlot handles DELETE /api/v1/preview/slots
func (h *PreviewHandler) ReleaseSlot(c *fiber.Ctx) error {
	if err := h.limiter.ReleaseSlot(c.Context()); err != nil {
		if errors.Is(err, lockfile.ErrWaitBudgetExceeded) {
			return response.TooManyRequests(c, services.MsgBusy)
		}
		log.Printf("Preview: failed to release slot: %v", err)
		return response.InternalServerError(c, "")
	}
	return response.Success(c, fiber.Map{"released": true})
}
