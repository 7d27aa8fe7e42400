package submission

import (
	"errors"
	"io"
	"log"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/team-educhange/gibo-api/services"
	"github.com/team-educhange/gibo-api/services/preview"
	"github.com/team-educhange/gibo-api/utils/response"
	"github.com/team-educhange/gibo-api/utils/validation"
)

// SubmissionHandler exposes the submission gate over HTTP
type SubmissionHandler struct {
	submissions *services.SubmissionService
	projects    *services.ProjectService
	limiter     *preview.Limiter
	validator   *validation.Validator
}

func NewSubmissionHandler(submissions *services.SubmissionService, projects *services.ProjectService, limiter *preview.Limiter) *SubmissionHandler {
	return &SubmissionHandler{
		submissions: submissions,
		projects:    projects,
		limiter:     limiter,
		validator:   validation.NewValidator(),
	}
}

// Submit handles POST /api/v1/submissions (multipart form)
func (h *SubmissionHandler) Submit(c *fiber.Ctx) error {
	number, _ := strconv.Atoi(c.FormValue("number"))

	req := services.SubmissionRequest{
		UserID:      validation.SanitizeString(c.FormValue("user_id")),
		Grade:       validation.SanitizeString(c.FormValue("grade")),
		ClassNum:    validation.SanitizeString(c.FormValue("class_num")),
		Number:      number,
		Name:        validation.SanitizeString(c.FormValue("name")),
		ServiceName: validation.SanitizeString(c.FormValue("service_name")),
		ProjectName: validation.SanitizeString(c.FormValue("project_name")),
	}

	form, err := c.MultipartForm()
	if err != nil {
		return response.BadRequest(c, services.MsgMissingFields)
	}
	for _, header := range form.File["files"] {
		file, err := header.Open()
		if err != nil {
			return response.InternalServerError(c, "Failed to open uploaded file")
		}
		content, err := io.ReadAll(file)
		file.Close()
		if err != nil {
			return response.InternalServerError(c, "Failed to read uploaded file")
		}
		req.Files = append(req.Files, content)
	}

	if err := h.validator.ValidateStruct(req); err != nil {
		h.releasePreviewSlot(c)
		return response.ValidationError(c, services.MsgMissingFields,
			validation.FormatValidationErrors(err))
	}

	result, err := h.submissions.Submit(c.Context(), req)

	// The submit ends the preview session either way; the slot goes back to
	// the pool so the next teacher can load their upload.
	if !errors.Is(err, services.ErrBusy) {
		h.releasePreviewSlot(c)
	}

	if err != nil {
		return h.submitError(c, err)
	}

	return response.SuccessWithMessage(c, result.Message, result)
}

func (h *SubmissionHandler) releasePreviewSlot(c *fiber.Ctx) {
	if h.limiter == nil {
		return
	}
	if err := h.limiter.ReleaseSlot(c.Context()); err != nil {
		log.Printf("Submission: failed to release preview slot: %v", err)
	}
}

// submitError maps gate rejections to their fixed user-facing messages
func (h *SubmissionHandler) submitError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrBusy):
		return response.TooManyRequests(c, services.MsgBusy)
	case errors.Is(err, services.ErrMissingFields):
		return response.BadRequest(c, services.MsgMissingFields)
	case errors.Is(err, services.ErrAttemptLimit):
		return response.Forbidden(c, services.MsgAttemptLimit)
	case errors.Is(err, services.ErrInsufficientCredit),
		errors.Is(err, services.ErrUnknownUser):
		return response.Forbidden(c, services.MsgInsufficientCredit)
	case errors.Is(err, services.ErrNoProject):
		return response.NotFound(c, services.MsgNoProject)
	case errors.Is(err, services.ErrNoTemplate):
		return response.NotFound(c, services.MsgNoTemplate)
	case errors.Is(err, services.ErrEmptyContent),
		errors.Is(err, services.ErrUnreadable):
		return response.BadRequest(c, services.MsgMissingFields)
	default:
		log.Printf("Submission: unexpected failure: %v", err)
		return response.InternalServerError(c, "")
	}
}

// ListProjects handles GET /api/v1/services/:service_name/projects
func (h *SubmissionHandler) ListProjects(c *fiber.Ctx) error {
	serviceName := c.Params("service_name")
	if serviceName == "" {
		return response.BadRequest(c, "Service name is required")
	}

	names, err := h.projects.ListByService(c.Context(), serviceName)
	if err != nil {
		return response.InternalServerError(c, "Failed to list projects")
	}

	return response.Success(c, fiber.Map{"projects": names})
}
