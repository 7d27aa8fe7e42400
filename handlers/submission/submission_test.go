package submission

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gofiber/fiber/v2"

	"github.com/team-educhange/gibo-api/services"
	"github.com/team-educhange/gibo-api/utils/response"
)

func newTestApp() *fiber.App {
	// The gate's collaborators are never reached: validation rejects the
	// request before Submit runs.
	gate := services.NewSubmissionService(nil, nil, nil, nil, nil, nil, 0)
	handler := NewSubmissionHandler(gate, nil, nil)

	app := fiber.New()
	app.Post("/api/v1/submissions", handler.Submit)
	return app
}

func TestSubmitIncompleteFormListsMissingFields(t *testing.T) {
	app := newTestApp()

	var body bytes.Buffer
	form := multipart.NewWriter(&body)
	if err := form.WriteField("user_id", "teacher01"); err != nil {
		t.Fatalf("WriteField failed: %v", err)
	}
	if err := form.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	req := httptest.NewRequest("POST", "/api/v1/submissions", &body)
	req.Header.Set("Content-Type", form.FormDataContentType())

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, fiber.StatusBadRequest)
	}

	var got response.Response
	if err := json.NewDecoder(resp.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Success {
		t.Error("Success = true for rejected submission")
	}
	if got.Error == nil {
		t.Fatal("Error detail missing")
	}
	if got.Error.Code != "VALIDATION_ERROR" {
		t.Errorf("Error.Code = %q, want VALIDATION_ERROR", got.Error.Code)
	}
	if got.Error.Message != services.MsgMissingFields {
		t.Errorf("Error.Message = %q, want %q", got.Error.Message, services.MsgMissingFields)
	}
	if !strings.Contains(got.Error.Details, "Name is required") {
		t.Errorf("Details = %q, want mention of the missing name", got.Error.Details)
	}
	if !strings.Contains(got.Error.Details, "Files") {
		t.Errorf("Details = %q, want mention of the missing files", got.Error.Details)
	}
}

func TestSubmitNonMultipartBodyRejected(t *testing.T) {
	app := newTestApp()

	req := httptest.NewRequest("POST", "/api/v1/submissions", strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")

	resp, err := app.Test(req)
	if err != nil {
		t.Fatalf("app.Test failed: %v", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != fiber.StatusBadRequest {
		t.Fatalf("status = %d, want %d", resp.StatusCode, fiber.StatusBadRequest)
	}
}
