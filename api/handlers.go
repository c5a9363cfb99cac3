package api

import (
	"encoding/json"
	"errors"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/papercomputeco/toolbox/pkg/llm"
	"github.com/papercomputeco/toolbox/pkg/storage"
	"github.com/papercomputeco/toolbox/pkg/toolkit"
)

// StatusResponse is the body returned for malformed tool invocations.
type StatusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

// ToolsResponse lists the tools and configured providers.
type ToolsResponse struct {
	Tools     []string `json:"tools"`
	Providers []string `json:"providers"`
}

// CallsResponse is a page of ledger records, newest first.
type CallsResponse struct {
	Calls []*storage.CallRecord `json:"calls"`
	Count int                   `json:"count"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleListTools handles GET /v1/tools.
func (s *Server) handleListTools(c *fiber.Ctx) error {
	return c.JSON(ToolsResponse{
		Tools:     toolkit.Names(),
		Providers: s.kit.Providers(),
	})
}

// handleInvokeTool handles POST /v1/tools/:tool. Tool envelopes are
// returned with 200 whether or not the tool succeeded.
func (s *Server) handleInvokeTool(c *fiber.Ctx) error {
	tool := c.Params("tool")

	var in toolkit.Invocation
	if body := c.Body(); len(body) > 0 {
		if err := json.Unmarshal(body, &in); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(StatusResponse{
				Status:  "error",
				Message: "invalid request body: " + err.Error(),
			})
		}
	}

	out, err := s.kit.Invoke(c.UserContext(), toolkit.SurfaceAPI, tool, in)
	if err != nil {
		if errors.Is(err, toolkit.ErrUnknownTool) {
			return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "Tool not found"})
		}

		var inputErr *toolkit.InputError
		if errors.As(err, &inputErr) {
			return c.Status(fiber.StatusBadRequest).JSON(StatusResponse{
				Status:  "error",
				Message: inputErr.Message,
			})
		}

		s.logger.Error("tool invocation failed", "tool", tool, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(StatusResponse{
			Status:  "error",
			Message: err.Error(),
		})
	}

	return c.JSON(out)
}

// handleListCalls handles GET /v1/calls.
// Query parameters:
//   - limit (optional, default 50): number of records to return
func (s *Server) handleListCalls(c *fiber.Ctx) error {
	limit := storage.DefaultListLimit
	if limitStr := c.Query("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed <= 0 {
			return c.Status(fiber.StatusBadRequest).JSON(llm.ErrorResponse{
				Error: "limit must be a positive integer",
			})
		}
		limit = parsed
	}

	calls, err := s.ledger.List(c.UserContext(), limit)
	if err != nil {
		s.logger.Error("failed to list call records", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to list call records"})
	}

	return c.JSON(CallsResponse{Calls: calls, Count: len(calls)})
}

// handleGetCall handles GET /v1/calls/:id.
func (s *Server) handleGetCall(c *fiber.Ctx) error {
	id := c.Params("id")

	rec, err := s.ledger.Get(c.UserContext(), id)
	if err != nil {
		var notFound storage.NotFoundError
		if errors.As(err, &notFound) {
			return c.Status(fiber.StatusNotFound).JSON(llm.ErrorResponse{Error: "call record not found"})
		}
		s.logger.Error("failed to get call record", "call_id", id, "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(llm.ErrorResponse{Error: "failed to get call record"})
	}

	return c.JSON(rec)
}
