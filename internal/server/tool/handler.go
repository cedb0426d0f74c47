// Package tool exposes the Instagram operations as MCP tools.
package tool

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/brizzai/social-connect/internal/auth"
	"github.com/brizzai/social-connect/internal/instagram"
	"github.com/brizzai/social-connect/internal/logger"
	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"
	"go.uber.org/zap"
)

const (
	StatusToolName = "instagram_status"
	PostToolName   = "instagram_post"

	defaultFilename = "image.jpg"
)

// Handler manages tool execution and authentication.
type Handler struct {
	svc *instagram.Service
}

// NewHandler creates a new tool handler.
func NewHandler(svc *instagram.Service) *Handler {
	return &Handler{svc: svc}
}

// Register adds every tool to s
func (h *Handler) Register(s *mcpserver.MCPServer) {
	s.AddTool(StatusTool(), h.HandleStatus)
	s.AddTool(PostTool(), h.HandlePost)
}

func StatusTool() mcp.Tool {
	return mcp.NewTool(StatusToolName,
		mcp.WithDescription("Report whether the caller has a connected Instagram business account"),
	)
}

func PostTool() mcp.Tool {
	return mcp.NewTool(PostToolName,
		mcp.WithDescription("Publish an image post with a caption to the caller's connected Instagram account"),
		mcp.WithString("caption",
			mcp.Required(),
			mcp.Description("Post caption"),
		),
		mcp.WithString("image_base64",
			mcp.Required(),
			mcp.Description("Image file content, base64 encoded"),
		),
		mcp.WithString("filename",
			mcp.Description("Image file name, defaults to "+defaultFilename),
		),
		mcp.WithString("content_type",
			mcp.Description("Image MIME type, defaults to image/jpeg"),
		),
	)
}

// owner validates authentication for a tool call
func owner(ctx context.Context, toolName string) (string, *mcp.CallToolResult) {
	id, ok := auth.OwnerFromContext(ctx)
	if !ok {
		logger.Error("Failed to get auth info from context", zap.String("tool", toolName))
		return "", mcp.NewToolResultError("Unauthorized: No active user info in context")
	}
	logger.Debug("Authenticated tool call",
		zap.String("tool", toolName),
		zap.String("user", id),
	)
	return id, nil
}

func (h *Handler) HandleStatus(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, denied := owner(ctx, StatusToolName)
	if denied != nil {
		return denied, nil
	}

	status, err := h.svc.Status(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to execute %s: %w", StatusToolName, err)
	}
	return jsonResult(status)
}

func (h *Handler) HandlePost(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, denied := owner(ctx, PostToolName)
	if denied != nil {
		return denied, nil
	}

	args := request.GetArguments()
	caption := stringArg(args, "caption")

	var image *instagram.Image
	if encoded := stringArg(args, "image_base64"); encoded != "" {
		data, err := base64.StdEncoding.DecodeString(encoded)
		if err != nil {
			return mcp.NewToolResultError("image_base64 is not valid base64"), nil
		}
		filename := stringArg(args, "filename")
		if filename == "" {
			filename = defaultFilename
		}
		image = &instagram.Image{
			Filename:    filename,
			ContentType: stringArg(args, "content_type"),
			Data:        data,
		}
	}

	result, err := h.svc.Publish(ctx, id, instagram.Post{Caption: caption, Image: image})
	if err != nil {
		status, detail, ok := instagram.ErrorDetail(err)
		if !ok {
			return nil, fmt.Errorf("failed to execute %s: %w", PostToolName, err)
		}
		if status == http.StatusUnprocessableEntity {
			detail = "caption is required"
		}
		return mcp.NewToolResultError(detail), nil
	}
	return jsonResult(result)
}

func stringArg(args map[string]any, key string) string {
	v, _ := args[key].(string)
	return v
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	body, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return mcp.NewToolResultText(string(body)), nil
}
