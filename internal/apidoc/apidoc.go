// Package apidoc serves the OpenAPI description of the REST surface.
package apidoc

import (
	"context"
	_ "embed"
	"fmt"
	"net/http"

	"github.com/brizzai/social-connect/internal/logger"
	"github.com/getkin/kin-openapi/openapi3"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

//go:embed openapi.yaml
var document []byte

// Load parses and validates the embedded document
func Load(ctx context.Context) (*openapi3.T, error) {
	loader := openapi3.NewLoader()
	doc, err := loader.LoadFromData(document)
	if err != nil {
		return nil, fmt.Errorf("failed to parse OpenAPI document: %w", err)
	}
	if err := doc.Validate(ctx); err != nil {
		return nil, fmt.Errorf("invalid OpenAPI document: %w", err)
	}
	return doc, nil
}

// Handler serves doc as JSON
func Handler(doc *openapi3.T) (http.Handler, error) {
	body, err := doc.MarshalJSON()
	if err != nil {
		return nil, fmt.Errorf("failed to encode OpenAPI document: %w", err)
	}
	logger.Debug("OpenAPI document ready", zap.Int("paths", doc.Paths.Len()))

	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write(body)
	}), nil
}

// Module provides the validated OpenAPI document
var Module = fx.Module("apidoc",
	fx.Provide(func() (*openapi3.T, error) {
		return Load(context.Background())
	}),
)
