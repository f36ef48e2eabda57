package server

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/transcript-mcp/internal/config"
	"github.com/Epistemic-Technology/transcript-mcp/internal/documents"
	"github.com/Epistemic-Technology/transcript-mcp/internal/llm"
	"github.com/Epistemic-Technology/transcript-mcp/internal/logger"
	"github.com/Epistemic-Technology/transcript-mcp/internal/operations"
	"github.com/Epistemic-Technology/transcript-mcp/models"
	"github.com/Epistemic-Technology/transcript-mcp/resources"
	"github.com/Epistemic-Technology/transcript-mcp/tools"
)

// unconfigured rejects formatting requests when the server started without
// a usable configuration; the date tool and resources still work.
type unconfigured struct {
	err error
}

func (u unconfigured) Process(context.Context, models.TranscriptRequest) (*models.TranscriptResult, error) {
	return nil, u.err
}

func CreateServer(cfg config.Config, log logger.Logger) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "transcript-mcp", Version: "v0.1.0"}, nil)

	formatter := newFormatter(cfg, log)
	creds := documents.ZoteroCredentials{APIKey: cfg.ZoteroAPIKey, LibraryID: cfg.ZoteroLibraryID}
	resourceHandler := resources.NewTranscriptResourceHandler()

	mcp.AddTool(server, tools.TranscriptFormatTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.TranscriptFormatQuery) (*mcp.CallToolResult, *tools.TranscriptFormatResponse, error) {
		return tools.TranscriptFormatToolHandler(ctx, req, query, formatter, creds, log)
	})

	mcp.AddTool(server, tools.TranscriptDateTool(), func(ctx context.Context, req *mcp.CallToolRequest, query tools.TranscriptDateQuery) (*mcp.CallToolResult, *tools.TranscriptDateResponse, error) {
		return tools.TranscriptDateToolHandler(ctx, req, query, cfg.Format, log)
	})

	for _, r := range resourceHandler.ListResources() {
		server.AddResource(r, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
			return resourceHandler.ReadResource(ctx, req.Params.URI)
		})
	}

	// Template for filename dates
	server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: resources.DateURITemplate,
		Name:        "transcript-date",
		Description: "Conference date parsed from a transcript filename",
		MIMEType:    "application/json",
	}, func(ctx context.Context, req *mcp.ReadResourceRequest) (*mcp.ReadResourceResult, error) {
		return resourceHandler.ReadResource(ctx, req.Params.URI)
	})

	return server
}

// newFormatter builds the processor shared by all tool calls, so they also
// share one rate limiter.
func newFormatter(cfg config.Config, log logger.Logger) tools.Formatter {
	if err := cfg.Validate(); err != nil {
		log.Warn("Formatting disabled: %v", err)
		return unconfigured{err: errors.Join(errors.New("server is not configured"), err)}
	}
	p, err := operations.NewProcessor(cfg, llm.NewOpenAIRewriter(cfg), log)
	if err != nil {
		log.Warn("Formatting disabled: %v", err)
		return unconfigured{err: err}
	}
	return p
}
