package tools

import (
	"context"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/transcript-mcp/internal/config"
	"github.com/Epistemic-Technology/transcript-mcp/internal/datestamp"
	"github.com/Epistemic-Technology/transcript-mcp/internal/logger"
	"github.com/Epistemic-Technology/transcript-mcp/models"
)

type TranscriptDateQuery struct {
	Filename string `json:"filename" jsonschema:"filename containing the conference date as YYYYMMDD"`
	Format   string `json:"format,omitempty" jsonschema:"output format used to name the document: pdf, docx or txt"`
}

type TranscriptDateResponse struct {
	Date           models.DateStamp `json:"date"`
	OutputFilename string           `json:"output_filename"`
}

func TranscriptDateTool() *mcp.Tool {
	inputschema, err := jsonschema.For[TranscriptDateQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "transcript-date",
		Description: "Read the conference date from a transcript filename and show the output document name it would get, without processing the PDF.",
		InputSchema: inputschema,
	}
}

func TranscriptDateToolHandler(ctx context.Context, req *mcp.CallToolRequest, query TranscriptDateQuery, defaultFormat models.OutputFormat, log logger.Logger) (*mcp.CallToolResult, *TranscriptDateResponse, error) {
	log.Info("transcript-date tool called")

	date, err := datestamp.Extract(query.Filename)
	if err != nil {
		return nil, nil, err
	}

	format := models.OutputFormat(query.Format)
	if format == "" {
		format = defaultFormat
	}
	if err := config.ValidateFormat(format); err != nil {
		return nil, nil, err
	}

	return nil, &TranscriptDateResponse{
		Date:           date,
		OutputFilename: datestamp.OutputFilename(date, string(format)),
	}, nil
}
