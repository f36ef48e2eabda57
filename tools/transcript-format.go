package tools

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/google/jsonschema-go/jsonschema"
	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/Epistemic-Technology/transcript-mcp/internal/documents"
	"github.com/Epistemic-Technology/transcript-mcp/internal/logger"
	"github.com/Epistemic-Technology/transcript-mcp/internal/operations"
	"github.com/Epistemic-Technology/transcript-mcp/models"
)

// Formatter runs the formatting pipeline for one upload.
type Formatter interface {
	Process(ctx context.Context, req models.TranscriptRequest) (*models.TranscriptResult, error)
}

type TranscriptFormatQuery struct {
	Filename  string `json:"filename,omitempty" jsonschema:"original filename; must contain the date as YYYYMMDD, e.g. (20250328)会見録.pdf"`
	ZoteroID  string `json:"zotero_id,omitempty" jsonschema:"Zotero attachment key of the transcript PDF"`
	URL       string `json:"url,omitempty" jsonschema:"URL of the transcript PDF"`
	RawData   []byte `json:"raw_data,omitempty" jsonschema:"the transcript PDF bytes"`
	Format    string `json:"format,omitempty" jsonschema:"output format: pdf, docx or txt"`
	OutputDir string `json:"output_dir,omitempty" jsonschema:"directory to write the formatted document to"`
}

type TranscriptFormatResponse struct {
	Filename    string           `json:"filename"`
	Format      string           `json:"format"`
	ContentType string           `json:"content_type"`
	Document    []byte           `json:"document"`
	Path        string           `json:"path,omitempty"`
	Text        string           `json:"text"`
	Date        models.DateStamp `json:"date"`
	PageCount   int              `json:"page_count"`
	ChunkCount  int              `json:"chunk_count"`
}

func TranscriptFormatTool() *mcp.Tool {
	inputschema, err := jsonschema.For[TranscriptFormatQuery](nil)
	if err != nil {
		panic(err)
	}
	return &mcp.Tool{
		Name:        "transcript-format",
		Description: "Format a governor's press-conference transcript PDF for publication. The cover page is dropped, the text is proofread in chunks by OpenAI, and the result is rendered as PDF, DOCX or plain text named after the conference date (e.g. 2025.3.28知事記者会見.pdf). Provide the PDF as raw_data, url or zotero_id; the filename must contain the date as YYYYMMDD.",
		InputSchema: inputschema,
	}
}

func TranscriptFormatToolHandler(ctx context.Context, req *mcp.CallToolRequest, query TranscriptFormatQuery, formatter Formatter, creds documents.ZoteroCredentials, log logger.Logger) (*mcp.CallToolResult, *TranscriptFormatResponse, error) {
	log.Info("transcript-format tool called")

	data := query.RawData
	filename := query.Filename
	if len(data) == 0 {
		fetched, sourceName, err := documents.GetData(ctx, models.SourceInfo{ZoteroID: query.ZoteroID, URL: query.URL}, creds)
		if err != nil {
			log.Error("transcript-format tool failed to fetch PDF: %v", err)
			return nil, nil, fmt.Errorf("failed to fetch PDF data: %w", err)
		}
		data = fetched
		if filename == "" {
			filename = sourceName
		}
	}
	if filename == "" {
		return nil, nil, errors.New("filename is required to determine the conference date")
	}

	result, err := formatter.Process(ctx, models.TranscriptRequest{
		Filename: filename,
		Data:     data,
		Format:   models.OutputFormat(query.Format),
	})
	if err != nil {
		log.Error("transcript-format tool failed: %v", err)
		return nil, nil, fmt.Errorf("%s: %w", operations.UserMessage(err), err)
	}

	response := &TranscriptFormatResponse{
		Filename:    result.Filename,
		Format:      string(result.Format),
		ContentType: result.ContentType,
		Document:    result.Document,
		Text:        result.Text,
		Date:        result.Date,
		PageCount:   result.PageCount,
		ChunkCount:  result.ChunkCount,
	}

	if query.OutputDir != "" {
		path := filepath.Join(query.OutputDir, result.Filename)
		if err := os.WriteFile(path, result.Document, 0644); err != nil {
			log.Error("transcript-format tool failed to write %s: %v", path, err)
			return nil, nil, fmt.Errorf("failed to write output: %w", err)
		}
		log.Info("Wrote %s", path)
		response.Path = path
	}

	return nil, response, nil
}
