package documents

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"

	"github.com/Epistemic-Technology/zotero/zotero"

	"github.com/Epistemic-Technology/transcript-mcp/models"
)

// ZoteroCredentials identify the library an attachment key belongs to.
type ZoteroCredentials struct {
	APIKey    string
	LibraryID string
}

// GetData retrieves transcript bytes from a URL or a Zotero attachment and
// returns them with the source's own filename, if it has one.
func GetData(ctx context.Context, sourceInfo models.SourceInfo, creds ZoteroCredentials) ([]byte, string, error) {
	var (
		data     []byte
		filename string
		err      error
	)

	if sourceInfo.ZoteroID != "" {
		data, filename, err = GetFromZotero(ctx, sourceInfo.ZoteroID, creds)
	} else if sourceInfo.URL != "" {
		data, err = GetFromURL(ctx, sourceInfo.URL)
		filename = FilenameFromURL(sourceInfo.URL)
	} else {
		return nil, "", errors.New("no data provided")
	}
	if err != nil {
		return nil, "", err
	}

	if len(data) == 0 {
		return nil, "", errors.New("no data retrieved")
	}

	return data, filename, nil
}

// GetFromURL fetches document data from a URL
func GetFromURL(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", rawURL, resp.Status)
	}
	return io.ReadAll(resp.Body)
}

// FilenameFromURL returns the unescaped last path segment of rawURL.
func FilenameFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" {
		return ""
	}
	return base
}

// GetFromZotero fetches an attachment file and its stored filename.
func GetFromZotero(ctx context.Context, zoteroID string, creds ZoteroCredentials) ([]byte, string, error) {
	if creds.APIKey == "" || creds.LibraryID == "" {
		return nil, "", errors.New("Zotero API key and library ID are required")
	}
	client := zotero.NewClient(creds.LibraryID, zotero.LibraryTypeUser, zotero.WithAPIKey(creds.APIKey))

	item, err := client.Item(ctx, zoteroID, nil)
	if err != nil {
		return nil, "", fmt.Errorf("failed to fetch Zotero item %s: %w", zoteroID, err)
	}
	if item.Data.ItemType != "attachment" {
		return nil, "", fmt.Errorf("Zotero item %s is a %s, not an attachment", zoteroID, item.Data.ItemType)
	}

	data, err := client.File(ctx, zoteroID)
	if err != nil {
		return nil, "", fmt.Errorf("failed to download Zotero attachment %s: %w", zoteroID, err)
	}
	return data, item.Data.Filename, nil
}
