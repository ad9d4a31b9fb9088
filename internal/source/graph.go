package source

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"golang.org/x/oauth2/clientcredentials"
)

const graphBaseURL = "https://graph.microsoft.com/v1.0"

// GraphSource reads a worksheet's used range from an Excel workbook stored in
// OneDrive/SharePoint via the Microsoft Graph workbook API, authenticating
// with an app-only client-credentials grant.
type GraphSource struct {
	driveID       string
	fileID        string
	worksheetName string

	client  *http.Client
	baseURL string
}

// GraphCredentials identifies the Azure AD application used for app-only
// access to the drive.
type GraphCredentials struct {
	TenantID     string
	ClientID     string
	ClientSecret string
}

func NewGraphSource(ctx context.Context, creds GraphCredentials, driveID, fileID, worksheetName string) *GraphSource {
	conf := &clientcredentials.Config{
		ClientID:     creds.ClientID,
		ClientSecret: creds.ClientSecret,
		TokenURL:     fmt.Sprintf("https://login.microsoftonline.com/%s/oauth2/v2.0/token", creds.TenantID),
		Scopes:       []string{"https://graph.microsoft.com/.default"},
	}

	client := conf.Client(ctx)
	client.Timeout = 60 * time.Second

	return &GraphSource{
		driveID:       driveID,
		fileID:        fileID,
		worksheetName: worksheetName,
		client:        client,
		baseURL:       graphBaseURL,
	}
}

func (s *GraphSource) Name() string { return "ms_graph" }

func (s *GraphSource) Rows(ctx context.Context) ([][]any, error) {
	endpoint := fmt.Sprintf("%s/drives/%s/items/%s/workbook/worksheets/%s/usedRange?$select=values",
		s.baseURL, s.driveID, s.fileID, url.PathEscape(s.worksheetName))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build graph request: %w", err)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("graph request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 64<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read graph response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("graph returned %d: %s", resp.StatusCode, truncate(string(body), 500))
	}

	var payload struct {
		Values [][]any `json:"values"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to decode used range: %w", err)
	}
	return payload.Values, nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
