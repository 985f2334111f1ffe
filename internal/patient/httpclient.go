package patient

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"patient-portal/backend/internal/patient/domain"
)

const defaultTimeout = 10 * time.Second

// HTTPClient looks up patient contact data over the hospital's patient API.
type HTTPClient struct {
	BaseURL    string
	APIKey     string
	HTTPClient *http.Client
}

// NewHTTPClient returns a client for the patient-contact service. timeout
// bounds each lookup; zero or negative falls back to 10s.
func NewHTTPClient(baseURL, apiKey string, timeout time.Duration) *HTTPClient {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &HTTPClient{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

type contactResponse struct {
	Mobile    string `json:"mobile"`
	Email     string `json:"email"`
	FullName  string `json:"fullName"`
	HistoryID string `json:"historyId"`
}

// GetContact fetches contact data for the document. Returns (nil, nil) when
// the upstream answers 404; errors otherwise on transport or non-200 status.
func (c *HTTPClient) GetContact(ctx context.Context, docTypeCode, docNumber string) (*domain.Contact, error) {
	if c.BaseURL == "" {
		return nil, fmt.Errorf("patient: base URL not configured")
	}
	u := fmt.Sprintf("%s/patients/contact?docType=%s&docNumber=%s",
		c.BaseURL, url.QueryEscape(docTypeCode), url.QueryEscape(docNumber))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	if c.APIKey != "" {
		req.Header.Set("Authorization", c.APIKey)
	}
	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusNotFound {
		return nil, nil
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("patient: lookup failed status=%d", resp.StatusCode)
	}
	var body contactResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, err
	}
	return &domain.Contact{
		Mobile:    body.Mobile,
		Email:     body.Email,
		FullName:  body.FullName,
		HistoryID: body.HistoryID,
	}, nil
}
