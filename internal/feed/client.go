package feed

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/hashicorp/go-retryablehttp"

	"github.com/moxiedata/affiliate-ledger/internal/config"
)

const (
	requestTimeout = 30 * time.Second
	maxRetries     = 3
)

// TransportError reports a remote call that failed at the HTTP level: a
// network error or a non-2xx response. Retries happen inside the HTTP
// client; once a TransportError surfaces, the run is over.
type TransportError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("feed: %s: unexpected status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("feed: %s: %v", e.Op, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// Client calls the publisher API for a single country account.
type Client struct {
	http    *retryablehttp.Client
	baseURL string
	creds   config.Credentials
}

// NewClient builds a feed client for one publisher account. Retry and
// timeout policy live here, in the HTTP client, not in the callers.
func NewClient(baseURL string, creds config.Credentials) *Client {
	rc := retryablehttp.NewClient()
	rc.RetryMax = maxRetries
	rc.HTTPClient.Timeout = requestTimeout
	rc.Logger = nil

	return &Client{
		http:    rc,
		baseURL: baseURL,
		creds:   creds,
	}
}

// Transactions fetches the full snapshot of transactions validated on the
// given UTC day. It returns both the decoded records and the raw response
// body, so the raw extract can be archived before any transformation.
func (c *Client) Transactions(ctx context.Context, day time.Time) ([]Transaction, []byte, error) {
	endpoint := fmt.Sprintf("%s/publishers/%s/transactions/", c.baseURL, c.creds.UserID)

	params := url.Values{}
	params.Set("startDate", day.Format("2006-01-02")+"T00:00:00")
	params.Set("endDate", day.Format("2006-01-02")+"T23:59:59")
	params.Set("timezone", "UTC")
	params.Set("dateType", "validation")
	params.Set("showBasketProducts", "true")
	params.Set("accessToken", c.creds.AccessToken)

	body, err := c.get(ctx, "transactions", endpoint, params)
	if err != nil {
		return nil, nil, err
	}

	var records []Transaction
	if err := json.Unmarshal(body, &records); err != nil {
		return nil, nil, fmt.Errorf("feed: decoding transactions: %w", err)
	}

	return records, body, nil
}

// ProgrammeDetails looks up the advertiser programme for an advertiser ID.
// A 2xx response is returned as-is even when programmeInfo is absent;
// interpreting that is the resolver's job, not a transport concern.
func (c *Client) ProgrammeDetails(ctx context.Context, advertiserID string) (*ProgrammeDetails, error) {
	endpoint := fmt.Sprintf("%s/publishers/%s/programmedetails", c.baseURL, c.creds.UserID)

	params := url.Values{}
	params.Set("advertiserId", advertiserID)
	params.Set("accessToken", c.creds.AccessToken)

	body, err := c.get(ctx, "programmedetails", endpoint, params)
	if err != nil {
		return nil, err
	}

	var details ProgrammeDetails
	if err := json.Unmarshal(body, &details); err != nil {
		return nil, fmt.Errorf("feed: decoding programme details: %w", err)
	}

	return &details, nil
}

func (c *Client) get(ctx context.Context, op, endpoint string, params url.Values) ([]byte, error) {
	req, err := retryablehttp.NewRequestWithContext(ctx, http.MethodGet, endpoint+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("feed: building %s request: %w", op, err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &TransportError{Op: op, StatusCode: resp.StatusCode}
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Op: op, Err: err}
	}

	return body, nil
}
