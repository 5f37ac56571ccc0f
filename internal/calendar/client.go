package calendar

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/codeGROOVE-dev/retry"
	"golang.org/x/oauth2"

	"github.com/Tiliavir/nanny-time-tracker/internal/logger"
)

const graphBaseURL = "https://graph.microsoft.com/v1.0"

// Client is an authenticated Microsoft Graph API client.
type Client struct {
	httpClient *http.Client
	baseURL    string
	attempts   uint
	delay      time.Duration
}

// NewClient returns a Graph client that refreshes tok through a and saves
// refreshed tokens.
func NewClient(ctx context.Context, a *Auth, tok *oauth2.Token) *Client {
	ts := a.config().TokenSource(ctx, tok)
	return newClient(oauth2.NewClient(ctx, &savingTokenSource{auth: a, ts: ts, log: logger.Named("calendar")}), graphBaseURL)
}

func newClient(hc *http.Client, baseURL string) *Client {
	return &Client{httpClient: hc, baseURL: baseURL, attempts: 4, delay: time.Second}
}

// Event is a Microsoft Graph calendar event.
type Event struct {
	ID          string   `json:"id"`
	Subject     string   `json:"subject"`
	BodyPreview string   `json:"bodyPreview"`
	IsAllDay    bool     `json:"isAllDay"`
	IsCancelled bool     `json:"isCancelled"`
	Sensitivity string   `json:"sensitivity"` // "normal", "personal", "private", "confidential"
	ShowAs      string   `json:"showAs"`      // "free", "tentative", "busy", "oof", "workingElsewhere", "unknown"
	Categories  []string `json:"categories"`
	Start       Instant  `json:"start"`
	End         Instant  `json:"end"`
	Location    struct {
		DisplayName string `json:"displayName"`
	} `json:"location"`
}

// Instant is Graph's dateTimeTimeZone.
type Instant struct {
	DateTime string `json:"dateTime"`
	TimeZone string `json:"timeZone"`
}

type calendarViewResponse struct {
	Value    []Event `json:"value"`
	NextLink string  `json:"@odata.nextLink"`
}

// errStatus is a non-200 Graph response.
type errStatus struct {
	code int
	body string
}

func (e *errStatus) Error() string {
	return fmt.Sprintf("graph API error %d: %s", e.code, e.body)
}

// CalendarView fetches the events in [from, to), following paging links.
// Event times come back in the zone named by tz ("" for UTC).
func (c *Client) CalendarView(ctx context.Context, from, to time.Time, tz string) ([]Event, error) {
	endpoint := fmt.Sprintf("%s/me/calendarView?startDateTime=%s&endDateTime=%s&$top=100",
		c.baseURL,
		url.QueryEscape(from.UTC().Format(time.RFC3339)),
		url.QueryEscape(to.UTC().Format(time.RFC3339)),
	)

	var all []Event
	for endpoint != "" {
		page, err := c.fetchPage(ctx, endpoint, tz)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Value...)
		endpoint = page.NextLink
	}
	return all, nil
}

// fetchPage GETs one page, retrying network failures, throttling and
// server errors.
func (c *Client) fetchPage(ctx context.Context, endpoint, tz string) (calendarViewResponse, error) {
	log := logger.Named("calendar")
	var page calendarViewResponse

	err := retry.Do(
		func() error {
			req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
			if err != nil {
				return retry.Unrecoverable(fmt.Errorf("creating request: %w", err))
			}
			req.Header.Set("Accept", "application/json")
			if tz != "" {
				req.Header.Set("Prefer", fmt.Sprintf(`outlook.timezone="%s"`, tz))
			}

			resp, err := c.httpClient.Do(req)
			if err != nil {
				var re *oauth2.RetrieveError
				if errors.As(err, &re) {
					return retry.Unrecoverable(fmt.Errorf("graph API authentication failed: %w", err))
				}
				return fmt.Errorf("graph API request failed: %w", err)
			}
			body, err := io.ReadAll(resp.Body)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("reading response body: %w", err)
			}

			switch {
			case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
				return &errStatus{code: resp.StatusCode, body: string(body)}
			case resp.StatusCode != http.StatusOK:
				return retry.Unrecoverable(&errStatus{code: resp.StatusCode, body: string(body)})
			}

			page = calendarViewResponse{}
			if err := json.Unmarshal(body, &page); err != nil {
				return retry.Unrecoverable(fmt.Errorf("decoding graph response: %w", err))
			}
			return nil
		},
		retry.Context(ctx),
		retry.Attempts(c.attempts),
		retry.Delay(c.delay),
		retry.MaxDelay(30*time.Second),
		retry.DelayType(retry.FullJitterBackoffDelay),
		retry.LastErrorOnly(true),
		retry.OnRetry(func(n uint, err error) {
			log.Info().Uint("attempt", n+1).Err(err).Msg("retrying graph request")
		}),
	)
	return page, err
}
