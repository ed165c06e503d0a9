// Package address suggests places for free-text address input.
package address

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"frontend/internal/domain"

	"github.com/tidwall/gjson"
)

const maxCandidates = 5

// Candidate is one suggested place.
type Candidate struct {
	Label string  `json:"label"`
	Lat   float64 `json:"lat"`
	Lon   float64 `json:"lon"`
}

// Service searches places matching text.
type Service interface {
	Search(ctx context.Context, text string) ([]Candidate, error)
}

// Noop never suggests anything. Used when no geocoder is configured.
type Noop struct{}

func (Noop) Search(ctx context.Context, text string) ([]Candidate, error) {
	return []Candidate{}, nil
}

// HTTPService queries a Nominatim-style endpoint: GET <url>?q=<text>&format=json,
// answering with an array of {display_name, lat, lon}.
type HTTPService struct {
	URL    string
	Client *http.Client
}

func NewHTTPService(endpoint string, timeout time.Duration) HTTPService {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return HTTPService{URL: endpoint, Client: &http.Client{Timeout: timeout}}
}

func (s HTTPService) client() *http.Client {
	if s.Client != nil {
		return s.Client
	}
	return http.DefaultClient
}

func (s HTTPService) Search(ctx context.Context, text string) ([]Candidate, error) {
	text = strings.TrimSpace(text)
	if len([]rune(text)) < 3 {
		return []Candidate{}, nil
	}

	q := url.Values{}
	q.Set("q", text)
	q.Set("format", "json")
	q.Set("limit", fmt.Sprint(maxCandidates))
	sep := "?"
	if strings.Contains(s.URL, "?") {
		sep = "&"
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.URL+sep+q.Encode(), nil)
	if err != nil {
		return nil, domain.InternalError{Msg: "build geocoder request", Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.client().Do(req)
	if err != nil {
		return nil, domain.RemoteError{Msg: "address lookup unavailable", Err: err}
	}
	defer resp.Body.Close()
	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, domain.RemoteError{Msg: "address lookup unavailable", Err: err}
	}
	if resp.StatusCode/100 != 2 {
		return nil, domain.RemoteError{Status: resp.StatusCode, Msg: "address lookup failed"}
	}
	if !gjson.ValidBytes(body) {
		return nil, domain.RemoteError{Msg: "address lookup returned malformed data"}
	}

	out := []Candidate{}
	gjson.ParseBytes(body).ForEach(func(_, v gjson.Result) bool {
		label := strings.TrimSpace(v.Get("display_name").String())
		if label == "" {
			return true
		}
		out = append(out, Candidate{Label: label, Lat: v.Get("lat").Float(), Lon: v.Get("lon").Float()})
		return len(out) < maxCandidates
	})
	return out, nil
}
