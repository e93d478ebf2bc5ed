// Package vlc drives a VLC instance through its HTTP RC interface and
// exposes it as a playback engine.
package vlc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// Client talks to /requests/status.json.
type Client struct {
	baseURL  string
	http     *http.Client
	username string
	password string
}

// Status is the subset of VLC status used by spotd.
type Status struct {
	State       string      `json:"state"`
	Time        int64       `json:"time"`
	Length      int64       `json:"length"`
	Volume      int         `json:"volume"`
	Random      bool        `json:"random"`
	Repeat      bool        `json:"repeat"`
	Loop        bool        `json:"loop"`
	CurrentPLID int64       `json:"currentplid"`
	Information information `json:"information"`
}

type information struct {
	Category struct {
		Meta Meta `json:"meta"`
	} `json:"category"`
}

// Meta holds the current item's tags.
type Meta struct {
	Title       string `json:"title"`
	Artist      string `json:"artist"`
	Album       string `json:"album"`
	AlbumArtist string `json:"album_artist"`
	TrackNumber string `json:"track_number"`
	DiscNumber  string `json:"disc_number"`
	Filename    string `json:"filename"`
	ShowName    string `json:"showName"`
	Description string `json:"description"`
}

// Meta returns the current item's tags.
func (s Status) Meta() Meta {
	return s.Information.Category.Meta
}

// NewClient creates a VLC HTTP RC client.
func NewClient(baseURL string, username string, password string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("base_url required")
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	if timeout == 0 {
		timeout = 5 * time.Second
	}
	return &Client{
		baseURL:  strings.TrimRight(baseURL, "/"),
		http:     &http.Client{Timeout: timeout},
		username: username,
		password: password,
	}, nil
}

// Status fetches the player status.
func (c *Client) Status(ctx context.Context) (Status, error) {
	payload, err := c.request(ctx, nil)
	if err != nil {
		return Status{}, err
	}
	var status Status
	if err := json.Unmarshal(payload, &status); err != nil {
		return Status{}, fmt.Errorf("invalid vlc status: %w", err)
	}
	return status, nil
}

// Command runs a single status.json command such as pl_next.
func (c *Client) Command(ctx context.Context, name string) error {
	_, err := c.request(ctx, url.Values{"command": []string{name}})
	return err
}

func (c *Client) request(ctx context.Context, values url.Values) ([]byte, error) {
	endpoint := c.baseURL + "/requests/status.json"
	if len(values) > 0 {
		endpoint = endpoint + "?" + values.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	if c.username != "" || c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	body, readErr := io.ReadAll(resp.Body)
	if resp.StatusCode >= 400 {
		msg := strings.TrimSpace(string(body))
		if msg == "" {
			msg = resp.Status
		}
		return nil, fmt.Errorf("vlc error: %s", msg)
	}
	if readErr != nil {
		return nil, fmt.Errorf("read vlc response: %w", readErr)
	}
	return body, nil
}
