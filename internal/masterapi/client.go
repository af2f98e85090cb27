// Package masterapi queries the game's server listing for the number of
// players currently connected across all servers.
package masterapi

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/pkg/errors"
)

// ErrStatus is returned when the listing answers with a non-2xx status.
var ErrStatus = errors.New("master api non-2xx")

type Config struct {
	Host     string `json:"host"`
	Game     string `json:"game"`
	Protocol int    `json:"protocol"`
}

type Client struct {
	http     *http.Client
	base     string
	game     string
	protocol int
}

// Server is one entry of the listing. Only the player count is used.
type Server struct {
	Clients int `json:"clients"`
}

type ServerList struct {
	Servers []Server `json:"servers"`
}

// Total sums the clients of every server; missing fields count as 0.
func (l ServerList) Total() int {
	var n int
	for _, s := range l.Servers {
		n += s.Clients
	}
	return n
}

func NewClient(conf Config) *Client {
	return &Client{
		http:     &http.Client{Timeout: 10 * time.Second},
		base:     "https://" + conf.Host,
		game:     conf.Game,
		protocol: conf.Protocol,
	}
}

// WithBaseURL points the client at another origin, e.g. a test server.
func (c *Client) WithBaseURL(base string) *Client {
	cp := *c
	cp.base = base
	return &cp
}

func (c *Client) endpoint() string {
	return fmt.Sprintf("%s/v1/servers/%s?protocol=%s",
		c.base, url.PathEscape(c.game), strconv.Itoa(c.protocol))
}

// PlayerCount fetches the listing and returns the total number of players.
func (c *Client) PlayerCount(ctx context.Context) (int, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.endpoint(), nil)
	if err != nil {
		return 0, errors.Wrap(err, "build request")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, errors.Wrap(err, "get servers")
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		return 0, errors.Wrapf(ErrStatus, "status %d", resp.StatusCode)
	}
	return Decode(resp.Body)
}

// Decode reads a listing document and returns its total player count.
func Decode(r io.Reader) (int, error) {
	var list ServerList
	if err := json.NewDecoder(r).Decode(&list); err != nil {
		return 0, errors.Wrap(err, "decode servers")
	}
	return list.Total(), nil
}
