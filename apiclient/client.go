// Package apiclient is an HTTP client of the ballot node API.
package apiclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"time"

	"go.vocdoni.io/ballot/api"
	"go.vocdoni.io/ballot/log"
)

const (
	// HTTPGET is the method string used for calling Request()
	HTTPGET = http.MethodGet
	// HTTPPOST is the method string used for calling Request()
	HTTPPOST = http.MethodPost

	// DefaultTimeout bounds the requests, submissions wait for the transaction to be mined
	DefaultTimeout = 6 * time.Minute
)

// HTTPclient is the ballot API HTTP client.
type HTTPclient struct {
	c           *http.Client
	addr        *url.URL
	votingTitle string
}

// NewHTTPclient creates a new HTTP(s) API client and checks the node is reachable.
func NewHTTPclient(addr *url.URL) (*HTTPclient, error) {
	tr := &http.Transport{
		IdleConnTimeout:    10 * time.Second,
		DisableCompression: false,
		WriteBufferSize:    1 * 1024 * 1024, // 1 MiB
		ReadBufferSize:     1 * 1024 * 1024, // 1 MiB
	}
	c := &HTTPclient{
		c:    &http.Client{Transport: tr, Timeout: DefaultTimeout},
		addr: addr,
	}
	s, err := c.Session()
	if err != nil {
		return nil, err
	}
	c.votingTitle = s.VotingTitle
	return c, nil
}

// VotingTitle returns the election title reported by the node.
func (c *HTTPclient) VotingTitle() string {
	return c.votingTitle
}

// Request performs a `method` type raw request to the endpoint specified in urlPath parameter.
// Method is either GET or POST. If POST, a JSON struct should be attached. Returns the response,
// the status code and an error.
func (c *HTTPclient) Request(method string, jsonBody interface{}, urlPath ...string) ([]byte, int, error) {
	var body []byte
	if jsonBody != nil {
		var err error
		if body, err = json.Marshal(jsonBody); err != nil {
			return nil, 0, err
		}
	}
	u, err := url.Parse(c.addr.String())
	if err != nil {
		return nil, 0, err
	}
	u.Path = path.Join("/", u.Path, path.Join(urlPath...))
	log.Debugf("%s %s", method, u)
	req, err := http.NewRequest(method, u.String(), bytes.NewReader(body))
	if err != nil {
		return nil, 0, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("User-Agent", "Ballot API client / 1.0")
	resp, err := c.c.Do(req)
	if err != nil {
		return nil, 0, err
	}
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, err
	}
	return data, resp.StatusCode, nil
}

// do sends the request and decodes a successful response into out.
func (c *HTTPclient) do(method string, jsonBody, out interface{}, urlPath ...string) error {
	data, status, err := c.Request(method, jsonBody, urlPath...)
	if err != nil {
		return err
	}
	if status < 200 || status >= 300 {
		return newError(status, data)
	}
	if out == nil || status == http.StatusNoContent {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("cannot decode response: %w", err)
	}
	return nil
}

// Error is a failed request.
type Error struct {
	Status int
	Body   api.Error
}

func (e *Error) Error() string {
	if e.Body.Kind == "" {
		return fmt.Sprintf("API server returned status %d", e.Status)
	}
	return fmt.Sprintf("%s: %s", e.Body.Kind, e.Body.Message)
}

func newError(status int, data []byte) error {
	e := &Error{Status: status}
	if err := json.Unmarshal(data, &e.Body); err != nil {
		e.Body.Message = string(data)
	}
	return e
}
