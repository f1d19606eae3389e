// Package api - HTTP-Client fuer den subword Server.
// Dieses Modul enthaelt die Client-Struktur, do() und alle API-Methoden.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"runtime"
	"strconv"

	"github.com/ollama/subword/envconfig"
	"github.com/ollama/subword/version"
)

// Client encapsulates client state for interacting with the subword
// service. Use [ClientFromEnvironment] to create new Clients.
type Client struct {
	base *url.URL
	http *http.Client
}

func checkError(resp *http.Response, body []byte) error {
	if resp.StatusCode < http.StatusBadRequest {
		return nil
	}

	apiError := StatusError{StatusCode: resp.StatusCode, Status: resp.Status}
	if err := json.Unmarshal(body, &apiError); err != nil {
		apiError.ErrorMessage = string(body)
	}
	return apiError
}

// ClientFromEnvironment creates a new [Client] for the host in SUBWORD_HOST.
func ClientFromEnvironment() (*Client, error) {
	return &Client{
		base: envconfig.Host(),
		http: http.DefaultClient,
	}, nil
}

func NewClient(base *url.URL, http *http.Client) *Client {
	return &Client{
		base: base,
		http: http,
	}
}

func (c *Client) do(ctx context.Context, method, path string, reqData, respData any) error {
	var reqBody io.Reader
	if reqData != nil {
		data, err := json.Marshal(reqData)
		if err != nil {
			return err
		}
		reqBody = bytes.NewReader(data)
	}

	request, err := http.NewRequestWithContext(ctx, method, c.base.JoinPath(path).String(), reqBody)
	if err != nil {
		return err
	}

	request.Header.Set("Content-Type", "application/json")
	request.Header.Set("Accept", "application/json")
	request.Header.Set("User-Agent", fmt.Sprintf("subword/%s (%s %s) Go/%s", version.Version, runtime.GOARCH, runtime.GOOS, runtime.Version()))

	respObj, err := c.http.Do(request)
	if err != nil {
		return err
	}
	defer respObj.Body.Close()

	respBody, err := io.ReadAll(respObj.Body)
	if err != nil {
		return err
	}

	if err := checkError(respObj, respBody); err != nil {
		return err
	}

	if len(respBody) > 0 && respData != nil {
		if err := json.Unmarshal(respBody, respData); err != nil {
			return err
		}
	}
	return nil
}

// Encode encodes every input text.
func (c *Client) Encode(ctx context.Context, req *EncodeRequest) (*EncodeResponse, error) {
	var resp EncodeResponse
	if err := c.do(ctx, http.MethodPost, "/api/encode", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Decode turns ids back into text.
func (c *Client) Decode(ctx context.Context, req *DecodeRequest) (*DecodeResponse, error) {
	var resp DecodeResponse
	if err := c.do(ctx, http.MethodPost, "/api/decode", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Mask encodes and masks a text for masked language modeling.
func (c *Client) Mask(ctx context.Context, req *MaskRequest) (*MaskResponse, error) {
	var resp MaskResponse
	if err := c.do(ctx, http.MethodPost, "/api/mask", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Batch encodes texts into a padded batch with attention mask.
func (c *Client) Batch(ctx context.Context, req *BatchRequest) (*BatchResponse, error) {
	var resp BatchResponse
	if err := c.do(ctx, http.MethodPost, "/api/batch", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Token looks up a single vocabulary entry.
func (c *Client) Token(ctx context.Context, id int32) (*TokenResponse, error) {
	var resp TokenResponse
	if err := c.do(ctx, http.MethodGet, "/api/vocab/"+strconv.Itoa(int(id)), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Show summarizes the served model.
func (c *Client) Show(ctx context.Context) (*ShowResponse, error) {
	var resp ShowResponse
	if err := c.do(ctx, http.MethodGet, "/api/show", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Heartbeat checks if the server has started and is responsive.
func (c *Client) Heartbeat(ctx context.Context) error {
	return c.do(ctx, http.MethodHead, "/", nil, nil)
}

// Version returns the subword version of the server.
func (c *Client) Version(ctx context.Context) (string, error) {
	var version struct {
		Version string `json:"version"`
	}
	if err := c.do(ctx, http.MethodGet, "/api/version", nil, &version); err != nil {
		return "", err
	}
	return version.Version, nil
}
