// Package client talks to the food backend REST API. Every response is a
// {code, data} envelope; any code other than 200 is an application error.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strings"
)

type HTTPClient interface {
	Do(req *http.Request) (*http.Response, error)
}

// Uploader stores an image and returns its public URL.
type Uploader interface {
	UploadImage(ctx context.Context, filename, contentType string, r io.Reader) (string, error)
}

type Envelope struct {
	Code int             `json:"code"`
	Data json.RawMessage `json:"data"`
}

// ErrTransport wraps failures to reach the backend or read its response.
var ErrTransport = errors.New("api: transport failure")

type APIError struct {
	Code int
	Data json.RawMessage
}

func (e *APIError) Error() string {
	var msg string
	if json.Unmarshal(e.Data, &msg) == nil && msg != "" {
		return fmt.Sprintf("api: code %d: %s", e.Code, msg)
	}
	return fmt.Sprintf("api: code %d", e.Code)
}

const uploadPath = "/upload/"

type Client struct {
	baseURL string
	http    HTTPClient
}

func New(baseURL string, httpClient HTTPClient) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
	}
}

func collectionPath(resource string) string {
	return "/" + url.PathEscape(resource) + "/"
}

func recordPath(resource, id string) string {
	return "/" + url.PathEscape(resource) + "/" + url.PathEscape(id)
}

// List returns the raw data array of a list endpoint.
func (c *Client) List(ctx context.Context, resource string, params url.Values) (json.RawMessage, error) {
	path := collectionPath(resource)
	if len(params) > 0 {
		path += "?" + params.Encode()
	}
	return c.doJSON(ctx, http.MethodGet, path, nil)
}

func (c *Client) Get(ctx context.Context, resource, id string) (map[string]any, error) {
	data, err := c.doJSON(ctx, http.MethodGet, recordPath(resource, id), nil)
	if err != nil {
		return nil, err
	}
	var record map[string]any
	if err := json.Unmarshal(data, &record); err != nil {
		return nil, fmt.Errorf("%w: decode %s %s: %v", ErrTransport, resource, id, err)
	}
	return record, nil
}

func (c *Client) Create(ctx context.Context, resource string, payload map[string]any) (json.RawMessage, error) {
	return c.doJSON(ctx, http.MethodPost, collectionPath(resource), payload)
}

func (c *Client) Update(ctx context.Context, resource, id string, payload map[string]any) (json.RawMessage, error) {
	return c.doJSON(ctx, http.MethodPut, recordPath(resource, id), payload)
}

func (c *Client) Delete(ctx context.Context, resource, id string) error {
	_, err := c.doJSON(ctx, http.MethodDelete, recordPath(resource, id), nil)
	return err
}

// UploadImage posts the image as the multipart field "image". The envelope
// data is the stored image URL.
func (c *Client) UploadImage(ctx context.Context, filename, contentType string, r io.Reader) (string, error) {
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)

	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="image"; filename=%q`, filename))
	if contentType != "" {
		header.Set("Content-Type", contentType)
	}
	part, err := mw.CreatePart(header)
	if err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	if _, err := io.Copy(part, r); err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("upload image: %w", err)
	}

	data, err := c.do(ctx, http.MethodPost, uploadPath, &body, mw.FormDataContentType())
	if err != nil {
		return "", err
	}
	var imageURL string
	if err := json.Unmarshal(data, &imageURL); err != nil {
		return "", fmt.Errorf("%w: decode upload response: %v", ErrTransport, err)
	}
	return imageURL, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, payload any) (json.RawMessage, error) {
	if payload == nil {
		return c.do(ctx, method, path, nil, "")
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
	}
	return c.do(ctx, method, path, bytes.NewReader(body), "application/json")
}

func (c *Client) do(ctx context.Context, method, path string, body io.Reader, contentType string) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("build %s %s: %w", method, path, err)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %s %s: %v", ErrTransport, method, path, err)
	}
	defer resp.Body.Close()

	var env Envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("%w: %s %s: status %d: %v", ErrTransport, method, path, resp.StatusCode, err)
	}
	if env.Code != http.StatusOK {
		return nil, &APIError{Code: env.Code, Data: env.Data}
	}
	return env.Data, nil
}
