// Package api is the HTTP client for the remote diagnostic and account
// services. All remote failures are opaque to callers: a non-2xx status, an
// unreachable host and a malformed response body all surface as a plain
// error for the calling layer to categorize.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/mrsinham/pancrascan/internal/records"
)

// DefaultServerURL is the development address of the diagnostic service.
const DefaultServerURL = "http://localhost:5000"

// Client talks to the remote services over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient creates a client for the given server base URL.
func NewClient(baseURL string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: 60 * time.Second},
	}
}

// PredictRequest is the multipart payload for one scan submission.
type PredictRequest struct {
	Username  string
	Name      string
	Age       int
	Sex       string
	PatientID string
	Symptoms  string
	Filename  string
	File      []byte
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Username string `json:"username"`
}

// Login verifies credentials and returns the canonical username from the
// service.
func (c *Client) Login(ctx context.Context, username, password string) (string, error) {
	var out loginResponse
	err := c.postJSON(ctx, "/login", credentials{Username: username, Password: password}, &out)
	if err != nil {
		return "", err
	}
	if out.Username == "" {
		return "", fmt.Errorf("login response carried no username")
	}
	return out.Username, nil
}

// Signup requests account creation.
func (c *Client) Signup(ctx context.Context, username, password string) error {
	return c.postJSON(ctx, "/signup", credentials{Username: username, Password: password}, nil)
}

// Predict submits a scan with its patient metadata and returns the resulting
// diagnostic record.
func (c *Client) Predict(ctx context.Context, pr PredictRequest) (records.Record, error) {
	body := &bytes.Buffer{}
	mw := multipart.NewWriter(body)

	fw, err := mw.CreateFormFile("file", pr.Filename)
	if err != nil {
		return records.Record{}, fmt.Errorf("building upload: %w", err)
	}
	if _, err := fw.Write(pr.File); err != nil {
		return records.Record{}, fmt.Errorf("building upload: %w", err)
	}

	fields := map[string]string{
		"username":   pr.Username,
		"name":       pr.Name,
		"age":        strconv.Itoa(pr.Age),
		"sex":        pr.Sex,
		"patient_id": pr.PatientID,
		"symptoms":   pr.Symptoms,
	}
	for name, value := range fields {
		if err := mw.WriteField(name, value); err != nil {
			return records.Record{}, fmt.Errorf("building upload: %w", err)
		}
	}
	if err := mw.Close(); err != nil {
		return records.Record{}, fmt.Errorf("building upload: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/predict", body)
	if err != nil {
		return records.Record{}, err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	var rec records.Record
	if err := c.do(req, &rec); err != nil {
		return records.Record{}, err
	}
	return rec, nil
}

// History retrieves all records scoped to the given username, in the order
// the service returns them.
func (c *Client) History(ctx context.Context, username string) ([]records.Record, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/history/"+username, nil)
	if err != nil {
		return nil, err
	}

	var recs []records.Record
	if err := c.do(req, &recs); err != nil {
		return nil, err
	}
	return recs, nil
}

// postJSON sends a JSON body and optionally decodes a JSON response.
func (c *Client) postJSON(ctx context.Context, path string, in, out any) error {
	buf := &bytes.Buffer{}
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req, out)
}

// do executes a request, turns any status >= 400 into an error carrying the
// body text, and decodes the response when out is non-nil.
func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		payload, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, strings.TrimSpace(string(payload)))
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decoding response: %w", err)
	}
	return nil
}
