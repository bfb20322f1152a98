// Package share publishes export files to Cloudinary so they can be opened
// from another device.
package share

import (
	"bytes"
	"context"
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

// DefaultBaseURL is the Cloudinary API host.
const DefaultBaseURL = "https://api.cloudinary.com"

// Config holds Cloudinary credentials. Folder and BaseURL are optional.
type Config struct {
	CloudName string
	APIKey    string
	APISecret string
	Folder    string
	BaseURL   string
}

// Client uploads raw assets through the Cloudinary upload API.
type Client struct {
	cfg  Config
	http *http.Client
	now  func() time.Time
}

// New creates a Cloudinary client.
func New(cfg Config) *Client {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	return &Client{
		cfg:  cfg,
		http: &http.Client{Timeout: 30 * time.Second},
		now:  time.Now,
	}
}

// Result is the part of the upload response we use.
type Result struct {
	PublicID  string `json:"public_id"`
	SecureURL string `json:"secure_url"`
	Bytes     int    `json:"bytes"`
	Version   int64  `json:"version"`
}

// Upload stores data as a raw asset named publicID, replacing an earlier
// upload with the same name.
func (c *Client) Upload(ctx context.Context, publicID string, data []byte) (*Result, error) {
	params := url.Values{}
	params.Set("public_id", publicID)
	params.Set("overwrite", "true")
	params.Set("timestamp", strconv.FormatInt(c.now().Unix(), 10))
	if c.cfg.Folder != "" {
		params.Set("folder", c.cfg.Folder)
	}
	params.Set("signature", signature(params, c.cfg.APISecret))
	params.Set("api_key", c.cfg.APIKey)

	body, contentType, err := multipartBody(params, publicID, data)
	if err != nil {
		return nil, fmt.Errorf("share: build form: %w", err)
	}
	endpoint := fmt.Sprintf("%s/v1_1/%s/raw/upload", strings.TrimRight(c.cfg.BaseURL, "/"), url.PathEscape(c.cfg.CloudName))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("share: %w", err)
	}
	req.Header.Set("Content-Type", contentType)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("share: upload request: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("share: read response: %w", err)
	}
	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("share: upload rejected (%d): %s", resp.StatusCode, bytes.TrimSpace(raw))
	}
	var res Result
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("share: decode response: %w", err)
	}
	return &res, nil
}

func multipartBody(params url.Values, filename string, data []byte) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	keys := make([]string, 0, len(params))
	for k := range params {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := mw.WriteField(k, params.Get(k)); err != nil {
			return nil, "", err
		}
	}
	fw, err := mw.CreateFormFile("file", filename)
	if err != nil {
		return nil, "", err
	}
	if _, err := fw.Write(data); err != nil {
		return nil, "", err
	}
	if err := mw.Close(); err != nil {
		return nil, "", err
	}
	return &buf, mw.FormDataContentType(), nil
}

// signature is sha1 over the sorted, unescaped "k=v&..." form of every
// non-empty signable param, followed by the API secret.
func signature(params url.Values, secret string) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		switch k {
		case "api_key", "file", "resource_type", "signature":
			continue
		}
		if params.Get(k) != "" {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	var sb strings.Builder
	for i, k := range keys {
		if i > 0 {
			sb.WriteByte('&')
		}
		sb.WriteString(k + "=" + params.Get(k))
	}
	sum := sha1.Sum([]byte(sb.String() + secret))
	return hex.EncodeToString(sum[:])
}
