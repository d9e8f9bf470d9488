package blobstore

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

const DefaultVercelApiUrl = "https://blob.vercel-storage.com"

const vercelApiVersion = "7"

type VercelConfig struct {
	Token   string
	ApiUrl  string // optional: DefaultVercelApiUrl will be used if empty
	Timeout time.Duration
	Client  *http.Client
}

func (c VercelConfig) withDefaultValues() VercelConfig {
	if c.ApiUrl == "" {
		c.ApiUrl = DefaultVercelApiUrl
	}
	c.ApiUrl = strings.TrimRight(c.ApiUrl, "/")
	if c.Timeout == 0 {
		c.Timeout = 30 * time.Second
	}
	if c.Client == nil {
		c.Client = &http.Client{Timeout: c.Timeout}
	}
	return c
}

type ApiError struct {
	StatusCode int
	Code       string
	Message    string
}

func (e *ApiError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("blob api responded %d (%s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("blob api responded %d", e.StatusCode)
}

type VercelStore struct {
	logger zerolog.Logger
	config VercelConfig
}

func NewVercel(config *VercelConfig) *VercelStore {
	return &VercelStore{
		logger: log.With().Str("module", "blobstore").Str("submodule", "vercel").Logger(),
		config: config.withDefaultValues(),
	}
}

func (s *VercelStore) Kind() string {
	return KindVercel
}

func (s *VercelStore) List(ctx context.Context, opts ListOptions) (*ListResult, error) {
	u, err := url.Parse(s.config.ApiUrl)
	if err != nil {
		return nil, err
	}

	q := u.Query()
	if opts.Prefix != "" {
		q.Set("prefix", opts.Prefix)
	}
	if opts.Limit > 0 {
		q.Set("limit", strconv.Itoa(opts.Limit))
	}
	if opts.Cursor != "" {
		q.Set("cursor", opts.Cursor)
	}
	u.RawQuery = q.Encode()

	req, err := s.newRequest(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}

	var data struct {
		Blobs   []Blob `json:"blobs"`
		Cursor  string `json:"cursor"`
		HasMore bool   `json:"hasMore"`
	}

	if err := s.do(req, &data); err != nil {
		return nil, err
	}

	return &ListResult{
		Blobs:   data.Blobs,
		Cursor:  data.Cursor,
		HasMore: data.HasMore,
	}, nil
}

func (s *VercelStore) Put(ctx context.Context, pathname string, body []byte, contentType string) (*Blob, error) {
	u := s.config.ApiUrl + "/?pathname=" + url.QueryEscape(pathname)

	req, err := s.newRequest(ctx, http.MethodPut, u, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	req.ContentLength = int64(len(body))
	req.Header.Set("x-content-type", contentType)
	req.Header.Set("x-add-random-suffix", "0")
	req.Header.Set("x-allow-overwrite", "1")

	var data struct {
		URL      string `json:"url"`
		Pathname string `json:"pathname"`
	}

	if err := s.do(req, &data); err != nil {
		return nil, err
	}

	if data.Pathname == "" {
		data.Pathname = pathname
	}

	s.logger.Debug().
		Str("pathname", data.Pathname).
		Str("size", humanize.Bytes(uint64(len(body)))).
		Msg("blob uploaded")

	return &Blob{
		URL:        data.URL,
		Pathname:   data.Pathname,
		Size:       int64(len(body)),
		UploadedAt: time.Now(),
	}, nil
}

func (s *VercelStore) Delete(ctx context.Context, blobUrl string) error {
	payload, err := json.Marshal(map[string][]string{
		"urls": {blobUrl},
	})
	if err != nil {
		return err
	}

	req, err := s.newRequest(ctx, http.MethodPost, s.config.ApiUrl+"/delete", bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	err = s.do(req, nil)
	if apiErr, ok := err.(*ApiError); ok && apiErr.StatusCode == http.StatusNotFound {
		return nil
	}

	return err
}

func (s *VercelStore) newRequest(ctx context.Context, method, u string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return nil, err
	}

	req.Header.Set("Authorization", "Bearer "+s.config.Token)
	req.Header.Set("x-api-version", vercelApiVersion)
	return req, nil
}

func (s *VercelStore) do(req *http.Request, out interface{}) error {
	resp, err := s.config.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var data struct {
			Error struct {
				Code    string `json:"code"`
				Message string `json:"message"`
			} `json:"error"`
		}

		// error body is optional
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&data)

		return &ApiError{
			StatusCode: resp.StatusCode,
			Code:       data.Error.Code,
			Message:    data.Error.Message,
		}
	}

	if out == nil {
		_, err = io.Copy(io.Discard, resp.Body)
		return err
	}

	return json.NewDecoder(resp.Body).Decode(out)
}
