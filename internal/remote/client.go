// Package remote is the HTTP client for the analysis backend: job
// descriptions, applications and CV analysis.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/khrees2412/careerflow/internal/apperr"
	"github.com/khrees2412/careerflow/internal/logger"
	"github.com/khrees2412/careerflow/pkg/models"
)

const (
	DefaultRequestTimeout  = 15 * time.Second
	DefaultAnalysisTimeout = 3 * time.Minute

	maxErrorBody = 4 << 10
)

// Options configures a Client. Zero values fall back to defaults.
type Options struct {
	BaseURL         string
	RequestTimeout  time.Duration
	AnalysisTimeout time.Duration
	HTTPClient      *http.Client
	Logger          logger.Logger
}

// Client talks JSON over HTTP to the backend. Every call is bounded by a
// timeout; analysis calls use a longer one than CRUD calls.
type Client struct {
	baseURL         string
	http            *http.Client
	requestTimeout  time.Duration
	analysisTimeout time.Duration
	log             logger.Logger
}

func New(opts Options) *Client {
	c := &Client{
		baseURL:         strings.TrimRight(opts.BaseURL, "/"),
		http:            opts.HTTPClient,
		requestTimeout:  opts.RequestTimeout,
		analysisTimeout: opts.AnalysisTimeout,
		log:             opts.Logger,
	}
	if c.http == nil {
		c.http = &http.Client{}
	}
	if c.requestTimeout <= 0 {
		c.requestTimeout = DefaultRequestTimeout
	}
	if c.analysisTimeout <= 0 {
		c.analysisTimeout = DefaultAnalysisTimeout
	}
	if c.log == nil {
		c.log = logger.Nop()
	}
	return c
}

// AnalysisTimeout is the deadline applied to Analyze.
func (c *Client) AnalysisTimeout() time.Duration { return c.analysisTimeout }

// Applications returns the /applications resource.
func (c *Client) Applications() *Resource[models.Application, models.ApplicationDraft, models.ApplicationPatch] {
	return &Resource[models.Application, models.ApplicationDraft, models.ApplicationPatch]{client: c, path: "/applications", name: "application"}
}

// JobDescriptions returns the /jds resource.
func (c *Client) JobDescriptions() *Resource[models.JobDescription, models.JobDescriptionDraft, models.JobDescriptionPatch] {
	return &Resource[models.JobDescription, models.JobDescriptionDraft, models.JobDescriptionPatch]{client: c, path: "/jds", name: "job description"}
}

// Resource is a REST collection supporting list, create, patch and delete.
type Resource[T, D, P any] struct {
	client *Client
	path   string
	name   string
}

func (r *Resource[T, D, P]) List(ctx context.Context) ([]T, error) {
	var out []T
	if err := r.client.doJSON(ctx, "list "+r.name+"s", http.MethodGet, r.path, nil, &out); err != nil {
		return nil, err
	}
	if out == nil {
		out = []T{}
	}
	return out, nil
}

func (r *Resource[T, D, P]) Create(ctx context.Context, draft D) (T, error) {
	var out T
	err := r.client.doJSON(ctx, "create "+r.name, http.MethodPost, r.path, draft, &out)
	return out, err
}

func (r *Resource[T, D, P]) Update(ctx context.Context, id models.ID, patch P) (T, error) {
	var out T
	err := r.client.doJSON(ctx, "update "+r.name+" "+id.String(), http.MethodPatch, r.path+"/"+id.String(), patch, &out)
	return out, err
}

func (r *Resource[T, D, P]) Delete(ctx context.Context, id models.ID) error {
	return r.client.doJSON(ctx, "delete "+r.name+" "+id.String(), http.MethodDelete, r.path+"/"+id.String(), nil, nil)
}

func (c *Client) doJSON(ctx context.Context, op, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("%s: failed to encode request: %w", op, err)
		}
		reader = bytes.NewReader(data)
	}

	ctx, cancel := context.WithTimeout(ctx, c.requestTimeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("%s: failed to build request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.send(op, req, out)
}

// send executes req and decodes a 2xx body into out when out is non-nil.
func (c *Client) send(op string, req *http.Request, out any) error {
	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Debug("request failed", logger.String("op", op), logger.Duration("elapsed", time.Since(start)), logger.Error(err))
		return apperr.Network(op, err)
	}
	defer resp.Body.Close()

	c.log.Debug("request completed",
		logger.String("op", op),
		logger.Int("status", resp.StatusCode),
		logger.Duration("elapsed", time.Since(start)),
	)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &apperr.RemoteRejectedError{Op: op, StatusCode: resp.StatusCode, Reason: errorReason(data)}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return apperr.Network(op, err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		return &apperr.ParseError{Op: op, Cause: err}
	}
	return nil
}

// errorReason extracts the server's explanation from an error body. The
// backend answers {"detail": "..."}; validation failures carry a list.
func errorReason(body []byte) string {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return ""
	}

	var envelope struct {
		Detail json.RawMessage `json:"detail"`
		Error  string          `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err == nil {
		var s string
		if len(envelope.Detail) > 0 && json.Unmarshal(envelope.Detail, &s) == nil && s != "" {
			return s
		}
		var items []struct {
			Msg string `json:"msg"`
		}
		if len(envelope.Detail) > 0 && json.Unmarshal(envelope.Detail, &items) == nil {
			msgs := make([]string, 0, len(items))
			for _, it := range items {
				if it.Msg != "" {
					msgs = append(msgs, it.Msg)
				}
			}
			if len(msgs) > 0 {
				return strings.Join(msgs, "; ")
			}
		}
		if envelope.Error != "" {
			return envelope.Error
		}
		return ""
	}

	if bytes.HasPrefix(body, []byte("<")) {
		return ""
	}
	reason := string(body)
	if len(reason) > 200 {
		reason = reason[:200]
	}
	return reason
}
