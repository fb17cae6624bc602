package resource

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var ErrFetch = errors.New("resource fetch failed")

// Fetcher downloads the body behind an opaque URL.
type Fetcher interface {
	Fetch(ctx context.Context, url string) ([]byte, error)
}

// Cache stores fetched bodies keyed by URL.
type Cache interface {
	Get(url string) ([]byte, bool)
	Save(url string, data []byte)
}

type HTTPFetcher struct {
	Client  *http.Client
	Cache   Cache
	MaxSize int64
}

var _ Fetcher = &HTTPFetcher{}

// Failed responses may carry {"success": false, "error": "..."}.
type failureBody struct {
	Success *bool  `json:"success"`
	Error   string `json:"error"`
}

func NewHTTPFetcher(timeout time.Duration, cache Cache) *HTTPFetcher {
	return &HTTPFetcher{
		Client:  &http.Client{Timeout: timeout},
		Cache:   cache,
		MaxSize: 256 << 20,
	}
}

func (f *HTTPFetcher) Fetch(ctx context.Context, url string) ([]byte, error) {
	ctx, span := otel.Tracer("resource").Start(ctx, "resource.fetch")
	defer span.End()
	span.SetAttributes(attribute.String("resource.url", url))

	if f.Cache != nil {
		if data, ok := f.Cache.Get(url); ok {
			span.SetAttributes(attribute.Bool("resource.cached", true))
			return data, nil
		}
	}

	data, err := f.get(ctx, url)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("resource.bytes", len(data)))

	if f.Cache != nil {
		f.Cache.Save(url, data)
	}
	return data, nil
}

func (f *HTTPFetcher) get(ctx context.Context, url string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: create request: %v", ErrFetch, err)
	}

	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFetch, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, f.MaxSize+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read body: %v", ErrFetch, err)
	}
	if int64(len(body)) > f.MaxSize {
		return nil, fmt.Errorf("%w: body exceeds %d bytes", ErrFetch, f.MaxSize)
	}

	if resp.StatusCode != http.StatusOK {
		var fb failureBody
		if json.Unmarshal(body, &fb) == nil && fb.Error != "" {
			return nil, fmt.Errorf("%w: status %d: %s", ErrFetch, resp.StatusCode, fb.Error)
		}
		return nil, fmt.Errorf("%w: status %d", ErrFetch, resp.StatusCode)
	}

	// some servers answer 200 with an explicit failure envelope
	var fb failureBody
	if json.Unmarshal(body, &fb) == nil && fb.Success != nil && !*fb.Success {
		return nil, fmt.Errorf("%w: %s", ErrFetch, fb.Error)
	}
	return body, nil
}
