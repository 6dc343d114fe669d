package providers

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"

	"jirapulse/internal/config"
	"jirapulse/internal/constants"
	"jirapulse/internal/metrics"
	"jirapulse/internal/models/dtos"
)

const (
	apiPrefix      = "/rest/api/2/"
	backoffBase    = 500 * time.Millisecond
	fieldCacheKey  = "field_metadata"
	fieldCacheTTL  = 10 * time.Minute
	defaultRetries = 3
)

// JiraProvider is a rate-limited JIRA REST client. The limiter enforces a
// minimum spacing between consecutive requests per client instance; pacing is
// not coordinated across instances, since each project task owns its own
// client.
type JiraProvider struct {
	BaseURL    string
	InstanceID string

	username   string
	token      string
	client     *http.Client
	limiter    *rate.Limiter
	maxRetries int
	fieldCache *gocache.Cache
}

// NewJiraProvider builds a client for one JIRA instance using the current
// performance tunables.
func NewJiraProvider(inst config.InstanceConfig, perf config.PerformanceConfig) *JiraProvider {
	retries := perf.MaxRetries
	if retries <= 0 {
		retries = defaultRetries
	}

	pause := perf.RateLimitPause
	if pause <= 0 {
		pause = 500 * time.Millisecond
	}

	transport := &http.Transport{
		MaxIdleConns:        perf.ConnectionPoolSize,
		MaxIdleConnsPerHost: perf.ConnectionPoolSize,
		IdleConnTimeout:     90 * time.Second,
	}

	return &JiraProvider{
		BaseURL:    strings.TrimRight(inst.URL, "/"),
		InstanceID: inst.ID,
		username:   inst.Username,
		token:      inst.Token,
		client: &http.Client{
			Timeout:   perf.RequestTimeout,
			Transport: transport,
		},
		limiter:    rate.NewLimiter(rate.Every(pause), 1),
		maxRetries: retries,
		fieldCache: gocache.New(fieldCacheTTL, fieldCacheTTL),
	}
}

// GetProjects returns all projects visible to the configured credentials.
func (p *JiraProvider) GetProjects(ctx context.Context) ([]dtos.Project, error) {
	var projects []dtos.Project
	if err := p.doGET(ctx, "project", nil, &projects); err != nil {
		return nil, err
	}
	return projects, nil
}

// SearchIssues runs a JQL search for one page of issues.
func (p *JiraProvider) SearchIssues(ctx context.Context, jql string, fields []string, startAt, maxResults int, expand []string) (*dtos.SearchResult, error) {
	params := url.Values{}
	params.Set("jql", jql)
	params.Set("startAt", strconv.Itoa(startAt))
	params.Set("maxResults", strconv.Itoa(maxResults))
	if len(fields) > 0 {
		params.Set("fields", strings.Join(fields, ","))
	}
	if len(expand) > 0 {
		params.Set("expand", strings.Join(expand, ","))
	}

	var result dtos.SearchResult
	if err := p.doGET(ctx, "search", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetFieldMetadata returns the upstream field catalog, cached briefly since
// field definitions change rarely but are requested per project.
func (p *JiraProvider) GetFieldMetadata(ctx context.Context) ([]dtos.FieldMetadata, error) {
	if cached, ok := p.fieldCache.Get(fieldCacheKey); ok {
		return cached.([]dtos.FieldMetadata), nil
	}

	var meta []dtos.FieldMetadata
	if err := p.doGET(ctx, "field", nil, &meta); err != nil {
		return nil, err
	}
	p.fieldCache.Set(fieldCacheKey, meta, fieldCacheTTL)
	return meta, nil
}

// doGET performs one API call with rate limiting and retry-with-backoff on
// 429 and 5xx. Auth failures are surfaced immediately, never retried.
func (p *JiraProvider) doGET(ctx context.Context, endpoint string, params url.Values, result interface{}) error {
	reqURL := p.BaseURL + apiPrefix + strings.TrimLeft(endpoint, "/")
	if len(params) > 0 {
		reqURL += "?" + params.Encode()
	}

	var lastErr error
	for attempt := 0; attempt <= p.maxRetries; attempt++ {
		if err := p.limiter.Wait(ctx); err != nil {
			return &ProviderError{
				Code:    constants.ErrCodeNetworkError,
				Message: "request cancelled while waiting for rate limiter",
				Err:     err,
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return &ProviderError{
				Code:    constants.ErrCodeNetworkError,
				Message: "failed to create request",
				Err:     err,
			}
		}
		req.SetBasicAuth(p.username, p.token)
		req.Header.Set("Accept", "application/json")
		req.Header.Set("User-Agent", "jirapulse/1.0")

		resp, err := p.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return &ProviderError{
					Code:    constants.ErrCodeNetworkError,
					Message: "request cancelled",
					Err:     ctx.Err(),
				}
			}
			metrics.UpstreamErrors.WithLabelValues(constants.ErrCodeNetworkError, p.InstanceID).Inc()
			lastErr = &ProviderError{
				Code:    constants.ErrCodeNetworkError,
				Message: constants.GetErrorMessage(constants.ErrCodeNetworkError),
				Err:     err,
			}
			if attempt < p.maxRetries {
				sleepCtx(ctx, backoffFor(attempt))
				continue
			}
			return lastErr
		}

		done, err := p.handleResponse(ctx, resp, endpoint, attempt, result)
		if done {
			return err
		}
		lastErr = err
	}
	return lastErr
}

// handleResponse consumes one HTTP response. done=false means the caller
// should retry.
func (p *JiraProvider) handleResponse(ctx context.Context, resp *http.Response, endpoint string, attempt int, result interface{}) (done bool, err error) {
	defer resp.Body.Close()

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		if result == nil {
			io.Copy(io.Discard, resp.Body)
			return true, nil
		}
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return true, &ProviderError{
				Code:    constants.ErrCodeAPIError,
				Message: fmt.Sprintf("failed to decode response from %s", endpoint),
				Err:     err,
			}
		}
		return true, nil

	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		body, _ := io.ReadAll(resp.Body)
		metrics.UpstreamErrors.WithLabelValues(constants.ErrCodeAuthFailed, p.InstanceID).Inc()
		return true, &ProviderError{
			Code:    constants.ErrCodeAuthFailed,
			Message: fmt.Sprintf("authentication failed for %s", endpoint),
			Details: string(body),
		}

	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		io.Copy(io.Discard, resp.Body)
		metrics.UpstreamErrors.WithLabelValues(constants.ErrCodeRateLimited, p.InstanceID).Inc()
		perr := &ProviderError{
			Code:       constants.ErrCodeRateLimited,
			Message:    constants.GetErrorMessage(constants.ErrCodeRateLimited),
			RetryAfter: retryAfter,
		}
		if attempt < p.maxRetries {
			wait := backoffFor(attempt)
			if retryAfter > wait {
				wait = retryAfter
			}
			sleepCtx(ctx, wait)
			return false, perr
		}
		return true, perr

	case resp.StatusCode >= 500:
		body, _ := io.ReadAll(resp.Body)
		metrics.UpstreamErrors.WithLabelValues(constants.ErrCodeAPIError, p.InstanceID).Inc()
		perr := &ProviderError{
			Code:    constants.ErrCodeAPIError,
			Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, endpoint),
			Details: string(body),
		}
		if attempt < p.maxRetries {
			sleepCtx(ctx, backoffFor(attempt))
			return false, perr
		}
		return true, perr

	default:
		body, _ := io.ReadAll(resp.Body)
		metrics.UpstreamErrors.WithLabelValues(constants.ErrCodeAPIError, p.InstanceID).Inc()
		return true, &ProviderError{
			Code:    constants.ErrCodeAPIError,
			Message: fmt.Sprintf("HTTP %d from %s", resp.StatusCode, endpoint),
			Details: string(body),
		}
	}
}

func backoffFor(attempt int) time.Duration {
	return backoffBase * (1 << attempt)
}

func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 0
	}
	if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
		return time.Duration(secs) * time.Second
	}
	return 0
}

func sleepCtx(ctx context.Context, d time.Duration) {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
	case <-ctx.Done():
	}
}
