// Package codeforces fetches submissions, ratings and the problem catalog
// from the public Codeforces API.
package codeforces

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/goccy/go-json"
	"github.com/sony/gobreaker/v2"
	"golang.org/x/time/rate"

	"github.com/okian/cfcoach/internal/domain/model"
	"github.com/okian/cfcoach/internal/domain/rating"
	"github.com/okian/cfcoach/pkg/logger"
	"github.com/okian/cfcoach/pkg/metrics"
)

// Default client configuration constants.
const (
	DefaultBaseURL          = "https://codeforces.com/api"
	defaultTimeout          = 30 * time.Second
	defaultRPS              = 0.5 // the API asks for at most one call every two seconds
	defaultBreakerThreshold = 5
	defaultBreakerTimeout   = 2 * time.Minute
	breakerName             = "codeforces"
	statusOK                = "OK"
)

// API method names.
const (
	methodUserStatus       = "user.status"
	methodUserInfo         = "user.info"
	methodProblemset       = "problemset.problems"
	methodContestList      = "contest.list"
	methodContestStandings = "contest.standings"
)

// Client is the subset of the Codeforces API used by the coach.
type Client interface {
	// UserSubmissions returns the newest count submissions of handle; count <= 0 fetches all.
	UserSubmissions(ctx context.Context, handle string, count int) ([]model.Submission, error)
	// UserRating returns the current rating, or the default rating when the user is unrated.
	UserRating(ctx context.Context, handle string) (int, error)
	// Problemset returns the whole problem catalog.
	Problemset(ctx context.Context) ([]model.CatalogProblem, error)
	// ContestList returns all non-gym contests, newest first.
	ContestList(ctx context.Context) ([]model.Contest, error)
	// ContestProblems returns the problems of one contest.
	ContestProblems(ctx context.Context, contestID int) ([]model.CatalogProblem, error)
}

var _ Client = (*HTTPClient)(nil)

// HTTPClient implements Client over HTTP with a rate limiter and a circuit
// breaker. It never retries; a failed call is returned to the caller.
type HTTPClient struct {
	baseURL          string
	http             *http.Client
	timeout          time.Duration
	rps              float64
	defaultRating    int
	breakerThreshold uint32
	breakerTimeout   time.Duration

	limiter *rate.Limiter
	breaker *gobreaker.CircuitBreaker[struct{}]
	logger  logger.Logger
}

// New creates a client with configuration options.
func New(opts ...Option) *HTTPClient {
	c := &HTTPClient{
		baseURL:          DefaultBaseURL,
		http:             &http.Client{},
		timeout:          defaultTimeout,
		rps:              defaultRPS,
		defaultRating:    rating.DefaultRating,
		breakerThreshold: defaultBreakerThreshold,
		breakerTimeout:   defaultBreakerTimeout,
		logger:           logger.Get().Named("codeforces"),
	}
	for _, opt := range opts {
		opt(c)
	}

	c.limiter = rate.NewLimiter(rate.Limit(c.rps), 1)
	metrics.UpdateBreakerState(breakerName, metrics.BreakerClosed)
	c.breaker = gobreaker.NewCircuitBreaker[struct{}](gobreaker.Settings{
		Name:        breakerName,
		MaxRequests: 1,
		Timeout:     c.breakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= c.breakerThreshold
		},
		// A FAILED envelope (unknown handle, bad contest) means the API is up.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrStatus) || errors.Is(err, context.Canceled)
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			c.logger.Warn(context.Background(), "circuit breaker state changed",
				logger.String("breaker", name),
				logger.String("from", from.String()),
				logger.String("to", to.String()),
			)
			metrics.UpdateBreakerState(name, breakerStateValue(to))
		},
	})
	return c
}

func breakerStateValue(s gobreaker.State) int {
	switch s {
	case gobreaker.StateHalfOpen:
		return metrics.BreakerHalfOpen
	case gobreaker.StateOpen:
		return metrics.BreakerOpen
	default:
		return metrics.BreakerClosed
	}
}

// UserSubmissions implements Client.
func (c *HTTPClient) UserSubmissions(ctx context.Context, handle string, count int) ([]model.Submission, error) {
	params := url.Values{"handle": {handle}}
	if count > 0 {
		params.Set("from", "1")
		params.Set("count", strconv.Itoa(count))
	}
	var res []apiSubmission
	if err := c.call(ctx, methodUserStatus, params, &res); err != nil {
		return nil, err
	}
	return toSubmissions(res), nil
}

// UserRating implements Client.
func (c *HTTPClient) UserRating(ctx context.Context, handle string) (int, error) {
	var res []apiUser
	if err := c.call(ctx, methodUserInfo, url.Values{"handles": {handle}}, &res); err != nil {
		return 0, err
	}
	if len(res) == 0 {
		return 0, fmt.Errorf("%w: %w: %s: empty user list", ErrUpstream, ErrDecode, methodUserInfo)
	}
	if res[0].Rating == nil {
		c.logger.Info(ctx, "user is unrated, using default rating",
			logger.String("handle", handle),
			logger.Int("rating", c.defaultRating),
		)
		return c.defaultRating, nil
	}
	return *res[0].Rating, nil
}

// Problemset implements Client.
func (c *HTTPClient) Problemset(ctx context.Context) ([]model.CatalogProblem, error) {
	var res apiProblemset
	if err := c.call(ctx, methodProblemset, nil, &res); err != nil {
		return nil, err
	}
	return toCatalog(res.Problems), nil
}

// ContestList implements Client.
func (c *HTTPClient) ContestList(ctx context.Context) ([]model.Contest, error) {
	var res []apiContest
	if err := c.call(ctx, methodContestList, url.Values{"gym": {"false"}}, &res); err != nil {
		return nil, err
	}
	return toContests(res), nil
}

// ContestProblems implements Client.
func (c *HTTPClient) ContestProblems(ctx context.Context, contestID int) ([]model.CatalogProblem, error) {
	params := url.Values{
		"contestId": {strconv.Itoa(contestID)},
		"from":      {"1"},
		"count":     {"1"},
	}
	var res apiStandings
	if err := c.call(ctx, methodContestStandings, params, &res); err != nil {
		return nil, err
	}
	return toCatalog(res.Problems), nil
}

// call waits for the limiter, then runs one request through the breaker.
func (c *HTTPClient) call(ctx context.Context, method string, params url.Values, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("%w: %s: rate limiter: %w", ErrUpstream, method, err)
	}

	start := time.Now()
	_, err := c.breaker.Execute(func() (struct{}, error) {
		return struct{}{}, c.fetch(ctx, method, params, out)
	})
	latency := float64(time.Since(start).Milliseconds())

	switch {
	case err == nil:
		metrics.RecordUpstreamRequest(method, "ok", latency)
		return nil
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		metrics.RecordUpstreamRequest(method, "rejected", latency)
		return fmt.Errorf("%w: %w: %s", ErrUpstream, ErrCircuitOpen, method)
	default:
		metrics.RecordUpstreamRequest(method, "error", latency)
		c.logger.Warn(ctx, "codeforces request failed",
			logger.String("method", method),
			logger.Error(err),
		)
		return err
	}
}

func (c *HTTPClient) fetch(ctx context.Context, method string, params url.Values, out any) error {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	u := c.baseURL + "/" + method
	if len(params) > 0 {
		u += "?" + params.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return fmt.Errorf("%w: %s: build request: %w", ErrUpstream, method, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %w", ErrUpstream, method, err)
	}
	defer func() { _ = resp.Body.Close() }()

	// Codeforces answers client errors with a FAILED envelope and a 4xx code.
	var env envelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		if resp.StatusCode != http.StatusOK {
			return fmt.Errorf("%w: %s: http status %d", ErrUpstream, method, resp.StatusCode)
		}
		return fmt.Errorf("%w: %w: %s: %w", ErrUpstream, ErrDecode, method, err)
	}
	if env.Status != statusOK {
		return fmt.Errorf("%w: %w: %s: %s", ErrUpstream, ErrStatus, method, env.Comment)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("%w: %s: http status %d", ErrUpstream, method, resp.StatusCode)
	}
	if err := json.Unmarshal(env.Result, out); err != nil {
		return fmt.Errorf("%w: %w: %s result: %w", ErrUpstream, ErrDecode, method, err)
	}
	return nil
}
