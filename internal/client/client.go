// Package client talks to the reservations API the way the booking
// screens do: drafts are checked against the eligibility rules before any
// request is made, and every failure comes back as one of a few error
// types that UserMessage can explain to a person.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"

	"github.com/experiencias-arroyo/sierra-explora/internal/booking"
	"github.com/experiencias-arroyo/sierra-explora/internal/eligibility"
	"github.com/experiencias-arroyo/sierra-explora/internal/lifecycle"
	"github.com/experiencias-arroyo/sierra-explora/internal/logging"
	"github.com/experiencias-arroyo/sierra-explora/internal/model"
)

const maxResponseBytes = 4 << 20

// Client is safe for concurrent use.  Each call issues at most one request.
type Client struct {
	baseURL string
	http    *http.Client
	token   func() string
	policy  eligibility.Policy
	now     func() time.Time
	log     *logrus.Entry
}

// Option configures a Client in New.
type Option func(*Client)

// WithHTTPClient replaces the default client (15 second timeout).
func WithHTTPClient(hc *http.Client) Option { return func(c *Client) { c.http = hc } }

// WithToken sends a fixed bearer token.
func WithToken(tok string) Option { return WithTokenSource(func() string { return tok }) }

// WithTokenSource reads the bearer token on every request, so a session
// refreshed elsewhere is picked up.
func WithTokenSource(f func() string) Option { return func(c *Client) { c.token = f } }

// WithPolicy sets the rules Submit checks before sending.  The default is
// eligibility.DefaultPolicy.
func WithPolicy(p eligibility.Policy) Option { return func(c *Client) { c.policy = p } }

// WithClock sets the clock used for lead-time checks and board timestamps.
func WithClock(now func() time.Time) Option { return func(c *Client) { c.now = now } }

// WithLogger sets the logger for request failures.  By default nothing is
// logged.
func WithLogger(log *logrus.Entry) Option { return func(c *Client) { c.log = log } }

// New returns a client for the API rooted at baseURL.
func New(baseURL string, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		token:   func() string { return "" },
		policy:  eligibility.DefaultPolicy(),
		now:     time.Now,
		log:     logging.Discard(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// Submit validates the draft and, when it passes, creates the
// reservation.  A *ValidationError from the local check means no request
// was sent.
func (c *Client) Submit(ctx context.Context, d *booking.Draft) (model.Reservation, error) {
	if err := c.validate(d); err != nil {
		return model.Reservation{}, err
	}
	var out model.Reservation
	if err := c.do(ctx, "submit reservation", http.MethodPost, "/reservations", d.Submission(), &out); err != nil {
		return model.Reservation{}, err
	}
	return out, nil
}

// validate runs the policy and turns a panic into a NetworkError so a bad
// draft never takes the caller down.
func (c *Client) validate(d *booking.Draft) (err error) {
	defer func() {
		if r := recover(); r != nil {
			c.log.WithField("panic", r).Error("draft validation panicked")
			err = &NetworkError{Op: "validate draft", Err: fmt.Errorf("unexpected failure: %v", r)}
		}
	}()
	return d.Validate(c.policy, c.now())
}

// Mine lists the caller's reservations, newest first.
func (c *Client) Mine(ctx context.Context) ([]model.Reservation, error) {
	var out []model.Reservation
	err := c.do(ctx, "list own reservations", http.MethodGet, "/reservations/mine", nil, &out)
	return out, err
}

// All lists every reservation, optionally limited to some statuses.  It
// needs an admin token.
func (c *Client) All(ctx context.Context, statuses ...model.Status) ([]model.Reservation, error) {
	path := "/reservations"
	if len(statuses) > 0 {
		list := lo.Map(statuses, func(s model.Status, _ int) string { return string(s) })
		path += "?status=" + url.QueryEscape(strings.Join(list, ","))
	}
	var out []model.Reservation
	err := c.do(ctx, "list reservations", http.MethodGet, path, nil, &out)
	return out, err
}

// SetStatus requests a transition and returns the updated record.
func (c *Client) SetStatus(ctx context.Context, id uint64, target model.Status) (model.Reservation, error) {
	var out model.Reservation
	path := "/reservations/" + strconv.FormatUint(id, 10) + "/status"
	err := c.do(ctx, "set reservation status", http.MethodPatch, path, map[string]model.Status{"status": target}, &out)
	var te *TransitionError
	if errors.As(err, &te) {
		te.ID = id
	}
	return out, err
}

// Confirm moves a pending reservation to confirmed.
func (c *Client) Confirm(ctx context.Context, id uint64) (model.Reservation, error) {
	return c.act(ctx, id, lifecycle.ActionConfirm)
}

// Reject moves a pending reservation to rejected.
func (c *Client) Reject(ctx context.Context, id uint64) (model.Reservation, error) {
	return c.act(ctx, id, lifecycle.ActionReject)
}

// Cancel withdraws a pending reservation.
func (c *Client) Cancel(ctx context.Context, id uint64) (model.Reservation, error) {
	return c.act(ctx, id, lifecycle.ActionCancel)
}

func (c *Client) act(ctx context.Context, id uint64, a lifecycle.Action) (model.Reservation, error) {
	target, _ := a.Target()
	return c.SetStatus(ctx, id, target)
}

// errorBody is the {"error", "message"} shape every API failure uses.
type errorBody struct {
	Error   string       `json:"error"`
	Message string       `json:"message"`
	Code    string       `json:"code"`
	From    model.Status `json:"from"`
	To      model.Status `json:"to"`
}

func (c *Client) do(ctx context.Context, op, method, path string, in, out any) error {
	log := c.log.WithFields(logrus.Fields{"op": op, "method": method, "path": path})

	var body io.Reader
	if in != nil {
		bs, err := json.Marshal(in)
		if err != nil {
			return &NetworkError{Op: op, Err: err}
		}
		body = bytes.NewReader(bs)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return &NetworkError{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if tok := c.token(); tok != "" {
		req.Header.Set("Authorization", "Bearer "+tok)
	}

	res, err := c.http.Do(req)
	if err != nil {
		log.WithError(err).Warn("request failed")
		return &NetworkError{Op: op, Err: err}
	}
	defer res.Body.Close()
	raw, err := io.ReadAll(io.LimitReader(res.Body, maxResponseBytes))
	if err != nil {
		log.WithError(err).Warn("reading response failed")
		return &NetworkError{Op: op, Status: res.StatusCode, Err: err}
	}
	// A response that arrives after the caller gave up is dropped.
	if err := ctx.Err(); err != nil {
		return &NetworkError{Op: op, Err: err}
	}

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		if out == nil || len(raw) == 0 {
			return nil
		}
		if err := json.Unmarshal(raw, out); err != nil {
			log.WithError(err).Warn("undecodable response")
			return &NetworkError{Op: op, Status: res.StatusCode, Err: err}
		}
		return nil
	}

	var eb errorBody
	decodeErr := json.Unmarshal(raw, &eb)
	err = classify(op, res.StatusCode, eb, decodeErr)
	log.WithField("status", res.StatusCode).WithError(err).Info("request refused")
	return err
}

func classify(op string, status int, eb errorBody, decodeErr error) error {
	switch {
	case status >= 500 || decodeErr != nil:
		msg := eb.Message
		if msg == "" {
			msg = http.StatusText(status)
		}
		return &NetworkError{Op: op, Status: status, Err: errors.New(msg)}
	case status == http.StatusUnprocessableEntity:
		return &ValidationError{Code: eb.Code, Message: eb.Message}
	case status == http.StatusConflict && eb.Error == "invalid_transition":
		return &TransitionError{From: eb.From, To: eb.To, Message: eb.Message}
	}
	return &APIError{Status: status, Code: eb.Error, Message: eb.Message}
}
