// Package rest implements gateway.Backend against the expense tracker REST API.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"expensync/internal/core"
	"expensync/internal/gateway"
	"expensync/internal/log"
)

// maxErrorBody caps how much of a failed response becomes the error message.
const maxErrorBody = 4 << 10

type Client struct {
	baseURL string
	http    *http.Client
	logger  *log.Logger
}

var _ gateway.Backend = (*Client)(nil)

// New returns a client for the API rooted at baseURL (e.g. http://localhost:8080/api).
func New(baseURL string, httpClient *http.Client, logger *log.Logger) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("unsupported base url scheme %q", u.Scheme)
	}
	if httpClient == nil {
		httpClient = NewHTTPClient(0)
	}
	if logger == nil {
		logger = log.Discard()
	}
	return &Client{
		baseURL: u.String(),
		http:    httpClient,
		logger:  logger.WithComponent(log.ComponentGateway),
	}, nil
}

// call describes one request. fallback is the message used when a failed
// response carries no body.
type call struct {
	op       string
	method   string
	path     string
	query    url.Values
	body     any
	fallback string
}

func (c *Client) ListExpenses(ctx context.Context, userID string) ([]core.Expense, error) {
	var out []core.Expense
	err := c.do(ctx, call{
		op: "list expenses", method: http.MethodGet, path: "/expenses",
		query: userQuery(userID), fallback: "Failed to fetch expenses",
	}, &out)
	return nonNil(out), err
}

func (c *Client) CreateExpense(ctx context.Context, e core.NewExpense) (core.Expense, error) {
	var out core.Expense
	err := c.do(ctx, call{
		op: "create expense", method: http.MethodPost, path: "/expenses",
		body: e, fallback: "Failed to create expense",
	}, &out)
	return out, err
}

func (c *Client) UpdateExpense(ctx context.Context, id string, patch core.ExpensePatch) (core.Expense, error) {
	var out core.Expense
	err := c.do(ctx, call{
		op: "update expense", method: http.MethodPut, path: "/expenses/" + url.PathEscape(id),
		body: patch, fallback: "Failed to update expense",
	}, &out)
	return out, err
}

func (c *Client) DeleteExpense(ctx context.Context, id string) error {
	return c.do(ctx, call{
		op: "delete expense", method: http.MethodDelete, path: "/expenses/" + url.PathEscape(id),
		fallback: "Failed to delete expense",
	}, nil)
}

func (c *Client) ListBills(ctx context.Context, userID string) ([]core.Bill, error) {
	var out []core.Bill
	err := c.do(ctx, call{
		op: "list bills", method: http.MethodGet, path: "/bills",
		query: userQuery(userID), fallback: "Failed to fetch bills",
	}, &out)
	return nonNil(out), err
}

func (c *Client) CreateBill(ctx context.Context, b core.NewBill) (core.Bill, error) {
	var out core.Bill
	err := c.do(ctx, call{
		op: "create bill", method: http.MethodPost, path: "/bills",
		body: b, fallback: "Failed to create bill",
	}, &out)
	return out, err
}

func (c *Client) MarkBillPaid(ctx context.Context, id string) (core.Bill, error) {
	var out core.Bill
	err := c.do(ctx, call{
		op: "mark bill paid", method: http.MethodPut, path: "/bills/" + url.PathEscape(id) + "/pay",
		fallback: "Failed to update bill",
	}, &out)
	return out, err
}

func (c *Client) GetUser(ctx context.Context) (core.User, error) {
	var out core.User
	err := c.do(ctx, call{
		op: "get user", method: http.MethodGet, path: "/user",
		fallback: "Failed to fetch user",
	}, &out)
	return out, err
}

func (c *Client) UpdateUser(ctx context.Context, u core.User) (core.User, error) {
	var out core.User
	err := c.do(ctx, call{
		op: "update user", method: http.MethodPut, path: "/user",
		body: u, fallback: "Failed to update user",
	}, &out)
	return out, err
}

func (c *Client) Signup(ctx context.Context, p core.Profile) (core.User, error) {
	var out core.User
	err := c.do(ctx, call{
		op: "signup", method: http.MethodPost, path: "/auth/signup",
		body: p, fallback: "Signup failed",
	}, &out)
	return out, err
}

func (c *Client) Login(ctx context.Context, creds core.Credentials) (core.User, error) {
	var out core.User
	err := c.do(ctx, call{
		op: "login", method: http.MethodPost, path: "/auth/login",
		body: creds, fallback: "Login failed",
	}, &out)
	return out, err
}

func (c *Client) do(ctx context.Context, cl call, out any) error {
	target := c.baseURL + cl.path
	if len(cl.query) > 0 {
		target += "?" + cl.query.Encode()
	}

	var body io.Reader
	if cl.body != nil {
		buf, err := json.Marshal(cl.body)
		if err != nil {
			return &gateway.Error{Op: cl.op, Message: cl.fallback, Err: fmt.Errorf("encode request: %w", err)}
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, cl.method, target, body)
	if err != nil {
		return &gateway.Error{Op: cl.op, Message: cl.fallback, Err: fmt.Errorf("build request: %w", err)}
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		c.logger.WarnContext(ctx, "Request failed", log.FieldOperation, cl.op, log.FieldError, err)
		return gateway.Fail(cl.op, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		msg := strings.TrimSpace(string(raw))
		if msg == "" {
			msg = cl.fallback
		}
		c.logger.WarnContext(ctx, "Request rejected",
			log.FieldOperation, cl.op,
			log.FieldStatusCode, resp.StatusCode,
			log.FieldError, msg)
		return &gateway.Error{Op: cl.op, Status: resp.StatusCode, Message: msg}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &gateway.Error{Op: cl.op, Status: resp.StatusCode, Message: cl.fallback, Err: fmt.Errorf("decode response: %w", err)}
	}
	c.logger.DebugContext(ctx, "Request completed", log.FieldOperation, cl.op, log.FieldStatusCode, resp.StatusCode)
	return nil
}

func userQuery(userID string) url.Values {
	if userID == "" {
		return nil
	}
	return url.Values{"userId": {userID}}
}

func nonNil[T any](items []T) []T {
	if items == nil {
		return []T{}
	}
	return items
}
