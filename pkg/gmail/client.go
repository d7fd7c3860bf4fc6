// Package gmail wraps the Gmail API for read-only mailbox ingestion:
// listing message IDs newer than a cursor and fetching full messages.
package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
	gmailapi "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const user = "me"

// Placeholder values recorded when a message is missing the header. They
// are stored as-is so every record keeps the full column set.
const (
	NoSender    = "No Sender"
	NoRecipient = "No Recipient"
	NoSubject   = "No Subject"
	NoDate      = "No Date"

	// decodeFailure is stored as the body when the base64 payload cannot
	// be decoded; the message still counts as fetched.
	decodeFailure = "Error decoding body."
)

// Message is one fetched email with raw header values.
type Message struct {
	ID      string
	From    string
	To      string
	Subject string
	Body    string
	Date    string
}

// Client is the read-only mailbox surface the ingestion pipeline needs.
type Client interface {
	// ListMessageIDs returns the IDs of all messages received after the
	// given instant, draining every result page.
	ListMessageIDs(ctx context.Context, after time.Time) ([]string, error)
	// GetMessage fetches one message in full and flattens it to headers
	// plus a text body.
	GetMessage(ctx context.Context, id string) (Message, error)
}

// Option configures the client.
type Option func(*apiClient)

// WithCredentialsFile overrides the OAuth client secret path.
func WithCredentialsFile(path string) Option {
	return func(c *apiClient) {
		c.credentialsFile = path
	}
}

// WithTokenFile overrides the cached OAuth token path.
func WithTokenFile(path string) Option {
	return func(c *apiClient) {
		c.tokenFile = path
	}
}

// WithRatePerSecond caps outgoing API calls.
func WithRatePerSecond(rps float64) Option {
	return func(c *apiClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
		}
	}
}

type apiClient struct {
	srv             *gmailapi.Service
	limiter         *rate.Limiter
	credentialsFile string
	tokenFile       string
}

// NewClient builds a client using the installed-app OAuth flow. The first
// run prompts for an authorization code and caches the token on disk.
func NewClient(ctx context.Context, opts ...Option) (Client, error) {
	c := &apiClient{
		credentialsFile: "credentials.json",
		tokenFile:       "token.json",
		limiter:         rate.NewLimiter(rate.Limit(5), 1),
	}
	for _, o := range opts {
		o(c)
	}

	httpClient, err := oauthHTTPClient(ctx, c.credentialsFile, c.tokenFile)
	if err != nil {
		return nil, err
	}
	srv, err := gmailapi.NewService(ctx, option.WithHTTPClient(httpClient))
	if err != nil {
		return nil, eris.Wrap(err, "gmail: create service")
	}
	c.srv = srv
	return c, nil
}

// NewClientWithService wraps an already-constructed Gmail service. Used by
// tests that point the service at a local server.
func NewClientWithService(srv *gmailapi.Service, opts ...Option) Client {
	c := &apiClient{
		srv:     srv,
		limiter: rate.NewLimiter(rate.Limit(5), 1),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func (c *apiClient) ListMessageIDs(ctx context.Context, after time.Time) ([]string, error) {
	query := fmt.Sprintf("after:%d", after.Unix())

	var ids []string
	pageToken := ""
	for {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "gmail: rate limit wait")
		}
		call := c.srv.Users.Messages.List(user).Q(query).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, eris.Wrapf(err, "gmail: list messages %q", query)
		}
		for _, m := range resp.Messages {
			ids = append(ids, m.Id)
		}
		if resp.NextPageToken == "" {
			return ids, nil
		}
		pageToken = resp.NextPageToken
	}
}

func (c *apiClient) GetMessage(ctx context.Context, id string) (Message, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return Message{}, eris.Wrap(err, "gmail: rate limit wait")
	}
	msg, err := c.srv.Users.Messages.Get(user, id).Format("full").Context(ctx).Do()
	if err != nil {
		return Message{}, eris.Wrapf(err, "gmail: get message %s", id)
	}
	return flatten(msg), nil
}

// flatten reduces the full API message to header values and a text body.
func flatten(msg *gmailapi.Message) Message {
	out := Message{
		ID:      msg.Id,
		From:    NoSender,
		To:      NoRecipient,
		Subject: NoSubject,
		Date:    NoDate,
	}
	if msg.Payload == nil {
		return out
	}
	for _, h := range msg.Payload.Headers {
		switch h.Name {
		case "From":
			out.From = h.Value
		case "To":
			out.To = h.Value
		case "Subject":
			out.Subject = h.Value
		case "Date":
			out.Date = h.Value
		}
	}
	out.Body = messageBody(msg.Payload)
	return out
}

// messageBody extracts the message text: a single-part text payload
// directly, otherwise the first text/plain part in the tree, falling back
// to the first text/html part.
func messageBody(payload *gmailapi.MessagePart) string {
	if payload.MimeType == "text/plain" || payload.MimeType == "text/html" {
		if payload.Body != nil && payload.Body.Data != "" {
			return decodeBody(payload.Body.Data)
		}
	}
	if body := partBody(payload.Parts, "text/plain"); body != "" {
		return body
	}
	return partBody(payload.Parts, "text/html")
}

// partBody walks the part tree depth-first looking for the given MIME type.
func partBody(parts []*gmailapi.MessagePart, mimeType string) string {
	for _, part := range parts {
		if part.MimeType == mimeType && part.Body != nil && part.Body.Data != "" {
			return decodeBody(part.Body.Data)
		}
		if strings.HasPrefix(part.MimeType, "multipart/") {
			if body := partBody(part.Parts, mimeType); body != "" {
				return body
			}
		}
	}
	return ""
}

func decodeBody(data string) string {
	decoded, err := base64.URLEncoding.WithPadding(base64.NoPadding).DecodeString(strings.TrimRight(data, "="))
	if err != nil {
		return decodeFailure
	}
	return string(decoded)
}
