package gmail

import (
	"context"
	"encoding/base64"
	"fmt"
	"strings"
	"sync"

	gmail "google.golang.org/api/gmail/v1"
	"google.golang.org/api/option"
)

const me = "me"

// Client wraps the Gmail Users service for the mailbox autopilot works on.
type Client struct {
	svc *gmail.UsersService

	mu     sync.Mutex
	labels map[string]string // label name -> id
}

// NewClient creates a Gmail client. Callers pass option.WithHTTPClient with
// an authenticated client; tests add option.WithEndpoint.
func NewClient(ctx context.Context, opts ...option.ClientOption) (*Client, error) {
	svc, err := gmail.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create Gmail service: %w", err)
	}
	return &Client{
		svc:    svc.Users,
		labels: make(map[string]string),
	}, nil
}

// ListMessages lists messages matching q, fetching pages until max messages
// have been collected. max <= 0 means a single page.
func (c *Client) ListMessages(ctx context.Context, q string, max int64) ([]*gmail.Message, error) {
	var all []*gmail.Message
	pageToken := ""

	for {
		pageSize := int64(100)
		if max > 0 {
			remaining := max - int64(len(all))
			if remaining <= 0 {
				break
			}
			if remaining < pageSize {
				pageSize = remaining
			}
		}

		req := c.svc.Messages.List(me).Q(q).MaxResults(pageSize).Context(ctx)
		if pageToken != "" {
			req = req.PageToken(pageToken)
		}
		res, err := req.Do()
		if err != nil {
			return nil, fmt.Errorf("failed to list messages: %w", err)
		}
		all = append(all, res.Messages...)

		if res.NextPageToken == "" || max <= 0 {
			break
		}
		pageToken = res.NextPageToken
	}

	if max > 0 && int64(len(all)) > max {
		all = all[:max]
	}
	return all, nil
}

// GetMessage retrieves a full Gmail message.
func (c *Client) GetMessage(ctx context.Context, id string) (*gmail.Message, error) {
	msg, err := c.svc.Messages.Get(me, id).Format("full").Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("failed to get message %s: %w", id, err)
	}
	return msg, nil
}

// GetEmail retrieves a message and flattens it into an Email.
func (c *Client) GetEmail(ctx context.Context, id string) (Email, error) {
	msg, err := c.GetMessage(ctx, id)
	if err != nil {
		return Email{}, err
	}
	return ToEmail(msg), nil
}

// ModifyMessage adds and removes label IDs on a message.
func (c *Client) ModifyMessage(ctx context.Context, id string, add, remove []string) error {
	if len(add) == 0 && len(remove) == 0 {
		return nil
	}
	_, err := c.svc.Messages.Modify(me, id, &gmail.ModifyMessageRequest{
		AddLabelIds:    add,
		RemoveLabelIds: remove,
	}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("failed to modify message %s: %w", id, err)
	}
	return nil
}

// EnsureLabel returns the ID of the user label called name, creating it on
// first use. IDs are cached for the lifetime of the client.
func (c *Client) EnsureLabel(ctx context.Context, name string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if id, ok := c.labels[name]; ok {
		return id, nil
	}

	if len(c.labels) == 0 {
		res, err := c.svc.Labels.List(me).Context(ctx).Do()
		if err != nil {
			return "", fmt.Errorf("failed to list labels: %w", err)
		}
		for _, l := range res.Labels {
			c.labels[l.Name] = l.Id
		}
		if id, ok := c.labels[name]; ok {
			return id, nil
		}
	}

	created, err := c.svc.Labels.Create(me, &gmail.Label{
		Name:                  name,
		LabelListVisibility:   "labelShow",
		MessageListVisibility: "show",
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create label %s: %w", name, err)
	}
	c.labels[name] = created.Id
	return created.Id, nil
}

// CreateDraftReply creates a draft in original's thread replying to its
// sender (or Reply-To) with a plain-text body.
func (c *Client) CreateDraftReply(ctx context.Context, original Email, body string) (string, error) {
	if strings.TrimSpace(body) == "" {
		return "", fmt.Errorf("body is required")
	}

	msg := ReplyTo(original, body)
	raw, err := msg.Raw()
	if err != nil {
		return "", err
	}

	draft, err := c.svc.Drafts.Create(me, &gmail.Draft{
		Message: &gmail.Message{
			Raw:      raw,
			ThreadId: original.ThreadID,
		},
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to create draft: %w", err)
	}
	return draft.Id, nil
}

// SendEmail sends msg and returns the Gmail message ID.
func (c *Client) SendEmail(ctx context.Context, msg *EmailMessage) (string, error) {
	raw, err := msg.Raw()
	if err != nil {
		return "", err
	}

	sent, err := c.svc.Messages.Send(me, &gmail.Message{
		Raw:      raw,
		ThreadId: msg.ThreadID,
	}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("failed to send email: %w", err)
	}
	return sent.Id, nil
}

func decodeBody(data string) (string, error) {
	decoded, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		// Gmail omits padding on some parts.
		decoded, err = base64.RawURLEncoding.DecodeString(data)
		if err != nil {
			decoded, err = base64.StdEncoding.DecodeString(data)
			if err != nil {
				return "", fmt.Errorf("failed to decode message body: %w", err)
			}
		}
	}
	return string(decoded), nil
}
