// Package graph implements the mail provider contract on top of the
// Microsoft Graph REST API, authenticated with the client credentials
// flow.
package graph

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/draftpilot/outlook-autodraft/internal/scan/types"
)

const (
	defaultBaseURL = "https://graph.microsoft.com/v1.0/me"
	tokenURLFormat = "https://login.microsoftonline.com/%s/oauth2/v2.0/token"
	scope          = "https://graph.microsoft.com/.default"

	sentFolder = "SentItems"

	// drafts are matched by conversation first, subject second; the scan
	// is capped like the mailbox listing itself
	draftScanLimit = 50
)

type Provider struct {
	httpClient   *http.Client
	baseURL      string
	draftsFolder string
}

// NewProvider builds a provider whose HTTP client acquires and refreshes
// the application token on demand.
func NewProvider(ctx context.Context, clientID, clientSecret, tenantID, draftsFolder string) *Provider {
	cc := clientcredentials.Config{
		ClientID:     clientID,
		ClientSecret: clientSecret,
		TokenURL:     fmt.Sprintf(tokenURLFormat, tenantID),
		Scopes:       []string{scope},
	}

	return newProvider(cc.Client(ctx), defaultBaseURL, draftsFolder)
}

func newProvider(httpClient *http.Client, baseURL, draftsFolder string) *Provider {
	return &Provider{
		httpClient:   httpClient,
		baseURL:      strings.TrimRight(baseURL, "/"),
		draftsFolder: draftsFolder,
	}
}

type wireRecipient struct {
	EmailAddress struct {
		Name    string `json:"name,omitempty"`
		Address string `json:"address"`
	} `json:"emailAddress"`
}

type wireBody struct {
	ContentType string `json:"contentType"`
	Content     string `json:"content"`
}

type wireMessage struct {
	ID               string         `json:"id"`
	Subject          string         `json:"subject"`
	ConversationID   string         `json:"conversationId"`
	From             *wireRecipient `json:"from"`
	Body             wireBody       `json:"body"`
	ReceivedDateTime time.Time      `json:"receivedDateTime"`
	IsRead           bool           `json:"isRead"`
}

type listResponse struct {
	Value []wireMessage `json:"value"`
}

func (p *Provider) ListRecent(ctx context.Context, folder string, since time.Time, max int) ([]types.Message, error) {
	query := url.Values{
		"$filter":  {fmt.Sprintf("receivedDateTime ge %s", since.UTC().Format(time.RFC3339))},
		"$select":  {"id,subject,from,body,receivedDateTime,isRead,conversationId"},
		"$orderby": {"receivedDateTime desc"},
		"$top":     {fmt.Sprint(max)},
	}

	var list listResponse
	if err := p.get(ctx, fmt.Sprintf("/mailFolders/%s/messages", url.PathEscape(folder)), query, &list); err != nil {
		return nil, err
	}

	messages := make([]types.Message, 0, len(list.Value))
	for _, m := range list.Value {
		messages = append(messages, toMessage(m))
	}
	return messages, nil
}

func toMessage(m wireMessage) types.Message {
	msg := types.Message{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Subject:        m.Subject,
		Body:           m.Body.Content,
		ReceivedAt:     m.ReceivedDateTime,
		IsRead:         m.IsRead,
	}
	if msg.Subject == "" {
		msg.Subject = "No Subject"
	}
	if m.From != nil {
		msg.Sender = m.From.EmailAddress.Address
	}
	return msg
}

// HasReply checks Sent Items for a message in the same conversation, the
// richest thread signal Graph exposes. Messages without a conversation id
// fall back to a reply-subject scan.
func (p *Provider) HasReply(ctx context.Context, msg types.Message) (bool, error) {
	filter := fmt.Sprintf("conversationId eq '%s'", escapeODataString(msg.ConversationID))
	if msg.ConversationID == "" {
		filter = fmt.Sprintf("subject eq 'Re: %s'", escapeODataString(msg.Subject))
	}

	query := url.Values{
		"$filter": {filter},
		"$select": {"id"},
		"$top":    {"1"},
	}

	var list listResponse
	if err := p.get(ctx, fmt.Sprintf("/mailFolders/%s/messages", sentFolder), query, &list); err != nil {
		return false, err
	}
	return len(list.Value) > 0, nil
}

// HasDraft scans the Drafts folder for a reply keyed on the conversation
// or on the "Re: " subject.
func (p *Provider) HasDraft(ctx context.Context, msg types.Message) (bool, error) {
	query := url.Values{
		"$select": {"id,subject,conversationId"},
		"$top":    {fmt.Sprint(draftScanLimit)},
	}

	var list listResponse
	if err := p.get(ctx, fmt.Sprintf("/mailFolders/%s/messages", url.PathEscape(p.draftsFolder)), query, &list); err != nil {
		return false, err
	}

	for _, d := range list.Value {
		if msg.ConversationID != "" && d.ConversationID == msg.ConversationID {
			return true, nil
		}
		if d.Subject == "Re: "+msg.Subject {
			return true, nil
		}
	}
	return false, nil
}

func (p *Provider) CreateDraft(ctx context.Context, draft types.Draft) error {
	payload := struct {
		Subject      string          `json:"subject"`
		Body         wireBody        `json:"body"`
		ToRecipients []wireRecipient `json:"toRecipients"`
	}{
		Subject: draft.Subject,
		Body:    wireBody{ContentType: "HTML", Content: draft.Body},
	}
	for _, to := range draft.To {
		var r wireRecipient
		r.EmailAddress.Address = to
		payload.ToRecipients = append(payload.ToRecipients, r)
	}

	return p.send(ctx, http.MethodPost, "/messages", payload)
}

func (p *Provider) MarkProcessed(ctx context.Context, id string) error {
	payload := struct {
		IsRead bool `json:"isRead"`
	}{IsRead: true}

	return p.send(ctx, http.MethodPatch, "/messages/"+url.PathEscape(id), payload)
}

func (p *Provider) get(ctx context.Context, path string, query url.Values, dst interface{}) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+path+"?"+query.Encode(), nil)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrProvider, err)
	}

	resp, err := p.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if err := checkStatus(resp); err != nil {
		return err
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return fmt.Errorf("%w: decoding response: %v", types.ErrProvider, err)
	}
	return nil
}

func (p *Provider) send(ctx context.Context, method, path string, payload interface{}) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrProvider, err)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("%w: %v", types.ErrProvider, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	return checkStatus(resp)
}

func (p *Provider) do(req *http.Request) (*http.Response, error) {
	resp, err := p.httpClient.Do(req)
	if err != nil {
		// a failed token grant surfaces through the oauth2 transport
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) {
			return nil, fmt.Errorf("%w: %v", types.ErrAuthentication, err)
		}
		return nil, fmt.Errorf("%w: %v", types.ErrProvider, err)
	}
	return resp, nil
}

func checkStatus(resp *http.Response) error {
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return nil
	}

	detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
	if resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden {
		return fmt.Errorf("%w: status %d: %s", types.ErrAuthentication, resp.StatusCode, detail)
	}
	return fmt.Errorf("%w: status %d: %s", types.ErrProvider, resp.StatusCode, detail)
}

// escapeODataString doubles single quotes per the OData literal rules.
func escapeODataString(s string) string {
	return strings.ReplaceAll(s, "'", "''")
}
