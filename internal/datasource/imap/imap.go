// Package imap implements the mail provider contract for plain IMAP
// mailboxes. Reply state comes from the \Answered flag, drafts are
// created with APPEND, processed messages are flagged \Seen.
package imap

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	_imap "github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"
	_ "github.com/emersion/go-message/charset"
	"github.com/emersion/go-message/mail"

	"github.com/draftpilot/outlook-autodraft/internal/scan/types"
)

type messageState struct {
	uid       uint32
	folder    string
	answered  bool
	messageID string
}

type Provider struct {
	draftsFolder string

	// IMAP connections do not allow concurrent commands
	mu     sync.Mutex
	client *client.Client
	seen   map[string]messageState
}

func Dial(addr, username, password, draftsFolder string) (*Provider, error) {
	emailClient, err := client.DialTLS(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrProvider, err)
	}

	if err := emailClient.Login(username, password); err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrAuthentication, err)
	}

	return &Provider{
		draftsFolder: draftsFolder,
		client:       emailClient,
		seen:         map[string]messageState{},
	}, nil
}

func (p *Provider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.client.Logout()
}

func (p *Provider) ListRecent(ctx context.Context, folder string, since time.Time, max int) ([]types.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.client.Select(folder, true); err != nil {
		return nil, fmt.Errorf("%w: selecting %s: %v", types.ErrProvider, folder, err)
	}

	criteria := _imap.NewSearchCriteria()
	criteria.Since = since
	ids, err := p.client.Search(criteria)
	if err != nil {
		return nil, fmt.Errorf("%w: searching %s: %v", types.ErrProvider, folder, err)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	seqset := new(_imap.SeqSet)
	seqset.AddNum(ids...)

	var section _imap.BodySectionName
	items := []_imap.FetchItem{section.FetchItem(), _imap.FetchEnvelope, _imap.FetchFlags, _imap.FetchUid}

	rawMessages := make(chan *_imap.Message, 100)
	done := make(chan error, 1)
	go func() {
		done <- p.client.Fetch(seqset, items, rawMessages)
	}()

	var messages []types.Message
	for raw := range rawMessages {
		msg, state, err := p.toMessage(raw, folder, &section)
		if err != nil {
			continue
		}
		p.seen[msg.ID] = state
		messages = append(messages, msg)
	}

	if err := <-done; err != nil {
		return nil, fmt.Errorf("%w: fetching %s: %v", types.ErrProvider, folder, err)
	}

	sort.Slice(messages, func(i, j int) bool {
		return messages[i].ReceivedAt.After(messages[j].ReceivedAt)
	})
	if max > 0 && len(messages) > max {
		messages = messages[:max]
	}
	return messages, nil
}

func (p *Provider) toMessage(raw *_imap.Message, folder string, section *_imap.BodySectionName) (types.Message, messageState, error) {
	if raw == nil || raw.Envelope == nil {
		return types.Message{}, messageState{}, errors.New("message without envelope")
	}

	body, err := messageBody(raw, section)
	if err != nil {
		return types.Message{}, messageState{}, err
	}

	msg := types.Message{
		ID:         strconv.FormatUint(uint64(raw.Uid), 10),
		Subject:    raw.Envelope.Subject,
		Body:       string(body),
		ReceivedAt: raw.Envelope.Date,
	}
	if msg.Subject == "" {
		msg.Subject = "No Subject"
	}
	if len(raw.Envelope.From) > 0 {
		msg.Sender = raw.Envelope.From[0].Address()
	}

	state := messageState{
		uid:       raw.Uid,
		folder:    folder,
		messageID: strings.Trim(raw.Envelope.MessageId, "<>"),
	}
	for _, flag := range raw.Flags {
		switch flag {
		case _imap.SeenFlag:
			msg.IsRead = true
		case _imap.AnsweredFlag:
			state.answered = true
		}
	}

	return msg, state, nil
}

func messageBody(raw *_imap.Message, section *_imap.BodySectionName) ([]byte, error) {
	r := raw.GetBody(section)
	if r == nil {
		return nil, errors.New("no body section in message")
	}

	mr, err := mail.CreateReader(r)
	if err != nil {
		return nil, err
	}

	for {
		part, err := mr.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}

		if _, ok := part.Header.(*mail.InlineHeader); ok {
			return io.ReadAll(part.Body)
		}
	}

	return nil, errors.New("no inline part in message")
}

// HasReply reports the \Answered flag captured when the message was
// listed, the richest reply signal IMAP has.
func (p *Provider) HasReply(_ context.Context, msg types.Message) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	state, ok := p.seen[msg.ID]
	if !ok {
		return false, fmt.Errorf("%w: unknown message %s", types.ErrProvider, msg.ID)
	}
	return state.answered, nil
}

// HasDraft searches the drafts folder for a matching reply subject.
func (p *Provider) HasDraft(_ context.Context, msg types.Message) (bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if _, err := p.client.Select(p.draftsFolder, true); err != nil {
		return false, fmt.Errorf("%w: selecting %s: %v", types.ErrProvider, p.draftsFolder, err)
	}

	criteria := _imap.NewSearchCriteria()
	criteria.Header.Add("Subject", "Re: "+msg.Subject)
	ids, err := p.client.Search(criteria)
	if err != nil {
		return false, fmt.Errorf("%w: searching %s: %v", types.ErrProvider, p.draftsFolder, err)
	}
	return len(ids) > 0, nil
}

func (p *Provider) CreateDraft(_ context.Context, draft types.Draft) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	var inReplyTo string
	if state, ok := p.seen[draft.InReplyTo]; ok {
		inReplyTo = state.messageID
	}

	literal, err := renderDraft(draft, inReplyTo)
	if err != nil {
		return fmt.Errorf("%w: rendering draft: %v", types.ErrProvider, err)
	}

	flags := []string{_imap.DraftFlag}
	if err := p.client.Append(p.draftsFolder, flags, time.Now(), literal); err != nil {
		return fmt.Errorf("%w: appending draft: %v", types.ErrProvider, err)
	}
	return nil
}

func renderDraft(draft types.Draft, inReplyTo string) (*bytes.Buffer, error) {
	var to []*mail.Address
	for _, addr := range draft.To {
		to = append(to, &mail.Address{Address: addr})
	}

	var h mail.Header
	h.SetDate(time.Now())
	h.SetSubject(draft.Subject)
	h.SetAddressList("To", to)
	if inReplyTo != "" {
		h.SetMsgIDList("In-Reply-To", []string{inReplyTo})
	}

	h.SetContentType("text/html", map[string]string{"charset": "utf-8"})

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(w, draft.Body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}

	return &buf, nil
}

func (p *Provider) MarkProcessed(_ context.Context, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	state, ok := p.seen[id]
	if !ok {
		return fmt.Errorf("%w: unknown message %s", types.ErrProvider, id)
	}

	if _, err := p.client.Select(state.folder, false); err != nil {
		return fmt.Errorf("%w: selecting %s: %v", types.ErrProvider, state.folder, err)
	}

	seqset := new(_imap.SeqSet)
	seqset.AddNum(state.uid)
	item := _imap.FormatFlagsOp(_imap.AddFlags, true)
	if err := p.client.UidStore(seqset, item, []interface{}{_imap.SeenFlag}, nil); err != nil {
		return fmt.Errorf("%w: flagging message %s: %v", types.ErrProvider, id, err)
	}
	return nil
}
