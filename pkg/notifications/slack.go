package notifications

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/sirupsen/logrus"
)

const defaultSlackAPI = "https://slack.com/api"

type SlackProvider struct {
	Token  string
	APIURL string
	Client *http.Client
}

type slackMessage struct {
	Channel     string       `json:"channel"`
	TS          string       `json:"ts,omitempty"`
	Text        string       `json:"text,omitempty"`
	Attachments []Attachment `json:"attachments,omitempty"`
}

type slackResponse struct {
	OK      bool   `json:"ok"`
	Error   string `json:"error"`
	Channel string `json:"channel"`
	TS      string `json:"ts"`
}

func NewSlackProvider(token string) *SlackProvider {
	return &SlackProvider{
		Token:  token,
		APIURL: defaultSlackAPI,
		Client: &http.Client{},
	}
}

func (s *SlackProvider) Post(ctx context.Context, channel string, msg *Message) (MessageRef, error) {
	res, err := s.call(ctx, "chat.postMessage", &slackMessage{
		Channel:     channel,
		Text:        msg.Fallback,
		Attachments: []Attachment{msg.AsSlackAttachment()},
	})
	if err != nil {
		return MessageRef{}, err
	}

	logrus.Debugf("slack message posted: ts=%s channel=%s", res.TS, res.Channel)
	return MessageRef{ID: res.TS, Channel: res.Channel}, nil
}

func (s *SlackProvider) Update(ctx context.Context, ref MessageRef, msg *Message) error {
	_, err := s.call(ctx, "chat.update", &slackMessage{
		Channel:     ref.Channel,
		TS:          ref.ID,
		Text:        msg.Fallback,
		Attachments: []Attachment{msg.AsSlackAttachment()},
	})
	return err
}

func (s *SlackProvider) Delete(ctx context.Context, ref MessageRef) error {
	_, err := s.call(ctx, "chat.delete", &slackMessage{
		Channel: ref.Channel,
		TS:      ref.ID,
	})
	return err
}

func (s *SlackProvider) call(ctx context.Context, method string, msg *slackMessage) (*slackResponse, error) {
	b := new(bytes.Buffer)
	err := json.NewEncoder(b).Encode(msg)
	if err != nil {
		return nil, fmt.Errorf("cannot encode slack message: %s", err)
	}

	url := strings.TrimSuffix(s.apiURL(), "/") + "/" + method
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, b)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json; charset=utf-8")
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", s.Token))

	res, err := s.client().Do(req)
	if err != nil {
		return nil, fmt.Errorf("could not call slack %s: %w", method, err)
	}
	defer res.Body.Close()

	body, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, fmt.Errorf("cannot read slack response: %s", err)
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("could not call slack %s, status: %d", method, res.StatusCode)
	}

	var parsed slackResponse
	err = json.Unmarshal(body, &parsed)
	if err != nil {
		return nil, fmt.Errorf("cannot parse slack response: %s", err)
	}
	if !parsed.OK {
		logrus.Infof("Slack response: %s", string(body))
		return nil, fmt.Errorf("slack %s failed: %s", method, parsed.Error)
	}

	return &parsed, nil
}

func (s *SlackProvider) apiURL() string {
	if s.APIURL == "" {
		return defaultSlackAPI
	}
	return s.APIURL
}

func (s *SlackProvider) client() *http.Client {
	if s.Client == nil {
		return http.DefaultClient
	}
	return s.Client
}
