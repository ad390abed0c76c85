package notifications

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/bwmarrin/discordgo"
	"github.com/enescakir/emoji"
	"github.com/gimlet-io/runstatus/pkg/model"
	"github.com/gimlet-io/runstatus/pkg/status"
)

const markdown = "mrkdwn"
const plainText = "plain_text"
const section = "section"
const contextString = "context"
const button = "button"

// Message is the rendered form of a status snapshot
type Message struct {
	Color          model.Color
	Fallback       string
	Description    string
	ActiveLines    []string
	CompletedLines []string
	LogURL         string
}

type Block struct {
	Type      string     `json:"type"`
	Text      *Text      `json:"text,omitempty"`
	Accessory *Accessory `json:"accessory,omitempty"`
	Elements  []Text     `json:"elements,omitempty"`
}

type Attachment struct {
	Color    string  `json:"color,omitempty"`
	Fallback string  `json:"fallback,omitempty"`
	Blocks   []Block `json:"blocks,omitempty"`
}

type Accessory struct {
	Text     *Text  `json:"text"`
	Type     string `json:"type"`
	Url      string `json:"url,omitempty"`
	Value    string `json:"value,omitempty"`
	ActionID string `json:"action_id,omitempty"`
}

type Text struct {
	Type  string `json:"type"`
	Text  string `json:"text"`
	Emoji bool   `json:"emoji,omitempty"`
}

func NewMessage(s status.Snapshot) *Message {
	return &Message{
		Color:          s.Color,
		Fallback:       s.Text(),
		Description:    s.Description,
		ActiveLines:    s.ActiveLines,
		CompletedLines: s.CompletedLines,
		LogURL:         s.LogURL,
	}
}

// AsSlackAttachment renders the message as a single attachment with a headline,
// a logs button and a context block for the active and the completed lines each
func (m *Message) AsSlackAttachment() Attachment {
	blocks := []Block{
		{
			Type: section,
			Text: &Text{
				Type: markdown,
				Text: m.Description,
			},
			Accessory: &Accessory{
				Type: button,
				Text: &Text{
					Type:  plainText,
					Text:  fmt.Sprintf("%v Logs", emoji.MagnifyingGlassTiltedLeft),
					Emoji: true,
				},
				Value:    "click_logs",
				Url:      m.LogURL,
				ActionID: "button-action",
			},
		},
	}

	for _, lines := range [][]string{m.ActiveLines, m.CompletedLines} {
		if len(lines) == 0 {
			continue
		}
		blocks = append(blocks, Block{
			Type: contextString,
			Elements: []Text{
				{
					Type: markdown,
					Text: strings.Join(lines, "\n"),
				},
			},
		})
	}

	return Attachment{
		Color:    string(m.Color),
		Fallback: m.Fallback,
		Blocks:   blocks,
	}
}

func (m *Message) AsDiscordEmbed() *discordgo.MessageEmbed {
	description := m.Description
	for _, lines := range [][]string{m.ActiveLines, m.CompletedLines} {
		if len(lines) > 0 {
			description += "\n\n" + strings.Join(lines, "\n")
		}
	}

	return &discordgo.MessageEmbed{
		Type:        discordgo.EmbedTypeRich,
		Title:       "Logs",
		URL:         m.LogURL,
		Description: description,
		Color:       discordColor(m.Color),
	}
}

func discordColor(c model.Color) int {
	if c == model.Unset {
		return 0
	}
	value, err := strconv.ParseInt(strings.TrimPrefix(string(c), "#"), 16, 32)
	if err != nil {
		return 0
	}
	return int(value)
}
