package share

import (
	"fmt"
	"net/url"
)

// Link is a parsed shareable link: either a by-identifier reference
// (UUID set) or an inline payload (ChatID and Data set).
type Link struct {
	UUID   string
	ChatID string
	Data   string
}

// ParseLink extracts either share form from a raw URL. Both forms must be
// accepted: `?uuid={uuid}` and `?chatId={id}&data={payload}`.
func ParseLink(rawURL string) (Link, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return Link{}, fmt.Errorf("parse share link: %w", err)
	}
	q := u.Query()

	if uid := q.Get("uuid"); uid != "" {
		return Link{UUID: uid}, nil
	}

	chatID := q.Get("chatId")
	data := q.Get("data")
	if chatID != "" && data != "" {
		return Link{ChatID: chatID, Data: data}, nil
	}

	return Link{}, fmt.Errorf("share link carries neither uuid nor chatId+data")
}

// BuildUUIDLink builds the signed-in-publish link form.
func BuildUUIDLink(baseURL, uuid string) string {
	return baseURL + "?uuid=" + url.QueryEscape(uuid)
}

// BuildInlineLink builds the anonymous inline link form.
func BuildInlineLink(baseURL, chatID, data string) string {
	return baseURL + "?chatId=" + url.QueryEscape(chatID) + "&data=" + url.QueryEscape(data)
}
