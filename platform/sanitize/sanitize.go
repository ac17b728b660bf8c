// Package sanitize provides text sanitization utilities to prevent XSS attacks.
package sanitize

import (
	"strings"

	"golang.org/x/net/html"
)

// StripHTML removes all HTML tags from a string, keeping only its text content.
// Entities are decoded by the tokenizer; script and style bodies are dropped.
func StripHTML(s string) string {
	if !strings.ContainsAny(s, "<&") {
		return strings.TrimSpace(s)
	}

	tokenizer := html.NewTokenizer(strings.NewReader(s))
	var b strings.Builder
	skip := 0

	for {
		switch tokenizer.Next() {
		case html.ErrorToken:
			return strings.TrimSpace(b.String())
		case html.StartTagToken:
			if isRawTextTag(tokenizer) {
				skip++
			}
		case html.EndTagToken:
			if isRawTextTag(tokenizer) && skip > 0 {
				skip--
			}
		case html.TextToken:
			if skip == 0 {
				b.Write(tokenizer.Text())
			}
		}
	}
}

func isRawTextTag(t *html.Tokenizer) bool {
	name, _ := t.TagName()
	switch string(name) {
	case "script", "style":
		return true
	}
	return false
}

// Text sanitizes a string for safe text storage by stripping HTML.
// Use for user-provided text fields like funnel answers and notes.
func Text(s string) string {
	return StripHTML(s)
}

// TextPtr is a helper for optional string pointers
func TextPtr(s *string) *string {
	if s == nil {
		return nil
	}
	result := Text(*s)
	return &result
}

// Values sanitizes every string inside a decoded JSON object, recursing into
// nested objects and arrays. Non-string values are returned unchanged.
func Values(data map[string]any) map[string]any {
	if data == nil {
		return nil
	}
	out := make(map[string]any, len(data))
	for k, v := range data {
		out[k] = value(v)
	}
	return out
}

func value(v any) any {
	switch typed := v.(type) {
	case string:
		return Text(typed)
	case map[string]any:
		return Values(typed)
	case []any:
		items := make([]any, len(typed))
		for i, item := range typed {
			items[i] = value(item)
		}
		return items
	default:
		return v
	}
}
