// Package rewrite produces alternative drafts: free-form rewrites through an
// LLM and deterministic tip application.
package rewrite

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/xeo-app/xeo-backend/internal/llm"
	"github.com/xeo-app/xeo-backend/internal/metrics"
	"github.com/xeo-app/xeo-backend/internal/tips"
)

// Rewrite styles.
const (
	StyleKeepTone      = "keep_tone"
	StylePlatformStyle = "platform_style"
	StyleLengthFit     = "length_fit"
	translatePrefix    = "translate:"
)

// ErrInvalidStyle is returned for styles outside the supported set.
var ErrInvalidStyle = errors.New("invalid rewrite style")

// Result is the outcome of a rewrite. Fallback is set when the provider
// failed and Text is the unchanged input.
type Result struct {
	Original string `json:"original_content"`
	Text     string `json:"rewritten_content"`
	Style    string `json:"style"`
	Fallback bool   `json:"fallback"`
}

// Rewriter rewrites drafts with an LLM.
type Rewriter struct {
	client llm.Client
}

// NewRewriter creates a Rewriter. client may be nil, in which case every
// rewrite falls back to the original text.
func NewRewriter(client llm.Client) *Rewriter {
	return &Rewriter{client: client}
}

// ValidateStyle checks style and returns the translation target, if any.
func ValidateStyle(style string) (string, error) {
	switch style {
	case StyleKeepTone, StylePlatformStyle, StyleLengthFit:
		return "", nil
	}
	if lang, ok := strings.CutPrefix(style, translatePrefix); ok && tips.ValidLanguage(lang) {
		return lang, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidStyle, style)
}

const rewriteSystem = `You rewrite social media posts for X. Return only the rewritten post text, without quotes or commentary.`

// Rewrite returns text rewritten in style. reference is optional example text
// whose voice the rewrite should follow. Only an invalid style is an error;
// provider failures return the original text with Fallback set.
func (r *Rewriter) Rewrite(ctx context.Context, text, style, reference string) (*Result, error) {
	target, err := ValidateStyle(style)
	if err != nil {
		return nil, err
	}

	result := &Result{Original: text, Text: text, Style: style}
	if r.client == nil {
		return fallback(result, fmt.Errorf("no LLM provider configured")), nil
	}

	out, err := r.client.Complete(ctx, rewriteSystem, buildRewritePrompt(text, style, target, reference))
	if err != nil {
		return fallback(result, err), nil
	}
	out = strings.Trim(strings.TrimSpace(out), `"`)
	if out == "" {
		return fallback(result, fmt.Errorf("empty rewrite")), nil
	}

	result.Text = out
	return result, nil
}

func fallback(result *Result, err error) *Result {
	logrus.Warnf("Rewrite (%s) failed, returning original text: %v", result.Style, err)
	metrics.RewriteFallbacks.Inc()
	result.Fallback = true
	return result
}

func buildRewritePrompt(text, style, target, reference string) string {
	var b strings.Builder
	switch {
	case target != "":
		fmt.Fprintf(&b, "Translate the post into natural %s. Keep hashtags, mentions and links unchanged.\n", tips.LanguageName(target))
	case style == StyleKeepTone:
		b.WriteString("Improve clarity and flow while keeping the author's tone, language and meaning.\n")
	case style == StylePlatformStyle:
		b.WriteString("Rewrite the post in a style that performs well on X: a strong first line, short sentences, one clear point.\n")
	case style == StyleLengthFit:
		b.WriteString("Rewrite the post to between 70 and 200 characters without losing its point.\n")
	}
	if reference != "" {
		fmt.Fprintf(&b, "\nMatch the voice of this reference post:\n%s\n", reference)
	}
	fmt.Fprintf(&b, "\nPost:\n%s", text)
	return b.String()
}
