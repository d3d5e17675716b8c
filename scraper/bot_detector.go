package scraper

import (
	"regexp"
	"strings"
)

// BotDetector recognises bot walls and captchas served instead of the
// product page, so a missing price can be reported with its likely cause.
type BotDetector struct {
	captchaPatterns []*regexp.Regexp
	blockPatterns   []*regexp.Regexp
}

// NewBotDetector creates a new bot detector
func NewBotDetector() *BotDetector {
	return &BotDetector{
		captchaPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)recaptcha`),
			regexp.MustCompile(`(?i)hcaptcha`),
			regexp.MustCompile(`(?i)captcha`),
			regexp.MustCompile(`(?i)verify you are human`),
			regexp.MustCompile(`(?i)checking your browser`),
		},
		blockPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)access denied`),
			regexp.MustCompile(`(?i)bot detected`),
			regexp.MustCompile(`(?i)too many requests`),
			regexp.MustCompile(`(?i)ddos protection`),
			regexp.MustCompile(`(?i)site temporarily unavailable`),
		},
	}
}

// Explain returns a short reason when content looks like a bot wall, or
// an empty string when it looks like an ordinary page.
func (bd *BotDetector) Explain(content string) string {
	for _, pattern := range bd.captchaPatterns {
		if pattern.MatchString(content) {
			return "captcha detected: " + strings.TrimPrefix(pattern.String(), "(?i)")
		}
	}
	for _, pattern := range bd.blockPatterns {
		if pattern.MatchString(content) {
			return "blocked: " + strings.TrimPrefix(pattern.String(), "(?i)")
		}
	}
	return ""
}
