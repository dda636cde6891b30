package newsapi

import (
	"encoding/json"
	"strings"

	"github.com/jfeld/newsvault/internal/news"
)

// The provider reuses arbitrary HTTP status codes for distinct semantics,
// so classification inspects the response content instead. These indicator
// lists are matched against the parsed error code/message and, when JSON
// parsing fails, against the raw body text.
var rateLimitIndicators = []string{
	"rate limit",
	"rate_limit",
	"quota",
	"too many requests",
	"too many calls",
	"request limit",
	"api limit exceeded",
	"throttle",
}

var rateLimitCodes = map[string]struct{}{
	"ratelimited":       {},
	"ratelimitexceeded": {},
	"toomanyrequests":   {},
	"quotaexceeded":     {},
}

const resultLimitCode = "maximumresultsreached"

// Classify maps one HTTP response to the outcome taxonomy. It is a pure
// function so the error handling is unit-testable without a network. A
// result-limit error body that carries an article list is returned as a
// usable partial payload rather than discarded.
func Classify(statusCode int, body []byte) (news.OutcomeKind, *news.SearchPage) {
	var page news.SearchPage
	parseErr := json.Unmarshal(body, &page)

	if parseErr == nil && page.Status == news.StatusOK {
		return news.OutcomeSuccess, &page
	}

	code := strings.ToLower(page.Code)
	message := strings.ToLower(page.Message)
	text := strings.ToLower(string(body))

	if isRateLimit(code, message, text) {
		return news.OutcomeRateLimited, nil
	}
	if isResultLimit(code, message, text) {
		if parseErr == nil && len(page.Articles) > 0 {
			return news.OutcomeResultLimit, &page
		}
		return news.OutcomeResultLimit, nil
	}
	return news.OutcomeFailure, nil
}

func isRateLimit(code, message, text string) bool {
	if _, ok := rateLimitCodes[code]; ok {
		return true
	}
	for _, indicator := range rateLimitIndicators {
		if strings.Contains(message, indicator) || strings.Contains(text, indicator) {
			return true
		}
	}
	return false
}

func isResultLimit(code, message, text string) bool {
	if code == resultLimitCode {
		return true
	}
	for _, probe := range []string{message, text} {
		if strings.Contains(probe, "result limit") || strings.Contains(probe, "maximum results") {
			return true
		}
		// Covers phrasings like "limited to a max of 100 results".
		if strings.Contains(probe, "limited to") && strings.Contains(probe, "results") {
			return true
		}
		if strings.Contains(probe, "max of") && strings.Contains(probe, "results") {
			return true
		}
	}
	return false
}
