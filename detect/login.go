// Package detect inspects fully rendered HTML for authentication and
// access-restriction walls.
package detect

import (
	"bytes"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// strongIndicators each independently mark a page as login-gated.
var strongIndicators = []string{
	"please log in", "please sign in", "login required", "sign in required",
	"authentication required", "access denied", "members only",
	"401 unauthorized", "403 forbidden", "access restricted",
	"subscription required", "premium content", "paywall",
	"subscribe to continue",
}

// formIndicators are weak on their own; several must co-occur before
// the page counts as a login form.
var formIndicators = []string{
	"password", "username", "login", "sign in", "log in",
}

// minFormIndicators is how many weak indicators must be present.
const minFormIndicators = 4

// LoginWall reports whether the rendered HTML is blocked by a login or
// paywall screen. It must run on post-render HTML: client-rendered auth
// banners are commonly absent from the initial document.
//
// Detection layers, cheapest first:
//  1. any strong phrase in the visible text,
//  2. a form containing a password input,
//  3. enough weak form phrases co-occurring in the full markup.
func LoginWall(rendered string) bool {
	visible := strings.ToLower(visibleText(rendered))
	for _, ind := range strongIndicators {
		if strings.Contains(visible, ind) {
			return true
		}
	}

	if hasPasswordForm(rendered) {
		return true
	}

	low := strings.ToLower(rendered)
	count := 0
	for _, ind := range formIndicators {
		if strings.Contains(low, ind) {
			count++
		}
	}
	return count >= minFormIndicators
}

// hasPasswordForm checks for a structural login form: an
// input[type=password] inside a form element.
func hasPasswordForm(rendered string) bool {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(rendered))
	if err != nil {
		return false
	}
	return doc.Find(`form input[type="password"]`).Length() > 0
}

// visibleText extracts the text content of <title> and <body>, skipping
// script, style and noscript blocks. Matching strong phrases against
// visible text avoids false positives from phrases buried in bundled
// JS; the title is included because access walls often announce
// themselves only there ("403 Forbidden", "Please log in").
func visibleText(rendered string) string {
	tokenizer := html.NewTokenizer(bytes.NewReader([]byte(rendered)))
	var buf strings.Builder
	inBody := false
	inTitle := false
	skipDepth := 0

	for {
		tt := tokenizer.Next()
		switch tt {
		case html.ErrorToken:
			if buf.Len() == 0 {
				// No body tag seen (fragment input): fall back to the
				// raw markup so indicator matching still has a chance.
				return rendered
			}
			return buf.String()
		case html.StartTagToken:
			tn, _ := tokenizer.TagName()
			tag := string(tn)
			switch tag {
			case "body":
				inBody = true
			case "title":
				inTitle = true
			case "script", "style", "noscript":
				skipDepth++
			}
		case html.EndTagToken:
			tn, _ := tokenizer.TagName()
			tag := string(tn)
			switch tag {
			case "title":
				inTitle = false
			case "script", "style", "noscript":
				if skipDepth > 0 {
					skipDepth--
				}
			}
		case html.TextToken:
			if (inBody || inTitle) && skipDepth == 0 {
				text := strings.TrimSpace(string(tokenizer.Text()))
				if text != "" {
					buf.WriteString(text)
					buf.WriteByte(' ')
				}
			}
		}
	}
}
