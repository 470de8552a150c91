package bot

import "strings"

// CoffeeKeywords is the multilingual coffee vocabulary. Tokens are matched
// by substring, so inflected forms ("kahvia", "coffees") hit too. Recall
// over precision: a false positive costs one extra bot reply.
var CoffeeKeywords = []string{
	"kahvi",
	"kahve",
	"kohve",
	"kohvi",
	"kaffe",
	"kahavi",
	"kahhavi",
	"sumppi",
	"suppii",
	"sumpe",
	"sumpit",
	"caffe",
	"coffee",
	"cafe",
	"kofe",
	"cofe",
}

// Tokens with these prefixes are the bot's own hashtag and mention forms;
// matching inside them would make the bot answer its own echoes.
var skipPrefixes = []string{
	"#coffeesituation",
	"@coffee",
}

// MentionsCoffee reports whether free text denotes a coffee request. The
// text is lower-cased, é is folded to e, and each whitespace token is
// tested for a keyword substring, short-circuiting on the first hit.
func MentionsCoffee(text string) bool {
	text = strings.ReplaceAll(strings.ToLower(text), "é", "e")
	for _, token := range strings.Fields(text) {
		if hasSkipPrefix(token) {
			continue
		}
		for _, kw := range CoffeeKeywords {
			if strings.Contains(token, kw) {
				return true
			}
		}
	}
	return false
}

func hasSkipPrefix(token string) bool {
	for _, p := range skipPrefixes {
		if strings.HasPrefix(token, p) {
			return true
		}
	}
	return false
}
