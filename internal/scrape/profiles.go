package scrape

// HeaderProfile is a named set of request headers used by one fetch strategy.
type HeaderProfile struct {
	Name    string
	Headers map[string]string
}

const browserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// BrowserProfile mimics a desktop browser navigation.
var BrowserProfile = HeaderProfile{
	Name: "browser",
	Headers: map[string]string{
		"User-Agent":                browserUserAgent,
		"Accept":                    "text/html,application/xhtml+xml,application/xml;q=0.9,image/avif,image/webp,*/*;q=0.8",
		"Accept-Language":           "en-US,en;q=0.9",
		"Upgrade-Insecure-Requests": "1",
		"Sec-Fetch-Dest":            "document",
		"Sec-Fetch-Mode":            "navigate",
		"Sec-Fetch-Site":            "none",
		"Cache-Control":             "max-age=0",
		"DNT":                       "1",
	},
}

// MinimalProfile sends only a browser user agent and an HTML accept header.
var MinimalProfile = HeaderProfile{
	Name: "minimal",
	Headers: map[string]string{
		"User-Agent": browserUserAgent,
		"Accept":     "text/html",
	},
}

// BotProfile identifies honestly as a crawler.
var BotProfile = HeaderProfile{
	Name: "bot",
	Headers: map[string]string{
		"User-Agent": "Mozilla/5.0 (compatible; Sitebot/1.0)",
	},
}

// DefaultProfiles returns the strategies in the order they are tried.
func DefaultProfiles() []HeaderProfile {
	return []HeaderProfile{BrowserProfile, MinimalProfile, BotProfile}
}
