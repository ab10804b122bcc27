package transform

import (
	"fmt"
	"net/url"
	"regexp"
	"strings"

	"github.com/pablosocial/pablo/internal/domain"
)

// filenamePattern scans a raw URL for the first "segment.extension" path
// component when the parsed path yields no usable filename.
var filenamePattern = regexp.MustCompile(`/([^/?]+\.[^/?]+)`)

// ExtractFilename derives a filename from an asset URL: the percent-decoded
// final path segment, or, when that segment is empty or has no extension,
// the first name.ext pattern found anywhere in the URL text. Returns "" when
// no filename can be derived.
func ExtractFilename(rawURL string) string {
	if rawURL == "" {
		return ""
	}

	var path string
	if u, err := url.Parse(rawURL); err == nil {
		path = u.Path
	}
	if decoded, err := url.PathUnescape(path); err == nil {
		path = decoded
	}

	name := path
	if i := strings.LastIndex(path, "/"); i >= 0 {
		name = path[i+1:]
	}

	if name == "" || !strings.Contains(name, ".") {
		m := filenamePattern.FindStringSubmatch(rawURL)
		if m == nil {
			return ""
		}
		name = m[1]
	}
	return name
}

// ensureScheme prepends https:// to a URL missing an explicit scheme.
// Notion url and files property values frequently omit it.
func ensureScheme(raw string) string {
	if raw == "" {
		return ""
	}
	if strings.HasPrefix(raw, "http://") || strings.HasPrefix(raw, "https://") {
		return raw
	}
	return "https://" + raw
}

// coerceURL validates that raw parses as an absolute http(s) URL and returns
// it in canonical string form. Failure is fatal and names the field.
func coerceURL(field, raw string) (string, error) {
	u, err := url.Parse(raw)
	if err != nil {
		return "", domain.InvalidField(field, fmt.Sprintf("invalid URL %q: %v", raw, err))
	}
	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", domain.InvalidField(field, fmt.Sprintf("%q is not an absolute http(s) URL", raw))
	}
	return u.String(), nil
}
