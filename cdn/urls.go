package cdn

import (
	"net/url"
	"path"
	"regexp"
	"strings"

	"github.com/pkg/errors"
)

// versionSegment matches the version marker the CDN injects into delivery
// paths, e.g. "v1712345678".
var versionSegment = regexp.MustCompile(`^v\d+$`)

// PublicIDFromURL extracts the provider public ID from a delivery URL.
//
// Delivery URLs look like
//
//	https://res.cloudinary.com/<cloud>/image/upload/v123/<folder>/<name>.jpg
//
// and the public ID is the path after the upload/version segments with the
// extension stripped: "<folder>/<name>".
//
// Arguments:
//   - rawURL: The delivery URL.
//
// Returns:
//   - string: The public ID.
//   - error: An error if the URL does not carry a recognizable asset path.
func PublicIDFromURL(rawURL string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrap(err, "cdn: invalid delivery url")
	}

	segments := strings.Split(strings.Trim(parsed.Path, "/"), "/")

	// Find the "upload" delivery-type marker; everything after it (minus a
	// version segment) is the public ID.
	idx := -1
	for i, seg := range segments {
		if seg == "upload" {
			idx = i
			break
		}
	}
	if idx == -1 || idx == len(segments)-1 {
		return "", errors.Errorf("cdn: no asset path in url %s", rawURL)
	}

	rest := segments[idx+1:]
	if versionSegment.MatchString(rest[0]) {
		rest = rest[1:]
	}
	if len(rest) == 0 {
		return "", errors.Errorf("cdn: no asset path in url %s", rawURL)
	}

	publicID := strings.Join(rest, "/")
	publicID = strings.TrimSuffix(publicID, path.Ext(publicID))
	if publicID == "" {
		return "", errors.Errorf("cdn: no asset path in url %s", rawURL)
	}
	return publicID, nil
}
