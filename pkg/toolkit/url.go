package toolkit

import (
	"fmt"
	"net/url"
	"regexp"
)

// blobTreePattern matches GitHub-style blob or tree URLs:
// /{owner}/{repo}/{blob|tree}/{ref}/{path...}
var blobTreePattern = regexp.MustCompile(`^/([^/]+)/([^/]+)/(blob|tree)/([^/]+)(?:/(.*))?$`)

// convertToRawURL rewrites a GitHub blob/tree URL to its raw-content
// equivalent, so read_file works whether the agent passes a browsable
// repository URL or an already-raw one. Returns the URL unchanged for
// any host or path shape it doesn't recognize.
func convertToRawURL(repoURL string) string {
	parsed, err := url.Parse(repoURL)
	if err != nil {
		return repoURL
	}
	if parsed.Host == "raw.githubusercontent.com" {
		return repoURL
	}
	if parsed.Host != "github.com" && parsed.Host != "www.github.com" {
		return repoURL
	}

	matches := blobTreePattern.FindStringSubmatch(parsed.Path)
	if matches == nil {
		return repoURL
	}

	owner, repo, ref, path := matches[1], matches[2], matches[4], matches[5]
	return fmt.Sprintf("https://raw.githubusercontent.com/%s/%s/refs/heads/%s/%s", owner, repo, ref, path)
}
