package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"sort"
	"strings"

	"github.com/AsaiYusuke/jsonpath"
	"github.com/Masterminds/semver/v3"

	"go.cluttr.dev/gw-install/internal/metaerr"
)

const releasesTagJSONPath = "$[*].tag_name"

// tagPattern matches the tag field of a release metadata document.
var tagPattern = regexp.MustCompile(`"tag_name"\s*:\s*"([^"]+)"`)

// ResolveVersion returns the release tag to install.
// An empty `requested` version (or "latest") is resolved through the latest
// release endpoint of `tool`. A semver constraint is resolved to the highest
// matching release. Anything else is returned as-is.
func ResolveVersion(ctx context.Context, client *http.Client, host ReleaseHost, tool string, requested string) (string, error) {
	switch {
	case requested == "" || requested == "latest":
		url := host.LatestReleaseURL(tool)
		version, err := GetLatestVersion(ctx, client, url)
		if err != nil {
			return "", metaerr.WithMetadata(fmt.Errorf("%w: %w", ErrResolution, err), "url", url)
		}
		return version, nil
	case isConstraint(requested):
		url := host.ReleasesURL(tool)
		versions, err := GetVersions(ctx, client, url, releasesTagJSONPath)
		if err != nil {
			return "", metaerr.WithMetadata(fmt.Errorf("%w: %w", ErrResolution, err), "url", url)
		}
		version, err := FindLatestVersion(versions, requested, "")
		if err != nil {
			return "", fmt.Errorf("%w: %w", ErrResolution, err)
		}
		return version, nil
	}
	return requested, nil
}

// GetLatestVersion queries the latest release metadata at `url` and extracts
// its tag.
func GetLatestVersion(ctx context.Context, client *http.Client, url string) (string, error) {
	body, _, err := getBody(ctx, client, url)
	if err != nil {
		return "", err
	}
	return extractTag(body)
}

// GetVersions queries the `url` and filters the response using the JSONPath
// `path` to get a list of versions.
func GetVersions(ctx context.Context, client *http.Client, url string, path string) ([]string, error) {
	var versions []string

	for url != "" {
		body, header, err := getBody(ctx, client, url)
		if err != nil {
			return nil, err
		}

		var src any
		if err := json.Unmarshal(body, &src); err != nil {
			return nil, fmt.Errorf("unmarshal response body: %w", err)
		}

		vs, err := retrieveVersions(src, path)
		if err != nil {
			return nil, err
		}
		versions = append(versions, vs...)

		url = findNextLink(header.Values("Link"))
	}

	return versions, nil
}

// FindLatestVersion returns the latest version from the list of `versions`
// that matches the given constraints `spec`.
func FindLatestVersion(versions []string, spec string, prefix string) (string, error) {
	if spec == "" || spec == "latest" {
		spec = "*"
	}
	constraints, err := semver.NewConstraint(strings.TrimPrefix(spec, prefix))
	if err != nil {
		return "", err
	}

	vs := make([]*semver.Version, 0, len(versions))
	for _, raw := range versions {
		v, err := semver.NewVersion(strings.TrimPrefix(raw, prefix))
		if err != nil {
			continue
		}
		if !constraints.Check(v) {
			continue
		}
		vs = append(vs, v)
	}
	if len(vs) == 0 {
		return "", fmt.Errorf("no matching versions: %v", spec)
	}

	sort.Sort(sort.Reverse(semver.Collection(vs)))
	latest := prefix + vs[0].Original()
	return latest, nil
}

func getBody(ctx context.Context, client *http.Client, url string) ([]byte, http.Header, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/vnd.github+json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, nil, err
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	body, err := io.ReadAll(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, nil, metaerr.WithMetadata(
			fmt.Errorf("%d - %s", resp.StatusCode, http.StatusText(resp.StatusCode)),
			"body", string(body),
		)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("read response body: %w", err)
	}

	return body, resp.Header, nil
}

// extractTag returns the first tag field found in a latest release metadata
// document, wherever it is nested.
func extractTag(body []byte) (string, error) {
	m := tagPattern.FindSubmatch(body)
	if m == nil {
		return "", fmt.Errorf("no tag found in response body")
	}
	return string(m[1]), nil
}

func retrieveVersions(src any, path string) ([]string, error) {
	config := jsonpath.Config{}
	config.SetAccessorMode()

	results, err := jsonpath.Retrieve(path, src, config)
	if err != nil {
		return nil, err
	}

	var versions []string
	for _, result := range results {
		version, _ := result.(jsonpath.Accessor).Get().(string)
		if version == "" {
			continue
		}
		versions = append(versions, version)
	}

	return versions, nil
}

// isConstraint reports whether a requested version is a semver range rather
// than a release tag.
func isConstraint(v string) bool {
	if strings.ContainsAny(v[:1], "~^<>=!*") {
		return true
	}
	return strings.ContainsAny(v, " ,") || strings.Contains(v, "||")
}

func findNextLink(headers []string) string {
	for _, raw := range headers {
		// Header values may be comma delimited sequences
		for _, header := range strings.Split(raw, ",") {
			var linkURL, linkRel string

			// Link header values have the form: <url>; rel="next"; foo="bar"
			for _, part := range strings.Split(header, ";") {
				part = strings.TrimSpace(part)
				if part == "" {
					continue
				}

				// <url>
				if part[0] == '<' && part[len(part)-1] == '>' {
					linkURL = strings.Trim(part, "<>")
					continue
				}

				// rel="next"
				keyval := strings.SplitN(part, "=", 2)
				if len(keyval) != 2 {
					continue
				} else if strings.ToLower(keyval[0]) == "rel" {
					linkRel = strings.Trim(keyval[1], "\"")
				}
			}

			if strings.ToLower(linkRel) == "next" {
				return linkURL
			}
		}
	}
	return ""
}
