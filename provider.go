package main

import (
	"fmt"
	"net/url"
	"strings"
)

// ReleaseHost describes a GitHub-style release host.
type ReleaseHost struct {
	APIURL      string
	DownloadURL string
	Owner       string
	Token       string
}

// LatestReleaseURL returns the endpoint holding the latest release metadata
// of `tool`.
func (h ReleaseHost) LatestReleaseURL(tool string) string {
	return fmt.Sprintf("%s/repos/%s/%s/releases/latest", h.APIURL, h.Owner, tool)
}

// ReleasesURL returns the endpoint listing all releases of `tool`.
func (h ReleaseHost) ReleasesURL(tool string) string {
	return fmt.Sprintf("%s/repos/%s/%s/releases", h.APIURL, h.Owner, tool)
}

// DownloadBaseURL returns the directory all assets of the given release are
// served from.
func (h ReleaseHost) DownloadBaseURL(tool string, version string) string {
	return fmt.Sprintf("%s/%s/%s/releases/download/%s", h.DownloadURL, h.Owner, tool, url.PathEscape(version))
}

// ReleaseArtifact names the archive and checksum manifest of a release for a
// specific target.
type ReleaseArtifact struct {
	ArchiveName string
	ArchiveURL  string
	ManifestURL string
}

type archiveData struct {
	Tool    string
	Version string
	Target  string
	OS      string
	Arch    string
}

// LocateArtifact computes the release artifact of `tool` at `version` for
// `target`. It does not access the network.
func LocateArtifact(host ReleaseHost, archiveTemplate string, tool string, version string, target Target) (ReleaseArtifact, error) {
	if archiveTemplate == "" {
		archiveTemplate = defaultArchiveTemplate
	}
	name, err := renderTemplate(archiveTemplate, archiveData{
		Tool:    tool,
		Version: version,
		Target:  target.String(),
		OS:      target.OS,
		Arch:    target.Arch,
	})
	if err != nil {
		return ReleaseArtifact{}, fmt.Errorf("render archive name: %w", err)
	}
	if name == "" || strings.ContainsAny(name, `/\`) || name == manifestName {
		return ReleaseArtifact{}, fmt.Errorf("invalid archive name: %q", name)
	}

	base := host.DownloadBaseURL(tool, version)
	return ReleaseArtifact{
		ArchiveName: name,
		ArchiveURL:  base + "/" + name,
		ManifestURL: base + "/" + manifestName,
	}, nil
}
