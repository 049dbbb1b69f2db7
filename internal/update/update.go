package update

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	selfupdate "github.com/creativeprojects/go-selfupdate"
)

// Repo is the GitHub slug releases are published under.
const Repo = "justinpbarnett/devdeck"

const (
	checkTimeout = 10 * time.Second
	applyTimeout = 2 * time.Minute
)

// ErrDevBuild is returned when asked to replace a binary that was not built
// from a tagged release.
var ErrDevBuild = errors.New("development build cannot self-update; install a release first")

// Release describes a published version.
type Release struct {
	Version      string
	URL          string
	ReleaseNotes string
}

func isDevBuild(v string) bool {
	return v == "" || v == "dev"
}

func newUpdater() (*selfupdate.Updater, error) {
	source, err := selfupdate.NewGitHubSource(selfupdate.GitHubConfig{})
	if err != nil {
		return nil, fmt.Errorf("create github source: %w", err)
	}
	updater, err := selfupdate.NewUpdater(selfupdate.Config{Source: source})
	if err != nil {
		return nil, fmt.Errorf("create updater: %w", err)
	}
	return updater, nil
}

// Check returns the latest release when it is newer than currentVersion,
// and nil for development builds or when already up to date.
func Check(ctx context.Context, currentVersion, repo string) (*Release, error) {
	if isDevBuild(currentVersion) {
		return nil, nil
	}
	current, err := parseSemver(currentVersion)
	if err != nil {
		return nil, nil
	}

	updater, err := newUpdater()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, checkTimeout)
	defer cancel()

	latest, found, err := updater.DetectLatest(ctx, selfupdate.ParseSlug(repo))
	if err != nil {
		return nil, fmt.Errorf("detect latest release: %w", err)
	}
	if !found {
		return nil, nil
	}

	latestVer, err := semver.NewVersion(latest.Version())
	if err != nil || !latestVer.GreaterThan(current) {
		return nil, nil
	}

	return &Release{
		Version:      latest.Version(),
		URL:          latest.URL,
		ReleaseNotes: latest.ReleaseNotes,
	}, nil
}

// Apply replaces the running executable with the latest release.
func Apply(ctx context.Context, currentVersion, repo string) (*Release, error) {
	if isDevBuild(currentVersion) {
		return nil, ErrDevBuild
	}

	updater, err := newUpdater()
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, applyTimeout)
	defer cancel()

	rel, err := updater.UpdateSelf(ctx, strings.TrimPrefix(currentVersion, "v"), selfupdate.ParseSlug(repo))
	if err != nil {
		return nil, fmt.Errorf("update failed: %w", err)
	}

	return &Release{
		Version:      rel.Version(),
		URL:          rel.URL,
		ReleaseNotes: rel.ReleaseNotes,
	}, nil
}

// CompareVersions returns -1, 0 or 1. Unparseable versions sort before
// any valid one.
func CompareVersions(current, latest string) int {
	cv, errC := parseSemver(current)
	lv, errL := parseSemver(latest)

	switch {
	case errC != nil && errL != nil:
		return 0
	case errC != nil:
		return -1
	case errL != nil:
		return 1
	}
	return cv.Compare(lv)
}

// parseSemver accepts a leading "v" and git-describe suffixes such as
// "0.1.0-3-gabcdef", which parse as prereleases.
func parseSemver(s string) (*semver.Version, error) {
	return semver.NewVersion(strings.TrimPrefix(s, "v"))
}
