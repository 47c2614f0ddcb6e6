package cmd

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"runtime"
	"strings"
	"testing"
	"time"

	"github.com/creativeprojects/go-selfupdate"
)

type fakeAsset struct{ name string }

func (a fakeAsset) GetID() int64                  { return 7 }
func (a fakeAsset) GetName() string               { return a.name }
func (a fakeAsset) GetSize() int                  { return 1024 }
func (a fakeAsset) GetBrowserDownloadURL() string { return "https://example.invalid/" + a.name }

type fakeRelease struct {
	tag   string
	notes string
}

func (r fakeRelease) GetID() int64              { return 1 }
func (r fakeRelease) GetTagName() string        { return r.tag }
func (r fakeRelease) GetDraft() bool            { return false }
func (r fakeRelease) GetPrerelease() bool       { return false }
func (r fakeRelease) GetPublishedAt() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
func (r fakeRelease) GetReleaseNotes() string   { return r.notes }
func (r fakeRelease) GetName() string           { return r.tag }
func (r fakeRelease) GetURL() string            { return "https://example.invalid/releases/" + r.tag }
func (r fakeRelease) GetAssets() []selfupdate.SourceAsset {
	name := fmt.Sprintf("taboowiki_%s_%s.tar.gz", runtime.GOOS, runtime.GOARCH)
	return []selfupdate.SourceAsset{fakeAsset{name: name}}
}

// fakeSource serves a fixed release list and records the repository asked for.
type fakeSource struct {
	releases []selfupdate.SourceRelease
	err      error
	asked    string
}

func (s *fakeSource) ListReleases(_ context.Context, repository selfupdate.Repository) ([]selfupdate.SourceRelease, error) {
	owner, repo, err := repository.GetSlug()
	if err != nil {
		return nil, err
	}
	s.asked = owner + "/" + repo
	return s.releases, s.err
}

func (s *fakeSource) DownloadReleaseAsset(context.Context, *selfupdate.Release, int64) (io.ReadCloser, error) {
	return nil, errors.New("downloads are not served")
}

// runSelfUpdateWith runs self-update for version against source.
func runSelfUpdateWith(t *testing.T, version string, source *fakeSource, args ...string) (string, error) {
	t.Helper()
	originalVersion, originalSource := rootCmd.Version, releaseSource
	t.Cleanup(func() { rootCmd.Version, releaseSource = originalVersion, originalSource })
	rootCmd.Version = version
	releaseSource = source

	c := newSelfUpdateCmd()
	var buf bytes.Buffer
	c.SetOut(&buf)
	c.SetErr(&buf)
	c.SetArgs(args)
	c.SetContext(context.Background())
	err := c.Execute()
	return buf.String(), err
}

func TestNewSelfUpdateCmd(t *testing.T) {
	selfUpdateCmd := newSelfUpdateCmd()

	if selfUpdateCmd.Use != "self-update" {
		t.Errorf("Expected Use to be 'self-update', got %s", selfUpdateCmd.Use)
	}

	if selfUpdateCmd.Short == "" {
		t.Error("Expected Short description to be set")
	}

	if selfUpdateCmd.RunE == nil {
		t.Error("Expected RunE function to be set")
	}
}

func TestRunSelfUpdateWithDevVersion(t *testing.T) {
	originalVersion := rootCmd.Version
	defer func() { rootCmd.Version = originalVersion }()

	for _, v := range []string{"dev", ""} {
		rootCmd.Version = v

		err := runSelfUpdate(newSelfUpdateCmd(), []string{})
		if err == nil {
			t.Fatalf("Expected error for version %q", v)
		}
		if !strings.Contains(err.Error(), "cannot self-update a development version") {
			t.Errorf("Expected specific error message, got: %s", err.Error())
		}
	}
}

func TestSelfUpdateCommandHelp(t *testing.T) {
	selfUpdateCmd := newSelfUpdateCmd()
	var buf bytes.Buffer
	selfUpdateCmd.SetOut(&buf)
	selfUpdateCmd.SetErr(&buf)
	selfUpdateCmd.SetArgs([]string{"--help"})

	if err := selfUpdateCmd.Execute(); err != nil {
		t.Fatalf("Error executing self-update help: %v", err)
	}

	if !strings.Contains(buf.String(), "Checks for the latest release") {
		t.Errorf("Help output should contain long description. Got: %q", buf.String())
	}
}

func TestSelfUpdateCheckReportsNewerRelease(t *testing.T) {
	source := &fakeSource{releases: []selfupdate.SourceRelease{
		fakeRelease{tag: "v1.0.0"},
		fakeRelease{tag: "v1.2.0", notes: "Adds auth status --watch"},
	}}

	out, err := runSelfUpdateWith(t, "1.0.0", source, "--check")
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if source.asked != githubRepoSlug {
		t.Errorf("Expected releases of %s, got %s", githubRepoSlug, source.asked)
	}
	for _, want := range []string{"Found newer version: 1.2.0", "2026-03-01", "Adds auth status --watch", "Run 'taboowiki self-update'"} {
		if !strings.Contains(out, want) {
			t.Errorf("Expected output to contain %q. Got: %q", want, out)
		}
	}
	if strings.Contains(out, "Updating") {
		t.Errorf("--check must not install. Got: %q", out)
	}
}

func TestSelfUpdateAlreadyLatest(t *testing.T) {
	source := &fakeSource{releases: []selfupdate.SourceRelease{fakeRelease{tag: "v1.2.0"}}}

	out, err := runSelfUpdateWith(t, "1.2.0", source)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(out, "Current version is the latest.") {
		t.Errorf("Expected up to date message. Got: %q", out)
	}
}

func TestSelfUpdateFailures(t *testing.T) {
	tests := []struct {
		name    string
		source  *fakeSource
		wantErr string
	}{
		{name: "no release", source: &fakeSource{}, wantErr: "no taboowiki release for this platform"},
		{name: "feed error", source: &fakeSource{err: errors.New("rate limited")}, wantErr: "error detecting latest version: rate limited"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runSelfUpdateWith(t, "1.0.0", tt.source)
			if err == nil {
				t.Fatal("Expected an error")
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Expected %q in error, got: %s", tt.wantErr, err.Error())
			}
		})
	}
}
