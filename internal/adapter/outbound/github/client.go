// Package github loads files referenced as github://owner/repo/path[@ref]
// through the authenticated gh CLI.
package github

import (
	"bytes"
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

// Scheme prefixes GitHub file references.
const Scheme = "github://"

// Location is a file in a GitHub repository, optionally pinned to a ref.
type Location struct {
	Owner string
	Repo  string
	Path  string
	Ref   string
}

// IsURL reports whether s is a github:// reference.
func IsURL(s string) bool {
	return strings.HasPrefix(s, Scheme)
}

// ParseURL parses github://owner/repo/path/to/file[@ref].
func ParseURL(s string) (Location, error) {
	if !IsURL(s) {
		return Location{}, fmt.Errorf("invalid GitHub URL format: %s", s)
	}
	rest := strings.TrimPrefix(s, Scheme)

	var loc Location
	if i := strings.LastIndex(rest, "@"); i >= 0 {
		rest, loc.Ref = rest[:i], rest[i+1:]
	}
	parts := strings.SplitN(rest, "/", 3)
	if len(parts) < 3 || parts[0] == "" || parts[1] == "" || parts[2] == "" {
		return Location{}, errors.New("invalid GitHub URL format: expected github://owner/repo/path/to/file")
	}
	loc.Owner, loc.Repo, loc.Path = parts[0], parts[1], parts[2]
	return loc, nil
}

// APIPath is the contents API path of the file.
func (l Location) APIPath() string {
	p := fmt.Sprintf("repos/%s/%s/contents/%s", l.Owner, l.Repo, l.Path)
	if l.Ref != "" {
		p += "?ref=" + l.Ref
	}
	return p
}

// Runner executes a command and returns its stdout and stderr.
type Runner func(ctx context.Context, name string, args ...string) (stdout, stderr []byte, err error)

// Client fetches repository files with the gh CLI.
type Client struct {
	run Runner
}

// NewClient creates a Client that shells out to gh.
func NewClient() *Client {
	return &Client{run: execRunner}
}

// NewClientWithRunner creates a Client using run instead of os/exec.
func NewClientWithRunner(run Runner) *Client {
	return &Client{run: run}
}

// FetchFile returns the decoded contents of the file at githubURL.
func (c *Client) FetchFile(ctx context.Context, githubURL string) ([]byte, error) {
	loc, err := ParseURL(githubURL)
	if err != nil {
		return nil, err
	}

	stdout, stderr, err := c.run(ctx, "gh", "api", loc.APIPath(), "--jq", ".content")
	if err != nil {
		return nil, ghError(stderr, err)
	}

	encoded := strings.TrimSpace(string(stdout))
	if encoded == "" {
		return nil, errors.New("empty response from GitHub")
	}
	// The contents API wraps base64 at 60 columns; the decoder skips newlines.
	content, err := base64.StdEncoding.DecodeString(encoded)
	if err != nil {
		return nil, fmt.Errorf("failed to decode base64 content: %w", err)
	}
	return content, nil
}

func ghError(stderr []byte, err error) error {
	msg := strings.TrimSpace(string(stderr))
	switch {
	case errors.Is(err, exec.ErrNotFound):
		return errors.New("gh CLI is not installed. Please install it from https://cli.github.com/")
	case strings.Contains(msg, "not logged in"):
		return errors.New("gh CLI is not authenticated. Please run 'gh auth login' first")
	case msg != "":
		return fmt.Errorf("gh command failed: %s", msg)
	default:
		return fmt.Errorf("gh command failed: %w", err)
	}
}

func execRunner(ctx context.Context, name string, args ...string) ([]byte, []byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	err := cmd.Run()
	return stdout.Bytes(), stderr.Bytes(), err
}
