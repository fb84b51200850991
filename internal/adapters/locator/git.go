package locator

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strings"

	"go.trai.ch/largo/internal/core/domain"
	"go.trai.ch/zerr"
)

var commitHashRegex = regexp.MustCompile("^[0-9a-f]{40}$")

// gitClient shells out to the system git for all repository transport.
type gitClient struct{}

func newGitClient() *gitClient {
	return &gitClient{}
}

// resolveRef resolves a branch, tag, or commit hash to a full commit hash
// without cloning. A 40-hex ref is already concrete and passes through.
func (g *gitClient) resolveRef(ctx context.Context, repo, ref string) (string, error) {
	if commitHashRegex.MatchString(ref) {
		return ref, nil
	}

	args := []string{"ls-remote", repo}
	if ref == "HEAD" {
		args = append(args, "HEAD")
	} else {
		// List both the plain ref and its peeled form so annotated tags
		// resolve to the commit they point at.
		args = append(args, "refs/heads/"+ref, "refs/tags/"+ref, "refs/tags/"+ref+"^{}")
	}

	out, err := g.run(ctx, "", args...)
	if err != nil {
		wrapped := zerr.Wrap(errors.Join(domain.ErrUnreachableSource, err), "listing remote refs")
		wrapped = zerr.With(wrapped, "repo", repo)
		return "", zerr.With(wrapped, "ref", ref)
	}

	return pickRef(out, repo, ref)
}

// pickRef chooses the commit hash from ls-remote output. A ref naming both a
// branch and a tag is rejected rather than silently preferring one.
func pickRef(out, repo, ref string) (string, error) {
	var branch, tag, peeled, head string

	for line := range strings.Lines(out) {
		fields := strings.Fields(line)
		if len(fields) != 2 {
			continue
		}
		hash, name := fields[0], fields[1]
		switch {
		case name == "HEAD":
			head = hash
		case name == "refs/heads/"+ref:
			branch = hash
		case name == "refs/tags/"+ref+"^{}":
			peeled = hash
		case name == "refs/tags/"+ref:
			tag = hash
		}
	}
	if peeled != "" {
		tag = peeled
	}

	switch {
	case ref == "HEAD" && head != "":
		return head, nil
	case branch != "" && tag != "":
		err := zerr.Wrap(domain.ErrAmbiguousRef, "ref names both a branch and a tag")
		err = zerr.With(err, "repo", repo)
		return "", zerr.With(err, "ref", ref)
	case branch != "":
		return branch, nil
	case tag != "":
		return tag, nil
	default:
		err := zerr.Wrap(domain.ErrAmbiguousRef, "ref not found at the remote")
		err = zerr.With(err, "repo", repo)
		return "", zerr.With(err, "ref", ref)
	}
}

// fetchInto materializes a repository at an exact commit into dir, without
// git metadata.
func (g *gitClient) fetchInto(ctx context.Context, repo, revision, dir string) error {
	steps := [][]string{
		{"init", "--quiet"},
		{"remote", "add", "origin", repo},
		{"fetch", "--quiet", "--depth", "1", "origin", revision},
		{"checkout", "--quiet", "FETCH_HEAD"},
	}
	for _, step := range steps {
		if _, err := g.run(ctx, dir, step...); err != nil {
			wrapped := zerr.Wrap(errors.Join(domain.ErrUnreachableSource, err), "fetching repository")
			wrapped = zerr.With(wrapped, "repo", repo)
			return zerr.With(wrapped, "revision", revision)
		}
	}
	return os.RemoveAll(filepath.Join(dir, ".git"))
}

func (g *gitClient) run(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), "GIT_TERMINAL_PROMPT=0")

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			msg = err.Error()
		}
		return "", zerr.With(zerr.New(msg), "git_args", strings.Join(args, " "))
	}
	return stdout.String(), nil
}
