package testutil

import (
	"context"
	"fmt"

	"github.com/ajxudir/releasewatch/pkg/catalog"
	"github.com/ajxudir/releasewatch/pkg/lines"
	"github.com/ajxudir/releasewatch/pkg/qualify"
	"github.com/ajxudir/releasewatch/pkg/version"
)

// Supported builds a line map from line/version pairs, e.g.
// Supported("18", "18.0.0", "20", "20.0.0").
func Supported(pairs ...string) *lines.Map[version.Version] {
	m := lines.New[version.Version]()
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Set(pairs[i], version.MustParse(pairs[i+1]))
	}
	return m
}

// Releases builds primary index records from tags.
func Releases(tags ...string) []catalog.Release {
	out := make([]catalog.Release, 0, len(tags))
	for _, tag := range tags {
		out = append(out, catalog.Release{Version: tag})
	}
	return out
}

// Entry builds an alternate index record listing files.
func Entry(tag string, security bool, files ...string) catalog.Entry {
	return catalog.Entry{Version: tag, Files: files, Security: security}
}

// FakeSource is a SupportedSource returning fixed lines.
type FakeSource struct {
	Lines *lines.Map[version.Version]
	Err   error
}

// Supported returns Lines or Err.
func (f *FakeSource) Supported(context.Context) (*lines.Map[version.Version], error) {
	if f.Err != nil {
		return nil, f.Err
	}
	return f.Lines, nil
}

// FakeCatalog is a CatalogSource returning fixed records and counting calls.
type FakeCatalog struct {
	ReleaseList  []catalog.Release
	EntryList    []catalog.Entry
	ReleasesErr  error
	EntriesErr   error
	ReleaseCalls int
	EntryCalls   int
}

// Releases returns ReleaseList or ReleasesErr.
func (f *FakeCatalog) Releases(context.Context) ([]catalog.Release, error) {
	f.ReleaseCalls++
	return f.ReleaseList, f.ReleasesErr
}

// Entries returns EntryList or EntriesErr.
func (f *FakeCatalog) Entries(context.Context) ([]catalog.Entry, error) {
	f.EntryCalls++
	return f.EntryList, f.EntriesErr
}

// FakeDispatcher records dispatched candidates.
//
// Fields:
//   - FailLine: Dispatch fails for this line
//   - FinishErr: Returned by Finish
//   - Dispatched: Candidates dispatched, in order
//   - Finished: Number of Finish calls
type FakeDispatcher struct {
	FailLine   string
	FinishErr  error
	Dispatched []qualify.Candidate
	Finished   int
}

// Dispatch records c and returns a line of output, or an error for FailLine.
func (f *FakeDispatcher) Dispatch(_ context.Context, c qualify.Candidate) ([]byte, error) {
	f.Dispatched = append(f.Dispatched, c)
	if c.Line == f.FailLine {
		return nil, fmt.Errorf("update.sh %s: exit status 1", c.Line)
	}
	return []byte(fmt.Sprintf("updated %s to %s\n", c.Line, c.Version)), nil
}

// Finish counts the call and returns a fake diff.
func (f *FakeDispatcher) Finish(context.Context) ([]byte, error) {
	f.Finished++
	if f.FinishErr != nil {
		return nil, f.FinishErr
	}
	return []byte("diff --git a/18/alpine/Dockerfile b/18/alpine/Dockerfile\n"), nil
}

// Versions returns the dispatched versions as strings.
func (f *FakeDispatcher) Versions() []string {
	out := make([]string, 0, len(f.Dispatched))
	for _, c := range f.Dispatched {
		out = append(out, c.Version.String())
	}
	return out
}
