package main

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"job-agent/internal/domain/job"
	"job-agent/internal/gateway"

	"github.com/stretchr/testify/assert"
)

type fakeImporter struct {
	restored  bool
	importErr error
	queries   []string
	closed    int
}

func (f *fakeImporter) RestoreSession(context.Context) bool { return f.restored }

func (f *fakeImporter) Import(_ context.Context, query string) (job.ImportSummary, error) {
	f.queries = append(f.queries, query)
	if f.importErr != nil {
		return job.ImportSummary{}, f.importErr
	}
	return job.ImportSummary{Status: "success", Imported: 3, TotalFound: 5}, nil
}

func (f *fakeImporter) Close() error {
	f.closed++
	return nil
}

func opener(f *fakeImporter) func(*log.Logger) (importer, error) {
	return func(*log.Logger) (importer, error) { return f, nil }
}

func TestRun_Success(t *testing.T) {
	f := &fakeImporter{restored: true}
	var out bytes.Buffer
	code := run([]string{"-query", " devops "}, &out, log.New(io.Discard, "", 0), opener(f))

	assert.Equal(t, 0, code)
	assert.Equal(t, []string{"devops"}, f.queries)
	assert.Contains(t, out.String(), `"imported": 3`)
	assert.Equal(t, 1, f.closed)
}

func TestRun_FailuresStillClose(t *testing.T) {
	noSession := &fakeImporter{}
	code := run([]string{"-query", "sre"}, io.Discard, log.New(io.Discard, "", 0), opener(noSession))
	assert.Equal(t, 1, code)
	assert.Empty(t, noSession.queries)
	assert.Equal(t, 1, noSession.closed)

	failing := &fakeImporter{restored: true, importErr: &gateway.Error{Kind: gateway.KindTransport, Cause: errors.New("refused")}}
	code = run([]string{"-query", "sre"}, io.Discard, log.New(io.Discard, "", 0), opener(failing))
	assert.Equal(t, 1, code)
	assert.Equal(t, 1, failing.closed)
}

func TestRun_Usage(t *testing.T) {
	f := &fakeImporter{restored: true}
	logger := log.New(io.Discard, "", 0)

	assert.Equal(t, 2, run(nil, io.Discard, logger, opener(f)))
	assert.Equal(t, 2, run([]string{"-nope"}, io.Discard, logger, opener(f)))
	assert.Zero(t, f.closed)

	openErr := func(*log.Logger) (importer, error) { return nil, errors.New("missing API_BASE_URL") }
	assert.Equal(t, 1, run([]string{"-query", "x"}, io.Discard, logger, openErr))
}
