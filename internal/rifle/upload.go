package rifle

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/sevigo/riflesync/internal/core"
)

// ErrUploadExhausted marks a run aborted by sustained transport failure.
// The remedial action is a full re-import on the next run.
var ErrUploadExhausted = errors.New("upload retries exhausted")

// Uploader replays a staged change set against the server.
type Uploader struct {
	client    *Client
	maxTrials int
	delay     time.Duration
	logger    *slog.Logger
}

// NewUploader returns an Uploader. maxTrials bounds retries per entry:
// a value of N allows N retries on top of the first attempt. delay is
// the initial wait before a retry and doubles on each further retry.
func NewUploader(client *Client, maxTrials int, delay time.Duration, logger *slog.Logger) *Uploader {
	if logger == nil {
		logger = slog.Default()
	}
	return &Uploader{client: client, maxTrials: maxTrials, delay: delay, logger: logger}
}

// Upload sends every entry in order and classifies each outcome.
//
// A 2xx answer succeeds. A 5xx answer means the server could not process
// the content; retrying cannot fix that, so the entry is recorded as
// rejected and the run continues with the next one. Anything else,
// including transport failures, is retried up to the bound; once the
// bound is hit the remaining entries are abandoned and the returned
// error wraps ErrUploadExhausted. The partial report is returned in
// either case.
func (u *Uploader) Upload(ctx context.Context, entries []core.StagedEntry, rev core.RevisionInfo) (*core.UploadReport, error) {
	report := &core.UploadReport{}

	for _, entry := range entries {
		var body []byte
		if entry.Kind != core.Deleted {
			// Deleted files no longer exist anywhere; everything else is
			// read back from the staging tree.
			var err error
			body, err = os.ReadFile(entry.StagedPath)
			if err != nil {
				return report, fmt.Errorf("failed to read staged file for %s: %w", entry.Path, err)
			}
		}

		u.logger.Debug("sending to server", "file", entry.Path, "kind", entry.Kind.String())

		status, err := u.sendWithRetry(ctx, entry, rev, body)
		report.Results = append(report.Results, core.UploadResult{Entry: entry, Status: status})

		switch status {
		case core.UploadRejected:
			u.logger.Warn("server could not process file, continuing with remaining files",
				"file", entry.Path)
		case core.UploadExhausted:
			u.logger.Error("upload failed after all retries, aborting remaining files",
				"file", entry.Path, "max_upload_trials", u.maxTrials)
			return report, fmt.Errorf("uploading %s: %w", entry.Path, err)
		}
	}

	return report, nil
}

// sendWithRetry issues the request for one entry until it succeeds, the
// server rejects it, or the retry budget runs out.
func (u *Uploader) sendWithRetry(ctx context.Context, entry core.StagedEntry, rev core.RevisionInfo, body []byte) (core.UploadStatus, error) {
	delay := u.delay

	for attempt := 0; ; attempt++ {
		code, err := u.client.Handle(ctx, entry.ChangeEntry, rev, body)

		if err == nil {
			if code >= 200 && code <= 299 {
				return core.UploadSucceeded, nil
			}
			if code >= 500 {
				return core.UploadRejected, nil
			}
		}

		if attempt >= u.maxTrials {
			if err == nil {
				err = fmt.Errorf("server answered status %d", code)
			}
			return core.UploadExhausted, fmt.Errorf("%w after %d attempts: %w", ErrUploadExhausted, attempt+1, err)
		}

		u.logger.Warn("upload attempt failed, retrying",
			"file", entry.Path, "attempt", attempt+1, "status", code, "error", err)

		if delay > 0 {
			select {
			case <-ctx.Done():
				return core.UploadExhausted, fmt.Errorf("%w: %w", ErrUploadExhausted, ctx.Err())
			case <-time.After(delay):
			}
			delay *= 2
		}
	}
}
