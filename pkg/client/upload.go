package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"

	"github.com/papercomputeco/kbconsole/pkg/upload"
)

// UploadRequest is one file to upload. Either Path or Reader must be set;
// with a Reader, Filename and Size must be given by the caller.
type UploadRequest struct {
	Path     string
	Reader   io.Reader
	Filename string
	Size     int64
	Metadata Metadata
}

// prepare fills Filename and Size from Path and validates the request
// without touching the network.
func (r *UploadRequest) prepare() error {
	if r.Path == "" && r.Reader == nil {
		return &ValidationError{Field: "file", Err: ErrMissingFile}
	}

	if r.Path != "" {
		info, err := os.Stat(r.Path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", r.Path, err)
		}
		if info.IsDir() {
			return &ValidationError{Field: "file", Err: fmt.Errorf("%s is a directory", r.Path)}
		}
		r.Size = info.Size()
		if r.Filename == "" {
			r.Filename = filepath.Base(r.Path)
		}
	}
	if r.Filename == "" {
		return &ValidationError{Field: "filename", Err: ErrMissingFile}
	}

	if err := upload.ValidateSize(r.Filename, r.Size); err != nil {
		return &ValidationError{Field: "file", Err: err}
	}
	return r.Metadata.Validate()
}

func (r *UploadRequest) open() (io.ReadCloser, error) {
	if r.Path != "" {
		return os.Open(r.Path)
	}
	if rc, ok := r.Reader.(io.ReadCloser); ok {
		return rc, nil
	}
	return io.NopCloser(r.Reader), nil
}

// Upload sends a single file with its metadata. Progress is reported to
// tracker, which may be nil. Validation failures are returned before any
// request is made.
func (c *Client) Upload(ctx context.Context, req UploadRequest, tracker *upload.Tracker) (*UploadResult, error) {
	if err := req.prepare(); err != nil {
		return nil, err
	}

	write := func(mw *multipart.Writer, report func(int64)) error {
		for key, value := range req.Metadata.fields() {
			if err := mw.WriteField(key, value); err != nil {
				return err
			}
		}
		return writeFile(mw, "file", &req, report)
	}

	var result UploadResult
	if err := c.sendMultipart(ctx, uploadPath, req.Size, write, tracker, &result); err != nil {
		return nil, err
	}
	if !result.OK() {
		if tracker != nil {
			tracker.Fail(errors.New(result.failure()))
		}
		return &result, fmt.Errorf("upload of %s rejected: %s", req.Filename, result.failure())
	}

	if tracker != nil {
		tracker.Complete()
	}
	return &result, nil
}

// BulkUpload sends several files in one request. All requests are validated
// first; one invalid file rejects the whole batch before any bytes are sent.
func (c *Client) BulkUpload(ctx context.Context, reqs []UploadRequest, tracker *upload.Tracker) (*BulkUploadResult, error) {
	if len(reqs) == 0 {
		return nil, &ValidationError{Field: "files", Err: ErrMissingFile}
	}

	var total int64
	metadata := make([]Metadata, 0, len(reqs))
	for i := range reqs {
		if err := reqs[i].prepare(); err != nil {
			return nil, fmt.Errorf("file %d: %w", i+1, err)
		}
		total += reqs[i].Size
		metadata = append(metadata, reqs[i].Metadata)
	}

	meta, err := json.Marshal(metadata)
	if err != nil {
		return nil, fmt.Errorf("marshaling metadata: %w", err)
	}

	write := func(mw *multipart.Writer, report func(int64)) error {
		if err := mw.WriteField("metadata", string(meta)); err != nil {
			return err
		}
		for i := range reqs {
			if err := writeFile(mw, "files", &reqs[i], report); err != nil {
				return err
			}
		}
		return nil
	}

	var result BulkUploadResult
	if err := c.sendMultipart(ctx, bulkUploadPath, total, write, tracker, &result); err != nil {
		return nil, err
	}

	if tracker != nil {
		tracker.Complete()
	}
	return &result, nil
}

// failure returns the server's reason for rejecting the file.
func (r UploadResult) failure() string {
	switch {
	case r.Error != "":
		return r.Error
	case r.Message != "":
		return r.Message
	}
	return r.Status
}

func writeFile(mw *multipart.Writer, field string, req *UploadRequest, report func(int64)) error {
	src, err := req.open()
	if err != nil {
		return fmt.Errorf("opening %s: %w", req.Filename, err)
	}
	defer src.Close()

	part, err := mw.CreateFormFile(field, req.Filename)
	if err != nil {
		return err
	}

	var last int64
	pr := upload.NewProgressReader(src, req.Size, func(sent, _ int64) {
		report(sent - last)
		last = sent
	})
	if _, err := io.Copy(part, pr); err != nil {
		return fmt.Errorf("sending %s: %w", req.Filename, err)
	}
	return nil
}

// sendMultipart streams a multipart body built by write through an io.Pipe
// so the tracker follows the bytes actually consumed by the transport.
// Cancelling ctx aborts the upload.
func (c *Client) sendMultipart(
	ctx context.Context,
	path string,
	total int64,
	write func(mw *multipart.Writer, report func(delta int64)) error,
	tracker *upload.Tracker,
	out any,
) error {
	if tracker == nil {
		tracker = upload.NewTracker()
	}

	pr, pw := io.Pipe()
	mw := multipart.NewWriter(pw)

	req, err := c.newRequest(ctx, http.MethodPost, path, nil, pr)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	tracker.Start(total)

	go func() {
		var sent int64
		report := func(delta int64) {
			sent += delta
			tracker.Progress(sent, total)
		}

		err := write(mw, report)
		if err == nil {
			err = mw.Close()
		}
		if err == nil {
			tracker.Uploaded()
		}
		pw.CloseWithError(err)
	}()

	resp, err := c.send(req)
	if err != nil {
		_ = pr.CloseWithError(err)
		if ctx.Err() != nil {
			tracker.Abort()
			return fmt.Errorf("upload aborted: %w", ctx.Err())
		}
		tracker.Fail(err)
		return err
	}
	defer resp.Body.Close()

	if err := decodeResponse(resp, out); err != nil {
		tracker.Fail(err)
		return err
	}
	return nil
}
