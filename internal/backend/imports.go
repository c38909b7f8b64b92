package backend

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
)

// ImportGoogleDoc queues a single Google Doc import.
// The URL must be non-empty; format validation beyond that is the backend's job.
func (c *Client) ImportGoogleDoc(ctx context.Context, docURL string, recursive bool) (*ImportResponse, error) {
	if strings.TrimSpace(docURL) == "" {
		return nil, fmt.Errorf("document URL is required")
	}

	req := ImportRequest{
		URL:       docURL,
		Recursive: recursive,
		UserEmail: c.userEmail,
	}
	var resp ImportResponse
	if err := c.post(ctx, "/imports/google-docs", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ImportGoogleFolder queues imports for every Google Doc in a Drive folder.
// The result is best-effort per item: documents that failed to queue carry
// an error string instead of a job id.
func (c *Client) ImportGoogleFolder(ctx context.Context, folderURL string, includeSubfolders bool) (*FolderImportResponse, error) {
	if strings.TrimSpace(folderURL) == "" {
		return nil, fmt.Errorf("folder URL is required")
	}

	req := FolderImportRequest{
		FolderURL:         folderURL,
		UserEmail:         c.userEmail,
		IncludeSubfolders: includeSubfolders,
	}
	var resp FolderImportResponse
	if err := c.post(ctx, "/imports/google-folder", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// ImportJobStatus fetches the status of one import job.
func (c *Client) ImportJobStatus(ctx context.Context, jobID string) (*ImportJob, error) {
	var job ImportJob
	if err := c.get(ctx, "/imports/jobs/"+url.PathEscape(jobID), nil, &job); err != nil {
		return nil, err
	}
	return &job, nil
}

// ListImportJobs fetches recent import jobs, newest first.
func (c *Client) ListImportJobs(ctx context.Context, limit int) ([]ImportJob, error) {
	query := url.Values{}
	if limit > 0 {
		query.Set("limit", strconv.Itoa(limit))
	}
	if c.userEmail != "" {
		query.Set("user_email", c.userEmail)
	}

	var jobs []ImportJob
	if err := c.get(ctx, "/imports/jobs", query, &jobs); err != nil {
		return nil, err
	}
	return jobs, nil
}
