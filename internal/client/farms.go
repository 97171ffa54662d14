package client

import (
	"context"
	"fmt"
	"mime"
	"net/http"
	"net/url"
	"strings"
)

// ListFiles returns the files uploaded by the current user.
func (c *Client) ListFiles(ctx context.Context) ([]UploadedFile, error) {
	var files []UploadedFile
	if err := c.getJSON(ctx, "/api/files/list/", nil, &files); err != nil {
		return nil, fmt.Errorf("list files: %w", err)
	}
	return files, nil
}

// GetFile returns one uploaded file by ID.
func (c *Client) GetFile(ctx context.Context, id string) (*UploadedFile, error) {
	var file UploadedFile
	if err := c.getJSON(ctx, "/api/files/list/"+url.PathEscape(id)+"/", nil, &file); err != nil {
		return nil, fmt.Errorf("get file %s: %w", id, err)
	}
	return &file, nil
}

// FarmQuery selects which farm list endpoint to use. At most one of FileID
// and UserID should be set; FileID wins.
type FarmQuery struct {
	FileID string
	UserID string
}

// ListFarms returns farm plots, optionally scoped to a file or a user.
func (c *Client) ListFarms(ctx context.Context, q FarmQuery) ([]Farm, error) {
	path := "/api/farm/list/"
	switch {
	case q.FileID != "":
		path = "/api/farm/list/file/" + url.PathEscape(q.FileID) + "/"
	case q.UserID != "":
		path = "/api/farm/list/user/" + url.PathEscape(q.UserID) + "/"
	}

	var farms []Farm
	if err := c.getJSON(ctx, path, nil, &farms); err != nil {
		return nil, fmt.Errorf("list farms: %w", err)
	}
	return farms, nil
}

// ListOverlappingFarms returns plots of a file that overlap other plots.
func (c *Client) ListOverlappingFarms(ctx context.Context, fileID string) ([]Farm, error) {
	var farms []Farm
	if err := c.getJSON(ctx, "/api/farm/overlapping/"+url.PathEscape(fileID)+"/", nil, &farms); err != nil {
		return nil, fmt.Errorf("list overlapping farms: %w", err)
	}
	return farms, nil
}

// ListCollectionSites returns the collection sites visible to the user.
func (c *Client) ListCollectionSites(ctx context.Context) ([]CollectionSite, error) {
	var sites []CollectionSite
	if err := c.getJSON(ctx, "/api/collection_sites/list/", nil, &sites); err != nil {
		return nil, fmt.Errorf("list collection sites: %w", err)
	}
	return sites, nil
}

// RevalidateFile asks the server to rerun the risk analysis for a file.
// Returns the number of plots the server reports back.
func (c *Client) RevalidateFile(ctx context.Context, fileID string) (int, error) {
	var result []map[string]any
	if err := c.postJSON(ctx, "/api/farm/revalidate/", map[string]string{"file_id": fileID}, &result); err != nil {
		return 0, fmt.Errorf("revalidate file %s: %w", fileID, err)
	}
	return len(result), nil
}

// DownloadTemplate fetches an empty upload template in the given format.
func (c *Client) DownloadTemplate(ctx context.Context, format string) (*Template, error) {
	resp, err := c.do(ctx, request{
		method: http.MethodGet,
		path:   "/api/download-template/",
		query:  url.Values{"file_format": {format}},
	})
	if err != nil {
		return nil, fmt.Errorf("download template: %w", err)
	}
	if err := decodeResponse(resp, nil); err != nil {
		return nil, fmt.Errorf("download template: %w", err)
	}

	name := "terratrac-upload-template." + strings.ToLower(format)
	if cd := resp.header.Get("Content-Disposition"); cd != "" {
		if _, params, err := mime.ParseMediaType(cd); err == nil && params["filename"] != "" {
			name = params["filename"]
		}
	}
	return &Template{FileName: name, Content: resp.Body}, nil
}

// Logout ends the server session. A 401 means the session was already gone
// and is not an error.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.do(ctx, request{method: http.MethodPost, path: "/logout/", csrf: true})
	if err != nil {
		return fmt.Errorf("logout: %w", err)
	}
	if resp.OK() || resp.StatusCode == http.StatusUnauthorized {
		return nil
	}
	return fmt.Errorf("logout: %w", &StatusError{StatusCode: resp.StatusCode, Body: string(resp.Body)})
}
