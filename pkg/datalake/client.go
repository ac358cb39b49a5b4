// Package datalake is a client for ADLS Gen2 file systems, directories, files
// and POSIX ACLs. The permission-pull scenario uses it to stage documents whose
// ACLs the indexer later carries into the index.
package datalake

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"

	"github.com/codeready-toolchain/searchctl/pkg/azrest"
)

// Client operates on one storage account's DFS endpoint.
type Client struct {
	lake   lakeAPI
	logger *slog.Logger
}

// Endpoint returns the DFS endpoint for an account.
func Endpoint(account string) string {
	return "https://" + account + ".dfs.core.windows.net"
}

// NewClient creates a DFS client. hc replaces the SDK transport when set.
func NewClient(endpoint string, cred azcore.TokenCredential, hc *http.Client) (*Client, error) {
	lake, err := newSDKLake(endpoint, cred, hc)
	if err != nil {
		return nil, fmt.Errorf("datalake client: %w", err)
	}
	return newClient(endpoint, lake), nil
}

func newClient(endpoint string, lake lakeAPI) *Client {
	return &Client{lake: lake, logger: slog.With("component", "datalake", "endpoint", endpoint)}
}

func cleanPath(path string) string {
	return strings.TrimLeft(path, "/")
}

// FileSystemExists reports whether a file system (container) exists.
func (c *Client) FileSystemExists(ctx context.Context, fileSystem string) (bool, error) {
	err := azrest.FromSDK(c.lake.FileSystemProperties(ctx, fileSystem))
	if errors.Is(err, azrest.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("check file system %s: %w", fileSystem, err)
	}
	return true, nil
}

// CreateFileSystem creates a file system. Returns created=false when it already exists.
func (c *Client) CreateFileSystem(ctx context.Context, fileSystem string) (created bool, err error) {
	err = azrest.FromSDK(c.lake.CreateFileSystem(ctx, fileSystem))
	if errors.Is(err, azrest.ErrConflict) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("create file system %s: %w", fileSystem, err)
	}
	c.logger.Info("File system created", "file_system", fileSystem)
	return true, nil
}

// CreateDirectory creates a directory (and missing parents).
func (c *Client) CreateDirectory(ctx context.Context, fileSystem, dir string) error {
	if err := c.lake.CreateDirectory(ctx, fileSystem, cleanPath(dir)); err != nil {
		return fmt.Errorf("create directory %s/%s: %w", fileSystem, dir, azrest.FromSDK(err))
	}
	return nil
}

// UploadFile creates (or truncates) a file and writes data to it.
func (c *Client) UploadFile(ctx context.Context, fileSystem, path string, data []byte) error {
	p := cleanPath(path)
	if err := c.lake.CreateFile(ctx, fileSystem, p); err != nil {
		return fmt.Errorf("create file %s/%s: %w", fileSystem, p, azrest.FromSDK(err))
	}
	if len(data) > 0 {
		if err := c.lake.Upload(ctx, fileSystem, p, data); err != nil {
			return fmt.Errorf("upload file %s/%s: %w", fileSystem, p, azrest.FromSDK(err))
		}
	}
	c.logger.Info("File uploaded", "file_system", fileSystem, "path", p, "bytes", len(data))
	return nil
}

// ACLResult summarizes a recursive ACL update.
type ACLResult struct {
	DirectoriesSuccessful int
	FilesSuccessful       int
	FailureCount          int
	// FailedEntries are "name: message" pairs.
	FailedEntries []string
}

// SetAccessControlRecursive merges acl into path and everything below it.
// The update covers the whole tree; it is not capped at a number of batches.
func (c *Client) SetAccessControlRecursive(ctx context.Context, fileSystem, path, acl string) (*ACLResult, error) {
	p := cleanPath(path)
	result, err := c.lake.UpdateACLRecursive(ctx, fileSystem, p, acl)
	if err != nil {
		return nil, fmt.Errorf("set ACL on %s/%s: %w", fileSystem, p, azrest.FromSDK(err))
	}

	c.logger.Info("ACL applied",
		"file_system", fileSystem,
		"path", "/"+p,
		"acl", acl,
		"directories", result.DirectoriesSuccessful,
		"files", result.FilesSuccessful,
		"failures", result.FailureCount)
	return result, nil
}

// GroupACL builds a single group ACL entry, e.g. "group:<id>:rwx".
func GroupACL(groupID, perms string) string {
	return "group:" + groupID + ":" + perms
}

// UserACL builds a single user ACL entry.
func UserACL(objectID, perms string) string {
	return "user:" + objectID + ":" + perms
}

// ParseConnectionString splits a storage connection string into its key/value pairs.
func ParseConnectionString(conn string) map[string]string {
	out := make(map[string]string)
	for _, part := range strings.Split(conn, ";") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if ok && k != "" {
			out[k] = v
		}
	}
	return out
}

// AccountFromConnectionString returns the AccountName of a storage connection string.
func AccountFromConnectionString(conn string) string {
	return ParseConnectionString(conn)["AccountName"]
}
