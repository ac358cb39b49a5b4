package datalake

import (
	"context"
	"net/http"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azdatalake/directory"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azdatalake/service"
)

// lakeAPI is the set of storage operations Client drives. Paths are relative
// to the file system root; "" is the root itself.
type lakeAPI interface {
	FileSystemProperties(ctx context.Context, fileSystem string) error
	CreateFileSystem(ctx context.Context, fileSystem string) error
	CreateDirectory(ctx context.Context, fileSystem, dir string) error
	CreateFile(ctx context.Context, fileSystem, path string) error
	Upload(ctx context.Context, fileSystem, path string, data []byte) error
	UpdateACLRecursive(ctx context.Context, fileSystem, path, acl string) (*ACLResult, error)
}

// sdkLake implements lakeAPI on the azdatalake clients.
type sdkLake struct {
	svc *service.Client
}

func newSDKLake(endpoint string, cred azcore.TokenCredential, hc *http.Client) (*sdkLake, error) {
	opts := &service.ClientOptions{}
	if hc != nil {
		opts.Transport = hc
	}
	svc, err := service.NewClient(endpoint, cred, opts)
	if err != nil {
		return nil, err
	}
	return &sdkLake{svc: svc}, nil
}

func (l *sdkLake) FileSystemProperties(ctx context.Context, fileSystem string) error {
	_, err := l.svc.NewFileSystemClient(fileSystem).GetProperties(ctx, nil)
	return err
}

func (l *sdkLake) CreateFileSystem(ctx context.Context, fileSystem string) error {
	_, err := l.svc.NewFileSystemClient(fileSystem).Create(ctx, nil)
	return err
}

func (l *sdkLake) CreateDirectory(ctx context.Context, fileSystem, dir string) error {
	_, err := l.svc.NewFileSystemClient(fileSystem).NewDirectoryClient(dir).Create(ctx, nil)
	return err
}

func (l *sdkLake) CreateFile(ctx context.Context, fileSystem, path string) error {
	_, err := l.svc.NewFileSystemClient(fileSystem).NewFileClient(path).Create(ctx, nil)
	return err
}

func (l *sdkLake) Upload(ctx context.Context, fileSystem, path string, data []byte) error {
	return l.svc.NewFileSystemClient(fileSystem).NewFileClient(path).UploadBuffer(ctx, data, nil)
}

// aclOptions leaves MaxBatches unset so the SDK follows every continuation
// token until the whole tree is updated.
func aclOptions() *directory.UpdateAccessControlRecursiveOptions {
	return &directory.UpdateAccessControlRecursiveOptions{}
}

func (l *sdkLake) UpdateACLRecursive(ctx context.Context, fileSystem, path, acl string) (*ACLResult, error) {
	resp, err := l.svc.NewFileSystemClient(fileSystem).NewDirectoryClient(path).UpdateAccessControlRecursive(ctx, acl, aclOptions())
	if err != nil {
		return nil, err
	}
	res := &ACLResult{
		DirectoriesSuccessful: int(deref(resp.DirectoriesSuccessful)),
		FilesSuccessful:       int(deref(resp.FilesSuccessful)),
		FailureCount:          int(deref(resp.FailureCount)),
	}
	for _, e := range resp.FailedEntries {
		if e == nil {
			continue
		}
		res.FailedEntries = append(res.FailedEntries, deref(e.Name)+": "+deref(e.ErrorMessage))
	}
	return res, nil
}

func deref[T any](p *T) T {
	var zero T
	if p == nil {
		return zero
	}
	return *p
}
