package service

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"

	gstorage "cloud.google.com/go/storage"
	"github.com/airbusgeo/geocube/interface/storage"
	"github.com/airbusgeo/geocube/interface/storage/gcs"
	"github.com/airbusgeo/geocube/interface/storage/uri"
	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"google.golang.org/api/iterator"
)

// ErrFileNotFound is returned when a file is not found in the storage
type ErrFileNotFound struct {
	File string
}

func (e ErrFileNotFound) Error() string {
	return fmt.Sprintf("File not found: %s", e.File)
}

func isErrNotFound(err error) bool {
	var epath *os.PathError
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	return errors.Is(err, gstorage.ErrObjectNotExist) ||
		(errors.As(err, &epath) && os.IsNotExist(epath)) ||
		errors.As(err, &nf) || errors.As(err, &nsk)
}

// Storage is a service to store the downloaded rasters
type Storage interface {
	// Save persists the local file into the storage with the given name and returns the uri
	Save(ctx context.Context, localFile, name string) (string, error)
	// Exists returns true if a file with the given name is already in the storage
	Exists(ctx context.Context, name string) (bool, error)
	// URI returns the uri of the file with the given name
	URI(name string) string
}

// S3Options configures the access to a s3 bucket.
// If AccessKeyID is empty, the default credential chain is used.
type S3Options struct {
	AccessKeyID     string
	SecretAccessKey string
	Region          string
}

// NewStorage returns the Storage of the storageURI: a local directory, gs://bucket/prefix or s3://bucket/prefix
func NewStorage(ctx context.Context, storageURI string, s3opts S3Options) (Storage, error) {
	if strings.HasPrefix(storageURI, "s3://") {
		return NewS3Storage(ctx, storageURI, s3opts)
	}
	return NewStorageStrategy(ctx, storageURI)
}

// StorageStrategy implements Storage using geocube.Strategy (local and gs)
type StorageStrategy struct {
	storage storage.Strategy
	uri     uri.DefaultUri
	gs      bool
}

// NewStorageStrategy creates a new StorageStrategy
func NewStorageStrategy(ctx context.Context, storageURI string) (*StorageStrategy, error) {
	u, err := uri.ParseUri(storageURI)
	if err != nil {
		return nil, fmt.Errorf("NewStorageStrategy.ParseURI: %w", err)
	}

	storageClient, err := u.NewStorageStrategy(ctx)
	if err != nil {
		return nil, fmt.Errorf("NewStorageStrategy: %w", err)
	}

	return &StorageStrategy{storage: storageClient, uri: u, gs: strings.HasPrefix(storageURI, "gs://")}, nil
}

// URI implements Storage
func (ss *StorageStrategy) URI(name string) string {
	u := ss.uri.String()
	if !strings.HasSuffix(u, "/") {
		u += "/"
	}
	return u + name
}

// Save implements Storage
func (ss *StorageStrategy) Save(ctx context.Context, localFile, name string) (string, error) {
	f, err := os.Open(localFile)
	if err != nil {
		return "", fmt.Errorf("Save.Open: %w", err)
	}
	defer f.Close()

	dst := ss.URI(name)
	if !ss.gs {
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return "", fmt.Errorf("Save.MkdirAll: %w", err)
		}
	}
	if err := ss.storage.UploadFile(ctx, dst, f); err != nil {
		return "", fmt.Errorf("Save.UploadFile to %s: %w", dst, err)
	}
	return dst, nil
}

// Exists implements Storage
func (ss *StorageStrategy) Exists(ctx context.Context, name string) (bool, error) {
	dst := ss.URI(name)
	if !ss.gs {
		_, err := os.Stat(dst)
		if err == nil {
			return true, nil
		}
		if isErrNotFound(err) {
			return false, nil
		}
		return false, fmt.Errorf("Exists.Stat: %w", err)
	}

	bucket, object, err := gcs.Parse(dst)
	if err != nil {
		return false, fmt.Errorf("Exists.Parse: %w", err)
	}
	client, err := gstorage.NewClient(ctx)
	if err != nil {
		return false, fmt.Errorf("Exists.NewClient: %w", err)
	}
	defer client.Close()

	it := client.Bucket(bucket).Objects(ctx, &gstorage.Query{Prefix: object})
	for {
		attrs, err := it.Next()
		if err == iterator.Done {
			return false, nil
		}
		if err != nil {
			if isErrNotFound(err) {
				return false, nil
			}
			return false, fmt.Errorf("Exists.Objects(%s): %w", dst, err)
		}
		if attrs.Name == object {
			return true, nil
		}
	}
}

// S3Storage implements Storage on a s3 bucket
type S3Storage struct {
	client *s3.Client
	bucket string
	prefix string
}

// NewS3Storage creates a new S3Storage from a s3://bucket/prefix uri
func NewS3Storage(ctx context.Context, storageURI string, opts S3Options) (*S3Storage, error) {
	bucket, prefix, found := strings.Cut(strings.TrimPrefix(storageURI, "s3://"), "/")
	if bucket == "" {
		return nil, fmt.Errorf("NewS3Storage: invalid uri %s", storageURI)
	}
	if !found {
		prefix = ""
	}

	var cfgOpts []func(*config.LoadOptions) error
	if opts.AccessKeyID != "" {
		cfgOpts = append(cfgOpts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")))
	}
	if opts.Region != "" {
		cfgOpts = append(cfgOpts, config.WithRegion(opts.Region))
	}
	cfg, err := config.LoadDefaultConfig(ctx, cfgOpts...)
	if err != nil {
		return nil, fmt.Errorf("NewS3Storage.LoadDefaultConfig: %w", err)
	}
	return &S3Storage{client: s3.NewFromConfig(cfg), bucket: bucket, prefix: strings.Trim(prefix, "/")}, nil
}

func (s *S3Storage) key(name string) string {
	return path.Join(s.prefix, name)
}

// URI implements Storage
func (s *S3Storage) URI(name string) string {
	return "s3://" + s.bucket + "/" + s.key(name)
}

// Save implements Storage
func (s *S3Storage) Save(ctx context.Context, localFile, name string) (string, error) {
	f, err := os.Open(localFile)
	if err != nil {
		return "", fmt.Errorf("Save.Open: %w", err)
	}
	defer f.Close()

	uploader := manager.NewUploader(s.client, func(u *manager.Uploader) {
		u.PartSize = 64 * 1024 * 1024
	})
	if _, err := uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
		Body:   f,
	}); err != nil {
		return "", fmt.Errorf("Save.Upload to %s: %w", s.URI(name), err)
	}
	return s.URI(name), nil
}

// Exists implements Storage
func (s *S3Storage) Exists(ctx context.Context, name string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(s.key(name)),
	})
	if err == nil {
		return true, nil
	}
	if isErrNotFound(err) {
		return false, nil
	}
	return false, fmt.Errorf("Exists.HeadObject(%s): %w", s.URI(name), err)
}
