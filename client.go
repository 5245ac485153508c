// Package s3fs provides a filesystem-flavored client for S3-compatible
// object stores.
//
// The Client layers filesystem semantics over a flat key namespace:
// key path trees, directory markers, chunked cancelable transfers,
// rename, object lock, and presigned URLs.
package s3fs

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/osfs"

	"github.com/bucketlab/s3fs/errors"
	"github.com/bucketlab/s3fs/fstypes"
	"github.com/bucketlab/s3fs/internal/s3api"
	"github.com/bucketlab/s3fs/internal/transfer"
)

// Client is a thread-safe client for an S3-compatible store.
type Client struct {
	// api is the store client behind a mockable interface
	api s3api.S3API

	// presign produces time-limited URLs
	presign s3api.PresignAPI

	// raw holds the actual SDK client when one was constructed
	raw *s3.Client

	// fs is the local filesystem abstraction for transfers
	fs billy.Filesystem

	// engine executes chunked uploads and downloads
	engine *transfer.Engine

	// chunkSize is the transfer chunk size in bytes
	chunkSize int64

	// log is the structured logger
	log *slog.Logger
}

// New creates a client with the provided options.
// Credentials come from the default AWS credential chain unless
// WithStaticCredentials or WithAWSConfig is used.
//
// Example:
//
//	client, err := s3fs.New(
//	    s3fs.WithEndpoint("https://minio.example.com:9000"),
//	    s3fs.WithStaticCredentials(accessKey, secretKey, ""),
//	    s3fs.WithForcePathStyle(true),
//	)
func New(opts ...fstypes.Option) (*Client, error) {
	clientCfg := &fstypes.ClientConfig{
		MaxRetries: 3,
		ChunkSize:  fstypes.DefaultChunkSize,
	}
	for _, opt := range opts {
		opt(clientCfg)
	}

	if clientCfg.StaticCreds && (clientCfg.AccessKey == "" || clientCfg.SecretKey == "") {
		return nil, errors.New("client initialization", errors.ErrConfigurationMissing).
			WithMessage("static credentials require both access key and secret key")
	}

	var cfg aws.Config
	var err error

	if clientCfg.CustomAWSConfig != nil {
		cfg = *clientCfg.CustomAWSConfig
	} else {
		var loadOpts []func(*config.LoadOptions) error
		if clientCfg.StaticCreds {
			loadOpts = append(loadOpts, config.WithCredentialsProvider(
				credentials.NewStaticCredentialsProvider(
					clientCfg.AccessKey, clientCfg.SecretKey, clientCfg.SessionToken,
				),
			))
		}
		cfg, err = config.LoadDefaultConfig(context.Background(), loadOpts...)
		if err != nil {
			return nil, errors.New("client initialization", err)
		}
	}

	if clientCfg.Region != "" {
		cfg.Region = clientCfg.Region
	} else if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if clientCfg.MaxRetries > 0 {
		cfg.RetryMaxAttempts = clientCfg.MaxRetries
	}

	var s3Opts []func(*s3.Options)
	if clientCfg.Endpoint != "" {
		endpoint := clientCfg.Endpoint
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}
	if clientCfg.ForcePathStyle {
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.UsePathStyle = true
		})
	}
	if clientCfg.Timeout > 0 {
		httpClient := &http.Client{Timeout: clientCfg.Timeout}
		s3Opts = append(s3Opts, func(o *s3.Options) {
			o.HTTPClient = httpClient
		})
	}

	raw := s3.NewFromConfig(cfg, s3Opts...)

	fsys := clientCfg.Filesystem
	if fsys == nil {
		fsys = osfs.New("/")
	}

	logger := clientCfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	chunkSize := clientCfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = fstypes.DefaultChunkSize
	}

	return &Client{
		api:       raw,
		presign:   s3.NewPresignClient(raw),
		raw:       raw,
		fs:        fsys,
		engine:    transfer.NewEngine(raw, fsys, chunkSize, logger),
		chunkSize: chunkSize,
		log:       logger,
	}, nil
}

// NewWithClient creates a client backed by a custom S3API implementation.
// This is primarily used for testing with mocked clients.
func NewWithClient(api s3api.S3API, opts ...fstypes.Option) *Client {
	return NewWithClients(api, nil, opts...)
}

// NewWithClients creates a client backed by custom store and presign
// implementations. This is primarily used for testing with mocked clients.
func NewWithClients(api s3api.S3API, presign s3api.PresignAPI, opts ...fstypes.Option) *Client {
	clientCfg := &fstypes.ClientConfig{ChunkSize: fstypes.DefaultChunkSize}
	for _, opt := range opts {
		opt(clientCfg)
	}

	fsys := clientCfg.Filesystem
	if fsys == nil {
		fsys = osfs.New("/")
	}
	logger := clientCfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	chunkSize := clientCfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = fstypes.DefaultChunkSize
	}

	return &Client{
		api:       api,
		presign:   presign,
		fs:        fsys,
		engine:    transfer.NewEngine(api, fsys, chunkSize, logger),
		chunkSize: chunkSize,
		log:       logger,
	}
}
