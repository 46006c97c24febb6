// Package archive uploads dashboard snapshots to an S3-compatible bucket
// (Cloudflare R2 or AWS S3).
package archive

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/rs/zerolog"
)

// ErrArchiveDisabled is returned by a publisher with no bucket configured
var ErrArchiveDisabled = errors.New("archive is disabled")

// DefaultRegion is what R2 expects
const DefaultRegion = "auto"

// Config holds bucket settings. An empty Bucket disables archiving.
type Config struct {
	Bucket          string
	Endpoint        string // e.g. https://<account>.r2.cloudflarestorage.com
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Prefix          string
}

// Enabled reports whether a bucket is configured
func (c Config) Enabled() bool {
	return c.Bucket != ""
}

// Uploader is the part of manager.Uploader the publisher uses
type Uploader interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

// Snapshot is the archived document
type Snapshot struct {
	SessionID  string      `json:"session_id"`
	ArchivedAt time.Time   `json:"archived_at"`
	Dashboard  interface{} `json:"dashboard"`
}

// Receipt describes an uploaded snapshot
type Receipt struct {
	Bucket     string    `json:"bucket"`
	Key        string    `json:"key"`
	Location   string    `json:"location"`
	SizeBytes  int64     `json:"size_bytes"`
	Checksum   string    `json:"checksum"`
	ArchivedAt time.Time `json:"archived_at"`
}

// Publisher uploads snapshots
type Publisher struct {
	cfg      Config
	uploader Uploader
	log      zerolog.Logger
	now      func() time.Time
}

// New builds a publisher from cfg. A disabled config yields a publisher whose
// Publish returns ErrArchiveDisabled.
func New(ctx context.Context, cfg Config, log zerolog.Logger) (*Publisher, error) {
	if !cfg.Enabled() {
		return NewWithUploader(cfg, nil, log), nil
	}
	if cfg.Region == "" {
		cfg.Region = DefaultRegion
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load object storage config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return NewWithUploader(cfg, manager.NewUploader(client), log), nil
}

// NewWithUploader builds a publisher over an existing uploader
func NewWithUploader(cfg Config, uploader Uploader, log zerolog.Logger) *Publisher {
	return &Publisher{
		cfg:      cfg,
		uploader: uploader,
		log:      log.With().Str("service", "archive").Logger(),
		now:      time.Now,
	}
}

// Enabled reports whether Publish can upload
func (p *Publisher) Enabled() bool {
	return p.cfg.Enabled() && p.uploader != nil
}

// Key builds "<prefix>/<yyyy-mm-dd>/<session>-<unix>.json"
func (p *Publisher) Key(sessionID string, at time.Time) string {
	at = at.UTC()
	name := fmt.Sprintf("%s/%s-%d.json", at.Format("2006-01-02"), sessionID, at.Unix())
	if prefix := strings.Trim(p.cfg.Prefix, "/"); prefix != "" {
		return prefix + "/" + name
	}
	return name
}

// Publish uploads the dashboard document as a JSON snapshot
func (p *Publisher) Publish(ctx context.Context, sessionID string, dashboard interface{}) (*Receipt, error) {
	if !p.Enabled() {
		return nil, ErrArchiveDisabled
	}

	at := p.now().UTC()
	body, err := json.Marshal(Snapshot{SessionID: sessionID, ArchivedAt: at, Dashboard: dashboard})
	if err != nil {
		return nil, fmt.Errorf("failed to encode snapshot: %w", err)
	}

	sum := sha256.Sum256(body)
	checksum := hex.EncodeToString(sum[:])
	key := p.Key(sessionID, at)

	out, err := p.uploader.Upload(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(p.cfg.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String("application/json"),
		Metadata:    map[string]string{"sha256": checksum, "session": sessionID},
	})
	if err != nil {
		p.log.Error().Err(err).Str("key", key).Msg("Snapshot upload failed")
		return nil, fmt.Errorf("failed to upload snapshot %s: %w", key, err)
	}

	receipt := &Receipt{
		Bucket:     p.cfg.Bucket,
		Key:        key,
		SizeBytes:  int64(len(body)),
		Checksum:   checksum,
		ArchivedAt: at,
	}
	if out != nil {
		receipt.Location = out.Location
	}

	p.log.Info().
		Str("key", key).
		Int64("size_bytes", receipt.SizeBytes).
		Msg("Snapshot archived")

	return receipt, nil
}
