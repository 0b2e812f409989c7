// Package s3 reads and writes snapshots in an S3-compatible bucket using the
// same layout as the crawler's output tree:
// <prefix><YYYY年MM月DD日>/txt/<name>.txt
package s3

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"path"
	"sort"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/custodia-labs/trendcore/internal/core/domain"
	"github.com/custodia-labs/trendcore/internal/core/ports/driven"
	"github.com/custodia-labs/trendcore/internal/dates"
	"github.com/custodia-labs/trendcore/internal/snapshot"
)

// Verify interface compliance
var (
	_ driven.SnapshotStore  = (*Store)(nil)
	_ driven.SnapshotWriter = (*Store)(nil)
)

const (
	txtDir          = "txt"
	txtExt          = ".txt"
	capturedAtMeta  = "captured-at"
	textContentType = "text/plain; charset=utf-8"
)

// ObjectAPI is the subset of the S3 client the store uses.
type ObjectAPI interface {
	s3.ListObjectsV2APIClient
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Config holds bucket settings. Empty values fall back to the AWS default chain.
type Config struct {
	Bucket       string
	Prefix       string
	Region       string
	Endpoint     string
	UsePathStyle bool
	Location     *time.Location
	Logger       *slog.Logger
}

// Store implements SnapshotStore over an object bucket.
type Store struct {
	api    ObjectAPI
	bucket string
	prefix string
	loc    *time.Location
	logger *slog.Logger
}

// NewClient builds an S3 client from the default AWS configuration chain.
func NewClient(ctx context.Context, cfg Config) (*s3.Client, error) {
	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = cfg.UsePathStyle
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	}), nil
}

// NewStore creates a bucket-backed snapshot store.
func NewStore(api ObjectAPI, cfg Config) *Store {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	prefix := cfg.Prefix
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Store{api: api, bucket: cfg.Bucket, prefix: prefix, loc: cfg.Location, logger: cfg.Logger}
}

func (s *Store) dayPrefix(day time.Time) string {
	return s.prefix + dates.FolderName(day) + "/" + txtDir + "/"
}

func (s *Store) list(ctx context.Context, prefix string) ([]types.Object, error) {
	var out []types.Object
	p := s3.NewListObjectsV2Paginator(s.api, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.bucket),
		Prefix: aws.String(prefix),
	})
	for p.HasMorePages() {
		page, err := p.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("list s3://%s/%s: %w", s.bucket, prefix, err)
		}
		out = append(out, page.Contents...)
	}
	return out, nil
}

// ListSnapshots downloads and parses the day's objects in key order.
func (s *Store) ListSnapshots(ctx context.Context, day time.Time) ([]*domain.Snapshot, []domain.Diagnostic, error) {
	folder := dates.FolderName(day)
	objects, err := s.list(ctx, s.dayPrefix(day))
	if err != nil {
		return nil, nil, err
	}

	var keys []types.Object
	for _, obj := range objects {
		if strings.HasSuffix(aws.ToString(obj.Key), txtExt) {
			keys = append(keys, obj)
		}
	}
	sort.Slice(keys, func(i, j int) bool { return aws.ToString(keys[i].Key) < aws.ToString(keys[j].Key) })

	if len(keys) == 0 {
		return nil, nil, domain.NewQueryError(domain.ErrNoData,
			fmt.Sprintf("no snapshot objects for %s", folder),
			"check the bucket prefix or run the crawler first")
	}

	var (
		snapshots []*domain.Snapshot
		skipped   []domain.Diagnostic
	)
	for _, obj := range keys {
		key := aws.ToString(obj.Key)
		name := path.Base(key)

		snap, err := s.readObject(ctx, key, name, aws.ToTime(obj.LastModified))
		if err != nil {
			s.logger.Warn("skipping snapshot", "day", folder, "key", key, "error", err)
			skipped = append(skipped, domain.Diagnostic{
				Source: folder + "/" + name,
				Reason: domain.ReasonUnreadable + ": " + err.Error(),
			})
			continue
		}
		snapshots = append(snapshots, snap)
	}

	return snapshots, skipped, nil
}

func (s *Store) readObject(ctx context.Context, key, name string, modified time.Time) (*domain.Snapshot, error) {
	out, err := s.api.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrParse, err)
	}
	defer out.Body.Close()

	doc, err := snapshot.Parse(out.Body)
	if err != nil {
		return nil, err
	}

	captured := modified
	if v, ok := out.Metadata[capturedAtMeta]; ok {
		if t, err := time.Parse(time.RFC3339Nano, v); err == nil {
			captured = t
		}
	}
	return doc.Snapshot(name, captured.In(s.loc)), nil
}

// AvailableDates derives days from object keys.
func (s *Store) AvailableDates(ctx context.Context) ([]time.Time, error) {
	objects, err := s.list(ctx, s.prefix)
	if err != nil {
		return nil, err
	}
	days, _, _ := s.summarise(objects)
	return days, nil
}

// summarise returns the sorted days, the snapshot count and the total size.
func (s *Store) summarise(objects []types.Object) ([]time.Time, int, int64) {
	seen := make(map[string]time.Time)
	var (
		count int
		size  int64
	)
	for _, obj := range objects {
		size += aws.ToInt64(obj.Size)

		rel := strings.TrimPrefix(aws.ToString(obj.Key), s.prefix)
		parts := strings.Split(rel, "/")
		if len(parts) != 3 || parts[1] != txtDir || !strings.HasSuffix(parts[2], txtExt) {
			continue
		}
		day, err := dates.ParseFolderName(parts[0], s.loc)
		if err != nil {
			continue
		}
		seen[parts[0]] = day
		count++
	}

	days := make([]time.Time, 0, len(seen))
	for _, d := range seen {
		days = append(days, d)
	}
	sort.Slice(days, func(i, j int) bool { return days[i].Before(days[j]) })
	return days, count, size
}

// Stats summarises the bucket contents under the prefix.
func (s *Store) Stats(ctx context.Context) (*domain.StoreStats, error) {
	objects, err := s.list(ctx, s.prefix)
	if err != nil {
		return nil, err
	}
	days, count, size := s.summarise(objects)

	stats := &domain.StoreStats{Backend: "s3", Days: len(days), Snapshots: count, SizeBytes: size}
	if len(days) > 0 {
		stats.Oldest = dates.FormatISO(days[0])
		stats.Latest = dates.FormatISO(days[len(days)-1])
	}
	return stats, nil
}

func objectName(name string) string {
	if strings.HasSuffix(name, txtExt) {
		return name
	}
	return name + txtExt
}

// SaveSnapshot uploads a snapshot, recording its capture time as metadata.
func (s *Store) SaveSnapshot(ctx context.Context, day time.Time, snap *domain.Snapshot) error {
	var buf bytes.Buffer
	if err := snapshot.Write(&buf, snapshot.FromSnapshot(snap)); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	key := s.dayPrefix(day) + objectName(snap.Name)
	_, err := s.api.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String(textContentType),
		Metadata:    map[string]string{capturedAtMeta: snap.CapturedAt.Format(time.RFC3339Nano)},
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", s.bucket, key, err)
	}
	return nil
}

// HasSnapshot reports whether the object for this name exists.
func (s *Store) HasSnapshot(ctx context.Context, day time.Time, name string) (bool, error) {
	key := s.dayPrefix(day) + objectName(name)
	objects, err := s.list(ctx, key)
	if err != nil {
		return false, err
	}
	for _, obj := range objects {
		if aws.ToString(obj.Key) == key {
			return true, nil
		}
	}
	return false, nil
}
