package services

import (
	"bytes"
	"context"
	"encoding/csv"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/dmitrijs2005/usergate/internal/common"
	"github.com/dmitrijs2005/usergate/internal/logging"
	"github.com/dmitrijs2005/usergate/internal/server/models"
	"github.com/dmitrijs2005/usergate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/usergate/internal/server/repositories/users"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = awsconfig.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput) error {
		_, err := c.PutObject(ctx, in)
		return err
	}

	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

// ExportOptions locate the S3-compatible bucket snapshots are written to.
type ExportOptions struct {
	AccessKey    string
	SecretKey    string
	Region       string
	Bucket       string
	BaseEndpoint string
	URLValidity  time.Duration
}

// ExportResult points at an uploaded directory snapshot.
type ExportResult struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	Count     int       `json:"count"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// ExportService writes CSV snapshots of the directory to object storage and
// hands back a presigned download link.
type ExportService struct {
	users  users.Repository
	opts   ExportOptions
	logger logging.Logger
	now    func() time.Time
}

func NewExportService(rm repomanager.RepositoryManager, opts ExportOptions, logger logging.Logger) *ExportService {
	return &ExportService{
		users:  rm.Users(),
		opts:   opts,
		logger: logger.With("module", "export"),
		now:    time.Now,
	}
}

func (s *ExportService) client(ctx context.Context) (*s3.Client, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		awsconfig.WithRegion(s.opts.Region),
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.opts.AccessKey,
			s.opts.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	return newS3ClientFromConfig(cfg, func(o *s3.Options) {
		if s.opts.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s.opts.BaseEndpoint)
		}
		o.UsePathStyle = true
	}), nil
}

func (s *ExportService) objectKey() string {
	d := s.now().UTC()
	return fmt.Sprintf("exports/%04d/%02d/%02d/users-%s.csv", d.Year(), d.Month(), d.Day(), uuid.NewString())
}

// Export uploads the current directory as CSV (no password hashes) and
// returns a presigned GET URL for it.
func (s *ExportService) Export(ctx context.Context) (*ExportResult, error) {
	all, err := s.users.All(ctx)
	if err != nil {
		return nil, fmt.Errorf("export: %w", err)
	}

	body, err := encodeUsersCSV(models.PublicUsers(all))
	if err != nil {
		return nil, fmt.Errorf("%w: encode csv: %v", common.ErrorInternal, err)
	}

	client, err := s.client(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: s3 client: %v", common.ErrorInternal, err)
	}

	bucket := s.opts.Bucket
	key := s.objectKey()

	if err := putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      &bucket,
		Key:         &key,
		Body:        bytes.NewReader(body),
		ContentType: aws.String("text/csv"),
	}); err != nil {
		return nil, fmt.Errorf("%w: upload export: %v", common.ErrorInternal, err)
	}

	req, err := presignGetObject(s3.NewPresignClient(client), ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(s.opts.URLValidity))
	if err != nil {
		return nil, fmt.Errorf("%w: presign export: %v", common.ErrorInternal, err)
	}

	s.logger.Info(ctx, "directory exported", "key", key, "count", len(all))
	return &ExportResult{
		Key:       key,
		URL:       req.URL,
		Count:     len(all),
		ExpiresAt: s.now().Add(s.opts.URLValidity).UTC(),
	}, nil
}

func encodeUsersCSV(list []models.PublicUser) ([]byte, error) {
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)

	if err := w.Write([]string{"id", "email", "name", "role", "createdAt", "updatedAt"}); err != nil {
		return nil, err
	}
	for _, u := range list {
		if err := w.Write([]string{
			u.ID, u.Email, u.Name, string(u.Role),
			u.CreatedAt.UTC().Format(time.RFC3339), u.UpdatedAt.UTC().Format(time.RFC3339),
		}); err != nil {
			return nil, err
		}
	}
	w.Flush()
	return buf.Bytes(), w.Error()
}
