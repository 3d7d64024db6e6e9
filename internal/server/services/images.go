package services

import (
	"context"
	"fmt"
	"time"

	"github.com/dmitrijs2005/wishlist/internal/common"
	"github.com/dmitrijs2005/wishlist/internal/dbx"
	sc "github.com/dmitrijs2005/wishlist/internal/server/config"
	"github.com/dmitrijs2005/wishlist/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/wishlist/internal/timex"
	"github.com/google/uuid"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}
)

const presignExpiry = 15 * time.Minute

// ImageUpload tells the client where to PUT a wish image.
type ImageUpload struct {
	Key       string `json:"key"`
	UploadURL string `json:"uploadUrl"`
}

// ImageService hands out presigned S3 URLs for wish images. The server never
// proxies image bytes itself.
type ImageService struct {
	tx          dbx.Transactor
	repomanager repomanager.RepositoryManager
	config      *sc.Config
	clock       timex.Clock
}

func NewImageService(tx dbx.Transactor, m repomanager.RepositoryManager, cfg *sc.Config, clock timex.Clock) *ImageService {
	if clock == nil {
		clock = timex.SystemClock{}
	}
	return &ImageService{tx: tx, repomanager: m, config: cfg, clock: clock}
}

func (s *ImageService) storageKey(userID, wishID string) string {
	d := s.clock.Now()
	return fmt.Sprintf("wishes/%s/%s/%d/%02d/%v", userID, wishID, d.Year(), d.Month(), uuid.New())
}

func (s *ImageService) getPresignClient(ctx context.Context) (*s3.PresignClient, error) {
	cfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(s.config.S3Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s.config.S3RootUser,
			s.config.S3RootPassword,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(s.config.S3BaseEndpoint)
		o.UsePathStyle = true
	})

	return newS3PresignClient(client), nil
}

// ImageUploadURL presigns a PUT for a new object and records its key on the
// wish, replacing any previous image.
func (s *ImageService) ImageUploadURL(ctx context.Context, userID, wishID string) (*ImageUpload, error) {
	if !s.config.ObjectStorageEnabled() {
		return nil, common.ErrorStorageNotConfigured
	}
	if !validID(wishID) {
		return nil, common.ErrorNotFound
	}

	wishes := s.repomanager.Wishes(s.tx.DB())
	if _, err := wishes.Get(ctx, userID, wishID); err != nil {
		return nil, err
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("s3 client: %w", err)
	}

	bucket := s.config.S3Bucket
	key := s.storageKey(userID, wishID)

	req, err := presignPutObject(presignClient, ctx, &s3.PutObjectInput{
		Bucket: &bucket,
		Key:    &key,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return nil, fmt.Errorf("presign put: %w", err)
	}

	if err := wishes.SetImageKey(ctx, userID, wishID, key); err != nil {
		return nil, err
	}

	return &ImageUpload{Key: key, UploadURL: req.URL}, nil
}

// ImageURL presigns a GET for the wish's image. A wish without an image is
// common.ErrorNotFound.
func (s *ImageService) ImageURL(ctx context.Context, userID, wishID string) (string, error) {
	if !s.config.ObjectStorageEnabled() {
		return "", common.ErrorStorageNotConfigured
	}
	if !validID(wishID) {
		return "", common.ErrorNotFound
	}

	wish, err := s.repomanager.Wishes(s.tx.DB()).Get(ctx, userID, wishID)
	if err != nil {
		return "", err
	}
	if wish.ImageKey == nil || *wish.ImageKey == "" {
		return "", common.ErrorNotFound
	}

	presignClient, err := s.getPresignClient(ctx)
	if err != nil {
		return "", fmt.Errorf("s3 client: %w", err)
	}

	bucket := s.config.S3Bucket
	req, err := presignGetObject(presignClient, ctx, &s3.GetObjectInput{
		Bucket: &bucket,
		Key:    wish.ImageKey,
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}

	return req.URL, nil
}
