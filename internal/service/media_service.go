package service

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/h2non/filetype"
	"github.com/h2non/filetype/types"
	gonanoid "github.com/matoous/go-nanoid/v2"

	config "github.com/blaircullen/socialdesk/configs"
)

// MediaService stores post images on R2 and hands back the public URL
// bundled into the post as imageUrl.
type MediaService interface {
	UploadImage(ctx context.Context, file *multipart.FileHeader) (string, error)
}

type mediaService struct {
	cfg config.Config
}

func NewMediaService(cfg config.Config) MediaService {
	return &mediaService{cfg: cfg}
}

var allowedImageTypes = map[string]struct{}{
	"jpg": {}, "png": {}, "gif": {}, "webp": {},
}

func (s *mediaService) UploadImage(ctx context.Context, file *multipart.FileHeader) (string, error) {
	content, err := file.Open()
	if err != nil {
		return "", fmt.Errorf("error opening file: %w", err)
	}
	defer content.Close()

	fileBytes, err := io.ReadAll(content)
	if err != nil {
		return "", fmt.Errorf("error reading file content: %w", err)
	}

	fileType, err := filetype.Match(fileBytes)
	if err != nil || fileType == types.Unknown {
		return "", &ValidationError{Reason: "unrecognized image type"}
	}
	if _, ok := allowedImageTypes[fileType.Extension]; !ok {
		return "", &ValidationError{Reason: "image type " + fileType.Extension + " is not allowed"}
	}

	key, err := gonanoid.New()
	if err != nil {
		slog.Error(err.Error())
		return "", err
	}

	if err := s.upload(ctx, key, fileBytes, fileType.MIME.Value); err != nil {
		return "", fmt.Errorf("error uploading image: %w", err)
	}

	return fmt.Sprintf("%s/%s", s.cfg.R2.PublicURL, key), nil
}

func (s *mediaService) client(ctx context.Context) (*s3.Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx,
		awsconfig.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(s.cfg.R2.AccessKey, s.cfg.R2.SecretKey, "")),
		awsconfig.WithRegion("auto"),
	)
	if err != nil {
		slog.Info(err.Error())
		return nil, err
	}

	return s3.NewFromConfig(cfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(fmt.Sprintf("https://%s.r2.cloudflarestorage.com", s.cfg.R2.AccountID))
	}), nil
}

func (s *mediaService) upload(ctx context.Context, key string, file []byte, contentType string) error {
	client, err := s.client(ctx)
	if err != nil {
		return err
	}

	input := &s3.PutObjectInput{
		Bucket:      aws.String(s.cfg.R2.BucketName),
		Key:         aws.String(key),
		Body:        bytes.NewReader(file),
		ContentType: aws.String(contentType),
	}

	if _, err := client.PutObject(ctx, input); err != nil {
		slog.Info(err.Error())
		return err
	}

	return nil
}
