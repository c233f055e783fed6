package storage

import (
	"bytes"
	"context"
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"meta_travel/config"
	"meta_travel/internal/editor"
	"meta_travel/internal/logger"
)

// S3AssetStore là gateway lưu file media trên object store tương thích S3
// (AWS S3, MinIO, Cloudflare R2). Implement editor.AssetStore.
type S3AssetStore struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
	log           *logrus.Entry
}

// NewS3AssetStore tạo gateway từ cấu hình server.
// Dùng static credentials và custom endpoint để chạy được với MinIO/R2.
func NewS3AssetStore(cfg *config.Configuration) (*S3AssetStore, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.S3_Region),
		awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.S3_AccessKey, cfg.S3_SecretKey, ""),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to load S3 config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.BaseEndpoint = aws.String(cfg.S3_Endpoint)
		o.UsePathStyle = true
	})

	return &S3AssetStore{
		client:        client,
		bucket:        cfg.S3_Bucket,
		publicBaseURL: strings.TrimRight(cfg.S3_PublicBaseURL, "/"),
		log:           logger.GetAppLogger().WithField("module", "storage"),
	}, nil
}

// StorageKey sinh đường dẫn lưu trữ duy nhất cho một file:
// <prefix>/<yyyy/mm/dd>/<uuid><ext>
// UUID tránh ghi đè khi hai file trùng tên; ngày giúp duyệt bucket dễ hơn.
func StorageKey(prefix string, fileName string) string {
	now := time.Now().UTC()
	ext := strings.ToLower(path.Ext(fileName))
	return path.Join(prefix, now.Format("2006/01/02"), uuid.New().String()+ext)
}

// publicURL trả về URL công khai của file theo đường dẫn
func (s *S3AssetStore) publicURL(storagePath string) string {
	return s.publicBaseURL + "/" + strings.TrimLeft(storagePath, "/")
}

// Put lưu một file với đường dẫn đích cho trước
func (s *S3AssetStore) Put(ctx context.Context, destPath string, in editor.PutInput) (editor.StoredObject, error) {
	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(destPath),
		Body:        bytes.NewReader(in.Data),
		ContentType: aws.String(in.ContentType),
	})
	if err != nil {
		s.log.WithError(err).WithField("storage_path", destPath).Error("Upload file lên S3 thất bại")
		return editor.StoredObject{}, fmt.Errorf("failed to put object %s: %w", destPath, err)
	}

	return editor.StoredObject{
		URL:  s.publicURL(destPath),
		Path: destPath,
	}, nil
}

// PutMany lưu nhiều file dưới cùng prefix, trả về kết quả từng file theo thứ tự.
// Mỗi file có kết quả riêng; một file lỗi không chặn các file còn lại.
func (s *S3AssetStore) PutMany(ctx context.Context, prefix string, ins []editor.PutInput) []editor.PutResult {
	results := make([]editor.PutResult, len(ins))
	for i, in := range ins {
		destPath := StorageKey(prefix, in.Name)
		obj, err := s.Put(ctx, destPath, in)
		results[i] = editor.PutResult{Object: obj, Err: err}
	}
	return results
}

// Delete xóa file theo đường dẫn
func (s *S3AssetStore) Delete(ctx context.Context, storagePath string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(storagePath),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s: %w", storagePath, err)
	}
	return nil
}
