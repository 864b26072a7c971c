// Package storage keeps rendered artifact images on local disk or in
// DigitalOcean Spaces.
package storage

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"
	"github.com/rs/zerolog/log"
)

type Storage interface {
	SaveArtifact(ctx context.Context, name string, data []byte) (string, error)
}

type LocalStorage struct {
	uploadDir string
	urlPrefix string
	now       func() time.Time
}

type SpacesStorage struct {
	client s3iface.S3API
	bucket string
	cdnURL string
	now    func() time.Time
}

// NewLocalStorage writes under uploadDir and returns URLs under urlPrefix.
func NewLocalStorage(uploadDir, urlPrefix string) *LocalStorage {
	return &LocalStorage{uploadDir: uploadDir, urlPrefix: urlPrefix, now: time.Now}
}

func NewSpacesStorage(endpoint, region, bucket, cdnURL, accessKey, secretKey string) (*SpacesStorage, error) {
	config := &aws.Config{
		Credentials:      credentials.NewStaticCredentials(accessKey, secretKey, ""),
		Endpoint:         aws.String(endpoint),
		Region:           aws.String(region),
		S3ForcePathStyle: aws.Bool(false),
	}

	sess, err := session.NewSession(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	return &SpacesStorage{
		client: s3.New(sess),
		bucket: bucket,
		cdnURL: cdnURL,
		now:    time.Now,
	}, nil
}

var unsafeChars = regexp.MustCompile(`[^a-zA-Z0-9_-]`)

func cleanSegment(s string) string {
	s = strings.ReplaceAll(s, " ", "_")
	return unsafeChars.ReplaceAllString(s, "")
}

// normalizeFilename creates a unique, normalized filename without spaces
func normalizeFilename(originalFilename string, at time.Time) string {
	ext := filepath.Ext(originalFilename)
	baseName := cleanSegment(strings.TrimSuffix(originalFilename, ext))
	if baseName == "" {
		baseName = "file"
	}

	// timestamp keeps re-renders of one message apart
	return fmt.Sprintf("%s_%s%s", baseName, at.Format("20060102_150405"), strings.ToLower(ext))
}

// objectKey turns "device/message.png" into a safe relative key.
func objectKey(name string, at time.Time) string {
	dir, file := path.Split(path.Clean("/" + name))
	var parts []string
	for _, seg := range strings.Split(dir, "/") {
		if seg = cleanSegment(seg); seg != "" {
			parts = append(parts, seg)
		}
	}
	return path.Join(append(parts, normalizeFilename(file, at))...)
}

func (ls *LocalStorage) SaveArtifact(_ context.Context, name string, data []byte) (string, error) {
	key := objectKey(name, ls.now())
	log.Debug().Str("original", name).Str("normalized", key).Msg("artifact name normalized")

	uploadPath := filepath.Join(ls.uploadDir, filepath.FromSlash(key))
	if err := os.MkdirAll(filepath.Dir(uploadPath), 0755); err != nil {
		return "", fmt.Errorf("failed to create upload directory: %w", err)
	}
	if err := os.WriteFile(uploadPath, data, 0644); err != nil {
		return "", fmt.Errorf("failed to save file: %w", err)
	}
	return strings.TrimSuffix(ls.urlPrefix, "/") + "/" + key, nil
}

func (ss *SpacesStorage) SaveArtifact(ctx context.Context, name string, data []byte) (string, error) {
	normalized := objectKey(name, ss.now())
	log.Debug().Str("original", name).Str("normalized", normalized).Msg("artifact name normalized")

	key := fmt.Sprintf("artifacts/%s", normalized)
	_, err := ss.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(ss.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(getContentType(normalized)),
		ACL:         aws.String("public-read"),
	})
	if err != nil {
		log.Error().Err(err).Msg("Failed to upload artifact to Spaces")
		return "", fmt.Errorf("failed to upload to Spaces: %w", err)
	}

	return fmt.Sprintf("%s/%s", strings.TrimSuffix(ss.cdnURL, "/"), key), nil
}

func getContentType(filename string) string {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".png":
		return "image/png"
	case ".jpg", ".jpeg":
		return "image/jpeg"
	case ".json":
		return "application/json"
	default:
		return "application/octet-stream"
	}
}
