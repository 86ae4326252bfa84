package jobs

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"

	"PosDashSaas/internal/logger"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	archivePrefix        = "pos-exports/"
	archiveDefaultRegion = "us-east-1"
)

func archiveBucket() string {
	return strings.TrimSpace(os.Getenv("POS_ARCHIVE_S3_BUCKET"))
}

func archiveRegion() string {
	if r := strings.TrimSpace(os.Getenv("POS_ARCHIVE_S3_REGION")); r != "" {
		return r
	}
	return archiveDefaultRegion
}

// isArchiveEnabled reads POS_ARCHIVE_S3_ENABLED. Archiving is opt-in and
// also requires a bucket to be configured.
func isArchiveEnabled() bool {
	v := strings.TrimSpace(strings.ToLower(os.Getenv("POS_ARCHIVE_S3_ENABLED")))
	return (v == "1" || v == "true" || v == "yes") && archiveBucket() != ""
}

func detectContentType(data []byte) string {
	if len(data) == 0 {
		return "application/octet-stream"
	}
	if len(data) > 512 {
		return http.DetectContentType(data[:512])
	}
	return http.DetectContentType(data)
}

func buildArchiveKey(filename string, data []byte) string {
	sum := sha256.Sum256(data)
	hash := hex.EncodeToString(sum[:])
	ext := filepath.Ext(filename)
	if ext == "" {
		ext = ".bin"
	}
	return fmt.Sprintf("%s%s/%s%s", archivePrefix, time.Now().UTC().Format("2006/01"), hash, ext)
}

// archiveProcessedFile uploads the original export to S3 after a successful
// ingest. Failures are audit-logged only: the ingest already committed and
// the local processed/ copy remains the fallback archive.
func archiveProcessedFile(path string) {
	if !isArchiveEnabled() {
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.GlobalLogger.LogAudit(fmt.Sprintf("Archive skipped, cannot read %s: %v", path, err))
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(archiveRegion()))
	if err != nil {
		logger.GlobalLogger.LogAudit(fmt.Sprintf("Archive skipped, AWS config failed: %v", err))
		return
	}
	client := s3.NewFromConfig(cfg)

	key := buildArchiveKey(filepath.Base(path), data)
	_, err = client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(archiveBucket()),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String(detectContentType(data)),
	})
	if err != nil {
		logger.GlobalLogger.LogAudit(fmt.Sprintf("Archive of %s failed: %v", filepath.Base(path), err))
		return
	}
	logger.GlobalLogger.LogAudit(fmt.Sprintf("Archived %s to s3://%s/%s", filepath.Base(path), archiveBucket(), key))
}
