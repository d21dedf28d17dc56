package config

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// ArchiveConfig holds the finalized-bracket S3 archiver's settings.
type ArchiveConfig struct {
	Bucket string
	Region string
}

func LoadArchiveConfig() ArchiveConfig {
	return ArchiveConfig{
		Bucket: getEnv("ARCHIVE_S3_BUCKET", "progression-bracket-archive"),
		Region: getEnv("AWS_REGION", "us-east-1"),
	}
}

func NewS3Client(cfg ArchiveConfig) (*s3.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(), awsconfig.WithRegion(cfg.Region))
	if err != nil {
		return nil, fmt.Errorf("failed to load aws config: %w", err)
	}
	return s3.NewFromConfig(awsCfg), nil
}
