package main

import (
	"context"
	"fmt"

	"github.com/harshitajain06/Finji/pkg/types"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func loadConfig() (*types.Config, error) {
	// Missing .env just means the environment is already populated.
	_ = godotenv.Load()

	c := new(types.Config)
	if err := envconfig.Process("", c); err != nil {
		return nil, fmt.Errorf("process environment config: %w", err)
	}

	if c.DatabaseURL == "" {
		return nil, fmt.Errorf("set DATABASE_URL")
	}

	if c.S3PublicBaseURL == "" {
		c.S3PublicBaseURL = fmt.Sprintf("https://%s.s3.amazonaws.com", c.S3BucketName)
	}

	return c, nil
}

func loadAWSConfig(ctx context.Context) (aws.Config, error) {
	config, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return aws.Config{}, fmt.Errorf("failed to load aws config: %w", err)
	}

	return config, nil
}
