// internal/pkg/config/secrets.go
package config

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
)

// SecretsSource resolves secret values by key.
type SecretsSource interface {
	GetSecrets(ctx context.Context, keys []string) (map[string]string, error)
}

// secretValueAPI is the part of the Secrets Manager client we call.
type secretValueAPI interface {
	GetSecretValue(ctx context.Context, in *secretsmanager.GetSecretValueInput, optFns ...func(*secretsmanager.Options)) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSSecretsManager reads a JSON key/value secret and caches it for ttl.
type AWSSecretsManager struct {
	client     secretValueAPI
	secretName string
	ttl        time.Duration
	logger     *slog.Logger

	mu        sync.RWMutex
	cache     map[string]string
	lastFetch time.Time
}

func NewAWSSecretsManager(ctx context.Context, region, secretName string, logger *slog.Logger) (*AWSSecretsManager, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return newAWSSecretsManager(secretsmanager.NewFromConfig(cfg), secretName, logger), nil
}

func newAWSSecretsManager(client secretValueAPI, secretName string, logger *slog.Logger) *AWSSecretsManager {
	return &AWSSecretsManager{
		client:     client,
		secretName: secretName,
		ttl:        5 * time.Minute,
		logger:     logger,
		cache:      make(map[string]string),
	}
}

func (sm *AWSSecretsManager) GetSecrets(ctx context.Context, keys []string) (map[string]string, error) {
	sm.mu.RLock()
	fresh := time.Since(sm.lastFetch) < sm.ttl && len(sm.cache) > 0
	data := sm.cache
	sm.mu.RUnlock()

	if !fresh {
		sm.logger.Info("fetching secrets from AWS Secrets Manager",
			slog.String("secret_name", sm.secretName))

		result, err := sm.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
			SecretId:     aws.String(sm.secretName),
			VersionStage: aws.String("AWSCURRENT"),
		})
		if err != nil {
			return nil, fmt.Errorf("failed to get secret value: %w", err)
		}
		if result.SecretString == nil {
			return nil, fmt.Errorf("secret %s has no string value", sm.secretName)
		}

		data = make(map[string]string)
		if err := json.Unmarshal([]byte(*result.SecretString), &data); err != nil {
			return nil, fmt.Errorf("failed to parse secret JSON: %w", err)
		}

		sm.mu.Lock()
		sm.cache = data
		sm.lastFetch = time.Now()
		sm.mu.Unlock()
	}

	out := make(map[string]string, len(keys))
	for _, key := range keys {
		if val, ok := data[key]; ok {
			out[key] = val
		}
	}
	return out, nil
}

// EnvSecretsManager reads secrets straight from the environment.
type EnvSecretsManager struct{}

func NewEnvSecretsManager() *EnvSecretsManager {
	return &EnvSecretsManager{}
}

func (em *EnvSecretsManager) GetSecrets(_ context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string)
	for _, key := range keys {
		if val := os.Getenv(key); val != "" {
			out[key] = val
		}
	}
	return out, nil
}

// ApplySecrets overrides credential fields with values from src.
func ApplySecrets(ctx context.Context, cfg *Config, src SecretsSource) error {
	secrets, err := src.GetSecrets(ctx, []string{"DB_PASSWORD", "REDIS_PASSWORD", "JWT_SECRET", "AWS_SECRET_ACCESS_KEY"})
	if err != nil {
		return fmt.Errorf("failed to resolve secrets: %w", err)
	}

	if v, ok := secrets["DB_PASSWORD"]; ok {
		cfg.Database.Password = v
	}
	if v, ok := secrets["REDIS_PASSWORD"]; ok {
		cfg.Redis.Password = v
		cfg.Asynq.RedisPassword = v
	}
	if v, ok := secrets["JWT_SECRET"]; ok {
		cfg.Security.JWTSecret = v
	}
	if v, ok := secrets["AWS_SECRET_ACCESS_KEY"]; ok {
		cfg.AWS.SecretAccessKey = v
	}
	return nil
}
