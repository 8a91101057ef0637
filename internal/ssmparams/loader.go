// Package ssmparams resolves secrets from AWS SSM Parameter Store or local
// files.
package ssmparams

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ssm"
)

// ParameterAPI is the subset of the SSM client used here.
type ParameterAPI interface {
	GetParameter(ctx context.Context, params *ssm.GetParameterInput, optFns ...func(*ssm.Options)) (*ssm.GetParameterOutput, error)
}

// Config for resolving the report API key
type Config struct {
	// File path (for local development)
	APIKeyPath string

	// SSM parameter name (for production)
	APIKeySSM string
}

// Enabled reports whether any source is configured.
func (c Config) Enabled() bool {
	return c.APIKeySSM != "" || c.APIKeyPath != ""
}

// LoadAPIKey resolves the API key from SSM when a parameter name is set,
// otherwise from the file path.
func LoadAPIKey(ctx context.Context, cfg Config) (string, error) {
	if cfg.APIKeySSM != "" {
		awsConfig, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return "", fmt.Errorf("failed to load AWS config: %w", err)
		}
		return LoadAPIKeyFromSSM(ctx, ssm.NewFromConfig(awsConfig), cfg.APIKeySSM)
	}

	return loadFromFile(cfg.APIKeyPath)
}

// LoadAPIKeyFromSSM reads the API key from AWS SSM Parameter Store
func LoadAPIKeyFromSSM(ctx context.Context, client ParameterAPI, name string) (string, error) {
	key, err := getParameter(ctx, client, name)
	if err != nil {
		return "", fmt.Errorf("failed to load API key from SSM: %w", err)
	}
	return key, nil
}

func loadFromFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("failed to read API key file: %w", err)
	}
	key := strings.TrimSpace(string(data))
	if key == "" {
		return "", fmt.Errorf("API key file %s is empty", path)
	}
	return key, nil
}

// getParameter fetches a parameter from SSM
func getParameter(ctx context.Context, client ParameterAPI, name string) (string, error) {
	output, err := client.GetParameter(ctx, &ssm.GetParameterInput{
		Name:           aws.String(name),
		WithDecryption: aws.Bool(true),
	})
	if err != nil {
		return "", err
	}
	if output.Parameter == nil || output.Parameter.Value == nil {
		return "", fmt.Errorf("parameter %s has no value", name)
	}
	return *output.Parameter.Value, nil
}
