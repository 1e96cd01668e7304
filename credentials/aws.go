package credentials

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager"
	"github.com/aws/aws-sdk-go-v2/service/secretsmanager/types"
	"github.com/aws/smithy-go"
)

// SecretsManagerAPI is the subset of the Secrets Manager client the
// provider uses. It exists so tests can substitute a mock.
type SecretsManagerAPI interface {
	GetSecretValue(
		ctx context.Context,
		params *secretsmanager.GetSecretValueInput,
		optFns ...func(*secretsmanager.Options),
	) (*secretsmanager.GetSecretValueOutput, error)
}

// AWSProvider reads the token from an AWS Secrets Manager secret.
//
// The secret may hold the bare token, or a JSON object with a "token"
// field. A secret that does not exist yields an empty token.
type AWSProvider struct {
	client   SecretsManagerAPI
	secretID string
}

// AWSConfig configures NewAWSProvider.
type AWSConfig struct {
	// SecretID is the name or ARN of the secret. Required.
	SecretID string
	// Region overrides the SDK's region resolution.
	Region string
	// Endpoint overrides the service endpoint, e.g. for LocalStack.
	Endpoint string
}

// NewAWSProvider creates a provider using the default AWS credential chain.
func NewAWSProvider(ctx context.Context, cfg AWSConfig) (*AWSProvider, error) {
	if cfg.SecretID == "" {
		return nil, fmt.Errorf("secret id cannot be empty: %w", ErrProviderError)
	}

	var loadOpts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		loadOpts = append(loadOpts, config.WithRegion(cfg.Region))
	}
	if cfg.Endpoint != "" {
		loadOpts = append(loadOpts, config.WithCredentialsProvider(aws.AnonymousCredentials{}))
		if cfg.Region == "" {
			loadOpts = append(loadOpts, config.WithRegion("us-east-1"))
		}
	}

	awsCfg, err := config.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}

	client := secretsmanager.NewFromConfig(awsCfg, func(o *secretsmanager.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
	})

	return NewAWSProviderWithClient(client, cfg.SecretID), nil
}

// NewAWSProviderWithClient creates a provider around an existing client.
func NewAWSProviderWithClient(client SecretsManagerAPI, secretID string) *AWSProvider {
	return &AWSProvider{client: client, secretID: secretID}
}

// Name implements Provider.
func (p *AWSProvider) Name() string { return "aws" }

// Token implements Provider.
func (p *AWSProvider) Token(ctx context.Context) (string, error) {
	out, err := p.client.GetSecretValue(ctx, &secretsmanager.GetSecretValueInput{
		SecretId: aws.String(p.secretID),
	})
	if err != nil {
		var notFound *types.ResourceNotFoundException
		if errors.As(err, &notFound) {
			return "", nil
		}

		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && isAccessDenied(apiErr.ErrorCode()) {
			return "", NewProviderError(p.Name(), p.secretID, fmt.Errorf("%w: %s", ErrAccessDenied, apiErr.ErrorMessage()))
		}
		return "", NewProviderError(p.Name(), p.secretID, err)
	}

	var raw string
	switch {
	case out.SecretString != nil:
		raw = *out.SecretString
	case out.SecretBinary != nil:
		raw = string(out.SecretBinary)
	default:
		return "", nil
	}

	return parseSecret(raw), nil
}

func isAccessDenied(code string) bool {
	switch code {
	case "AccessDeniedException", "UnrecognizedClientException", "InvalidSignatureException":
		return true
	}
	return false
}

func parseSecret(raw string) string {
	trimmed := strings.TrimSpace(raw)
	if strings.HasPrefix(trimmed, "{") {
		var doc struct {
			Token string `json:"token"`
		}
		if err := json.Unmarshal([]byte(trimmed), &doc); err == nil {
			return strings.TrimSpace(doc.Token)
		}
	}

	fields := strings.Fields(trimmed)
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}
