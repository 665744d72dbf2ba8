package bedrock

import (
	"context"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrock"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"

	"github.com/TeamSparkAI/tsagent-sub003/internal/provider"
)

// Client defines the interface for interacting with Amazon Bedrock.
// This abstraction allows for easier testing and potential future implementations.
type Client interface {
	// Converse sends a request to the Converse API and returns the response
	Converse(ctx context.Context, input *bedrockruntime.ConverseInput) (*bedrockruntime.ConverseOutput, error)

	// ListModels returns the foundation models available in the region
	ListModels(ctx context.Context) ([]provider.ModelInfo, error)
}

// apiClient wraps the AWS SDK clients to satisfy Client. The runtime
// client serves inference and the control-plane client serves the
// model catalog.
type apiClient struct {
	runtime *bedrockruntime.Client
	control *bedrock.Client
}

// NewClient creates a Client using the default AWS credential chain.
func NewClient(ctx context.Context, region string) (Client, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, err
	}
	return &apiClient{
		runtime: bedrockruntime.NewFromConfig(cfg),
		control: bedrock.NewFromConfig(cfg),
	}, nil
}

func (c *apiClient) Converse(ctx context.Context, input *bedrockruntime.ConverseInput) (*bedrockruntime.ConverseOutput, error) {
	return c.runtime.Converse(ctx, input)
}

func (c *apiClient) ListModels(ctx context.Context) ([]provider.ModelInfo, error) {
	out, err := c.control.ListFoundationModels(ctx, &bedrock.ListFoundationModelsInput{})
	if err != nil {
		return nil, err
	}
	models := make([]provider.ModelInfo, 0, len(out.ModelSummaries))
	for _, summary := range out.ModelSummaries {
		models = append(models, provider.ModelInfo{
			ID:   aws.ToString(summary.ModelId),
			Name: aws.ToString(summary.ModelName),
		})
	}
	return models, nil
}
