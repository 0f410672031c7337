package engines

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
	log "github.com/sirupsen/logrus"
)

const DefaultBedrockRegion = "us-east-1"

// ConverseAPI is the subset of the Bedrock runtime client used by Bedrock.
type ConverseAPI interface {
	Converse(ctx context.Context, params *bedrockruntime.ConverseInput, optFns ...func(*bedrockruntime.Options)) (*bedrockruntime.ConverseOutput, error)
}

// Bedrock talks to foundation models through the Bedrock Converse API.
type Bedrock struct {
	client      ConverseAPI
	ModelID     string
	Temperature float32
	MaxTokens   int32
}

func NewBedrockEngine(client ConverseAPI, modelID string) *Bedrock {
	return &Bedrock{
		client:    client,
		ModelID:   modelID,
		MaxTokens: 512,
	}
}

// NewBedrockEngineFromRegion loads the default AWS credential chain for region.
func NewBedrockEngineFromRegion(ctx context.Context, region, modelID string) (*Bedrock, error) {
	if region == "" {
		region = DefaultBedrockRegion
	}
	cfg, err := config.LoadDefaultConfig(ctx, config.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return NewBedrockEngine(bedrockruntime.NewFromConfig(cfg), modelID), nil
}

func (b *Bedrock) WithTemperature(temperature float32) *Bedrock {
	b.Temperature = temperature
	return b
}

func (b *Bedrock) WithMaxTokens(maxTokens int32) *Bedrock {
	b.MaxTokens = maxTokens
	return b
}

func (b *Bedrock) Chat(ctx context.Context, prompt *ChatPrompt) (*ChatMessage, error) {
	input := &bedrockruntime.ConverseInput{
		ModelId: aws.String(b.ModelID),
		InferenceConfig: &types.InferenceConfiguration{
			Temperature: aws.Float32(b.Temperature),
			MaxTokens:   aws.Int32(b.MaxTokens),
		},
	}
	if len(prompt.Stop) > 0 {
		input.InferenceConfig.StopSequences = prompt.Stop
	}
	for _, msg := range prompt.History {
		switch msg.Role {
		case ConvRoleSystem:
			input.System = append(input.System, &types.SystemContentBlockMemberText{Value: msg.Text})
		case ConvRoleAssistant:
			input.Messages = append(input.Messages, bedrockMessage(types.ConversationRoleAssistant, msg.Text))
		default:
			input.Messages = append(input.Messages, bedrockMessage(types.ConversationRoleUser, msg.Text))
		}
	}
	output, err := b.client.Converse(ctx, input)
	if err != nil {
		return nil, fmt.Errorf("bedrock converse error: %w", err)
	}
	msg, ok := output.Output.(*types.ConverseOutputMemberMessage)
	if !ok {
		return nil, errors.New("bedrock returned no message")
	}
	var text strings.Builder
	for _, block := range msg.Value.Content {
		if textBlock, ok := block.(*types.ContentBlockMemberText); ok {
			text.WriteString(textBlock.Value)
		}
	}
	log.Debugf("bedrock stop reason: %s", output.StopReason)
	return &ChatMessage{
		Role: ConvRoleAssistant,
		Text: text.String(),
	}, nil
}

func bedrockMessage(role types.ConversationRole, text string) types.Message {
	return types.Message{
		Role: role,
		Content: []types.ContentBlock{
			&types.ContentBlockMemberText{Value: text},
		},
	}
}
