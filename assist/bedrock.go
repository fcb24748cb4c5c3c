package assist

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime/types"
)

// BedrockInvoker calls models through the Bedrock Converse API.
type BedrockInvoker struct {
	client *bedrockruntime.Client
}

// NewBedrockInvoker builds an invoker for the given region. Model replies
// can take minutes on long generations, so a generous per-call timeout is
// applied on top of whatever deadline the caller's context carries.
func NewBedrockInvoker(ctx context.Context, region string) (*BedrockInvoker, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("assist: load aws config: %w", err)
	}
	return &BedrockInvoker{client: bedrockruntime.NewFromConfig(cfg)}, nil
}

func (b *BedrockInvoker) Invoke(ctx context.Context, modelID, system string, messages []Message) (Reply, error) {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Minute)
	defer cancel()

	converseMessages := make([]types.Message, 0, len(messages))
	for _, msg := range messages {
		role := types.ConversationRoleUser
		if msg.Role == "assistant" {
			role = types.ConversationRoleAssistant
		}
		converseMessages = append(converseMessages, types.Message{
			Role:    role,
			Content: []types.ContentBlock{&types.ContentBlockMemberText{Value: msg.Content}},
		})
	}

	out, err := b.client.Converse(ctx, &bedrockruntime.ConverseInput{
		ModelId:  aws.String(modelID),
		System:   []types.SystemContentBlock{&types.SystemContentBlockMemberText{Value: system}},
		Messages: converseMessages,
		InferenceConfig: &types.InferenceConfiguration{
			MaxTokens:   aws.Int32(64000),
			Temperature: aws.Float32(0.7),
		},
	})
	if err != nil {
		return Reply{}, err
	}

	var reply Reply
	if msg, ok := out.Output.(*types.ConverseOutputMemberMessage); ok {
		for _, block := range msg.Value.Content {
			if text, ok := block.(*types.ContentBlockMemberText); ok {
				reply.Text += text.Value
			}
		}
	}
	if out.Usage != nil {
		reply.InputTokens = int(aws.ToInt32(out.Usage.InputTokens))
		reply.OutputTokens = int(aws.ToInt32(out.Usage.OutputTokens))
	}
	return reply, nil
}

var _ Invoker = (*BedrockInvoker)(nil)
