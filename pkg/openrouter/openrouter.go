// Package openrouter implements the model boundary against the OpenRouter
// chat completions API using the OpenAI SDK wire format.
package openrouter

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/schema"
	openaisdk "github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
	"golang.org/x/time/rate"

	contractx "github.com/planweave/planweave/agent/contract"
)

type Config struct {
	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model              string        `envconfig:"MODEL" split_words:"true" required:"true"`
	MaxCompletionToken *int          `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	RequestsPerMinute  int           `envconfig:"REQUESTS_PER_MINUTE" split_words:"true" default:"60"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`
}

// Client calls the chat completions endpoint and maps responses onto the
// contract types. Tools are bound at construction time and attached only to
// requests that ask for them.
type Client struct {
	api     *openaisdk.Client
	model   string
	maxTok  *int
	temp    float32
	timeout time.Duration
	limiter *rate.Limiter
	tools   []openaisdk.ChatCompletionToolUnionParam
}

var _ contractx.ModelCaller = (*Client)(nil)

func NewClient(cfg Config, tools []*schema.ToolInfo) (*Client, error) {
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, fmt.Errorf("%w: api key is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(cfg.Model) == "" {
		return nil, fmt.Errorf("%w: model name is required", contractx.ErrValidation)
	}

	opts := []option.RequestOption{
		option.WithAPIKey(apiKey),
	}
	if trimmed := strings.TrimRight(cfg.BaseURL, "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}
	if cfg.SiteURL != "" {
		opts = append(opts, option.WithHeader("HTTP-Referer", cfg.SiteURL))
	}
	if cfg.SiteName != "" {
		opts = append(opts, option.WithHeader("X-Title", cfg.SiteName))
	}

	toolParams, err := convertTools(tools)
	if err != nil {
		return nil, err
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	rpm := cfg.RequestsPerMinute
	if rpm <= 0 {
		rpm = 60
	}

	api := openaisdk.NewClient(opts...)
	return &Client{
		api:     &api,
		model:   strings.TrimSpace(cfg.Model),
		maxTok:  cfg.MaxCompletionToken,
		temp:    cfg.Temperature,
		timeout: timeout,
		limiter: rate.NewLimiter(rate.Every(time.Minute/time.Duration(rpm)), 1),
		tools:   toolParams,
	}, nil
}

func (c *Client) Call(ctx context.Context, req contractx.ModelRequest) (contractx.ModelResponse, error) {
	if len(req.Messages) == 0 {
		return contractx.ModelResponse{}, fmt.Errorf("%w: no messages", contractx.ErrValidation)
	}

	if err := c.limiter.Wait(ctx); err != nil {
		return contractx.ModelResponse{}, fmt.Errorf("%w: rate limit wait: %v", contractx.ErrModelInvoke, err)
	}

	messages := make([]openaisdk.ChatCompletionMessageParamUnion, 0, len(req.Messages))
	for _, msg := range req.Messages {
		switch msg.Role {
		case contractx.RoleSystem:
			messages = append(messages, openaisdk.SystemMessage(msg.Content))
		case contractx.RoleAssistant:
			messages = append(messages, openaisdk.AssistantMessage(msg.Content))
		case contractx.RoleUser:
			messages = append(messages, openaisdk.UserMessage(msg.Content))
		default:
			return contractx.ModelResponse{}, fmt.Errorf("%w: unknown role %q", contractx.ErrValidation, msg.Role)
		}
	}

	params := openaisdk.ChatCompletionNewParams{
		Model:       openaisdk.ChatModel(c.model),
		Messages:    messages,
		Temperature: openaisdk.Float(float64(c.temp)),
	}
	if c.maxTok != nil {
		params.MaxCompletionTokens = openaisdk.Int(int64(*c.maxTok))
	}
	if req.WithTools && len(c.tools) > 0 {
		params.Tools = c.tools
	}

	resp, err := c.api.Chat.Completions.New(ctx, params, option.WithRequestTimeout(c.timeout))
	if err != nil {
		return contractx.ModelResponse{}, fmt.Errorf("%w: chat completion: %v", contractx.ErrModelInvoke, err)
	}
	if len(resp.Choices) == 0 {
		return contractx.ModelResponse{}, fmt.Errorf("%w: no choices in response", contractx.ErrSchemaViolation)
	}

	choice := resp.Choices[0].Message
	out := contractx.ModelResponse{Content: choice.Content}
	for _, call := range choice.ToolCalls {
		name := strings.TrimSpace(call.Function.Name)
		if name == "" {
			return contractx.ModelResponse{}, fmt.Errorf("%w: tool call name is empty", contractx.ErrSchemaViolation)
		}

		args := map[string]any{}
		if raw := strings.TrimSpace(call.Function.Arguments); raw != "" {
			if err := json.Unmarshal([]byte(raw), &args); err != nil {
				return contractx.ModelResponse{}, fmt.Errorf("%w: invalid tool args for tool=%s: %v", contractx.ErrSchemaViolation, name, err)
			}
		}
		out.ToolCalls = append(out.ToolCalls, contractx.ToolCall{Name: name, Arguments: args})
	}
	return out, nil
}

// convertTools lowers tool declarations into the SDK's function schema
// through their OpenAPI v3 form.
func convertTools(tools []*schema.ToolInfo) ([]openaisdk.ChatCompletionToolUnionParam, error) {
	out := make([]openaisdk.ChatCompletionToolUnionParam, 0, len(tools))
	for _, tool := range tools {
		if tool == nil || strings.TrimSpace(tool.Name) == "" {
			continue
		}

		params := openaisdk.FunctionParameters{}
		if tool.ParamsOneOf != nil {
			openAPI, err := tool.ParamsOneOf.ToOpenAPIV3()
			if err != nil {
				return nil, fmt.Errorf("%w: tool %s params: %v", contractx.ErrValidation, tool.Name, err)
			}
			raw, err := json.Marshal(openAPI)
			if err != nil {
				return nil, fmt.Errorf("%w: tool %s params: %v", contractx.ErrValidation, tool.Name, err)
			}
			if err := json.Unmarshal(raw, &params); err != nil {
				return nil, fmt.Errorf("%w: tool %s params: %v", contractx.ErrValidation, tool.Name, err)
			}
		}

		out = append(out, openaisdk.ChatCompletionFunctionTool(openaisdk.FunctionDefinitionParam{
			Name:        tool.Name,
			Description: openaisdk.String(tool.Desc),
			Parameters:  params,
		}))
	}
	return out, nil
}
