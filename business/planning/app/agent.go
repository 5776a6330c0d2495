package app

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
	"github.com/tidwall/gjson"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/fd1az/deal-finder/business/planning/domain"
	pricingDomain "github.com/fd1az/deal-finder/business/pricing/domain"
	"github.com/fd1az/deal-finder/internal/apperror"
	"github.com/fd1az/deal-finder/internal/llm"
	"github.com/fd1az/deal-finder/internal/logger"
)

// DefaultMaxTurns bounds the agent conversation.
const DefaultMaxTurns = 10

// Tool names offered to the agent.
const (
	ToolScan      = "scan_the_internet_for_bargains"
	ToolEstimate  = "estimate_true_value"
	ToolNotify    = "notify_user_of_deal"
	ToolSummarize = "write_deal_summary"
)

const agentSystemMessage = `Your mission is to find great deals on bargain products using your tools, and notify the user when you find them
by sending a push notification and by writing a summary in markdown to the deal journal.

IMPORTANT:
- When outputting JSON (for any tool, API, or response), make sure all double-quote characters inside string values are escaped as \" (for example, 14\" instead of 14").
- This is especially important for product descriptions or any text that might include inch symbols (").
- Never output unescaped double quotes inside any JSON value.
- Only output valid JSON.

If you need to output markdown or other formats, keep those sections valid as well.`

const agentUserMessage = `Your mission is to discover great deals on products. First you should use your tool to scan the internet for bargain deals.
Then for each deal, you should use your tool to estimate its true value - how much it's actually worth.
Finally, you should pick the single most compelling deal where the deal price is much lower than the estimated true value,
and use your tool to send the user a push notification about that deal, and also use your tool to write a summary of it in markdown to the deal journal.

You must only notify the user about one deal, and be sure to pick the most compelling deal, where the deal price is much lower than the estimated true value.
Only notify the user for the one best deal. Then just respond OK to indicate success.`

// AgentPlanner lets a tool-calling model drive the run. The model decides
// which tools to call; the run's gate still allows one notification only.
type AgentPlanner struct {
	caller   llm.ToolCaller
	maxTurns int
	logger   logger.LoggerInterface
	tracer   trace.Tracer
}

// NewAgentPlanner creates an agent planner. maxTurns <= 0 uses DefaultMaxTurns.
func NewAgentPlanner(caller llm.ToolCaller, maxTurns int, log logger.LoggerInterface) *AgentPlanner {
	if maxTurns <= 0 {
		maxTurns = DefaultMaxTurns
	}
	return &AgentPlanner{
		caller:   caller,
		maxTurns: maxTurns,
		logger:   log,
		tracer:   otel.Tracer(tracerName),
	}
}

// Mode returns "agent".
func (a *AgentPlanner) Mode() string {
	return "agent"
}

// Plan runs the conversation until the model stops calling tools, the turn
// limit is reached, or the model fails. A model failure ends the run with
// whatever the gate recorded so far.
func (a *AgentPlanner) Plan(ctx context.Context, tools *Toolset) (*domain.Opportunity, error) {
	ctx, span := a.tracer.Start(ctx, "planning.agent",
		trace.WithAttributes(
			attribute.String("run_id", tools.RunID()),
			attribute.Int("max_turns", a.maxTurns),
		),
	)
	defer span.End()

	messages := []llm.Message{
		{Role: llm.RoleSystem, Content: agentSystemMessage},
		{Role: llm.RoleUser, Content: agentUserMessage},
	}
	defs := agentTools()

	for turn := 1; turn <= a.maxTurns; turn++ {
		reply, err := a.caller.Chat(ctx, messages, defs)
		if err != nil {
			if ctx.Err() != nil {
				return tools.Opportunity(), ctx.Err()
			}
			span.SetStatus(codes.Error, err.Error())
			a.logger.Warn(ctx, "agent model failed, ending run", "turn", turn, "error", err)
			return tools.Opportunity(), nil
		}
		messages = append(messages, reply)

		if len(reply.ToolCalls) == 0 {
			span.SetAttributes(attribute.Int("turns", turn))
			a.logger.Info(ctx, "agent completed", "turns", turn, "reply", strings.TrimSpace(reply.Content))
			return tools.Opportunity(), nil
		}

		for _, call := range reply.ToolCalls {
			a.logger.Info(ctx, "agent calling tool", "tool", call.Name, "turn", turn)
			messages = append(messages, llm.Message{
				Role:       llm.RoleTool,
				ToolCallID: call.ID,
				Content:    a.dispatch(ctx, tools, call),
			})
		}
	}

	a.logger.Warn(ctx, "agent reached turn limit", "max_turns", a.maxTurns)
	return tools.Opportunity(), nil
}

// dispatch runs one tool call and returns its JSON result. Problems are
// reported back to the model rather than ending the run.
func (a *AgentPlanner) dispatch(ctx context.Context, tools *Toolset, call llm.ToolCall) string {
	args := call.Arguments
	if strings.TrimSpace(args) == "" {
		args = "{}"
	}
	if !gjson.Valid(args) {
		return a.toolError(ctx, call, "arguments are not valid JSON")
	}
	parsed := gjson.Parse(args)

	switch call.Name {
	case ToolScan:
		sel, err := tools.ScanForBargains(ctx)
		if err != nil {
			return a.toolError(ctx, call, err.Error())
		}
		if sel == nil {
			return toolResult(map[string]any{})
		}
		deals := make([]map[string]any, 0, len(sel.Deals))
		for _, d := range sel.Deals {
			deals = append(deals, map[string]any{
				"product_description": d.ProductDescription,
				"price":               d.Price.InexactFloat64(),
				"url":                 d.URL,
			})
		}
		return toolResult(map[string]any{"deals": deals})

	case ToolEstimate:
		description := parsed.Get("description").String()
		if description == "" {
			return a.toolError(ctx, call, "description is required")
		}
		v := tools.EstimateTrueValue(ctx, description)
		return toolResult(map[string]any{
			"description":          description,
			"estimated_true_value": v.Estimate.Round(2).InexactFloat64(),
		})

	case ToolNotify:
		description := parsed.Get("description").String()
		url := parsed.Get("url").String()
		price, okPrice := decimalArg(parsed.Get("deal_price"))
		estimate, okEstimate := decimalArg(parsed.Get("estimated_true_value"))
		if description == "" || url == "" || !okPrice || !okEstimate {
			return a.toolError(ctx, call, "description, deal_price, estimated_true_value and url are required")
		}
		tools.NotifyUserOfDeal(ctx, description, price, estimate, url)
		return toolResult(map[string]any{"notification_sent": "ok"})

	case ToolSummarize:
		markdown := parsed.Get("markdown").String()
		if strings.TrimSpace(markdown) == "" {
			return a.toolError(ctx, call, "markdown is required")
		}
		if err := tools.WriteDealSummary(ctx, markdown); err != nil {
			return a.toolError(ctx, call, err.Error())
		}
		return toolResult(map[string]any{"written": "ok"})
	}

	return a.toolError(ctx, call, fmt.Sprintf("unknown tool %q", call.Name))
}

func (a *AgentPlanner) toolError(ctx context.Context, call llm.ToolCall, reason string) string {
	err := apperror.New(apperror.CodeToolCallInvalid,
		apperror.WithContext(call.Name+": "+reason))
	a.logger.Warn(ctx, "tool call rejected", "tool", call.Name, "error", err)
	return toolResult(map[string]any{"error": reason})
}

func toolResult(v map[string]any) string {
	raw, err := json.Marshal(v)
	if err != nil {
		return `{"error":"failed to encode result"}`
	}
	return string(raw)
}

// decimalArg reads a number, accepting the numeric strings some models send.
func decimalArg(r gjson.Result) (decimal.Decimal, bool) {
	switch r.Type {
	case gjson.Number:
		d, err := decimal.NewFromString(r.Raw)
		if err != nil {
			return decimal.NewFromFloat(r.Float()), true
		}
		return d, true
	case gjson.String:
		d := pricingDomain.ExtractPrice(r.String())
		return d, d.IsPositive()
	}
	return decimal.Zero, false
}

func agentTools() []llm.Tool {
	str := func(desc string) map[string]any {
		return map[string]any{"type": "string", "description": desc}
	}
	num := func(desc string) map[string]any {
		return map[string]any{"type": "number", "description": desc}
	}
	object := func(props map[string]any, required ...string) map[string]any {
		if required == nil {
			required = []string{}
		}
		return map[string]any{"type": "object", "properties": props, "required": required}
	}

	return []llm.Tool{
		{
			Name:        ToolScan,
			Description: "This tool scans the internet for bargains and returns a curated list of top deals",
			Parameters:  object(map[string]any{}),
		},
		{
			Name:        ToolEstimate,
			Description: "This tool estimates the true value of a product based on a text description of it",
			Parameters: object(map[string]any{
				"description": str("A description of the product"),
			}, "description"),
		},
		{
			Name:        ToolNotify,
			Description: "This tool notifies the user of a great deal, given a description of it, the price of the deal, and the estimated true value",
			Parameters: object(map[string]any{
				"description":          str("A description of the product"),
				"deal_price":           num("The price of the deal in USD"),
				"estimated_true_value": num("The estimated true value in USD"),
				"url":                  str("The URL of the deal"),
			}, "description", "deal_price", "estimated_true_value", "url"),
		},
		{
			Name:        ToolSummarize,
			Description: "This tool appends a markdown summary of the chosen deal to the deal journal",
			Parameters: object(map[string]any{
				"markdown": str("The summary in markdown"),
			}, "markdown"),
		},
	}
}
