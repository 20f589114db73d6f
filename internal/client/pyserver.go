package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/AIObjectives/tttc-light-js-sub003/internal/model"
)

// Stage endpoint paths on the pyserver.
const (
	StageTopicTree = "topic_tree"
	StageClaims    = "claims"
	StageSort      = "sort_claims_tree"
	StageCruxes    = "cruxes"
)

// rateLimitResource is the shared quota key all pyserver calls gate on.
const rateLimitResource = "pyserver"

// LLMSpec is the per-call model selection and prompt pair sent to every
// stage endpoint.
type LLMSpec struct {
	SystemPrompt string `json:"system_prompt"`
	UserPrompt   string `json:"user_prompt"`
	ModelName    string `json:"model_name"`
	APIKey       string `json:"api_key"`
}

// Reply is the common stage response envelope: stage-specific data plus the
// call's token usage and cost.
type Reply[T any] struct {
	StepName string
	Data     T
	Usage    model.Usage
	Cost     float64
}

// Limiter gates calls against a cross-process QPS ceiling.
type Limiter interface {
	Wait(ctx context.Context, resource string) error
}

// PyserverClient talks to the external LLM execution service. One stage
// call per HTTP request; responses carry data, usage and cost.
type PyserverClient struct {
	httpClient *http.Client
	baseURL    string
	limiter    Limiter // optional
}

// NewPyserverClient creates a client for the given base URL. limiter may be
// nil when no shared quota applies.
func NewPyserverClient(baseURL string, limiter Limiter) *PyserverClient {
	return &PyserverClient{
		httpClient: &http.Client{
			Timeout: 10 * time.Minute,
		},
		baseURL: baseURL,
		limiter: limiter,
	}
}

type topicTreeRequest struct {
	Comments []model.SourceRow `json:"comments"`
	LLM      LLMSpec           `json:"llm"`
}

type claimsRequest struct {
	Comments []model.SourceRow `json:"comments"`
	Tree     model.Taxonomy    `json:"tree"`
	LLM      LLMSpec           `json:"llm"`
}

type sortRequest struct {
	Tree model.ClaimsTree `json:"tree"`
	Sort string           `json:"sort"`
	LLM  LLMSpec          `json:"llm"`
}

type cruxesRequest struct {
	Topics   model.Taxonomy   `json:"topics"`
	CruxTree model.ClaimsTree `json:"crux_tree"`
	TopK     int              `json:"top_k"`
	LLM      LLMSpec          `json:"llm"`
}

// TopicTree asks the pyserver to cluster comments into a taxonomy.
func (c *PyserverClient) TopicTree(ctx context.Context, comments []model.SourceRow, llm LLMSpec) (*Reply[model.Taxonomy], error) {
	return call[model.Taxonomy](ctx, c, StageTopicTree, topicTreeRequest{Comments: comments, LLM: llm})
}

// Claims asks the pyserver to extract claims per topic from the comments.
func (c *PyserverClient) Claims(ctx context.Context, comments []model.SourceRow, tree model.Taxonomy, llm LLMSpec) (*Reply[model.ClaimsTree], error) {
	return call[model.ClaimsTree](ctx, c, StageClaims, claimsRequest{Comments: comments, Tree: tree, LLM: llm})
}

// SortClaims asks the pyserver to deduplicate and sort the claims tree by
// the given sort key.
func (c *PyserverClient) SortClaims(ctx context.Context, tree model.ClaimsTree, sortKey string, llm LLMSpec) (*Reply[model.SortedTree], error) {
	return call[model.SortedTree](ctx, c, StageSort, sortRequest{Tree: tree, Sort: sortKey, LLM: llm})
}

// Cruxes runs the optional controversy analysis over the taxonomy and the
// pre-sort claims tree.
func (c *PyserverClient) Cruxes(ctx context.Context, topics model.Taxonomy, cruxTree model.ClaimsTree, topK int, llm LLMSpec) (*Reply[model.CruxResult], error) {
	return call[model.CruxResult](ctx, c, StageCruxes, cruxesRequest{Topics: topics, CruxTree: cruxTree, TopK: topK, LLM: llm})
}

type replyBody[T any] struct {
	Data  T           `json:"data"`
	Usage model.Usage `json:"usage"`
	Cost  float64     `json:"cost"`
}

func call[T any](ctx context.Context, c *PyserverClient, stage string, payload interface{}) (*Reply[T], error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx, rateLimitResource); err != nil {
			return nil, &TransportError{Stage: stage, Err: err}
		}
	}

	bodyBytes, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal %s request: %w", stage, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+stage, bytes.NewReader(bodyBytes))
	if err != nil {
		return nil, &TransportError{Stage: stage, Err: err}
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if isTimeout(err) {
			return nil, &TimeoutError{Stage: stage, Err: err}
		}
		return nil, &TransportError{Stage: stage, Err: err}
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &TransportError{Stage: stage, Err: err}
	}

	if resp.StatusCode != http.StatusOK {
		return nil, &TransportError{
			Stage: stage,
			Err:   fmt.Errorf("pyserver error (status %d): %s", resp.StatusCode, string(respBody)),
		}
	}

	var reply replyBody[T]
	if err := json.Unmarshal(respBody, &reply); err != nil {
		return nil, &InvalidResponseError{Stage: stage, Reason: "malformed reply body", Err: err}
	}
	if reply.Usage.TotalTokens == 0 && reply.Usage.PromptTokens == 0 {
		return nil, &InvalidResponseError{Stage: stage, Reason: "missing usage accounting"}
	}

	return &Reply[T]{
		StepName: stage,
		Data:     reply.Data,
		Usage:    reply.Usage,
		Cost:     reply.Cost,
	}, nil
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr interface{ Timeout() bool }
	return errors.As(err, &netErr) && netErr.Timeout()
}
