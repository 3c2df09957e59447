package memsvc

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/ledgermind/ledgermind/internal/model"
)

// EngineProxy implements Service against a remote managed memory engine over
// its REST API. Like DirectService it absorbs every failure into zero values.
type EngineProxy struct {
	client *resty.Client
	log    zerolog.Logger
}

// NewEngineProxy creates a proxy to the engine at baseURL. apiKey may be
// empty for unauthenticated deployments.
func NewEngineProxy(baseURL, apiKey string, log zerolog.Logger) *EngineProxy {
	client := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(30 * time.Second).
		SetHeader("Content-Type", "application/json")
	if apiKey != "" {
		client.SetHeader("Authorization", "Bearer "+apiKey)
	}
	return &EngineProxy{client: client, log: log}
}

type engineAddRequest struct {
	AgentID  string                 `json:"agent_id"`
	Content  string                 `json:"content"`
	Metadata map[string]interface{} `json:"metadata,omitempty"`
}

type engineAddResponse struct {
	ID string `json:"id"`
}

type engineSearchRequest struct {
	AgentID string `json:"agent_id"`
	Query   string `json:"query"`
	TopK    int    `json:"top_k"`
}

type engineSearchResponse struct {
	Results []model.SearchHit `json:"results"`
}

type engineListResponse struct {
	Memories []model.MemoryRecord `json:"memories"`
}

type engineExportResponse struct {
	Path string `json:"path"`
}

func (p *EngineProxy) Add(ctx context.Context, agentID, content string, metadata map[string]interface{}) string {
	var out engineAddResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(engineAddRequest{AgentID: agentID, Content: content, Metadata: metadata}).
		SetResult(&out).
		Post("/v1/memories")
	if err := engineErr(resp, err); err != nil {
		p.log.Error().Err(err).Str("agent", agentID).Msg("engine add failed")
		return ""
	}
	return out.ID
}

func (p *EngineProxy) Update(ctx context.Context, agentID, memoryID, content string, metadata map[string]interface{}) bool {
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("agent_id", agentID).
		SetBody(engineAddRequest{AgentID: agentID, Content: content, Metadata: metadata}).
		Put("/v1/memories/" + memoryID)
	if err := engineErr(resp, err); err != nil {
		p.log.Error().Err(err).Str("agent", agentID).Str("memory", memoryID).Msg("engine update failed")
		return false
	}
	return true
}

func (p *EngineProxy) Delete(ctx context.Context, agentID, memoryID string) bool {
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("agent_id", agentID).
		Delete("/v1/memories/" + memoryID)
	if err := engineErr(resp, err); err != nil {
		p.log.Error().Err(err).Str("agent", agentID).Str("memory", memoryID).Msg("engine delete failed")
		return false
	}
	return true
}

func (p *EngineProxy) DeleteAll(ctx context.Context, agentID string) bool {
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("agent_id", agentID).
		Delete("/v1/memories")
	if err := engineErr(resp, err); err != nil {
		p.log.Error().Err(err).Str("agent", agentID).Msg("engine delete_all failed")
		return false
	}
	return true
}

func (p *EngineProxy) Search(ctx context.Context, agentID, query string, topK int) []model.SearchHit {
	if topK <= 0 {
		topK = DefaultTopK
	}
	var out engineSearchResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(engineSearchRequest{AgentID: agentID, Query: query, TopK: topK}).
		SetResult(&out).
		Post("/v1/search")
	if err := engineErr(resp, err); err != nil {
		p.log.Error().Err(err).Str("agent", agentID).Msg("engine search failed")
		return nil
	}
	return out.Results
}

func (p *EngineProxy) GetAll(ctx context.Context, agentID string) []model.MemoryRecord {
	var out engineListResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("agent_id", agentID).
		SetResult(&out).
		Get("/v1/memories")
	if err := engineErr(resp, err); err != nil {
		p.log.Error().Err(err).Str("agent", agentID).Msg("engine get_all failed")
		return nil
	}
	return out.Memories
}

func (p *EngineProxy) Export(ctx context.Context, agentID string) string {
	var out engineExportResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParam("agent_id", agentID).
		SetResult(&out).
		Post("/v1/export")
	if err := engineErr(resp, err); err != nil {
		p.log.Error().Err(err).Str("agent", agentID).Msg("engine export failed")
		return ""
	}
	return out.Path
}

func engineErr(resp *resty.Response, err error) error {
	if err != nil {
		return err
	}
	if resp.IsError() {
		return fmt.Errorf("engine returned %s: %s", resp.Status(), resp.String())
	}
	return nil
}
