package memsvc

import (
	"context"

	"github.com/ledgermind/ledgermind/internal/model"
)

// Recorder receives audit entries for mutating operations. Satisfied by the
// audit package's log; recording must never fail the operation itself.
type Recorder interface {
	Record(ctx context.Context, entry model.AuditEntry)
}

// Audited decorates a Service so every mutating operation lands in the audit
// trail with its arguments and outcome. Read operations pass through.
type Audited struct {
	inner Service
	sink  Recorder
}

// NewAudited wraps inner with audit recording.
func NewAudited(inner Service, sink Recorder) *Audited {
	return &Audited{inner: inner, sink: sink}
}

func (a *Audited) Add(ctx context.Context, agentID, content string, metadata map[string]interface{}) string {
	id := a.inner.Add(ctx, agentID, content, metadata)
	a.record(ctx, agentID, "memory_add", map[string]interface{}{
		"content_len": len(content),
	}, outcome(id != ""), id)
	return id
}

func (a *Audited) Update(ctx context.Context, agentID, memoryID, content string, metadata map[string]interface{}) bool {
	ok := a.inner.Update(ctx, agentID, memoryID, content, metadata)
	a.record(ctx, agentID, "memory_update", map[string]interface{}{
		"memory_id":   memoryID,
		"content_len": len(content),
	}, outcome(ok), memoryID)
	return ok
}

func (a *Audited) Delete(ctx context.Context, agentID, memoryID string) bool {
	ok := a.inner.Delete(ctx, agentID, memoryID)
	a.record(ctx, agentID, "memory_delete", map[string]interface{}{
		"memory_id": memoryID,
	}, outcome(ok), memoryID)
	return ok
}

func (a *Audited) DeleteAll(ctx context.Context, agentID string) bool {
	ok := a.inner.DeleteAll(ctx, agentID)
	a.record(ctx, agentID, "memory_delete_all", nil, outcome(ok), "")
	return ok
}

func (a *Audited) Search(ctx context.Context, agentID, query string, topK int) []model.SearchHit {
	return a.inner.Search(ctx, agentID, query, topK)
}

func (a *Audited) GetAll(ctx context.Context, agentID string) []model.MemoryRecord {
	return a.inner.GetAll(ctx, agentID)
}

func (a *Audited) Export(ctx context.Context, agentID string) string {
	return a.inner.Export(ctx, agentID)
}

func (a *Audited) record(ctx context.Context, agentID, op string, args map[string]interface{}, result, subject string) {
	if a.sink == nil {
		return
	}
	if subject != "" {
		if args == nil {
			args = map[string]interface{}{}
		}
		args["subject"] = subject
	}
	a.sink.Record(ctx, model.AuditEntry{
		AgentID:       agentID,
		OperationType: op,
		Args:          args,
		Result:        result,
		Context:       "memory_service",
	})
}

func outcome(ok bool) string {
	if ok {
		return "ok"
	}
	return "failed"
}
