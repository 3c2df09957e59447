package tools

import (
	"context"

	"github.com/ledgermind/ledgermind/internal/memsvc"
)

// Memory tool names. These are the only mutations a reflection review may
// request against an agent's workspace.
const (
	ToolAddMemory         = "add_memory"
	ToolUpdateMemory      = "update_memory"
	ToolDeleteMemory      = "delete_memory"
	ToolDeleteAllMemories = "delete_all_memories"
	ToolSearchMemory      = "search_memory"
	ToolGetAllMemories    = "get_all_memories"
)

// RegisterMemoryTools binds the standard memory tool set to svc.
func RegisterMemoryTools(reg *Registry, svc memsvc.Service) {
	reg.Register(ToolAddMemory, func(ctx context.Context, args map[string]interface{}) Result {
		agentID := stringArg(args, "agent_id")
		content := stringArg(args, "content")
		id := svc.Add(ctx, agentID, content, metaArg(args))
		if id == "" {
			return Failed("add_memory rejected")
		}
		return OK(map[string]interface{}{"memory_id": id})
	})

	reg.Register(ToolUpdateMemory, func(ctx context.Context, args map[string]interface{}) Result {
		if !svc.Update(ctx, stringArg(args, "agent_id"), stringArg(args, "memory_id"), stringArg(args, "content"), metaArg(args)) {
			return Failed("update_memory rejected")
		}
		return OK(nil)
	})

	reg.Register(ToolDeleteMemory, func(ctx context.Context, args map[string]interface{}) Result {
		if !svc.Delete(ctx, stringArg(args, "agent_id"), stringArg(args, "memory_id")) {
			return Failed("delete_memory rejected")
		}
		return OK(nil)
	})

	reg.Register(ToolDeleteAllMemories, func(ctx context.Context, args map[string]interface{}) Result {
		if !svc.DeleteAll(ctx, stringArg(args, "agent_id")) {
			return Failed("delete_all_memories rejected")
		}
		return OK(nil)
	})

	reg.Register(ToolSearchMemory, func(ctx context.Context, args map[string]interface{}) Result {
		topK := 0
		if v, ok := args["top_k"].(float64); ok {
			topK = int(v)
		}
		hits := svc.Search(ctx, stringArg(args, "agent_id"), stringArg(args, "query"), topK)
		return OK(hits)
	})

	reg.Register(ToolGetAllMemories, func(ctx context.Context, args map[string]interface{}) Result {
		return OK(svc.GetAll(ctx, stringArg(args, "agent_id")))
	})
}

func stringArg(args map[string]interface{}, key string) string {
	s, _ := args[key].(string)
	return s
}

func metaArg(args map[string]interface{}) map[string]interface{} {
	m, _ := args["metadata"].(map[string]interface{})
	return m
}
