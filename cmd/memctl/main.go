package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/go-resty/resty/v2"
	"github.com/spf13/cobra"
)

var (
	apiFlag   string
	agentFlag string
	rootCmd   = &cobra.Command{
		Use:   "memctl",
		Short: "CLI client for the reflective memory service REST API",
	}
)

func client() *resty.Client {
	return resty.New().SetBaseURL(apiFlag).SetHeader("Content-Type", "application/json")
}

// printBody pretty-prints a JSON response body, falling back to raw output.
func printBody(resp *resty.Response) error {
	var pretty any
	if err := json.Unmarshal(resp.Body(), &pretty); err != nil {
		fmt.Println(string(resp.Body()))
	} else {
		out, _ := json.MarshalIndent(pretty, "", "  ")
		fmt.Println(string(out))
	}
	if resp.IsError() {
		return fmt.Errorf("request failed: %s", resp.Status())
	}
	return nil
}

func parseMetadata(raw string) (map[string]interface{}, error) {
	if raw == "" {
		return nil, nil
	}
	var meta map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &meta); err != nil {
		return nil, fmt.Errorf("--metadata must be a JSON object: %w", err)
	}
	return meta, nil
}

func main() {
	rootCmd.PersistentFlags().StringVarP(&apiFlag, "api", "a", "http://localhost:8080", "Memory service base URL")
	rootCmd.PersistentFlags().StringVarP(&agentFlag, "agent", "g", "", "Agent ID")

	addCmd := &cobra.Command{
		Use:   "add",
		Short: "Store a memory for an agent",
		RunE: func(cmd *cobra.Command, args []string) error {
			content, _ := cmd.Flags().GetString("content")
			metaRaw, _ := cmd.Flags().GetString("metadata")
			if agentFlag == "" {
				return fmt.Errorf("--agent required")
			}
			meta, err := parseMetadata(metaRaw)
			if err != nil {
				return err
			}
			resp, err := client().R().
				SetBody(map[string]interface{}{"content": content, "metadata": meta}).
				Post("/api/agents/" + agentFlag + "/memories")
			if err != nil {
				return err
			}
			return printBody(resp)
		},
	}
	addCmd.Flags().StringP("content", "c", "", "Memory content (required)")
	addCmd.Flags().StringP("metadata", "m", "", "Metadata as a JSON object")
	_ = addCmd.MarkFlagRequired("content")
	rootCmd.AddCommand(addCmd)

	searchCmd := &cobra.Command{
		Use:   "search",
		Short: "Search an agent's memory",
		RunE: func(cmd *cobra.Command, args []string) error {
			query, _ := cmd.Flags().GetString("query")
			topk, _ := cmd.Flags().GetInt("topk")
			if agentFlag == "" {
				return fmt.Errorf("--agent required")
			}
			resp, err := client().R().
				SetBody(map[string]interface{}{"query": query, "topK": topk}).
				Post("/api/agents/" + agentFlag + "/search")
			if err != nil {
				return err
			}
			return printBody(resp)
		},
	}
	searchCmd.Flags().StringP("query", "q", "", "Search query text (required)")
	searchCmd.Flags().IntP("topk", "k", 5, "Number of top results to return")
	_ = searchCmd.MarkFlagRequired("query")
	rootCmd.AddCommand(searchCmd)

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List every memory in an agent's workspace",
		RunE: func(cmd *cobra.Command, args []string) error {
			if agentFlag == "" {
				return fmt.Errorf("--agent required")
			}
			resp, err := client().R().Get("/api/agents/" + agentFlag + "/memories")
			if err != nil {
				return err
			}
			return printBody(resp)
		},
	}
	rootCmd.AddCommand(listCmd)

	updateCmd := &cobra.Command{
		Use:   "update",
		Short: "Replace the content of a memory",
		RunE: func(cmd *cobra.Command, args []string) error {
			memoryID, _ := cmd.Flags().GetString("memory")
			content, _ := cmd.Flags().GetString("content")
			if agentFlag == "" || memoryID == "" {
				return fmt.Errorf("--agent and --memory required")
			}
			resp, err := client().R().
				SetBody(map[string]interface{}{"content": content}).
				Put("/api/agents/" + agentFlag + "/memories/" + memoryID)
			if err != nil {
				return err
			}
			return printBody(resp)
		},
	}
	updateCmd.Flags().StringP("memory", "m", "", "Memory ID (required)")
	updateCmd.Flags().StringP("content", "c", "", "New content (required)")
	_ = updateCmd.MarkFlagRequired("content")
	rootCmd.AddCommand(updateCmd)

	deleteCmd := &cobra.Command{
		Use:   "delete",
		Short: "Delete one memory, or the whole workspace with --all",
		RunE: func(cmd *cobra.Command, args []string) error {
			memoryID, _ := cmd.Flags().GetString("memory")
			all, _ := cmd.Flags().GetBool("all")
			if agentFlag == "" {
				return fmt.Errorf("--agent required")
			}
			var url string
			switch {
			case all:
				url = "/api/agents/" + agentFlag + "/memories"
			case memoryID != "":
				url = "/api/agents/" + agentFlag + "/memories/" + memoryID
			default:
				return fmt.Errorf("--memory or --all required")
			}
			resp, err := client().R().Delete(url)
			if err != nil {
				return err
			}
			if resp.StatusCode() == 204 {
				fmt.Println("deleted")
				return nil
			}
			return printBody(resp)
		},
	}
	deleteCmd.Flags().StringP("memory", "m", "", "Memory ID")
	deleteCmd.Flags().Bool("all", false, "Delete the whole workspace")
	rootCmd.AddCommand(deleteCmd)

	exportCmd := &cobra.Command{
		Use:   "export",
		Short: "Snapshot an agent's workspace to a JSONL file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if agentFlag == "" {
				return fmt.Errorf("--agent required")
			}
			resp, err := client().R().Post("/api/agents/" + agentFlag + "/export")
			if err != nil {
				return err
			}
			return printBody(resp)
		},
	}
	rootCmd.AddCommand(exportCmd)

	reflectCmd := &cobra.Command{
		Use:   "reflect",
		Short: "Run a reflection batch for a trading day",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, _ := cmd.Flags().GetString("date")
			mode, _ := cmd.Flags().GetString("mode")
			resp, err := client().R().
				SetBody(map[string]string{"date": date, "mode": mode}).
				Post("/api/reflection")
			if err != nil {
				return err
			}
			return printBody(resp)
		},
	}
	reflectCmd.Flags().StringP("date", "d", "", "Trading day YYYY-MM-DD (required)")
	reflectCmd.Flags().StringP("mode", "m", "individual_review", "Review mode: individual_review or central_review")
	_ = reflectCmd.MarkFlagRequired("date")
	rootCmd.AddCommand(reflectCmd)

	auditCmd := &cobra.Command{
		Use:   "audit",
		Short: "Show the audit trail for a day",
		RunE: func(cmd *cobra.Command, args []string) error {
			date, _ := cmd.Flags().GetString("date")
			resp, err := client().R().Get("/api/audit/" + date)
			if err != nil {
				return err
			}
			return printBody(resp)
		},
	}
	auditCmd.Flags().StringP("date", "d", "", "Day YYYY-MM-DD (required)")
	_ = auditCmd.MarkFlagRequired("date")
	rootCmd.AddCommand(auditCmd)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
