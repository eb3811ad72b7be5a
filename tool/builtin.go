package tool

import (
	"fmt"
	"strings"

	"github.com/linolazarous/cursorcode-ai/config"
	"github.com/linolazarous/cursorcode-ai/core"
)

var codeLanguages = []string{"python", "javascript", "typescript", "go"}

// Builtins returns the default tool set in registration order.
func Builtins() []Tool {
	return []Tool{
		SearchStackTrends(),
		ExecuteCodeSnippet(),
		FetchUIComponentExample(),
		ScanCodeForVulnerabilities(),
		GenerateCICDPipeline(),
	}
}

func stringArg(args map[string]any, key, def string) string {
	if v, ok := args[key].(string); ok && v != "" {
		return v
	}
	return def
}

// StackTrend is the search_latest_stack_trends result.
type StackTrend struct {
	Version         string   `json:"version"`
	ReleaseDate     string   `json:"release_date,omitempty"`
	Recommendations []string `json:"recommendations"`
	Sources         []string `json:"sources,omitempty"`
}

var stackTrends = map[string]StackTrend{
	"Next.js": {
		Version:     "15.2.0",
		ReleaseDate: "2026-01-15",
		Recommendations: []string{
			"Use App Router exclusively",
			"Server Components + Streaming SSR by default",
			"Turbopack for 3-5x faster dev server",
		},
		Sources: []string{"https://nextjs.org/blog/next-15-2", "GitHub releases"},
	},
	"FastAPI": {
		Version:     "0.115.0",
		ReleaseDate: "2025-12-10",
		Recommendations: []string{
			"Prefer SQLModel over plain SQLAlchemy",
			"Use Pydantic v2 everywhere",
			"BackgroundTasks + Celery for heavy async work",
		},
		Sources: []string{"https://fastapi.tiangolo.com/release-notes/", "GitHub"},
	},
}

// SearchStackTrends looks up versions and recommendations for a technology.
// The catalogue is static.
func SearchStackTrends() *FunctionTool {
	return NewFunctionTool(
		config.ToolSearchStackTrends,
		"Search for latest versions, trends, best practices, and security notes for a given technology.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"technology": map[string]any{
					"type":        "string",
					"description": "Tech stack or library (e.g. 'Next.js', 'FastAPI', 'PostgreSQL')",
				},
			},
			"required": []string{"technology"},
		},
		func(_ *core.ToolContext, args map[string]any) (any, error) {
			tech := stringArg(args, "technology", "")
			if trend, ok := stackTrends[tech]; ok {
				return trend, nil
			}
			return StackTrend{Version: "unknown", Recommendations: []string{"No data found"}}, nil
		},
	)
}

// CodeExecResult is the execute_code_snippet result.
type CodeExecResult struct {
	Output  string  `json:"output"`
	Error   *string `json:"error"`
	Success bool    `json:"success"`
}

var blockedPython = []string{"import os", "subprocess", "__import__", "eval(", "exec("}

// ExecuteCodeSnippet simulates sandboxed execution. Python containing a
// blocked pattern is rejected with a structured failure, not an error.
func ExecuteCodeSnippet() *FunctionTool {
	return NewFunctionTool(
		config.ToolExecuteCode,
		"Safely execute small code snippets in a sandboxed environment.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"code":     map[string]any{"type": "string", "description": "Code snippet to execute"},
				"language": map[string]any{"type": "string", "enum": codeLanguages},
			},
			"required": []string{"code"},
		},
		func(_ *core.ToolContext, args map[string]any) (any, error) {
			code := stringArg(args, "code", "")
			lang := stringArg(args, "language", "python")
			if lang == "python" {
				lower := strings.ToLower(code)
				for _, bad := range blockedPython {
					if strings.Contains(lower, bad) {
						msg := "Unsafe code detected - blocked for security"
						return CodeExecResult{Output: "", Error: &msg, Success: false}, nil
					}
				}
				return CodeExecResult{Output: "Mock safe Python execution successful", Success: true}, nil
			}
			return CodeExecResult{Output: fmt.Sprintf("Mock %s execution successful", lang), Success: true}, nil
		},
	)
}

// UIComponentExample is the fetch_ui_component_example result.
type UIComponentExample struct {
	ComponentName string `json:"component_name"`
	Framework     string `json:"framework"`
	Code          string `json:"code"`
}

var uiExamples = map[string]map[string]string{
	"Button": {
		"nextjs": `
import { Button } from '@/components/ui/button'

export function PrimaryButton() {
  return <Button variant="default">Click me</Button>
}
`,
		"svelte": `
<script>
  import { Button } from '$lib/components/ui/button'
</script>

<Button variant="default">Click me</Button>
`,
	},
	"Modal": {
		"nextjs": `
import {
  Dialog,
  DialogContent,
  DialogHeader,
  DialogTitle,
  DialogTrigger,
} from '@/components/ui/dialog'

export function ExampleModal() {
  return (
    <Dialog>
      <DialogTrigger>Open</DialogTrigger>
      <DialogContent>
        <DialogHeader>
          <DialogTitle>Are you sure?</DialogTitle>
        </DialogHeader>
        <p>Content here</p>
      </DialogContent>
    </Dialog>
  )
}
`,
	},
}

// FetchUIComponentExample returns an accessible component snippet.
func FetchUIComponentExample() *FunctionTool {
	return NewFunctionTool(
		config.ToolUIComponent,
		"Fetch a modern, accessible, production-ready UI component example.",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"component_name": map[string]any{"type": "string", "description": "Component name, e.g. 'Button', 'Modal', 'DataTable'"},
				"framework":      map[string]any{"type": "string", "enum": []string{"react", "nextjs", "svelte", "vue"}},
			},
			"required": []string{"component_name"},
		},
		func(_ *core.ToolContext, args map[string]any) (any, error) {
			name := stringArg(args, "component_name", "")
			fw := stringArg(args, "framework", "nextjs")
			code, ok := uiExamples[name][fw]
			if !ok {
				code = "No example found for this component/framework"
			}
			return UIComponentExample{ComponentName: name, Framework: fw, Code: code}, nil
		},
	)
}

// VulnerabilityIssue is one finding of scan_code_for_vulnerabilities.
type VulnerabilityIssue struct {
	Severity    string `json:"severity"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Line        int    `json:"line,omitempty"`
	Fix         string `json:"fix"`
}

// VulnerabilityScanResult is the scan_code_for_vulnerabilities result.
type VulnerabilityScanResult struct {
	Issues []VulnerabilityIssue `json:"issues"`
	Score  int                  `json:"score"`
	Passed bool                 `json:"passed"`
}

// ScanCodeForVulnerabilities flags likely hardcoded credentials. The score
// is 10 minus 2 per issue, floored at 0.
func ScanCodeForVulnerabilities() *FunctionTool {
	return NewFunctionTool(
		config.ToolScanVulns,
		"Security scan for common vulnerabilities (OWASP Top 10, secrets, etc.).",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"code":     map[string]any{"type": "string", "description": "Code snippet or file content to scan"},
				"language": map[string]any{"type": "string", "enum": codeLanguages},
			},
			"required": []string{"code"},
		},
		func(_ *core.ToolContext, args map[string]any) (any, error) {
			lower := strings.ToLower(stringArg(args, "code", ""))
			issues := []VulnerabilityIssue{}
			if strings.Contains(lower, "password") || strings.Contains(lower, "api_key") || strings.Contains(lower, "secret") {
				issues = append(issues, VulnerabilityIssue{
					Severity:    "high",
					Type:        "hardcoded_secret",
					Description: "Potential hardcoded credential detected",
					Line:        1,
					Fix:         "Use environment variables or secrets manager (e.g. AWS Secrets Manager, HashiCorp Vault)",
				})
			}
			return VulnerabilityScanResult{
				Issues: issues,
				Score:  max(0, 10-2*len(issues)),
				Passed: len(issues) == 0,
			}, nil
		},
	)
}

// Pipeline is the generate_ci_cd_pipeline result.
type Pipeline struct {
	Name    string `json:"name"`
	File    string `json:"file"`
	Content string `json:"content"`
}

const pipelineTemplate = `name: Deploy %[1]s to %[2]s
on:
  push:
    branches: [main]
jobs:
  deploy:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@v4
      - name: Setup Node.js
        uses: actions/setup-node@v4
        with:
          node-version: '20'
      - run: npm ci
      - run: npm run build
      - name: Deploy to %[2]s
        run: echo "Deploy step for %[2]s (mock)"`

// GenerateCICDPipeline renders a GitHub Actions workflow.
func GenerateCICDPipeline() *FunctionTool {
	return NewFunctionTool(
		config.ToolCICDPipeline,
		"Generate CI/CD pipeline config (GitHub Actions).",
		map[string]any{
			"type": "object",
			"properties": map[string]any{
				"stack":  map[string]any{"type": "string", "description": "Tech stack summary, e.g. 'Next.js + FastAPI + Postgres'"},
				"target": map[string]any{"type": "string", "enum": []string{"vercel", "railway", "flyio", "aws", "k8s"}},
			},
			"required": []string{"stack"},
		},
		func(_ *core.ToolContext, args map[string]any) (any, error) {
			stack := stringArg(args, "stack", "")
			target := stringArg(args, "target", "vercel")
			return Pipeline{
				Name:    fmt.Sprintf("Deploy %s to %s", stack, target),
				File:    ".github/workflows/deploy.yml",
				Content: fmt.Sprintf(pipelineTemplate, stack, target),
			}, nil
		},
	)
}
