package config

import "github.com/linolazarous/cursorcode-ai/core"

// Sampling presets per agent family. The general preset also applies to
// agent types without a descriptor.
const (
	planningTemperature = 0.2
	planningMaxTokens   = 12288
	codegenTemperature  = 0.5
	codegenMaxTokens    = 8192
	GeneralTemperature  = 0.7
	GeneralMaxTokens    = 4096
)

// Built-in tool names. The tool package registers implementations under
// the same names.
const (
	ToolSearchStackTrends = "search_latest_stack_trends"
	ToolExecuteCode       = "execute_code_snippet"
	ToolUIComponent       = "fetch_ui_component_example"
	ToolScanVulns         = "scan_code_for_vulnerabilities"
	ToolCICDPipeline      = "generate_ci_cd_pipeline"
)

const architectPrompt = `
You are the Architect Agent for CursorCode AI.
Design complete, scalable system architecture based on user prompt.
Use memory and tools to get latest stack info.
Output structured JSON: {"stack": "...", "db": "...", "auth": "...", "api": "...", "reasoning": "..."}
Be precise, production-ready, and cost-aware.
`

const frontendPrompt = `
You are the Frontend Agent.
Generate modern, responsive UI/UX code (Next.js App Router + Tailwind + Shadcn preferred).
Use architecture from previous step.
Output code files as dict: {"path": "content", ...}
Focus on accessibility, performance, best practices.
`

const backendPrompt = `
You are the Backend Agent.
Generate secure, scalable backend (FastAPI preferred, or Node/Express/Go).
Use architecture from previous step.
Output code files as dict: {"path": "content", ...}
Include REST/GraphQL APIs, DB models, auth, error handling.
`

const securityPrompt = `
You are the Security Agent.
Audit code for vulnerabilities (OWASP Top 10, secrets, injection, auth bypass, etc.).
Use tools to scan if needed.
Output: {"issues": [{"severity": "high", "description": "...", "fix": "..."}], "score": 8}
`

const qaPrompt = `
You are the QA Agent.
Write unit, integration, E2E tests.
Debug issues, suggest fixes.
Use code execution tool to validate.
Output: {"tests": [{"file": "tests/test_xx.py", "content": "..."}], "coverage": "85%", "issues_fixed": [...]}
`

const devopsPrompt = `
You are the DevOps Agent.
Generate CI/CD (GitHub Actions), Dockerfiles, deployment scripts (K8s or Vercel).
Output files as dict: {"Dockerfile": "...", ".github/workflows/deploy.yml": "..."}
Focus on zero-downtime, auto-scaling, monitoring.
`

const productPrompt = `
You are the Product Agent.
Turn the user prompt into a prioritised feature list with acceptance criteria.
Output: {"features": [{"name": "...", "priority": "high", "acceptance": ["..."]}]}
`

var defaultAgents = map[core.AgentType]AgentSettings{
	core.AgentArchitect: {
		Prompt:      architectPrompt,
		Tools:       []string{ToolSearchStackTrends},
		ModelClass:  string(core.ClassDeepReasoning),
		Temperature: planningTemperature,
		MaxTokens:   planningMaxTokens,
		Status:      "Architect agent: Planning application structure...",
	},
	core.AgentFrontend: {
		Prompt:      frontendPrompt,
		Tools:       []string{ToolUIComponent},
		ModelClass:  string(core.ClassFastReasoning),
		Temperature: codegenTemperature,
		MaxTokens:   codegenMaxTokens,
		Status:      "Frontend agent: Generating UI components...",
	},
	core.AgentBackend: {
		Prompt:      backendPrompt,
		Tools:       []string{ToolExecuteCode},
		ModelClass:  string(core.ClassFastReasoning),
		Temperature: codegenTemperature,
		MaxTokens:   codegenMaxTokens,
		Status:      "Backend agent: Creating API endpoints...",
	},
	core.AgentSecurity: {
		Prompt:      securityPrompt,
		Tools:       []string{ToolScanVulns},
		ModelClass:  string(core.ClassFastReasoning),
		Temperature: planningTemperature,
		MaxTokens:   planningMaxTokens,
		Status:      "Security agent: Adding authentication & validation...",
	},
	core.AgentQA: {
		Prompt:      qaPrompt,
		Tools:       []string{ToolExecuteCode},
		ModelClass:  string(core.ClassFastNonReasoning),
		Temperature: GeneralTemperature,
		MaxTokens:   GeneralMaxTokens,
		Status:      "QA agent: Running tests...",
	},
	core.AgentDevOps: {
		Prompt:      devopsPrompt,
		Tools:       []string{ToolCICDPipeline},
		ModelClass:  string(core.ClassFastNonReasoning),
		Temperature: GeneralTemperature,
		MaxTokens:   GeneralMaxTokens,
		Status:      "DevOps agent: Preparing deployment scripts...",
	},
	core.AgentProduct: {
		Prompt:      productPrompt,
		ModelClass:  string(core.ClassDeepReasoning),
		Temperature: planningTemperature,
		MaxTokens:   planningMaxTokens,
		Status:      "Product agent: Drafting feature list...",
	},
}
