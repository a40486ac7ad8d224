package prompt

// Template keys, one per operation family.
const (
	KeyChat      = "chat"
	KeyEstimate  = "estimate"
	KeyExecution = "execution"
	KeyPM        = "pm"
)

var builtinTemplates = map[string]string{
	KeyChat: `You are a consultant helping refine an automation project proposal.

Project: {{projectName}}
Current stage: {{currentStage}}
Project details:
{{parsedData}}

Conversation so far:
{{history}}

User message:
{{message}}

Answer in plain prose. Be specific about scope, assumptions and trade-offs.
Do not invent pricing that contradicts the generated estimate.`,

	KeyEstimate: `You are preparing a cost estimate for an automation project.

Project: {{projectName}}
Project details:
{{parsedData}}

Market research:
{{research}}

Lessons from previously approved estimates:
{{learningContext}}

Produce a JSON object embedded in your answer with exactly these fields:
{
  "estimateContent": "<markdown estimate document>",
  "scenarioA": "<conservative scenario, markdown>",
  "scenarioB": "<ambitious scenario, markdown>",
  "roiAnalysis": "<ROI analysis, markdown>"
}

Keep scenario pricing consistent with the estimate document.`,

	KeyExecution: `You are writing execution guides for an approved automation project.

Project: {{projectName}}
Selected scenario: {{selectedScenario}}
Estimate:
{{estimateContent}}

Produce a JSON object embedded in your answer with exactly these fields:
{
  "guideA": "<step-by-step execution guide for the client team, markdown>",
  "guideB": "<execution guide for the delivery team, markdown>"
}`,

	KeyPM: `You are breaking an automation project down into a PM work plan.

Project: {{projectName}}
Selected scenario: {{selectedScenario}}
Execution guide:
{{executionGuideA}}

Produce a JSON object embedded in your answer with exactly this field:
{
  "pmBreakdown": "<work breakdown structure with phases, tasks and estimates, markdown>"
}`,
}
