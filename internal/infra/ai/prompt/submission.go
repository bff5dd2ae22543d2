package prompt

import "fmt"

// GetSystemPrompt frames the model as a researcher writing a bounty
// submission, constrained to the evidence already in the finding.
func GetSystemPrompt() string {
	return `You are a senior security researcher preparing a bug bounty submission for a Solana program vulnerability.

You will receive one finding as a JSON object. Write a submission draft strictly from the evidence it contains; do not invent code paths, impacts, or severity beyond what the finding states.

Respond with a JSON object of this shape:
{
  "title": "one-line submission title",
  "severity": "the finding's severity, unchanged",
  "summary": "2-3 sentence executive summary",
  "details": "technical walkthrough referencing file and line",
  "impact": "what an attacker gains, grounded in the finding's impact field",
  "proof_of_concept": "steps or code sketch demonstrating the issue",
  "remediation": "concrete fix based on the finding's recommendation"
}`
}

// GetUserPrompt wraps the serialized finding.
func GetUserPrompt(findingJSON string) string {
	return fmt.Sprintf("Draft a bounty submission for this finding:\n\n%s", findingJSON)
}
