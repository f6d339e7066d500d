package semantic

import (
	"fmt"
	"strings"

	"github.com/hirelens/matchengine/internal/domain"
)

const systemPrompt = `You are an expert technical recruiter assessing how well a candidate profile matches a job requirement.

Respond with a single JSON object and nothing else. No markdown, no commentary. The object must have exactly these fields:
{
  "match_score": <number 0-100, overall fit of the candidate for the requirement>,
  "strengths": [<up to 5 short strings, aspects where the candidate fits well>],
  "weaknesses": [<up to 5 short strings, aspects where the candidate falls short>],
  "recommendations": [<up to 5 short strings, concrete next steps for the recruiter>],
  "skills_alignment": [<skills named in the requirement that the candidate demonstrably has>],
  "missing_competencies": [<skills named in the requirement that the candidate lacks>],
  "detailed_justification": <2-4 sentences explaining the score>
}

Only list a skill under skills_alignment when it appears in both the requirement and the candidate profile. Base every statement on the provided texts, never on assumptions.`

const bankingInsuranceContext = `The requirement comes from the banking and insurance sector. Weigh regulatory and domain expertise (compliance, KYC, AML, Solvency II, Basel, MiFID, IFRS, actuarial work) as heavily as technical skills.`

// correctiveInstruction is appended on retry after a malformed response.
const correctiveInstruction = `Your previous response was not a valid JSON object matching the required schema. Return only the JSON object, with match_score as a number between 0 and 100 and detailed_justification as a non-empty string.`

func buildUserPrompt(requirementText, candidateText string, focus domain.DomainFocus) string {
	var b strings.Builder
	if focus == domain.FocusBankingInsurance {
		b.WriteString(bankingInsuranceContext)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "Job requirement:\n%s\n\nCandidate profile:\n%s", requirementText, candidateText)
	return b.String()
}
