package ai

import (
	"fmt"
	"strings"

	"github.com/pwalczak/cv-optimizer/internal/domain"
)

// instructions maps each operation to the task given to the model. Replies
// for analysis-style operations are requested as JSON; the normalizer
// tolerates prose and fenced replies either way.
var instructions = map[domain.Operation]string{
	domain.OpOptimize:                     "Rewrite the CV so it best matches the job description. Return JSON with a single field optimized_cv containing the full rewritten CV text.",
	domain.OpFeedback:                     "Review the CV like an experienced recruiter and give concrete, prioritized feedback.",
	domain.OpRecruiterFeedback:            "Review the CV like an experienced recruiter and give concrete, prioritized feedback.",
	domain.OpCoverLetter:                  "Write a tailored cover letter for the CV and job description.",
	domain.OpATSCheck:                     "Check the CV against typical ATS parsing rules and report issues as JSON.",
	domain.OpATSOptimizationCheck:         "Check the CV against typical ATS parsing rules and report issues as JSON.",
	domain.OpInterviewQuestions:           "Generate likely interview questions for this CV and position, with suggested answers.",
	domain.OpCVScore:                      "Score the CV from 0 to 100 against the job description and explain the score as JSON.",
	domain.OpKeywordAnalysis:              "Compare CV keywords against the job description and report matches and gaps as JSON.",
	domain.OpGrammarCheck:                 "Check the CV for grammar, spelling and style problems and list corrections.",
	domain.OpPositionOptimization:         "Rewrite the CV for the target position. Return JSON with a single field optimized_cv containing the full rewritten CV text.",
	domain.OpInterviewTips:                "Give practical interview preparation tips tailored to this CV and position.",
	domain.OpAdvancedPositionOptimization: "Deeply restructure the CV for the target position and company, reasoning about each section. Return JSON with a single field optimized_cv containing the full rewritten CV text.",
	domain.OpCVBuilder:                    "Build a complete professional CV from the provided data. Return it as JSON with a field optimized_cv.",
}

func systemPrompt(req Request) string {
	lang := "Polish"
	if req.Language == "en" {
		lang = "English"
	}
	task := instructions[req.Operation]
	if task == "" {
		task = "Help the user improve their CV."
	}
	depth := ""
	if req.Premium {
		depth = " Apply the most thorough analysis available."
	} else if req.PaymentVerified {
		depth = " Apply a thorough analysis."
	}
	return fmt.Sprintf("You are an expert CV consultant. Respond in %s. %s%s", lang, task, depth)
}

func userPrompt(req Request) string {
	var b strings.Builder
	b.WriteString("CV:\n")
	b.WriteString(req.CVText)
	if req.JobTitle != "" {
		b.WriteString("\n\nTarget position: ")
		b.WriteString(req.JobTitle)
	}
	if req.CompanyName != "" {
		b.WriteString("\nCompany: ")
		b.WriteString(req.CompanyName)
	}
	if len(req.Roles) > 0 {
		b.WriteString("\nRoles of interest: ")
		b.WriteString(strings.Join(req.Roles, ", "))
	}
	if req.JobDescription != "" {
		b.WriteString("\n\nJob description:\n")
		b.WriteString(req.JobDescription)
	}
	return b.String()
}
