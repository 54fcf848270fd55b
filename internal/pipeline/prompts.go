package pipeline

import "fmt"

const extractSystemPrompt = "You are analysing paper abstracts. " +
	"Return only the answer text (no numbering, no extra commentary)."

const interventionQuestion = "What is the intervention that is described in the abstract? " +
	"This is an abstract for an impact evaluation report about an intervention in a developing country. " +
	"The intervention has been categorized as follows: \"%s\". " +
	"Do not mention the outcomes or analysis method, only describe the intervention with as much detail as is present in the abstract. " +
	"Ensure to include any contextual information about what was done and where in your response. " +
	"If nothing is said about the intervention write: No Intervention Described."

const outcomeQuestion = "What does the abstract say regarding the \"%s\" outcome? " +
	"Be sure to include relevant quantitative or categorical information where present. " +
	"If nothing is said about the outcome write: No Information."

const abstractBlock = "\n\nAbstract:\n\"\"\"\n%s\n\"\"\""

// NoInterventionDescribed stands in for a record with no intervention
// extraction.
const NoInterventionDescribed = "No Intervention Described."

const rubricGrades = `1. Very significant
Definition: Substantial improvement in outcome, with robust evidence or clear behavioral shift; often includes statistical or numerical results.

2. Significant
Definition: Noticeable improvement in outcome, supported by qualitative or moderate quantitative evidence, but not as dramatic as "very significant."

3. Neutral/mixed results
Definition: Some improvement in outcome is suggested, but effects are limited, unclear, not statistically significant, or are offset by contradictory findings.

4. No effect
Definition: The intervention or policy had no discernible impact on outcome, as shown by the evidence.

5. Outcome was worsened
Definition: Outcome worsened or became more problematic as a result of the intervention or policy.
`

const gradeRubric = rubricGrades + "If insufficient information is available to provide a grade, please respond with: No information"

const gradeSystemPrompt = `You are a careful research assistant.
Only reply with exactly one of the following grades (no extra text):
Very significant | Significant | Neutral/mixed results | No effect | Outcome was worsened | No information`

const gradeUserPrompt = `Below is the grading rubric you will be using:
%s

This is the intervention:
%s

Specific outcome of the intervention to evaluate:
%s

Impact evaluation:
%s

Assign the appropriate grade for the degree to which the outcome "%s" was achieved from the intervention, based on the impact evaluation provided.
Output exactly one of: Very significant, Significant, Neutral/mixed results, No effect, Outcome was worsened, No Information. `

const forecastSections = `Scratchpad thoughts: <your step-by-step reasoning>
Prediction: <1-3 sentences>
Grade: <Very significant | Significant | Neutral/mixed results | No effect | Outcome was worsened | No information>`

const forecastSystemPrompt = "You are a disciplined forecasting assistant.\n" +
	"Deliberate internally but output exactly three labelled sections in this order:\n" +
	forecastSections

const forecastUserPrompt = `Grading rubric:
%s

Intervention description:
%s

Outcome to evaluate:
%s

Using only the information above plus your world knowledge, forecast the most likely grade.
Think through causal pathways, historical base-rates, and similar programs. Weigh arguments for each grade, then decide the single most likely grade.
Respond with the three labelled sections:
` + forecastSections

func interventionPrompt(interventionList, abstract string) string {
	return fmt.Sprintf(interventionQuestion, interventionList) + fmt.Sprintf(abstractBlock, abstract)
}

func outcomePrompt(term, abstract string) string {
	return fmt.Sprintf(outcomeQuestion, term) + fmt.Sprintf(abstractBlock, abstract)
}

func gradePrompt(intervention, term, outcome string) string {
	return fmt.Sprintf(gradeUserPrompt, gradeRubric, intervention, term, outcome, term)
}

func forecastPrompt(intervention, term string) string {
	return fmt.Sprintf(forecastUserPrompt, rubricGrades, intervention, term)
}
