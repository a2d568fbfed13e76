package analysis

import "fmt"

// Instructions builds the prompt sent alongside the resume document. The
// response format mirrors the Feedback shape the parser expects.
func Instructions(jobTitle, jobDescription string) string {
	return fmt.Sprintf(`You are an expert in ATS (Applicant Tracking Systems) and resume analysis.
Analyze and rate the attached resume and suggest how to improve it.
The rating can be low if the resume is bad.
Be thorough and detailed. Don't be afraid to point out any mistakes or areas for improvement.
If there is a lot to improve, don't hesitate to give low scores.
Take the job description into account.

The job title is: %s
The job description is: %s

Return your result as a structured JSON object in this format:

{
  "overallScore": <number 0-100>,
  "ATS": {"score": <number 0-100>, "tips": [{"type": "good" | "improve", "tip": string}]},
  "toneAndStyle": {"score": <number 0-100>, "tips": [{"type": "good" | "improve", "tip": string}]},
  "content": {"score": <number 0-100>, "tips": [{"type": "good" | "improve", "tip": string}]},
  "structure": {"score": <number 0-100>, "tips": [{"type": "good" | "improve", "tip": string}]},
  "skills": {"score": <number 0-100>, "tips": [{"type": "good" | "improve", "tip": string}]}
}

Return only valid JSON. Do not include explanations, markdown, or text before or after the JSON.
Your response must be a single JSON object.`, jobTitle, jobDescription)
}
