package ai

import "fmt"

const systemPrompt = "You are a labour-market analyst. You assess how a candidate's skills map to tech roles and how likely each skill is to lose market demand. Always respond in valid JSON."

func analysisPrompt(p Profile) string {
	return fmt.Sprintf(`Analyze the candidate profile below.

Return JSON only with this exact structure:
{
  "matched_roles": [
    {"role": "role name", "skills": ["skill"], "similarity_score": number between 0 and 1}
  ],
  "skill_decline_risk": [
    {"skill": "skill name", "decline_risk_probability": number between 0 and 1}
  ]
}

Rules:
- matched_roles: up to 3 roles, best match first
- skills in matched_roles: the candidate skills relevant to that role
- skill_decline_risk: one entry per candidate skill, highest risk first
- Do NOT include markdown, code fences or any additional text

Candidate profile (role | skills):
%s`, p.Text())
}
