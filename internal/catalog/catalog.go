// Package catalog holds the skill taxonomy and target roles offered by the quiz.
package catalog

import "strings"

type Category struct {
	Name   string   `json:"name"`
	Skills []string `json:"skills"`
}

var categories = []Category{
	{"Core Programming", []string{"Python", "JavaScript", "TypeScript", "Java", "C++", "Go", "SQL"}},
	{"Frontend Development", []string{"HTML", "CSS", "React", "Angular", "Next.js"}},
	{"Backend Development", []string{"Node.js", "Express.js", "Django", "Spring Boot", "REST"}},
	{"Databases", []string{"PostgreSQL", "MySQL", "MongoDB", "Redis"}},
	{"DevOps & Cloud", []string{"Docker", "Kubernetes", "Amazon Web Services", "Microsoft Azure", "CI/CD", "Terraform", "Linux"}},
	{"Data & Analytics", []string{"Pandas", "NumPy", "Power BI", "Tableau", "Excel", "Statistics"}},
	{"Machine Learning & AI", []string{"scikit-learn", "TensorFlow", "PyTorch", "Deep Learning", "NLP", "XGBoost", "Feature Engineering"}},
	{"MLOps", []string{"MLFlow", "Model Deployment", "Data Versioning"}},
	{"Cyber Security", []string{"Network Security", "Ethical Hacking", "Cryptography", "OWASP"}},
	{"Software Architecture", []string{"System Design", "Microservices", "Distributed Systems", "API Design"}},
	{"UX Design", []string{"Figma", "User Research", "Prototyping"}},
	{"Game Development", []string{"Unity", "Unreal Engine"}},
	{"Product & Process", []string{"Agile", "A/B Testing"}},
}

var roles = []string{
	"Software Engineer",
	"Front End Developer",
	"Back End Developer",
	"Full Stack Developer",
	"Platform Engineer",
	"Cloud Engineer",
	"Cloud Solutions Architect",
	"DevOps Engineer",
	"MLOps Engineer",
	"Data Analyst",
	"Business Intelligence Analyst",
	"Data Scientist",
	"Machine Learning Engineer",
	"Artificial Intelligence Engineer",
	"Cybersecurity Analyst",
	"Network Security Engineer",
	"UX Designer",
	"Product Manager",
	"Game Developer",
}

// Categories returns the taxonomy filtered by a case-insensitive substring.
// Categories left without skills are omitted.
func Categories(query string) []Category {
	out := make([]Category, 0, len(categories))
	for _, c := range categories {
		var matched []string
		for _, s := range c.Skills {
			if MatchesKeywords(s, query) {
				matched = append(matched, s)
			}
		}
		if len(matched) > 0 {
			out = append(out, Category{Name: c.Name, Skills: matched})
		}
	}
	return out
}

// Roles returns the target roles filtered by a case-insensitive substring.
func Roles(query string) []string {
	out := make([]string, 0, len(roles))
	for _, r := range roles {
		if MatchesKeywords(r, query) {
			out = append(out, r)
		}
	}
	return out
}

// MatchesKeywords reports whether text contains any of the keywords,
// ignoring case. No keywords (or only blank ones) matches everything.
func MatchesKeywords(text string, keywords ...string) bool {
	lowerText := strings.ToLower(text)
	hasKeyword := false
	for _, k := range keywords {
		k = strings.TrimSpace(k)
		if k == "" {
			continue
		}
		hasKeyword = true
		if strings.Contains(lowerText, strings.ToLower(k)) {
			return true
		}
	}
	return !hasKeyword
}

// NormalizeSkills trims entries, drops blanks and removes case-insensitive
// duplicates while keeping the first spelling and the original order.
func NormalizeSkills(skills []string) []string {
	seen := make(map[string]struct{}, len(skills))
	out := make([]string, 0, len(skills))
	for _, s := range skills {
		s = strings.Join(strings.Fields(s), " ")
		if s == "" {
			continue
		}
		key := strings.ToLower(s)
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, s)
	}
	return out
}
