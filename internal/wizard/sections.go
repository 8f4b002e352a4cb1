package wizard

// Field is one wizard input. Required is a display marker; Save never checks it.
type Field struct {
	Name     string `json:"name"`
	Label    string `json:"label"`
	Required bool   `json:"required,omitempty"`
}

type Section struct {
	ID     string  `json:"id"`
	Title  string  `json:"title"`
	Fields []Field `json:"fields"`
}

var sections = []Section{
	{
		ID:    "personal",
		Title: "Personal Information",
		Fields: []Field{
			{Name: "full_name", Label: "Full Name", Required: true},
			{Name: "email", Label: "Email Address", Required: true},
			{Name: "phone", Label: "Phone Number"},
			{Name: "location", Label: "Location", Required: true},
		},
	},
	{
		ID:    "professional",
		Title: "Professional Background",
		Fields: []Field{
			{Name: "current_title", Label: "Current/Most Recent Title", Required: true},
			{Name: "total_experience", Label: "Total Years of Experience", Required: true},
			{Name: "current_company", Label: "Current/Most Recent Company"},
			{Name: "industry", Label: "Industry"},
		},
	},
	{
		ID:    "education",
		Title: "Education & Certifications",
		Fields: []Field{
			{Name: "highest_degree", Label: "Highest Degree"},
			{Name: "university", Label: "University/Institution"},
			{Name: "graduation_year", Label: "Graduation Year"},
			{Name: "certifications", Label: "Certifications"},
		},
	},
	{
		ID:    "skills",
		Title: "Skills & Expertise",
		Fields: []Field{
			{Name: "technical_skills", Label: "Technical Skills", Required: true},
			{Name: "programming_languages", Label: "Programming Languages"},
			{Name: "frameworks", Label: "Frameworks & Libraries"},
			{Name: "tools_platforms", Label: "Tools & Platforms"},
		},
	},
	{
		ID:    "preferences",
		Title: "Job Preferences",
		Fields: []Field{
			{Name: "desired_title", Label: "Desired Job Title", Required: true},
			{Name: "job_type", Label: "Job Type", Required: true},
			{Name: "work_location", Label: "Work Location", Required: true},
			{Name: "desired_salary", Label: "Desired Salary Range", Required: true},
			{Name: "current_salary", Label: "Current Salary"},
			{Name: "bonus_expectations", Label: "Bonus Expectations"},
			{Name: "equity_interest", Label: "Interested in Equity"},
			{Name: "target_companies", Label: "Target Companies"},
			{Name: "industries_preferred", Label: "Preferred Industries"},
		},
	},
	{
		ID:    "career",
		Title: "Career Goals",
		Fields: []Field{
			{Name: "short_term_goals", Label: "Short-term Goals (1-2 years)"},
			{Name: "long_term_goals", Label: "Long-term Goals (5+ years)"},
			{Name: "skills_to_develop", Label: "Skills to Develop"},
			{Name: "company_size", Label: "Preferred Company Size"},
			{Name: "management_preference", Label: "Management Preference"},
			{Name: "travel_willingness", Label: "Willingness to Travel"},
			{Name: "relocation_willingness", Label: "Willingness to Relocate"},
			{Name: "notice_period", Label: "Notice Period"},
			{Name: "employment_gap", Label: "Employment Gap"},
			{Name: "security_clearance", Label: "Security Clearance"},
			{Name: "work_authorization", Label: "Work Authorization"},
		},
	},
}

// Sections returns the fixed wizard sections in order.
func Sections() []Section {
	out := make([]Section, len(sections))
	for i, s := range sections {
		s.Fields = append([]Field(nil), s.Fields...)
		out[i] = s
	}
	return out
}
