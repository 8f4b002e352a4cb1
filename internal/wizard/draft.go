package wizard

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"job-agent/internal/domain/user"
)

// Draft is the employment questionnaire. It is stored verbatim on the user as
// employment_data when saved.
type Draft struct {
	FullName string `json:"full_name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Location string `json:"location"`

	CurrentTitle    string `json:"current_title"`
	TotalExperience string `json:"total_experience"`
	CurrentCompany  string `json:"current_company"`
	Industry        string `json:"industry"`

	HighestDegree  string `json:"highest_degree"`
	University     string `json:"university"`
	GraduationYear string `json:"graduation_year"`
	Certifications string `json:"certifications"`

	TechnicalSkills      string `json:"technical_skills"`
	ProgrammingLanguages string `json:"programming_languages"`
	Frameworks           string `json:"frameworks"`
	ToolsPlatforms       string `json:"tools_platforms"`

	DesiredTitle        string `json:"desired_title"`
	JobType             string `json:"job_type"`
	WorkLocation        string `json:"work_location"`
	TargetCompanies     string `json:"target_companies"`
	IndustriesPreferred string `json:"industries_preferred"`

	CurrentSalary     string `json:"current_salary"`
	DesiredSalary     string `json:"desired_salary"`
	BonusExpectations string `json:"bonus_expectations"`
	EquityInterest    bool   `json:"equity_interest"`

	ShortTermGoals  string `json:"short_term_goals"`
	LongTermGoals   string `json:"long_term_goals"`
	SkillsToDevelop string `json:"skills_to_develop"`

	CompanySize           string `json:"company_size"`
	ManagementPreference  string `json:"management_preference"`
	TravelWillingness     string `json:"travel_willingness"`
	RelocationWillingness string `json:"relocation_willingness"`

	NoticePeriod      string `json:"notice_period"`
	EmploymentGap     string `json:"employment_gap"`
	SecurityClearance string `json:"security_clearance"`
	WorkAuthorization string `json:"work_authorization"`
}

// NewDraft seeds a draft from u. Answers saved earlier in employment_data are
// restored first; the account fields then win.
func NewDraft(u user.User) Draft {
	d := Draft{JobType: "Full-time", WorkLocation: "Remote"}
	if len(u.EmploymentData) > 0 {
		var prev Draft
		if err := json.Unmarshal(u.EmploymentData, &prev); err == nil {
			d = prev
		}
	}
	d.FullName = u.FullName
	d.Email = u.Email
	d.Phone = u.Phone
	d.Location = u.PreferredLocations
	d.TechnicalSkills = u.Skills
	if u.DesiredSalaryMin > 0 {
		d.DesiredSalary = fmt.Sprintf("%d - %d", u.DesiredSalaryMin, u.DesiredSalaryMax)
	}
	return d
}

func (d *Draft) textFields() map[string]*string {
	return map[string]*string{
		"full_name":              &d.FullName,
		"email":                  &d.Email,
		"phone":                  &d.Phone,
		"location":               &d.Location,
		"current_title":          &d.CurrentTitle,
		"total_experience":       &d.TotalExperience,
		"current_company":        &d.CurrentCompany,
		"industry":               &d.Industry,
		"highest_degree":         &d.HighestDegree,
		"university":             &d.University,
		"graduation_year":        &d.GraduationYear,
		"certifications":         &d.Certifications,
		"technical_skills":       &d.TechnicalSkills,
		"programming_languages":  &d.ProgrammingLanguages,
		"frameworks":             &d.Frameworks,
		"tools_platforms":        &d.ToolsPlatforms,
		"desired_title":          &d.DesiredTitle,
		"job_type":               &d.JobType,
		"work_location":          &d.WorkLocation,
		"target_companies":       &d.TargetCompanies,
		"industries_preferred":   &d.IndustriesPreferred,
		"current_salary":         &d.CurrentSalary,
		"desired_salary":         &d.DesiredSalary,
		"bonus_expectations":     &d.BonusExpectations,
		"short_term_goals":       &d.ShortTermGoals,
		"long_term_goals":        &d.LongTermGoals,
		"skills_to_develop":      &d.SkillsToDevelop,
		"company_size":           &d.CompanySize,
		"management_preference":  &d.ManagementPreference,
		"travel_willingness":     &d.TravelWillingness,
		"relocation_willingness": &d.RelocationWillingness,
		"notice_period":          &d.NoticePeriod,
		"employment_gap":         &d.EmploymentGap,
		"security_clearance":     &d.SecurityClearance,
		"work_authorization":     &d.WorkAuthorization,
	}
}

// Set edits one field by its JSON name.
func (d *Draft) Set(field, value string) error {
	field = strings.TrimSpace(field)
	if field == "equity_interest" {
		b, err := strconv.ParseBool(strings.TrimSpace(value))
		if err != nil {
			return fmt.Errorf("%w: equity_interest wants true or false", ErrInvalidValue)
		}
		d.EquityInterest = b
		return nil
	}
	p, ok := d.textFields()[field]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	*p = value
	return nil
}

// ParseSalaryRange reads "min - max". A side that does not start with a
// positive number after dropping spaces, "$" and "," keeps its previous value.
func ParseSalaryRange(s string, prevMin, prevMax int64) (int64, int64) {
	lo, hi, _ := strings.Cut(s, "-")
	return salarySide(lo, prevMin), salarySide(hi, prevMax)
}

func salarySide(s string, prev int64) int64 {
	s = strings.NewReplacer("$", "", ",", "", " ", "").Replace(s)
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	if end == 0 {
		return prev
	}
	n, err := strconv.ParseInt(s[:end], 10, 64)
	if err != nil || n == 0 {
		return prev
	}
	return n
}
