// Package profile decodes the flat onboarding form data into one typed
// record per role.
package profile

import (
	"fmt"
	"strings"

	"onboarding-orchestrator/internal/onboarding/stepgraph"

	"github.com/mitchellh/mapstructure"
)

// Common holds fields every role collects.
type Common struct {
	Email         string            `mapstructure:"email" json:"email"`
	Phone         string            `mapstructure:"phone" json:"phone"`
	PhoneVerified bool              `mapstructure:"phone_verified" json:"phoneVerified"`
	Consents      Consents          `mapstructure:"consents" json:"consents"`
	SocialMedia   map[string]string `mapstructure:"social_media" json:"socialMedia,omitempty"`
	Premium       bool              `mapstructure:"premium" json:"premium"`
}

type Consents struct {
	Terms     bool `mapstructure:"terms" json:"terms"`
	Privacy   bool `mapstructure:"privacy" json:"privacy"`
	Marketing bool `mapstructure:"marketing" json:"marketing"`
}

type EmploymentReference struct {
	EmployerName    string `mapstructure:"employer_name" json:"employerName"`
	EmployerPhone   string `mapstructure:"employer_phone" json:"employerPhone"`
	EmployerCountry string `mapstructure:"employer_country" json:"employerCountry,omitempty"`
	Verified        bool   `mapstructure:"verified" json:"verified"`
}

type Worker struct {
	Common              `mapstructure:",squash"`
	FullName            string               `mapstructure:"full_name" json:"fullName"`
	DateOfBirth         string               `mapstructure:"date_of_birth" json:"dateOfBirth"`
	Gender              string               `mapstructure:"gender" json:"gender"`
	Nationality         string               `mapstructure:"nationality" json:"nationality"`
	Languages           []string             `mapstructure:"languages" json:"languages"`
	ExperienceLevel     string               `mapstructure:"experience_level" json:"experienceLevel"`
	YearsExperience     float64              `mapstructure:"years_experience" json:"yearsExperience"`
	Skills              []string             `mapstructure:"skills" json:"skills"`
	PreferredCountries  []string             `mapstructure:"preferred_countries" json:"preferredCountries"`
	JobType             string               `mapstructure:"job_type" json:"jobType"`
	EmploymentReference *EmploymentReference `mapstructure:"employmentReference" json:"employmentReference,omitempty"`
}

type Sponsor struct {
	Common            `mapstructure:",squash"`
	FullName          string   `mapstructure:"full_name" json:"fullName"`
	City              string   `mapstructure:"city" json:"city"`
	HouseholdSize     int      `mapstructure:"household_size" json:"householdSize"`
	Children          int      `mapstructure:"children" json:"children"`
	Services          []string `mapstructure:"services" json:"services"`
	Nationalities     []string `mapstructure:"nationalities" json:"nationalities"`
	EmploymentType    string   `mapstructure:"employment_type" json:"employmentType"`
	AccommodationType string   `mapstructure:"accommodation_type" json:"accommodationType,omitempty"`
	MonthlyBudget     float64  `mapstructure:"monthly_budget" json:"monthlyBudget"`
}

type Agency struct {
	Common             `mapstructure:",squash"`
	AgencyName         string   `mapstructure:"agency_name" json:"agencyName"`
	RegistrationNumber string   `mapstructure:"registration_number" json:"registrationNumber"`
	Licensed           bool     `mapstructure:"licensed" json:"licensed"`
	ContactName        string   `mapstructure:"contact_name" json:"contactName"`
	Specializations    []string `mapstructure:"specializations" json:"specializations"`
	PreferredCountries []string `mapstructure:"preferred_countries" json:"preferredCountries"`
	PlacementFee       float64  `mapstructure:"placement_fee" json:"placementFee"`
}

// Profile is a tagged union: exactly one of Worker, Sponsor, Agency is set,
// matching Role.
type Profile struct {
	Role    stepgraph.Role
	Worker  *Worker
	Sponsor *Sponsor
	Agency  *Agency
}

// Decode maps form data onto role's record. Unknown keys are ignored and
// scalar types are coerced where unambiguous.
func Decode(role stepgraph.Role, data map[string]interface{}) (*Profile, error) {
	p := &Profile{Role: role}

	var target interface{}
	switch role {
	case stepgraph.RoleWorker:
		p.Worker = &Worker{}
		target = p.Worker
	case stepgraph.RoleSponsor:
		p.Sponsor = &Sponsor{}
		target = p.Sponsor
	case stepgraph.RoleAgency:
		p.Agency = &Agency{}
		target = p.Agency
	default:
		return nil, fmt.Errorf("unknown role %q", role)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           target,
		TagName:          "mapstructure",
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(data); err != nil {
		return nil, fmt.Errorf("decode %s profile: %w", role, err)
	}
	return p, nil
}

func (p *Profile) Common() Common {
	switch {
	case p.Worker != nil:
		return p.Worker.Common
	case p.Sponsor != nil:
		return p.Sponsor.Common
	case p.Agency != nil:
		return p.Agency.Common
	}
	return Common{}
}

// DisplayName is the person or business the account is for.
func (p *Profile) DisplayName() string {
	switch {
	case p.Worker != nil:
		return p.Worker.FullName
	case p.Sponsor != nil:
		return p.Sponsor.FullName
	case p.Agency != nil:
		if p.Agency.AgencyName != "" {
			return p.Agency.AgencyName
		}
		return p.Agency.ContactName
	}
	return ""
}

// PersonName splits the human contact's name into first and last. A single
// word is used as the last name.
func (p *Profile) PersonName() (first, last string) {
	name := ""
	switch {
	case p.Worker != nil:
		name = p.Worker.FullName
	case p.Sponsor != nil:
		name = p.Sponsor.FullName
	case p.Agency != nil:
		name = p.Agency.ContactName
	}

	parts := strings.Fields(name)
	switch len(parts) {
	case 0:
		return "", ""
	case 1:
		return "", parts[0]
	}
	return strings.Join(parts[:len(parts)-1], " "), parts[len(parts)-1]
}

// Record returns the role-specific struct.
func (p *Profile) Record() interface{} {
	switch {
	case p.Worker != nil:
		return p.Worker
	case p.Sponsor != nil:
		return p.Sponsor
	case p.Agency != nil:
		return p.Agency
	}
	return nil
}
