package stepgraph

import "onboarding-orchestrator/internal/common/validation"

// Celebration kinds dispatched by step hooks.
const (
	CelebrationConfetti = "confetti"
	CelebrationSparkle  = "sparkle"
)

func intPtr(v int) *int { return &v }

func floatPtr(v float64) *float64 { return &v }

func strPtr(v string) *string { return &v }

func requires(props map[string]validation.Property, required ...string) *validation.JSONSchema {
	return &validation.JSONSchema{
		Type:                 "object",
		Properties:           props,
		Required:             required,
		AdditionalProperties: true,
	}
}

var (
	text      = validation.Property{Type: "string", MinLength: intPtr(1)}
	flag      = validation.Property{Type: "boolean"}
	nonEmpty  = validation.Property{Type: "array", MinItems: intPtr(1), Items: &validation.Property{Type: "string"}}
	emailProp = validation.Property{Type: "string", Pattern: strPtr(`^[^@\s]+@[^@\s]+\.[^@\s]+$`)}
	phoneProp = validation.Property{Type: "string", Pattern: strPtr(`^\+?[\d\s\-\(\)]{10,}$`)}
)

// Shared step shapes.

func contactDetailsStep() Step {
	return Step{
		ID:           "contact-details",
		ComponentKey: "ContactDetails",
		Requires: requires(map[string]validation.Property{
			"email": emailProp,
			"phone": phoneProp,
		}, "email", "phone"),
	}
}

func phoneVerificationStep() Step {
	return Step{
		ID:           "phone-verification",
		ComponentKey: "PhoneVerification",
		Requires:     requires(map[string]validation.Property{"phone_verified": flag}, "phone_verified"),
	}
}

func biometricDocStep() Step {
	return Step{
		ID:           "biometric-doc",
		ComponentKey: "BiometricDocument",
		Applicable:   roleChosen,
		Requires: requires(map[string]validation.Property{
			"id_document": {Type: "object"},
			"selfie":      {Type: "object"},
		}, "id_document", "selfie"),
	}
}

func socialMediaStep() Step {
	return Step{
		ID:           "social-media",
		ComponentKey: "SocialMedia",
		Skippable:    true,
	}
}

func consentsStep() Step {
	return Step{
		ID:           "consents",
		ComponentKey: "Consents",
		Requires: requires(map[string]validation.Property{
			"consents": {
				Type: "object",
				Properties: map[string]validation.Property{
					"terms":   flag,
					"privacy": flag,
				},
				Required: []string{"terms", "privacy"},
			},
		}, "consents"),
	}
}

func premiumUpsellStep() Step {
	return Step{
		ID:           "premium-upsell",
		ComponentKey: "PremiumUpsell",
		Skippable:    true,
		OnEnter: func(fx SideEffects) {
			fx.TriggerCelebration(CelebrationSparkle)
		},
	}
}

func reviewStep(achievement string) Step {
	return Step{
		ID:           "review",
		ComponentKey: "Review",
		OnEnter: func(fx SideEffects) {
			if fx.UnlockAchievement(achievement) {
				fx.TriggerCelebration(CelebrationConfetti)
			}
		},
	}
}

func workerSteps() []Step {
	return []Step{
		{
			ID:           "personal-info",
			ComponentKey: "WorkerPersonalInfo",
			Requires: requires(map[string]validation.Property{
				"full_name":     text,
				"date_of_birth": text,
				"gender":        {Type: "string", Enum: []string{"female", "male"}},
			}, "full_name", "date_of_birth", "gender"),
		},
		contactDetailsStep(),
		phoneVerificationStep(),
		{
			ID:           "nationality-languages",
			ComponentKey: "NationalityLanguages",
			Requires: requires(map[string]validation.Property{
				"nationality": text,
				"languages":   nonEmpty,
			}, "nationality", "languages"),
		},
		{
			ID:           "experience-level",
			ComponentKey: "ExperienceLevel",
			Requires: requires(map[string]validation.Property{
				"experience_level": {Type: "string", Enum: []string{NoExperience, "Some Experience", "Experienced"}},
			}, "experience_level"),
		},
		{
			ID:           "work-experience",
			ComponentKey: "WorkExperience",
			Applicable:   hasExperience,
			Requires: requires(map[string]validation.Property{
				"years_experience": {Type: "number", Minimum: floatPtr(0)},
				"work_history":     {Type: "array", MinItems: intPtr(1)},
			}, "work_history"),
		},
		{
			ID:           "employment-reference",
			ComponentKey: "EmploymentReference",
			Applicable:   hasExperience,
			Requires: requires(map[string]validation.Property{
				"employmentReference": {
					Type: "object",
					Properties: map[string]validation.Property{
						"employer_name":  text,
						"employer_phone": phoneProp,
					},
					Required: []string{"employer_name", "employer_phone"},
				},
			}, "employmentReference"),
		},
		{
			ID:           "verify-both-sides",
			ComponentKey: "VerifyBothSides",
			Applicable:   hasExperience,
			Skippable:    true,
		},
		{
			ID:           "skills",
			ComponentKey: "Skills",
			Requires:     requires(map[string]validation.Property{"skills": nonEmpty}, "skills"),
		},
		{
			ID:           "job-preferences",
			ComponentKey: "JobPreferences",
			Requires: requires(map[string]validation.Property{
				"preferred_countries": nonEmpty,
				"job_type":            {Type: "string", Enum: []string{"live-in", "live-out", "either"}},
			}, "preferred_countries"),
		},
		biometricDocStep(),
		{
			ID:           "video-intro",
			ComponentKey: "VideoIntro",
			Skippable:    true,
		},
		socialMediaStep(),
		consentsStep(),
		premiumUpsellStep(),
		reviewStep("worker-profile-ready"),
	}
}

func sponsorSteps() []Step {
	return []Step{
		{
			ID:           "household-info",
			ComponentKey: "HouseholdInfo",
			Requires: requires(map[string]validation.Property{
				"full_name": text,
				"city":      text,
			}, "full_name", "city"),
		},
		contactDetailsStep(),
		phoneVerificationStep(),
		{
			ID:           "family-composition",
			ComponentKey: "FamilyComposition",
			Requires: requires(map[string]validation.Property{
				"household_size": {Type: "integer", Minimum: floatPtr(1)},
				"children":       {Type: "integer", Minimum: floatPtr(0)},
			}, "household_size"),
		},
		{
			ID:           "services-needed",
			ComponentKey: "ServicesNeeded",
			Requires:     requires(map[string]validation.Property{"services": nonEmpty}, "services"),
		},
		{
			ID:           "worker-preferences",
			ComponentKey: "WorkerPreferences",
			Skippable:    true,
		},
		{
			ID:           "employment-type",
			ComponentKey: "EmploymentType",
			Requires: requires(map[string]validation.Property{
				"employment_type": {Type: "string", Enum: []string{"live-in", "live-out"}},
			}, "employment_type"),
		},
		{
			ID:           "accommodation",
			ComponentKey: "Accommodation",
			Applicable:   fieldEquals("employment_type", "live-in"),
			Requires:     requires(map[string]validation.Property{"accommodation_type": text}, "accommodation_type"),
		},
		{
			ID:           "budget",
			ComponentKey: "Budget",
			Requires: requires(map[string]validation.Property{
				"monthly_budget": {Type: "number", Minimum: floatPtr(0)},
			}, "monthly_budget"),
		},
		{
			ID:           "job-posting",
			ComponentKey: "JobPosting",
			Skippable:    true,
		},
		biometricDocStep(),
		consentsStep(),
		premiumUpsellStep(),
		reviewStep("sponsor-profile-ready"),
	}
}

func agencySteps() []Step {
	return []Step{
		{
			ID:           "agency-info",
			ComponentKey: "AgencyInfo",
			Requires: requires(map[string]validation.Property{
				"agency_name":         text,
				"registration_number": text,
			}, "agency_name", "registration_number"),
		},
		{
			ID:           "license-details",
			ComponentKey: "LicenseDetails",
			Requires:     requires(map[string]validation.Property{"licensed": flag}, "licensed"),
		},
		{
			ID:           "license-upload",
			ComponentKey: "LicenseUpload",
			Applicable:   all(roleChosen, fieldTrue("licensed")),
			Requires:     requires(map[string]validation.Property{"license_document": {Type: "object"}}, "license_document"),
		},
		{
			ID:           "contact-person",
			ComponentKey: "ContactPerson",
			Requires: requires(map[string]validation.Property{
				"contact_name": text,
				"email":        emailProp,
				"phone":        phoneProp,
			}, "contact_name", "email", "phone"),
		},
		phoneVerificationStep(),
		{
			ID:           "specializations",
			ComponentKey: "Specializations",
			Requires:     requires(map[string]validation.Property{"specializations": nonEmpty}, "specializations"),
		},
		{
			ID:           "countries-served",
			ComponentKey: "CountriesServed",
			Requires:     requires(map[string]validation.Property{"preferred_countries": nonEmpty}, "preferred_countries"),
		},
		{
			ID:           "fee-structure",
			ComponentKey: "FeeStructure",
			Requires: requires(map[string]validation.Property{
				"placement_fee": {Type: "number", Minimum: floatPtr(0)},
			}, "placement_fee"),
		},
		biometricDocStep(),
		socialMediaStep(),
		consentsStep(),
		premiumUpsellStep(),
		reviewStep("agency-profile-ready"),
	}
}

// Default returns the production step graph.
func Default() *Graph {
	g, err := New(map[Role][]Step{
		RoleWorker:  workerSteps(),
		RoleSponsor: sponsorSteps(),
		RoleAgency:  agencySteps(),
	})
	if err != nil {
		panic(err)
	}
	return g
}
