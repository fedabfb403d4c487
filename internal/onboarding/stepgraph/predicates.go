package stepgraph

import "onboarding-orchestrator/internal/onboarding/formdata"

const NoExperience = "No Experience"

func roleChosen(data formdata.Reader) bool {
	return data.String("role") != ""
}

// hasExperience gates the worker CV and reference sub-section. An unanswered
// experience question keeps the sub-section visible.
func hasExperience(data formdata.Reader) bool {
	return data.String("experience_level") != NoExperience
}

func fieldEquals(path, want string) Predicate {
	return func(data formdata.Reader) bool {
		return data.String(path) == want
	}
}

func fieldTrue(path string) Predicate {
	return func(data formdata.Reader) bool {
		return data.Bool(path)
	}
}

func all(preds ...Predicate) Predicate {
	return func(data formdata.Reader) bool {
		for _, p := range preds {
			if !p(data) {
				return false
			}
		}
		return true
	}
}
