package activity

import (
	"sort"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/shughuli/core"
)

var (
	awardTag  = "award"
	awardText = "invalid award"

	customNameTag  = "customname"
	customNameText = "custom awards require an award name"
)

func init() {
	// register validators
	_ = core.Validate.RegisterValidation(awardTag, awardValidation)
	core.RegisterCustomTranslation(awardTag, awardText)

	core.Validate.RegisterStructValidation(assignmentStructValidation, RewardAssignment{})
	core.RegisterCustomTranslation(customNameTag, customNameText)
}

// Custom Validators

// awardValidation checks that the provided award category is in AllAwards
func awardValidation(fl validator.FieldLevel) bool {
	if award, ok := fl.Field().Interface().(string); ok {
		sort.Strings(AllAwards)
		if idx := sort.SearchStrings(AllAwards, award); idx < len(AllAwards) {
			return AllAwards[idx] == award
		}
	}
	return false
}

// assignmentStructValidation does struct level validation on RewardAssignment.
func assignmentStructValidation(sl validator.StructLevel) {
	if asg, ok := sl.Current().Interface().(RewardAssignment); ok {
		if asg.Award == AwardCustom && asg.AwardName == "" {
			sl.ReportError(asg.AwardName, "award_name", "AwardName", customNameTag, "")
		}
	}
}
