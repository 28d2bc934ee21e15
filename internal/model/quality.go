package model

// Rating types for the six quality dimensions. Values are the lowercase
// strings the evaluator is asked to produce.
type (
	Atomicity           string
	Fluency             string
	Decontextualization string
	Faithfulness        string
	Focus               string
	Checkworthiness     string
)

const (
	AtomicityHigh   Atomicity = "high"
	AtomicityMedium Atomicity = "medium"
	AtomicityLow    Atomicity = "low"

	FluencyGood Fluency = "good"
	FluencyFair Fluency = "fair"
	FluencyPoor Fluency = "poor"

	DecontextualizationHigh   Decontextualization = "high"
	DecontextualizationMedium Decontextualization = "medium"
	DecontextualizationLow    Decontextualization = "low"

	FaithfulnessHigh   Faithfulness = "high"
	FaithfulnessMedium Faithfulness = "medium"
	FaithfulnessLow    Faithfulness = "low"
	FaithfulnessNA     Faithfulness = "na" // No original text to compare against

	FocusSpecific Focus = "specific"
	FocusNeutral  Focus = "neutral"
	FocusBroad    Focus = "broad"

	CheckworthinessHigh   Checkworthiness = "high"
	CheckworthinessMedium Checkworthiness = "medium"
	CheckworthinessLow    Checkworthiness = "low"
)

// QualityAssessment rates the linguistic quality of a claim
type QualityAssessment struct {
	Atomicity           Atomicity           `json:"atomicity" validate:"oneof=high medium low"`
	Fluency             Fluency             `json:"fluency" validate:"oneof=good fair poor"`
	Decontextualization Decontextualization `json:"decontextualization" validate:"oneof=high medium low"`
	Faithfulness        Faithfulness        `json:"faithfulness" validate:"oneof=high medium low na"`
	Focus               Focus               `json:"focus" validate:"oneof=specific neutral broad"`
	Checkworthiness     Checkworthiness     `json:"checkworthiness" validate:"oneof=high medium low"`
	Overall             string              `json:"overall_assessment"`
}

// FallbackQualityAssessment is substituted when the evaluator fails.
// Every dimension carries its lowest rating and faithfulness is "na".
func FallbackQualityAssessment() QualityAssessment {
	return QualityAssessment{
		Atomicity:           AtomicityLow,
		Fluency:             FluencyPoor,
		Decontextualization: DecontextualizationLow,
		Faithfulness:        FaithfulnessNA,
		Focus:               FocusBroad,
		Checkworthiness:     CheckworthinessLow,
		Overall:             "Quality assessment unavailable: the evaluator failed for this claim.",
	}
}
