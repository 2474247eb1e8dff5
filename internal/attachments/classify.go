package attachments

import "strings"

// Class is the likely content of an attachment, inferred from its file name
type Class string

const (
	ClassConsentLetter    Class = "consent-letter"
	ClassBoardResolution  Class = "board-resolution"
	ClassIntimationLetter Class = "intimation-letter"
	ClassAcceptanceLetter Class = "acceptance-letter"
	ClassUnclassified     Class = "unclassified"
)

// classRule maps file-name keywords to a class. Rules are checked in order.
type classRule struct {
	class       Class
	keywords    []string
	description string
}

var classRules = []classRule{
	{
		class:       ClassConsentLetter,
		keywords:    []string{"consent", "letter"},
		description: "Likely contains auditor's consent letter.",
	},
	{
		class:       ClassBoardResolution,
		keywords:    []string{"resolution"},
		description: "Likely contains board resolution approving the appointment.",
	},
	{
		class:       ClassIntimationLetter,
		keywords:    []string{"intimation"},
		description: "Likely contains intimation letter to the auditor.",
	},
	{
		class:       ClassAcceptanceLetter,
		keywords:    []string{"acceptance"},
		description: "Likely contains auditor's acceptance letter.",
	},
}

const unclassifiedDescription = "Content type not identified; manual inspection recommended."

// Classify matches filename case-insensitively against the keyword rules.
// This is a display hint only.
func Classify(filename string) Class {
	lower := strings.ToLower(filename)
	for _, rule := range classRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.class
			}
		}
	}
	return ClassUnclassified
}

// Description is the narrative sentence for c
func (c Class) Description() string {
	for _, rule := range classRules {
		if rule.class == c {
			return rule.description
		}
	}
	return unclassifiedDescription
}
