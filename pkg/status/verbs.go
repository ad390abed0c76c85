package status

import "strings"

// VerbForms holds the conjugations used in message headlines
type VerbForms struct {
	Base       string
	Continuous string
	Past       string
}

// NewVerbForms derives the continuous and past forms of a base verb.
// The rules only cover regular verbs, pastOverride handles the rest.
func NewVerbForms(base string, pastOverride string) VerbForms {
	base = strings.ToLower(strings.TrimSpace(base))
	if base == "" {
		base = "deploy"
	}

	forms := VerbForms{
		Base:       base,
		Continuous: base + "ing",
		Past:       base + "ed",
	}

	if strings.HasSuffix(base, "e") {
		forms.Continuous = strings.TrimSuffix(base, "e") + "ing"
		forms.Past = base + "d"
	} else if strings.HasSuffix(base, "y") && !vowelBeforeY(base) {
		forms.Past = strings.TrimSuffix(base, "y") + "ied"
	}

	if pastOverride != "" {
		forms.Past = pastOverride
	}

	return forms
}

// vowelBeforeY keeps deploy -> deployed while apply -> applied
func vowelBeforeY(base string) bool {
	if len(base) < 2 {
		return false
	}
	return strings.ContainsRune("aeiou", rune(base[len(base)-2]))
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
