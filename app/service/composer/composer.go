package composer

import (
	"strings"

	"chatloop/app/service/settings"

	_ "embed"
)

//go:embed reply_template.txt
var replyTemplate string

const (
	sharedClosing  = "Happy to refine further."
	playfulClosing = "Want another spin? I'm always up for round two!"
)

var leads = map[settings.Tone]string{
	settings.ToneBalanced: "Here you go with a balanced take:",
	settings.ToneConcise:  "Quick answer:",
	settings.ToneDetailed: "Here is a detailed walkthrough:",
	settings.TonePlayful:  "Ooh, fun one!",
}

// Func builds reply text for a prompt under the given settings.
type Func func(prompt string, values settings.Values) string

var _ Func = Compose

// Compose is pure: the same prompt and settings always produce the same text.
func Compose(prompt string, values settings.Values) string {
	lead, ok := leads[values.Tone]
	if !ok {
		lead = leads[settings.ToneBalanced]
	}

	closing := sharedClosing
	if values.Tone == settings.TonePlayful {
		closing = playfulClosing
	}

	// single pass, so placeholders inside the prompt are left alone
	replacer := strings.NewReplacer(
		"{lead}", lead,
		"{prompt}", prompt,
		"{model}", values.Model.Label,
		"{tone}", string(values.Tone),
		"{closing}", closing,
	)

	return replacer.Replace(strings.TrimRight(replyTemplate, "\n"))
}
