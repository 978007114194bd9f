package harvest

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// DisplayName turns a resource name such as "scheduled_interviews" into "Scheduled Interviews".
func DisplayName(name string) string {
	spaced := strings.NewReplacer("_", " ", "-", " ", ".", " ").Replace(name)

	return cases.Title(language.English).String(spaced)
}
