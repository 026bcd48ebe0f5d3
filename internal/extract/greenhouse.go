package extract

import (
	"regexp"

	"github.com/jimezsa/ghostcli/internal/models"
)

var greenhouseBoard = regexp.MustCompile(`^(?:boards|job-boards)(?:\.eu)?\.greenhouse\.io/([a-z0-9_-]+)`)

func newGreenhouse() Strategy {
	return &ruleStrategy{
		platform: models.PlatformGreenhouse,
		hosts:    []string{"greenhouse.io"},
		title: []Rule{
			Text("h1.app-title"),
			Text(".job__title h1"),
			JSONLD(PostingTitle),
			Meta("og:title"),
			Text("h1"),
		},
		company: []Rule{
			Text("span.company-name"),
			JSONLD(PostingCompany),
			Meta("og:site_name"),
			URLSlug(greenhouseBoard),
		},
		posted: []Rule{
			JSONLD(PostingPosted),
		},
		description: []Rule{
			Description("#content", ".job__description"),
		},
	}
}
