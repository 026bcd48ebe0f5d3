package extract

import (
	"regexp"

	"github.com/jimezsa/ghostcli/internal/models"
)

var leverBoard = regexp.MustCompile(`^jobs(?:\.eu)?\.lever\.co/([a-z0-9_-]+)`)

func newLever() Strategy {
	return &ruleStrategy{
		platform: models.PlatformLever,
		hosts:    []string{"lever.co"},
		title: []Rule{
			Text(".posting-headline h2"),
			Meta("og:title"),
			Text("h2"),
			Text("h1"),
		},
		company: []Rule{
			Meta("og:site_name"),
			JSONLD(PostingCompany),
			URLSlug(leverBoard),
		},
		posted: []Rule{
			JSONLD(PostingPosted),
		},
		description: []Rule{
			Description(".posting-page .section-wrapper", ".posting-page"),
		},
	}
}
