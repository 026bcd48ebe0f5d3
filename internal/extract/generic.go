package extract

import "github.com/jimezsa/ghostcli/internal/models"

// newGeneric handles unknown sites and ends in the page's own title.
func newGeneric() Strategy {
	return &ruleStrategy{
		platform: models.PlatformUnknown,
		title: []Rule{
			JSONLD(PostingTitle),
			Meta("og:title"),
			Text("h1"),
			DocumentTitle(),
		},
		company: []Rule{
			JSONLD(PostingCompany),
			Meta("og:site_name"),
		},
		posted: []Rule{
			JSONLD(PostingPosted),
			Attr("time[datetime]", "datetime"),
		},
	}
}
