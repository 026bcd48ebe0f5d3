package extract

import (
	"strings"

	"github.com/jimezsa/ghostcli/internal/models"
)

func newIndeed() Strategy {
	return &ruleStrategy{
		platform: models.PlatformIndeed,
		hosts:    []string{"indeed.com"},
		title: []Rule{
			Text("h1.jobsearch-JobInfoHeader-title"),
			Text("[data-testid='jobsearch-JobInfoHeader-title']"),
			Map(Meta("og:title"), before(" - ")),
			Text("h1"),
		},
		company: []Rule{
			Text("[data-testid='inlineHeader-companyName']"),
			Text("[data-company-name='true']"),
			Text(".jobsearch-CompanyInfoContainer a"),
			Map(Meta("og:description"), indeedCompanyFromDescription),
			JSONLD(PostingCompany),
		},
		posted: []Rule{
			JSONLD(PostingPosted),
			Text("[data-testid='myJobsStateDate']"),
		},
		description: []Rule{
			Description("#jobDescriptionText", ".jobsearch-JobComponent-description"),
		},
	}
}

// indeedCompanyFromDescription reads "Company - Location ..." descriptions.
func indeedCompanyFromDescription(value string) string {
	company, _, ok := strings.Cut(value, " - ")
	if !ok {
		return ""
	}
	return company
}
