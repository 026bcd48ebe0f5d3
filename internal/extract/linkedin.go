package extract

import (
	"strings"

	"github.com/jimezsa/ghostcli/internal/models"
)

func newLinkedIn() Strategy {
	return &ruleStrategy{
		platform: models.PlatformLinkedIn,
		hosts:    []string{"linkedin.com"},
		title: []Rule{
			Text(".job-details-jobs-unified-top-card__job-title"),
			Text(".top-card-layout__title"),
			Text(".topcard__title"),
			Map(Meta("og:title"), func(v string) string { return linkedInOGTitle(v).title }),
			Text("h1"),
		},
		company: []Rule{
			Text(".job-details-jobs-unified-top-card__company-name"),
			Text(".topcard__org-name-link"),
			Text(".top-card-layout__second-subline a"),
			Map(Meta("og:title"), func(v string) string { return linkedInOGTitle(v).company }),
			Map(Meta("og:description"), linkedInCompanyFromDescription),
			JSONLD(PostingCompany),
		},
		posted: []Rule{
			JSONLD(PostingPosted),
			Text(".posted-time-ago__text"),
			Text(".job-details-jobs-unified-top-card__primary-description-container span.tvm__text"),
		},
		description: []Rule{
			Description(
				".jobs-description-content__text",
				".description__text",
				".show-more-less-html__markup",
				"article.jobs-description__container",
			),
		},
	}
}

type ogParts struct {
	title   string
	company string
}

// linkedInOGTitle splits the og:title formats LinkedIn serves:
// "Company hiring Title in Location | LinkedIn", "Title - Company | LinkedIn"
// and "Title | LinkedIn".
func linkedInOGTitle(value string) ogParts {
	clean := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(value), "| LinkedIn"))

	if company, job, ok := strings.Cut(clean, " hiring "); ok {
		if idx := strings.LastIndex(job, " in "); idx >= 0 {
			job = job[:idx]
		}
		return ogParts{title: strings.TrimSpace(job), company: strings.TrimSpace(company)}
	}
	if title, company, ok := strings.Cut(clean, " - "); ok {
		return ogParts{title: strings.TrimSpace(title), company: strings.TrimSpace(company)}
	}
	return ogParts{title: clean}
}

func linkedInCompanyFromDescription(value string) string {
	lower := strings.ToLower(value)
	for _, marker := range []string{" is hiring", " posted"} {
		if idx := strings.Index(lower, marker); idx > 0 {
			return value[:idx]
		}
	}
	return ""
}
