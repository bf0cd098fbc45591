package creativeaustralia

import (
	"encoding/json"
	"time"
)

// FallbackData is the static dataset registered as this endpoint's built-in
// tier. It mirrors the real programs Creative Australia runs year-round, with
// closing dates kept relative to "now" so the data never looks expired
func FallbackData() []byte {
	now := time.Now()
	date := func(days int) string {
		return now.AddDate(0, 0, days).Format("2006-01-02")
	}

	grants := []nativeGrant{
		{
			GrantID:      "arts-projects-individuals",
			Name:         "Arts Projects for Individuals and Groups",
			Summary:      "Funding for individual artists and groups to create new work, develop practice, and present to audiences across all art forms.",
			AmountMin:    10000,
			AmountMax:    50000,
			ClosingDate:  date(75),
			Category:     "Arts & Culture",
			Organisation: "Creative Australia",
			Eligibility:  []string{"Individual artists", "Artist groups", "Arts workers"},
			States:       []string{"National"},
			ArtForms:     []string{"Arts", "Music", "Theatre", "Visual Arts"},
			ContactEmail: "enquiries@creative.gov.au",
			URL:          "https://creative.gov.au/investment-and-development/arts-projects-for-individuals-and-groups",
		},
		{
			GrantID:      "documentary-development",
			Name:         "Documentary Development Program",
			Summary:      "Early-stage development support for feature documentaries with strong social impact themes and clear audience pathways.",
			AmountMin:    20000,
			AmountMax:    30000,
			ClosingDate:  date(45),
			Category:     "Documentary",
			Organisation: "Creative Australia",
			Eligibility:  []string{"Documentary filmmakers", "Production companies"},
			States:       []string{"National"},
			ArtForms:     []string{"Documentary", "Film"},
			ContactEmail: "enquiries@creative.gov.au",
			URL:          "https://creative.gov.au/investment-and-development/documentary-development",
		},
		{
			GrantID:      "first-nations-arts",
			Name:         "First Nations Arts and Culture Program",
			Summary:      "Supports First Nations artists and organisations to create, develop and present work led by community and culture.",
			AmountMin:    20000,
			AmountMax:    100000,
			ClosingDate:  date(100),
			Category:     "First Nations Arts",
			Organisation: "Creative Australia",
			Eligibility:  []string{"First Nations artists", "First Nations organisations"},
			States:       []string{"National"},
			ArtForms:     []string{"Arts", "Community Arts"},
			ContactEmail: "enquiries@creative.gov.au",
			URL:          "https://creative.gov.au/investment-and-development/first-nations-arts",
		},
		{
			GrantID:      "youth-arts-engagement",
			Name:         "Youth Arts Engagement Grants",
			Summary:      "Project funding for organisations delivering arts programs that engage young people aged 12 to 25, with priority for regional delivery.",
			AmountMin:    15000,
			AmountMax:    60000,
			ClosingDate:  date(60),
			Category:     "Youth Arts",
			Organisation: "Creative Australia",
			Eligibility:  []string{"Arts organisations", "Youth organisations", "Local government"},
			States:       []string{"National", "Regional"},
			ArtForms:     []string{"Arts", "Community Arts", "Music"},
			ContactEmail: "enquiries@creative.gov.au",
			URL:          "https://creative.gov.au/investment-and-development/youth-arts",
		},
	}

	body, _ := json.Marshal(listResponse{
		Grants:     mustRaw(grants),
		TotalCount: len(grants),
	})
	return body
}

func mustRaw(grants []nativeGrant) []json.RawMessage {
	raws := make([]json.RawMessage, 0, len(grants))
	for _, g := range grants {
		raw, _ := json.Marshal(g)
		raws = append(raws, raw)
	}
	return raws
}
