package pipeline

import (
	"fmt"
	"strings"

	"github.com/ZackHiRo/revops-lead-router/internal/domain"
)

var requiredFields = []string{"email", "company", "full_name"}

// Capture normalizes the raw payload into the lead's canonical fields and
// assigns the lead id. It is a pure function of the raw payload: the same
// input always produces the same normalized record, so retries can re-run
// it safely. Missing fields are recorded, never fatal.
func Capture(lead *domain.LeadRecord) {
	raw := lead.Raw

	email := strings.ToLower(strings.TrimSpace(rawString(raw, "email")))
	if email == "" {
		// Some form providers nest the address under properties.email.value.
		if props, ok := raw["properties"].(map[string]any); ok {
			if emailProp, ok := props["email"].(map[string]any); ok {
				email = strings.ToLower(strings.TrimSpace(stringOf(emailProp["value"])))
			}
		}
	}

	company := rawString(raw, "company")
	if company == "" {
		company = rawString(raw, "company_name")
	}

	site := rawString(raw, "website")
	if site == "" {
		site = rawString(raw, "domain")
	}
	domainName := strings.TrimPrefix(strings.TrimPrefix(site, "https://"), "http://")
	if idx := strings.Index(domainName, "/"); idx >= 0 {
		domainName = domainName[:idx]
	}

	fullName := rawString(raw, "full_name")
	if fullName == "" {
		fullName = strings.TrimSpace(rawString(raw, "first_name") + " " + rawString(raw, "last_name"))
	}

	lead.Normalized = map[string]any{
		"email":     email,
		"company":   company,
		"domain":    domainName,
		"full_name": fullName,
		"country":   rawString(raw, "country"),
		"title":     rawString(raw, "title"),
		"source":    rawString(raw, "source"),
	}

	var missing []string
	for _, field := range requiredFields {
		if lead.NormalizedString(field) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		lead.AppendError(fmt.Sprintf("missing required fields: %s", strings.Join(missing, ", ")))
	}

	if lead.LeadID == "" {
		lead.LeadID = LeadIdentity(raw, email)
	}
}

// LeadIdentity derives the stable lead id: the external event id when
// present, otherwise the normalized email. The same key feeds the
// idempotency guard.
func LeadIdentity(raw map[string]any, normalizedEmail string) string {
	if id := rawString(raw, "event_id"); id != "" {
		return id
	}
	if id := rawString(raw, "id"); id != "" {
		return id
	}
	return normalizedEmail
}

func rawString(raw map[string]any, key string) string {
	return stringOf(raw[key])
}

func stringOf(v any) string {
	s, _ := v.(string)
	return strings.TrimSpace(s)
}
