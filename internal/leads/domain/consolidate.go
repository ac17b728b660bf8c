package domain

import (
	"errors"
	"regexp"
	"sort"
	"strings"

	"funnel_backend/platform/phone"
	"funnel_backend/platform/sanitize"
)

// ErrMissingIdentity is returned when no e-mail address can be resolved from a session.
var ErrMissingIdentity = errors.New("missing identity: no email address resolvable from submissions")

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

// IsValidEmail reports whether s looks like a deliverable address.
func IsValidEmail(s string) bool {
	return emailRegex.MatchString(strings.TrimSpace(s))
}

// Consolidate merges the submissions of one (funnel, session) into a profile.
// Submissions are merged in CreatedAt order; later keys overwrite earlier ones.
// The returned profile carries no ID or owner; the caller scopes it.
func Consolidate(submissions []StepSubmission, phoneRegion string) (LeadProfile, error) {
	if len(submissions) == 0 {
		return LeadProfile{}, ErrMissingIdentity
	}

	ordered := make([]StepSubmission, len(submissions))
	copy(ordered, submissions)
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].CreatedAt.Before(ordered[j].CreatedAt)
	})

	combined := newFieldMerger(0)
	var fallbackEmail, fallbackName string
	for _, s := range ordered {
		combined.merge(s.SubmissionData)
		if s.UserEmail != nil && strings.TrimSpace(*s.UserEmail) != "" {
			fallbackEmail = *s.UserEmail
		}
		if s.UserName != nil && strings.TrimSpace(*s.UserName) != "" {
			fallbackName = *s.UserName
		}
	}

	idx := IndexFields(combined.data)

	email := idx.Text(emailKeys)
	if !IsValidEmail(email) {
		email = strings.TrimSpace(fallbackEmail)
	}
	if !IsValidEmail(email) {
		return LeadProfile{}, ErrMissingIdentity
	}

	first := ordered[0]
	profile := LeadProfile{
		Email:          strings.ToLower(email),
		Name:           sanitize.Text(resolveName(idx, fallbackName)),
		Company:        sanitize.Text(idx.Text(companyKeys)),
		SourceFunnelID: first.FunnelID,
		SessionID:      first.SessionID,
		CombinedData:   combined.data,
	}
	if raw := idx.Text(phoneKeys); raw != "" {
		profile.Phone = phone.NormalizeE164In(sanitize.Text(raw), phoneRegion)
	}
	return profile, nil
}

func resolveName(idx FieldIndex, fallback string) string {
	if full := idx.Text(fullNameKeys); full != "" {
		if last := idx.Text(lastNameKeys); last != "" && !strings.Contains(full, last) {
			return full + " " + last
		}
		return full
	}
	firstName := idx.Text(firstNameKeys)
	lastName := idx.Text(lastNameKeys)
	if name := strings.TrimSpace(firstName + " " + lastName); name != "" {
		return name
	}
	return strings.TrimSpace(fallback)
}

// MergeInto returns an updated copy of existing with the identity and data of next.
// Fields next leaves empty keep their existing values.
func MergeInto(existing, next LeadProfile) LeadProfile {
	merged := existing
	merged.Email = next.Email
	if next.Name != "" {
		merged.Name = next.Name
	}
	if next.Phone != "" {
		merged.Phone = next.Phone
	}
	if next.Company != "" {
		merged.Company = next.Company
	}
	merged.SourceFunnelID = next.SourceFunnelID
	merged.SessionID = next.SessionID

	combined := newFieldMerger(len(existing.CombinedData) + len(next.CombinedData))
	combined.merge(existing.CombinedData)
	combined.merge(next.CombinedData)
	merged.CombinedData = combined.data
	return merged
}

// fieldMerger overlays data maps so that keys differing only in case or
// separators collapse into one entry holding the latest key and value.
type fieldMerger struct {
	data  map[string]any
	names map[string]string // normalized key -> key stored in data
}

func newFieldMerger(size int) fieldMerger {
	return fieldMerger{data: make(map[string]any, size), names: make(map[string]string, size)}
}

func (fm fieldMerger) merge(src map[string]any) {
	keys := make([]string, 0, len(src))
	for k := range src {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		n := normalizeKey(k)
		if prev, ok := fm.names[n]; ok && prev != k {
			delete(fm.data, prev)
		}
		fm.names[n] = k
		fm.data[k] = src[k]
	}
}
