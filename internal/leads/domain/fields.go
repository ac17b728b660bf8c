package domain

import (
	"sort"
	"strings"
)

// Field label patterns (Italian + English). Keys are compared after normalizeKey.
var (
	emailKeys     = []string{"email", "e-mail", "mail", "email_address", "indirizzo_email"}
	fullNameKeys  = []string{"name", "nome_completo", "full_name", "your_name", "nominativo", "nome"}
	firstNameKeys = []string{"first_name", "given_name"}
	lastNameKeys  = []string{"last_name", "cognome", "surname", "family_name"}
	phoneKeys     = []string{"phone", "telefono", "tel", "phone_number", "numero_telefono", "cellulare", "mobile", "whatsapp"}
	companyKeys   = []string{"company", "azienda", "company_name", "societa", "ragione_sociale", "nome_azienda", "business"}

	// ChallengeKeys name the free-text field describing the lead's main problem.
	ChallengeKeys = []string{"principale_sfida", "main_challenge", "challenge", "pain_point", "sfida"}
)

// ruleFieldKeys lists, per rule type, the combined-data keys a rule reads. First present key wins.
var ruleFieldKeys = map[RuleType][]string{
	RuleTypeResponseTime:  {"response_time_seconds", "response_time", "tempo_risposta"},
	RuleTypeMessageLength: {"principale_sfida", "main_challenge", "challenge", "message", "messaggio"},
	RuleTypeSource:        {"source", "sorgente", "utm_source"},
	RuleTypeTone:          {"tone", "tono", "sentiment"},
}

// FieldKeys returns the candidate keys for a rule type.
func FieldKeys(t RuleType) []string {
	return ruleFieldKeys[t]
}

var keyReplacer = strings.NewReplacer("-", "", "_", "", " ", "", ".", "")

func normalizeKey(key string) string {
	return keyReplacer.Replace(strings.ToLower(strings.TrimSpace(key)))
}

// FieldIndex maps normalized keys to the original keys of a data map.
// When two keys normalize to the same value the lexically smallest original wins.
type FieldIndex struct {
	data map[string]any
	keys map[string]string
}

func IndexFields(data map[string]any) FieldIndex {
	originals := make([]string, 0, len(data))
	for k := range data {
		originals = append(originals, k)
	}
	sort.Strings(originals)

	idx := FieldIndex{data: data, keys: make(map[string]string, len(data))}
	for _, k := range originals {
		n := normalizeKey(k)
		if _, taken := idx.keys[n]; !taken {
			idx.keys[n] = k
		}
	}
	return idx
}

// Lookup returns the value of the first candidate key present with a non-empty value.
func (idx FieldIndex) Lookup(candidates []string) (any, bool) {
	for _, c := range candidates {
		original, ok := idx.keys[normalizeKey(c)]
		if !ok {
			continue
		}
		v := idx.data[original]
		if v == nil {
			continue
		}
		if s, isString := v.(string); isString && strings.TrimSpace(s) == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

// Text is Lookup rendered as trimmed text.
func (idx FieldIndex) Text(candidates []string) string {
	v, ok := idx.Lookup(candidates)
	if !ok {
		return ""
	}
	s, _ := TextValue(v)
	return strings.TrimSpace(s)
}

// LookupField resolves the first present candidate key in data, matching keys
// case-insensitively and ignoring separators.
func LookupField(data map[string]any, candidates []string) (any, bool) {
	return IndexFields(data).Lookup(candidates)
}

// LookupText is LookupField for text values.
func LookupText(data map[string]any, candidates []string) string {
	return IndexFields(data).Text(candidates)
}
