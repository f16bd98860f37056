package intents

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// DefaultRoomTypeAliases maps free-text mentions (Portuguese and
// English) onto room type identifiers, overridable per property. No
// raw text is retained anywhere downstream of parsing; aliasing
// happens entirely in memory during this call.
var DefaultRoomTypeAliases = map[string]string{
	"casal":    "rt_casal",
	"duplo":    "rt_casal",
	"double":   "rt_casal",
	"suite":    "rt_suite",
	"suíte":    "rt_suite",
	"familia":  "rt_familia",
	"família":  "rt_familia",
	"family":   "rt_familia",
	"single":   "rt_single",
	"solteiro": "rt_single",
	"simples":  "rt_single",
	"triplo":   "rt_triplo",
	"triple":   "rt_triplo",
	"luxo":     "rt_luxo",
	"luxury":   "rt_luxo",
	"standard": "rt_standard",
	"padrão":   "rt_standard",
	"padrao":   "rt_standard",
}

var (
	dateParts     = `(\d{1,2})[/\-](\d{1,2})(?:[/\-](\d{4}))?`
	dateRangeRe   = regexp.MustCompile(dateParts + `\s*(?:a|até|ate|-)\s*` + dateParts)
	singleDatesRe = regexp.MustCompile(dateParts)
	guestCountRe  = []*regexp.Regexp{
		regexp.MustCompile(`(\d+)\s*(?:hóspedes?|hospedes?|pessoas?|pax|adultos?)`),
		regexp.MustCompile(`para\s+(\d+)\s*(?:pessoas?|hóspedes?|hospedes?|pax|adultos?)?`),
	}
	adultCountRe = []*regexp.Regexp{
		regexp.MustCompile(`(\d+)\s*(?:adultos?|adts?)`),
		regexp.MustCompile(`para\s+(\d+)\s*(?:adultos?|adts?)`),
	}
	childCountRe = []*regexp.Regexp{
		regexp.MustCompile(`(\d+)\s*(?:crianças?|criancas?|kids?|chd)`),
	}
	childrenAgesRe   = regexp.MustCompile(`(?i)(?:crianças?|criancas?|kids?|chd)\s*(?:de\s+)?(\d{1,2}(?:\s*(?:e|,|\s)\s*\d{1,2})*)\s*(?:anos?)?`)
	standaloneAgesRe = regexp.MustCompile(`(?i)^(\d{1,2}(?:\s*(?:e|,)\s*\d{1,2})+)\s*(?:anos?)?$`)
	agesSepRe        = regexp.MustCompile(`\s*[e,]\s*`)
)

// ParseIntent deterministically extracts booking entities from a raw
// message. text is never logged or persisted; only the returned,
// already-structured ParsedIntent crosses into the rest of the system.
func ParseIntent(text string, aliases map[string]string, referenceDate time.Time) ParsedIntent {
	if aliases == nil {
		aliases = DefaultRoomTypeAliases
	}
	lower := strings.ToLower(text)

	checkin, checkout := extractDates(lower, referenceDate.Year())
	guestCount := extractFirstInt(guestCountRe, lower, 1, 20)
	roomType := extractRoomType(lower, aliases)

	if checkin != nil && checkout != nil && !checkin.Before(*checkout) {
		checkin, checkout = nil, nil
	}

	adultCount := extractFirstInt(adultCountRe, lower, 1, 20)
	childCount, childrenAges := extractChildren(lower)

	if adultCount == nil && guestCount != nil && childCount == nil {
		adultCount = guestCount
	}

	if childCount != nil && childrenAges != nil && len(childrenAges) != *childCount {
		childrenAges = nil
	}

	p := ParsedIntent{
		Checkin:      checkin,
		Checkout:     checkout,
		RoomTypeID:   roomType,
		AdultCount:   adultCount,
		ChildrenAges: childrenAges,
	}

	var missing []string
	if p.Checkin == nil {
		missing = append(missing, "checkin")
	}
	if p.Checkout == nil {
		missing = append(missing, "checkout")
	}
	if p.RoomTypeID == nil {
		missing = append(missing, "room_type")
	}
	if p.AdultCount == nil {
		missing = append(missing, "adult_count")
	}
	if childCount != nil && *childCount > 0 && childrenAges == nil {
		missing = append(missing, "children_ages")
	}
	p.Missing = missing
	return p
}

func parseDate(day, month, year string, referenceYear int) *time.Time {
	d, err1 := strconv.Atoi(day)
	m, err2 := strconv.Atoi(month)
	if err1 != nil || err2 != nil || d < 1 || d > 31 || m < 1 || m > 12 {
		return nil
	}
	y := referenceYear
	if year != "" {
		if parsedYear, err := strconv.Atoi(year); err == nil {
			y = parsedYear
		}
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	return &t
}

func extractDates(lower string, referenceYear int) (*time.Time, *time.Time) {
	if m := dateRangeRe.FindStringSubmatch(lower); m != nil {
		checkin := parseDate(m[1], m[2], m[3], referenceYear)
		checkout := parseDate(m[4], m[5], m[6], referenceYear)
		if checkin != nil && checkout != nil {
			return checkin, checkout
		}
	}

	matches := singleDatesRe.FindAllStringSubmatch(lower, -1)
	if len(matches) >= 2 {
		checkin := parseDate(matches[0][1], matches[0][2], matches[0][3], referenceYear)
		checkout := parseDate(matches[1][1], matches[1][2], matches[1][3], referenceYear)
		return checkin, checkout
	}
	if len(matches) == 1 {
		checkin := parseDate(matches[0][1], matches[0][2], matches[0][3], referenceYear)
		return checkin, nil
	}
	return nil, nil
}

func extractFirstInt(patterns []*regexp.Regexp, lower string, min, max int) *int {
	for _, re := range patterns {
		if m := re.FindStringSubmatch(lower); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n >= min && n <= max {
				return &n
			}
		}
	}
	return nil
}

func extractRoomType(lower string, aliases map[string]string) *string {
	keys := make([]string, 0, len(aliases))
	for k := range aliases {
		keys = append(keys, k)
	}
	// Longest alias first avoids "casal" matching inside a longer word.
	for i := 0; i < len(keys); i++ {
		for j := i + 1; j < len(keys); j++ {
			if len(keys[j]) > len(keys[i]) {
				keys[i], keys[j] = keys[j], keys[i]
			}
		}
	}
	for _, alias := range keys {
		pattern := regexp.MustCompile(`\b` + regexp.QuoteMeta(alias) + `\b`)
		if pattern.MatchString(lower) {
			id := aliases[alias]
			return &id
		}
	}
	return nil
}

func parseAgeList(agesStr string) []int {
	normalized := agesSepRe.ReplaceAllString(strings.TrimSpace(agesStr), " ")
	parts := strings.Fields(normalized)
	ages := make([]int, 0, len(parts))
	for _, part := range parts {
		age, err := strconv.Atoi(part)
		if err != nil || age < 0 || age > 17 {
			return nil
		}
		ages = append(ages, age)
	}
	if len(ages) == 0 {
		return nil
	}
	return ages
}

func extractChildren(lower string) (*int, []int) {
	if m := childrenAgesRe.FindStringSubmatch(lower); m != nil {
		if ages := parseAgeList(m[1]); ages != nil {
			count := len(ages)
			return &count, ages
		}
	}

	trimmed := strings.TrimSpace(lower)
	if m := standaloneAgesRe.FindStringSubmatch(trimmed); m != nil {
		if ages := parseAgeList(m[1]); ages != nil {
			count := len(ages)
			return &count, ages
		}
	}

	for _, re := range childCountRe {
		if m := re.FindStringSubmatch(lower); m != nil {
			if n, err := strconv.Atoi(m[1]); err == nil && n >= 1 && n <= 10 {
				return &n, nil
			}
		}
	}

	return nil, nil
}
