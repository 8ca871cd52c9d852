package textanalysis

import (
	"regexp"
	"strings"
)

// NumericValue is a number with its attached unit as written in the text.
type NumericValue struct {
	Number    string
	Unit      string // "none" when the number carried no unit
	FullMatch string
}

var numericPattern = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*(mg|ml|mcg|units|mmhg|bpm|°f|°c|degrees|/min|%|lbs|kg|g)?`)

// ExtractNumericValues pulls every number (with optional unit) out of the
// text.
func ExtractNumericValues(text string) []NumericValue {
	lower := strings.ToLower(text)
	var out []NumericValue
	for _, m := range numericPattern.FindAllStringSubmatch(lower, -1) {
		unit := m[2]
		full := m[1]
		if unit == "" {
			unit = "none"
		} else {
			full = m[1] + unit
		}
		out = append(out, NumericValue{Number: m[1], Unit: unit, FullMatch: full})
	}
	return out
}

var bloodPressurePattern = regexp.MustCompile(`(\d{2,3}/\d{2,3})\s*(?:mmhg)?`)

// ExtractBloodPressure returns blood pressure readings like "120/80".
func ExtractBloodPressure(text string) []string {
	lower := strings.ToLower(text)
	var out []string
	for _, m := range bloodPressurePattern.FindAllStringSubmatch(lower, -1) {
		out = append(out, m[1])
	}
	return out
}

var negationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(no|denies|negative|absent|without|never|not)\b`),
	regexp.MustCompile(`\b(no evidence of|no signs of|no history of)\b`),
}

var affirmationPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\b(positive|present|has|reports|admits|confirms|yes)\b`),
	regexp.MustCompile(`\b(evidence of|signs of|history of)\b`),
}

// HasNegation reports whether the text denies or negates a finding.
func HasNegation(text string) bool {
	lower := strings.ToLower(text)
	for _, re := range negationPatterns {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

// HasAffirmation reports whether the text asserts a finding's presence.
func HasAffirmation(text string) bool {
	lower := strings.ToLower(text)
	for _, re := range affirmationPatterns {
		if re.MatchString(lower) {
			return true
		}
	}
	return false
}

// Temporal bucket names.
const (
	TemporalMorning   = "morning"
	TemporalAfternoon = "afternoon"
	TemporalEvening   = "evening"
	TemporalDaily     = "daily"
	TemporalWeekly    = "weekly"
	TemporalMonthly   = "monthly"
	TemporalHourly    = "hourly"
	TemporalBID       = "bid"
	TemporalTID       = "tid"
	TemporalQID       = "qid"
)

var temporalPatterns = map[string]*regexp.Regexp{
	TemporalMorning:   regexp.MustCompile(`\b(morning|am|a\.?m\.?)\b`),
	TemporalAfternoon: regexp.MustCompile(`\b(afternoon|pm|p\.?m\.?)\b`),
	TemporalEvening:   regexp.MustCompile(`\b(evening|night)\b`),
	TemporalDaily:     regexp.MustCompile(`\b(daily|once daily|per day|qd)\b`),
	TemporalWeekly:    regexp.MustCompile(`\b(weekly|once weekly|per week)\b`),
	TemporalMonthly:   regexp.MustCompile(`\b(monthly|once monthly|per month)\b`),
	TemporalHourly:    regexp.MustCompile(`\b(hourly|every hour|per hour)\b`),
	TemporalBID:       regexp.MustCompile(`\b(twice daily|bid|b\.i\.d\.)\b`),
	TemporalTID:       regexp.MustCompile(`\b(three times daily|tid|t\.i\.d\.)\b`),
	TemporalQID:       regexp.MustCompile(`\b(four times daily|qid|q\.i\.d\.)\b`),
}

// ExtractTemporalIndicators returns the set of temporal buckets mentioned
// in the text.
func ExtractTemporalIndicators(text string) map[string]bool {
	lower := strings.ToLower(text)
	out := make(map[string]bool)
	for bucket, re := range temporalPatterns {
		if re.MatchString(lower) {
			out[bucket] = true
		}
	}
	return out
}

// temporalConflicts lists mutually exclusive bucket pairings: if one
// statement hits the left set and the other the right set (or vice
// versa), their timing conflicts.
var temporalConflicts = []struct {
	a, b []string
}{
	{[]string{TemporalMorning}, []string{TemporalAfternoon, TemporalEvening}},
	{[]string{TemporalDaily}, []string{TemporalWeekly, TemporalMonthly}},
	{[]string{TemporalHourly}, []string{TemporalDaily, TemporalWeekly}},
	{[]string{TemporalBID}, []string{TemporalDaily, TemporalTID, TemporalQID}},
	{[]string{TemporalTID}, []string{TemporalDaily, TemporalBID, TemporalQID}},
	{[]string{TemporalQID}, []string{TemporalDaily, TemporalBID, TemporalTID}},
}

func intersects(set map[string]bool, keys []string) bool {
	for _, k := range keys {
		if set[k] {
			return true
		}
	}
	return false
}

// HasTemporalConflict reports whether two temporal indicator sets fall
// into mutually exclusive buckets.
func HasTemporalConflict(set1, set2 map[string]bool) bool {
	for _, c := range temporalConflicts {
		if (intersects(set1, c.a) && intersects(set2, c.b)) ||
			(intersects(set1, c.b) && intersects(set2, c.a)) {
			return true
		}
	}
	return false
}
