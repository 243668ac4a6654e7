// Package zodiac resolves a raw profile into canonical categorical
// segments: sun sign, element, modality, plus calendar and role axes.
package zodiac

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pulsedeck/pulsedeck/server/internal/model"
)

// Sign is one of the twelve tropical zodiac signs, lowercase.
type Sign string

const (
	Aries       Sign = "aries"
	Taurus      Sign = "taurus"
	Gemini      Sign = "gemini"
	Cancer      Sign = "cancer"
	Leo         Sign = "leo"
	Virgo       Sign = "virgo"
	Libra       Sign = "libra"
	Scorpio     Sign = "scorpio"
	Sagittarius Sign = "sagittarius"
	Capricorn   Sign = "capricorn"
	Aquarius    Sign = "aquarius"
	Pisces      Sign = "pisces"
)

// signRange maps a sign to its start (month, day). Ranges run from the
// start date up to the day before the next sign's start. Standard
// tropical boundaries.
type signRange struct {
	sign       Sign
	month, day int
}

// Ordered by calendar start date within the year.
var signRanges = []signRange{
	{Capricorn, 1, 1}, // continues from Dec 22
	{Aquarius, 1, 20},
	{Pisces, 2, 19},
	{Aries, 3, 21},
	{Taurus, 4, 20},
	{Gemini, 5, 21},
	{Cancer, 6, 21},
	{Leo, 7, 23},
	{Virgo, 8, 23},
	{Libra, 9, 23},
	{Scorpio, 10, 23},
	{Sagittarius, 11, 22},
	{Capricorn, 12, 22},
}

var elements = map[Sign]string{
	Aries: "fire", Leo: "fire", Sagittarius: "fire",
	Taurus: "earth", Virgo: "earth", Capricorn: "earth",
	Gemini: "air", Libra: "air", Aquarius: "air",
	Cancer: "water", Scorpio: "water", Pisces: "water",
}

var modalities = map[Sign]string{
	Aries: "cardinal", Cancer: "cardinal", Libra: "cardinal", Capricorn: "cardinal",
	Taurus: "fixed", Leo: "fixed", Scorpio: "fixed", Aquarius: "fixed",
	Gemini: "mutable", Virgo: "mutable", Sagittarius: "mutable", Pisces: "mutable",
}

var daysInMonth = [13]int{0, 31, 29, 31, 30, 31, 30, 31, 31, 30, 31, 30, 31}

// Element returns the sign's classical element.
func (s Sign) Element() string { return elements[s] }

// Modality returns the sign's modality (cardinal, fixed, mutable).
func (s Sign) Modality() string { return modalities[s] }

func (s Sign) String() string { return string(s) }

// ResolveSign maps a "MM/DD" birthday to its sun sign.
func ResolveSign(birthday string) (Sign, error) {
	parts := strings.Split(strings.TrimSpace(birthday), "/")
	if len(parts) != 2 {
		return "", fmt.Errorf("birthday %q is not MM/DD: %w", birthday, model.ErrInvalidDate)
	}
	month, err := strconv.Atoi(parts[0])
	if err != nil {
		return "", fmt.Errorf("birthday month %q: %w", parts[0], model.ErrInvalidDate)
	}
	day, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", fmt.Errorf("birthday day %q: %w", parts[1], model.ErrInvalidDate)
	}
	if month < 1 || month > 12 || day < 1 || day > daysInMonth[month] {
		return "", fmt.Errorf("birthday %02d/%02d out of range: %w", month, day, model.ErrInvalidDate)
	}

	sign := signRanges[0].sign
	for _, r := range signRanges {
		if month > r.month || (month == r.month && day >= r.day) {
			sign = r.sign
		}
	}
	return sign, nil
}

// SeasonFor maps a month to its northern-hemisphere season.
func SeasonFor(t time.Time) string {
	switch t.Month() {
	case time.December, time.January, time.February:
		return "winter"
	case time.March, time.April, time.May:
		return "spring"
	case time.June, time.July, time.August:
		return "summer"
	default:
		return "autumn"
	}
}

// seniority tokens checked in order; first hit wins.
var roleLevels = []struct{ token, level string }{
	{"chief", "executive"},
	{"vp", "executive"},
	{"head", "director"},
	{"director", "director"},
	{"principal", "senior"},
	{"staff", "senior"},
	{"senior", "senior"},
	{"lead", "lead"},
}

// RoleLevelFor infers a seniority band from a free-form role string.
// Unmatched input resolves to "none", never an error.
func RoleLevelFor(role string) string {
	r := strings.ToLower(role)
	for _, rl := range roleLevels {
		if strings.Contains(r, rl.token) {
			return rl.level
		}
	}
	return "none"
}

// Resolve expands a profile into its full ordered segment list.
// Weekday and season come from now (the generation day), not the
// birthday. Order is fixed for deterministic rule iteration in logs.
func Resolve(p *model.Profile, now time.Time) ([]model.Segment, error) {
	sign, err := ResolveSign(p.Birthday)
	if err != nil {
		return nil, err
	}

	segs := []model.Segment{
		{Type: model.SegmentSign, Value: sign.String()},
		{Type: model.SegmentElement, Value: sign.Element()},
		{Type: model.SegmentModality, Value: sign.Modality()},
		{Type: model.SegmentWeekday, Value: strings.ToLower(now.Weekday().String())},
		{Type: model.SegmentSeason, Value: SeasonFor(now)},
	}
	if d := strings.TrimSpace(p.Discipline); d != "" {
		segs = append(segs, model.Segment{Type: model.SegmentDiscipline, Value: strings.ToLower(d)})
	}
	segs = append(segs, model.Segment{Type: model.SegmentRoleLevel, Value: RoleLevelFor(p.Role)})
	return segs, nil
}
