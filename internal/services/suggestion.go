package services

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"

	"timeclock_backend/internal/models"
	"timeclock_backend/pkg/utils"
)

// suggestionPattern matches "<slot name> [:=] HH:MM" after accents are stripped and text lowercased.
// Longer names come first so "saida almoco" wins over "saida".
var suggestionPattern = regexp.MustCompile(
	`(saida[ _]?(?:do[ _]?)?almoco|retorno[ _]?(?:do[ _]?)?almoco|lunch[ _]?exit|lunch[ _]?return|entrada|entry|saida|exit)\s*[:=]?\s*([01]?\d|2[0-3])[:h]([0-5]\d)`,
)

var suggestionSlots = map[string]models.Slot{
	"entrada": models.SlotEntry,
	"entry":   models.SlotEntry,
	"saida":   models.SlotExit,
	"exit":    models.SlotExit,
}

func slotForKey(key string) models.Slot {
	compact := strings.NewReplacer(" ", "", "_", "", "do", "").Replace(key)
	switch compact {
	case "saidaalmoco", "lunchexit":
		return models.SlotLunchExit
	case "retornoalmoco", "lunchreturn":
		return models.SlotLunchReturn
	}
	return suggestionSlots[key]
}

func foldText(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	return strings.ToLower(folded)
}

// ParseSuggestion extracts corrected times from free text such as
// "esqueci de bater, entrada 08:00 saída almoço=12:00". The first value per slot wins.
// It returns nil when nothing is recognised.
func ParseSuggestion(text string) *models.Suggestion {
	var s models.Suggestion
	for _, m := range suggestionPattern.FindAllStringSubmatch(foldText(text), -1) {
		field := s.Field(slotForKey(m[1]))
		if *field != nil {
			continue
		}
		hour, _ := strconv.Atoi(m[2])
		value := fmt.Sprintf("%02d:%s", hour, m[3])
		*field = &value
	}
	if s.IsEmpty() {
		return nil
	}
	return &s
}

var clockValuePattern = regexp.MustCompile(`^([01]\d|2[0-3]):[0-5]\d$`)

// validateSuggestion checks that every supplied value is HH:MM. Blank values are dropped.
func validateSuggestion(s *models.Suggestion) error {
	if s == nil {
		return nil
	}
	for _, slot := range models.AllSlots {
		field := s.Field(slot)
		raw := utils.DerefString(*field)
		*field = utils.NewNullString(strings.TrimSpace(raw))
		if *field == nil {
			continue
		}
		if !clockValuePattern.MatchString(**field) {
			return fmt.Errorf("%w: suggested %s %q must be HH:MM", ErrValidation, slot, raw)
		}
	}
	return nil
}
