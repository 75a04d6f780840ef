package services

import (
	"errors"
	"testing"

	"timeclock_backend/internal/models"
)

func strp(s string) *string { return &s }

func deref(p *string) string {
	if p == nil {
		return "<nil>"
	}
	return *p
}

func TestParseSuggestion(t *testing.T) {
	cases := []struct {
		name string
		text string
		want *models.Suggestion
	}{
		{
			name: "portuguese keys with accents",
			text: "Esqueci de bater. Entrada: 08:00, Saída Almoço: 12:00, Retorno Almoço=13:05, Saída 17:30",
			want: &models.Suggestion{Entry: strp("08:00"), LunchExit: strp("12:00"), LunchReturn: strp("13:05"), Exit: strp("17:30")},
		},
		{
			name: "underscore keys",
			text: "saida_almoco=11:45 retorno_almoco=12:45",
			want: &models.Suggestion{LunchExit: strp("11:45"), LunchReturn: strp("12:45")},
		},
		{
			name: "english keys and single digit hour",
			text: "entry 8:10 exit 17h00",
			want: &models.Suggestion{Entry: strp("08:10"), Exit: strp("17:00")},
		},
		{
			name: "first value wins",
			text: "entrada 08:00 ... na verdade entrada 09:00",
			want: &models.Suggestion{Entry: strp("08:00")},
		},
		{
			name: "nothing recognised",
			text: "o sistema caiu durante a tarde",
			want: nil,
		},
		{
			name: "invalid hour ignored",
			text: "entrada 25:00",
			want: nil,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := ParseSuggestion(tc.text)
			if (got == nil) != (tc.want == nil) {
				t.Fatalf("ParseSuggestion() = %+v, want %+v", got, tc.want)
			}
			if got == nil {
				return
			}
			for _, slot := range models.AllSlots {
				g, w := deref(*got.Field(slot)), deref(*tc.want.Field(slot))
				if g != w {
					t.Fatalf("%s = %s, want %s", slot, g, w)
				}
			}
		})
	}
}

func TestValidateSuggestion(t *testing.T) {
	s := &models.Suggestion{Entry: strp(" 08:00 "), Exit: strp("  ")}
	if err := validateSuggestion(s); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if s.Entry == nil || *s.Entry != "08:00" {
		t.Errorf("entry = %v, want trimmed 08:00", s.Entry)
	}
	if s.Exit != nil {
		t.Errorf("blank exit should be dropped, got %q", *s.Exit)
	}
	err := validateSuggestion(&models.Suggestion{Exit: strp("5pm")})
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("err = %v, want ErrValidation", err)
	}
	if err := validateSuggestion(nil); err != nil {
		t.Fatalf("nil suggestion: %v", err)
	}
}
