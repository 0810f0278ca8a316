package usecase

import (
	"strings"
	"time"

	"alcance-reducido-backend/internal/model"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

var fechaLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// parseFecha acepta RFC3339 o YYYY-MM-DD.
func parseFecha(s string) (time.Time, bool) {
	s = strings.TrimSpace(s)
	for _, layout := range fechaLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, true
		}
	}
	return time.Time{}, false
}

func trimSpace(s string) string {
	return strings.TrimSpace(s)
}

// text devuelve el valor recortado del campo, o "" si llegó null o no llegó.
func text(o model.Optional[model.FlexString]) string {
	if !o.Present() {
		return ""
	}
	return o.Value.Trimmed()
}

func list(o model.Optional[model.StringList]) []string {
	if !o.Present() || o.Value == nil {
		return []string{}
	}
	return []string(o.Value)
}

// newCollator ordena como lo haría un lector en español: sin distinguir mayúsculas ni tildes.
// Un Collator no es seguro entre goroutines, por eso se crea uno por llamada.
func newCollator() *collate.Collator {
	return collate.New(language.Spanish, collate.IgnoreCase, collate.IgnoreDiacritics)
}
