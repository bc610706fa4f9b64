// Package translate renders user-visible messages for the host locale.
package translate

import (
	"github.com/jeandeaual/go-locale"
	"github.com/sirupsen/logrus"
	"golang.org/x/text/message"
)

var printer *message.Printer

func init() {
	locales, err := locale.GetLocales()
	if err != nil {
		logrus.WithError(err).Warn("cannot determine locale")
	}

	if len(locales) == 0 {
		locales = []string{"en-US"}
	}

	printer = message.NewPrinter(message.MatchLanguage(locales...))
}

// From an en-US Sprintf() format, translate to string.
//
// Decimal verbs are grouped per locale, so machine-readable output such as
// disassembly must not be produced through here.
func From(key message.Reference, args ...any) string {
	return printer.Sprintf(key, args...)
}
