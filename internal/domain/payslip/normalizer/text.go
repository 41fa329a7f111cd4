package normalizer

import (
	"fmt"
	"strings"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

// UTF-8 accented letters decoded as Latin-1 by some PDF text layers.
var mojibake = strings.NewReplacer(
	"Ã\u00a0", "à",
	"Ã¢", "â",
	"Ã§", "ç",
	"Ã©", "é",
	"Ã¨", "è",
	"Ãª", "ê",
	"Ã«", "ë",
	"Ã®", "î",
	"Ã´", "ô",
	"Ã»", "û",
	"Ã¹", "ù",
	"Ã‰", "É",
	"Ãˆ", "È",
	"Ã€", "À",
)

var spaces = strings.NewReplacer(
	"\r\n", "\n",
	"\r", "\n",
	"\u00a0", " ",
	"\u2007", " ",
	"\u2009", " ",
	"\u202f", " ",
)

// CleanText repairs mis-decoded accents and folds exotic spaces to ASCII so
// that RE2's ASCII-only \s matches every separator the PDF layer emits.
func CleanText(text string) string {
	return spaces.Replace(mojibake.Replace(text))
}

var monthNames = []struct {
	name  string
	month int
}{
	{"janvier", 1}, {"fevrier", 2}, {"mars", 3}, {"avril", 4},
	{"mai", 5}, {"juin", 6}, {"juillet", 7}, {"aout", 8},
	{"septembre", 9}, {"octobre", 10}, {"novembre", 11}, {"decembre", 12},
	{"january", 1}, {"february", 2}, {"march", 3}, {"april", 4},
	{"may", 5}, {"june", 6}, {"july", 7}, {"august", 8},
	{"september", 9}, {"october", 10}, {"november", 11}, {"december", 12},
}

// MonthNumber resolves a month name, ignoring case and accents
// ("Février", "FEVRIER", "août"). Only exact names match.
func MonthNumber(name string) (int, bool) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return 0, false
	}
	for _, m := range monthNames {
		if fuzzy.RankMatchNormalizedFold(m.name, name) == 0 {
			return m.month, true
		}
	}
	return 0, false
}

// Period formats a YYYY-MM key. It returns "" for out-of-range input.
func Period(year, month int) string {
	if year < 1000 || year > 9999 || month < 1 || month > 12 {
		return ""
	}
	return fmt.Sprintf("%04d-%02d", year, month)
}
