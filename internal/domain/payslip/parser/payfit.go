package parser

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip"
)

// Payfit amounts use a comma decimal mark and space thousands: "9 583,33".
const payfitAmount = `(\d[\d\s]*[.,]\d{2})`

func payfitRe(pattern string) *regexp.Regexp {
	return regexp.MustCompile(strings.ReplaceAll(pattern, "{amount}", payfitAmount))
}

var (
	// "Prélèvement à la source (20,00 %)  1 506,02 €"
	payfitWithholding = payfitRe(`Prélèvement à la source\s*\({amount}\s*%\)\s*{amount}\s*€`)

	cumulsStart = regexp.MustCompile(`(?i)Cumuls\s+DEPUIS`)
	cumulsEnd   = regexp.MustCompile(`(?i)Congés disponibles`)
)

// cumulsSection returns the year-to-date block, from "Cumuls depuis" up to
// "Congés disponibles" or the end of text. Without the block the whole text
// is searched.
func cumulsSection(text string) string {
	loc := cumulsStart.FindStringIndex(text)
	if loc == nil {
		return text
	}
	if end := cumulsEnd.FindStringIndex(text[loc[1]:]); end != nil {
		return text[loc[0] : loc[1]+end[0]]
	}
	return text[loc[0]:]
}

func inCumuls(s Strategy) Strategy {
	return Within{Section: cumulsSection, Strategy: s}
}

// Payfit extracts Payfit payslips.
var Payfit Extractor = &layoutExtractor{
	layout: payslip.LayoutPayfit,
	periods: []PeriodPattern{
		// "SALAIRE EN EUROS - Mars 2024"
		{Pattern: regexp.MustCompile(`(?i)EN EUROS\s*-\s*(\p{L}+)\s+(\d{4})`), MonthGroup: 1, YearGroup: 2},
		{Pattern: regexp.MustCompile(`(?i)Période du\s*\d{2}/(\d{2})/(\d{4})`), MonthGroup: 1, YearGroup: 2, NumericMonth: true},
	},
	rules: []FieldRule{
		Rule("base_salary",
			Capture{Pattern: payfitRe(`Salaire de base\s*{amount}`), Group: 1},
		),
		Rule("gross_salary",
			// "Rémunération brute\nDont 500,00 € de primes\n9 136,30 €"
			Capture{Pattern: payfitRe(`Rémunération brute\s*\n(?:Dont[\s\S]*?\n)?{amount}\s*€`), Group: 1},
		),
		Rule("employee_contributions",
			Capture{Pattern: payfitRe(`Cotisations et contributions salariales\s*[-–]\s*{amount}\s*€`), Group: 1},
			Capture{Pattern: payfitRe(`TOTAL COTISATIONS & CONTRIBUTIONS SALARIALES\s*\d?\s*{amount}`), Group: 1},
		),
		Rule("employer_contributions",
			Capture{Pattern: payfitRe(`TOTAL COTISATIONS & CONTRIBUTIONS PATRONALES\s*{amount}`), Group: 1},
		),
		Rule("net_before_tax",
			Capture{Pattern: payfitRe(`salaire avant imp[oô]t\s*{amount}\s*€`), Group: 1},
			Capture{Pattern: payfitRe(`Net à payer avant imp[oô]t(?:\s+sur le revenu)?\s*{amount}`), Group: 1},
		),
		Rule("income_tax",
			Capture{Pattern: payfitWithholding, Group: 2},
			Capture{Pattern: payfitRe(`Impôt sur le revenu prélevé à la source\s*\d?\s*[\d\s.,]+\s+[\d.,]+\s*%\s*{amount}`), Group: 1},
		),
		Rule("income_tax_rate",
			Capture{Pattern: payfitWithholding, Group: 1, Transform: Percent},
			Capture{Pattern: payfitRe(`source\s*\d?\s*[\d\s.,]+\s+{amount}\s*%`), Group: 1, Transform: Percent},
		),
		Rule("net_pay",
			Capture{Pattern: payfitRe(`salaire après imp[oô]t\s*{amount}`), Group: 1},
			Capture{Pattern: payfitRe(`Net payé en euros[\s\S]*?=\s*{amount}`), Group: 1},
		),
		Rule("net_social",
			Capture{Pattern: payfitRe(`[Mm]ontant net social\s*{amount}`), Group: 1},
		),
		Rule("meal_vouchers",
			// "Titres-restaurant 18 9,00 75,60": last amount on the line, thousands grouped by three.
			Capture{Pattern: regexp.MustCompile(`(?m)[Tt]itres[- ]restaurant[^\n]*?\s(\d{1,3}(?:\s\d{3})*[.,]\d{2})\s*€?\s*$`), Group: 1},
			Capture{Pattern: payfitRe(`[Tt]itres[- ]restaurant\s*[\d\s.,]+\s*[\d\s.,]+\s*{amount}`), Group: 1},
		),
		Rule("expense_reimbursement",
			Capture{Pattern: payfitRe(`notes de frais\s*\(\s*{amount}\s*€\)`), Group: 1},
			Capture{Pattern: payfitRe(`Indemnités non soumises\s*\d?\s*{amount}`), Group: 1},
		),
		Rule("other_deductions",
			Capture{Pattern: payfitRe(`Autres retenues[\s\S]*?[-–]\s*{amount}\s*€`), Group: 1},
		),
		Rule("bonus",
			Capture{Pattern: payfitRe(`Dont\s+{amount}\s*€\s*de primes`), Group: 1},
		),

		// "CP N-20,00 jours" "CP N-10,00 jours" "CP N-0,12 jours" "RTT0,68 jours"
		Rule("cp_n2",
			Capture{Pattern: regexp.MustCompile(`CP N-2\s*(\d[\d\s,]*)\s*jours`), Group: 1},
		),
		Rule("cp_n1",
			Capture{Pattern: regexp.MustCompile(`CP N-1\s*(\d[\d\s,]*)\s*jours`), Group: 1},
		),
		Rule("cp_n",
			// A "-1"/"-2" suffix belongs to the older buckets; "CP N-0,12" is a negative balance.
			Capture{Pattern: regexp.MustCompile(`CP N(-[12])?\s*(-?\d[\d\s,]*)\s*jours`), Group: 2, Reject: 1},
		),
		Rule("rtt",
			Capture{Pattern: regexp.MustCompile(`RTT\s*(-?\d[\d\s,]*)\s*jours`), Group: 1},
		),

		Rule("ytd_net_taxable",
			inCumuls(Capture{Pattern: payfitRe(`[Nn]et imposable\s*{amount}`), Group: 1}),
		),
		Rule("ytd_gross",
			inCumuls(Capture{Pattern: payfitRe(`Salaire brut\s*{amount}`), Group: 1}),
		),
		Rule("ytd_income_tax",
			inCumuls(Capture{Pattern: payfitRe(`Prélèvement à la source\s*{amount}`), Group: 1}),
		),
		Rule("ytd_days_worked",
			inCumuls(Capture{Pattern: regexp.MustCompile(`Temps travaillé\s*(\d[\d\s]*)\s*j`), Group: 1}),
		),
	},
	finish: func(rec *payslip.Record) {
		if rec.Bonus != nil && *rec.Bonus <= 0 {
			rec.Bonus = nil
		}
	},
}
