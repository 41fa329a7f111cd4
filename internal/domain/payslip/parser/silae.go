package parser

import (
	"regexp"
	"strings"

	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip"
	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip/normalizer"
)

// Silae amounts use a period decimal mark and are often glued to their label
// and to each other: "Total des cotisations et contributions2 127.424 432.26".
// Every amount ends with exactly two decimals, so the digit right after them
// starts the next amount.
const silaeAmount = `(\d[\d\s]*\.\d{2})`

func silaeRe(pattern string) *regexp.Regexp {
	return regexp.MustCompile(strings.ReplaceAll(pattern, "{amount}", silaeAmount))
}

var (
	silaeContributions = silaeRe(`Total des cotisations et contributions\s*{amount}{amount}`)

	// "PAS8 138.98- 17.20001 399.90": base, rate with four decimals, amount.
	silaeWithholding = silaeRe(`Impôt sur le revenu prélevé à la source\s*-\s*PAS\s*{amount}\s*-\s*(\d[\d\s]*\.\d{4})\s*{amount}`)
)

// SilaeSummary locates the year-to-date table and leave counters printed as
// a bare column of numbers between the first "Net payé" line and the final
// "Net payé :" line.
//
//	token  0..15  summary table, two rows of eight (month, year)
//	token  1      days worked, year to date
//	token  3      gross, year to date
//	token  7      taxable net, year to date
//	token 16..    leave groups N-1, N, RTT as (accrued, used, [balance])
var SilaeSummary = TokenWindow{
	Start:         "Net payé",
	End:           "Net payé :",
	SkipFirstLine: true,
	Token:         regexp.MustCompile(`-?\s*\d[\d\s]*\.\d{1,4}`),
	Offsets: map[int]string{
		1: "ytd_days_worked",
		3: "ytd_gross",
		7: "ytd_net_taxable",
	},
	MinTokens:   16,
	LeaveStart:  16,
	LeaveFields: []string{"cp_n1", "cp_n", "rtt"},
}

// Silae extracts Silae payslips.
var Silae Extractor = &layoutExtractor{
	layout: payslip.LayoutSilae,
	periods: []PeriodPattern{
		// "Période : Juin 2024"
		{Pattern: regexp.MustCompile(`(?i)Période\s*:\s*(\p{L}+)\s+(\d{4})`), MonthGroup: 1, YearGroup: 2},
		// "##BULLETIN##06-2024##"
		{Pattern: regexp.MustCompile(`##BULLETIN##(\d{2})-(\d{4})##`), MonthGroup: 1, YearGroup: 2, NumericMonth: true},
	},
	rules: []FieldRule{
		Rule("base_salary",
			// "Salaire de base (Forfait 218 jours)9 583.33"
			Capture{Pattern: silaeRe(`Salaire de base\s*(?:\([^)]*\))?\s*{amount}`), Group: 1},
		),
		Rule("gross_salary",
			Capture{Pattern: silaeRe(`Salaire brut\s*{amount}`), Group: 1},
		),
		Rule("employee_contributions",
			Capture{Pattern: silaeContributions, Group: 1},
		),
		Rule("employer_contributions",
			Capture{Pattern: silaeContributions, Group: 2},
		),
		Rule("net_social",
			Capture{Pattern: silaeRe(`Montant net social\s*{amount}`), Group: 1},
		),
		Rule("net_before_tax",
			Capture{Pattern: silaeRe(`Net à payer avant imp[oô]t sur le revenu\s*{amount}`), Group: 1},
		),
		Rule("income_tax",
			Capture{Pattern: silaeWithholding, Group: 3},
		),
		Rule("income_tax_rate",
			Capture{Pattern: silaeWithholding, Group: 2, Transform: Percent},
		),
		Rule("net_pay",
			// "Net payé : 6 238.95 euros" closes the document; "Net payé6 238.95" heads the summary.
			Capture{Pattern: silaeRe(`Net payé\s*:\s*{amount}\s*euros`), Group: 1},
			Capture{Pattern: silaeRe(`Net payé\s*{amount}`), Group: 1},
		),
		Rule("meal_vouchers",
			// "Titres-restaurant20.005.0000100.00": count, unit value, employee share.
			Capture{Pattern: silaeRe(`Titres-restaurant\s*{amount}(\d[\d\s]*\.\d{4}){amount}`), Group: 3},
			Capture{Pattern: silaeRe(`Titres-restaurant\s*{amount}(\d[\d\s]*\.\d+){amount}`), Group: 3},
		),
		Rule("bonus",
			Capture{Pattern: silaeRe(`Bonus\s*{amount}`), Group: 1},
		),
		Rule("holiday_bonus",
			Capture{Pattern: silaeRe(`Prime de vacances\s*{amount}`), Group: 1},
		),
		Rule("leave_adjustment",
			Capture{Pattern: silaeRe(`Indemnité (?:compensatrice )?de congés payés\s*{amount}`), Group: 1},
		),
		Rule("expense_reimbursement",
			// First amount on the line, not a suffix of the last one. Digits in
			// the label ("Navigo 50%") are skipped when glued to a non-space
			// character; a bare number before the amount reads as its
			// thousands part.
			Capture{Pattern: silaeRe(`Remboursement(?:[^\n\d]|\d+[^\n\d.\s])*{amount}`), Group: 1},
		),
		Rule("ytd_income_tax",
			Capture{Pattern: silaeRe(`cumul PAS annuel\s*{amount}`), Group: 1},
		),
	},
	window: &SilaeSummary,
	finish: func(rec *payslip.Record) {
		if rec.HolidayBonus != nil && *rec.HolidayBonus == 0 {
			rec.HolidayBonus = nil
		}
		// Bonus reported is ad hoc bonus plus holiday bonus.
		if rec.HolidayBonus != nil {
			var adHoc float64
			if rec.Bonus != nil {
				adHoc = *rec.Bonus
			}
			rec.Bonus = payslip.Float(normalizer.Round2(adHoc + *rec.HolidayBonus))
		}
		if rec.Bonus != nil && *rec.Bonus == 0 {
			rec.Bonus = nil
		}

		// Silae has no separate "other deductions" line; meal vouchers are the only one.
		if rec.MealVouchers != nil {
			rec.OtherDeductions = payslip.Float(*rec.MealVouchers)
		}
	},
}
