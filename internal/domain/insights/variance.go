// Package insights explains month-over-month net pay changes.
package insights

import (
	"errors"
	"sort"
	"strings"

	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip"
	"github.com/FACorreiaa/payslip-overview/pkg/money"
)

// ErrMissingNetPay is returned when either payslip has no net pay.
var ErrMissingNetPay = errors.New("net pay missing on one of the payslips")

// Item labels.
const (
	LabelBase          = "Base salary"
	LabelBonus         = "Bonus"
	LabelHolidayBonus  = "Holiday bonus"
	LabelLeave         = "Leave adjustments"
	LabelOtherGross    = "Other gross components"
	LabelExpenses      = "Expense reimbursements"
	LabelRounding      = "Rounding / other"
	labelContributions = "Employee contributions"
	labelMealVouchers  = "Meal vouchers"
	labelOtherDeduct   = "Other deductions"
	labelIncomeTax     = "Income tax"
)

// threshold is the smallest change worth a line: one cent.
const threshold = 1

// Item is one labelled contribution to the net pay change, in euros.
// Positive impacts raised net pay.
type Item struct {
	Label  string  `json:"label"`
	Impact float64 `json:"impact"`
}

// Variance decomposes current.net_pay - previous.net_pay. The item impacts
// always sum to NetDelta to the cent.
type Variance struct {
	CurrentPeriod  string  `json:"current_period"`
	PreviousPeriod string  `json:"previous_period"`
	NetDelta       float64 `json:"net_delta"`
	Items          []Item  `json:"items"`
}

// Unchanged reports whether net pay moved by less than a cent.
func (v *Variance) Unchanged() bool {
	return len(v.Items) == 0
}

type line struct {
	label  string
	impact *money.Money
}

// Compute explains the net pay change between two payslips. Absent amounts
// other than net pay count as zero.
func Compute(current, previous *payslip.Record) (*Variance, error) {
	if current == nil || previous == nil || current.NetPay == nil || previous.NetPay == nil {
		return nil, ErrMissingNetPay
	}

	cur, prev := amountsOf(current), amountsOf(previous)
	if mirrorsMealVouchers(current) && mirrorsMealVouchers(previous) {
		// Both deduction lines track the same vouchers; count the change once.
		cur.other, prev.other = money.Zero(), money.Zero()
	}
	var lines []line

	gain := func(label string, a, b *money.Money) {
		if d := a.Subtract(b); d.Abs().Amount() >= threshold {
			lines = append(lines, line{label: label, impact: d})
		}
	}
	cost := func(name string, a, b *money.Money) {
		d := a.Subtract(b)
		if d.Abs().Amount() < threshold {
			return
		}
		direction := "Lower "
		if !d.IsNegative() {
			direction = "Higher "
		}
		lines = append(lines, line{label: direction + strings.ToLower(name), impact: d.Negate()})
	}

	gain(LabelBase, cur.base, prev.base)
	gain(LabelBonus, cur.bonus, prev.bonus)
	gain(LabelHolidayBonus, cur.holiday, prev.holiday)
	gain(LabelLeave, cur.leave, prev.leave)
	gain(LabelOtherGross, cur.otherGross(), prev.otherGross())

	cost(labelContributions, cur.contributions, prev.contributions)
	cost(labelMealVouchers, cur.meal, prev.meal)
	cost(labelOtherDeduct, cur.other, prev.other)
	cost(labelIncomeTax, cur.tax, prev.tax)

	gain(LabelExpenses, cur.expenses, prev.expenses)

	sort.SliceStable(lines, func(i, j int) bool {
		return lines[i].impact.Abs().Amount() > lines[j].impact.Abs().Amount()
	})

	actual := cur.net.Subtract(prev.net)
	explained := money.Zero()
	for _, l := range lines {
		explained = explained.Add(l.impact)
	}
	if residual := actual.Subtract(explained); residual.Abs().Amount() >= threshold {
		lines = append(lines, line{label: LabelRounding, impact: residual})
	}

	v := &Variance{
		CurrentPeriod:  current.Period,
		PreviousPeriod: previous.Period,
		NetDelta:       actual.ToFloat64(),
		Items:          make([]Item, 0, len(lines)),
	}
	for _, l := range lines {
		v.Items = append(v.Items, Item{Label: l.label, Impact: l.impact.ToFloat64()})
	}
	return v, nil
}

type amounts struct {
	gross, base, bonus, holiday, leave        *money.Money
	contributions, meal, other, tax, expenses *money.Money
	net                                       *money.Money
}

// amountsOf splits the composite bonus into its holiday and other parts.
func amountsOf(r *payslip.Record) amounts {
	a := amounts{
		gross:         money.FromOptional(r.GrossSalary),
		base:          money.FromOptional(r.BaseSalary),
		holiday:       money.FromOptional(r.HolidayBonus),
		leave:         money.FromOptional(r.LeaveAdjustment),
		contributions: money.FromOptional(r.EmployeeContributions),
		meal:          money.FromOptional(r.MealVouchers),
		other:         money.FromOptional(r.OtherDeductions),
		tax:           money.FromOptional(r.IncomeTax),
		expenses:      money.FromOptional(r.ExpenseReimbursement),
		net:           money.FromOptional(r.NetPay),
	}
	a.bonus = money.FromOptional(r.Bonus).Subtract(a.holiday)
	return a
}

// mirrorsMealVouchers reports whether a Silae record's other deductions are
// the meal voucher amount reported a second time.
func mirrorsMealVouchers(r *payslip.Record) bool {
	if r.Format != payslip.LayoutSilae || r.OtherDeductions == nil || r.MealVouchers == nil {
		return false
	}
	return money.FromOptional(r.OtherDeductions).Amount() == money.FromOptional(r.MealVouchers).Amount()
}

func (a amounts) otherGross() *money.Money {
	return a.gross.Subtract(money.Sum(a.base, a.bonus, a.holiday, a.leave))
}
