// Package payslip defines the record produced by parsing one payslip document.
package payslip

import "time"

// ParserVersion identifies the revision of the extraction logic. Stored rows
// carrying a lower value are candidates for reprocessing.
const ParserVersion = 3

// Layout identifies the payroll platform template a document was issued with.
type Layout string

const (
	// LayoutPayfit uses comma decimals and keeps spaces between labels and amounts.
	LayoutPayfit Layout = "payfit"
	// LayoutSilae uses period decimals and often glues labels and numbers together.
	LayoutSilae Layout = "silae"
)

// Valid reports whether l is a known layout.
func (l Layout) Valid() bool {
	return l == LayoutPayfit || l == LayoutSilae
}

func (l Layout) String() string {
	return string(l)
}

// Record is the uniform output of extraction for one pay period.
// Every numeric field is optional: nil means the document did not carry it.
type Record struct {
	ID     int64  `json:"id,omitempty"`
	Period string `json:"period"` // YYYY-MM, empty when undetermined
	Format Layout `json:"format"`

	GrossSalary           *float64 `json:"gross_salary"`
	BaseSalary            *float64 `json:"base_salary"`
	Bonus                 *float64 `json:"bonus"`
	HolidayBonus          *float64 `json:"holiday_bonus"`
	LeaveAdjustment       *float64 `json:"leave_adjustment"`
	NetBeforeTax          *float64 `json:"net_before_tax"`
	IncomeTax             *float64 `json:"income_tax"`
	IncomeTaxRate         *float64 `json:"income_tax_rate"` // fraction, 0.10 for 10 %
	NetPay                *float64 `json:"net_pay"`
	NetSocial             *float64 `json:"net_social"`
	EmployeeContributions *float64 `json:"employee_contributions"`
	EmployerContributions *float64 `json:"employer_contributions"`
	MealVouchers          *float64 `json:"meal_vouchers"`
	OtherDeductions       *float64 `json:"other_deductions"`
	ExpenseReimbursement  *float64 `json:"expense_reimbursement"`

	// Leave balances in days.
	CPN2 *float64 `json:"cp_n2"`
	CPN1 *float64 `json:"cp_n1"`
	CPN  *float64 `json:"cp_n"`
	RTT  *float64 `json:"rtt"`

	YTDNetTaxable *float64 `json:"ytd_net_taxable"`
	YTDGross      *float64 `json:"ytd_gross"`
	YTDIncomeTax  *float64 `json:"ytd_income_tax"`
	YTDDaysWorked *float64 `json:"ytd_days_worked"`

	Filename      string    `json:"filename"`
	UploadedAt    time.Time `json:"uploaded_at"`
	ParserVersion int       `json:"parser_version"`
	SourceFileID  string    `json:"source_file_id,omitempty"`
	SourceHash    string    `json:"source_hash,omitempty"`
}

// Field is a named accessor over one optional numeric field of a Record.
type Field struct {
	Name string
	Get  func(*Record) *float64
	Set  func(*Record, *float64)
}

// Fields lists every optional numeric field in storage and export order.
var Fields = []Field{
	{"gross_salary", func(r *Record) *float64 { return r.GrossSalary }, func(r *Record, v *float64) { r.GrossSalary = v }},
	{"base_salary", func(r *Record) *float64 { return r.BaseSalary }, func(r *Record, v *float64) { r.BaseSalary = v }},
	{"bonus", func(r *Record) *float64 { return r.Bonus }, func(r *Record, v *float64) { r.Bonus = v }},
	{"holiday_bonus", func(r *Record) *float64 { return r.HolidayBonus }, func(r *Record, v *float64) { r.HolidayBonus = v }},
	{"leave_adjustment", func(r *Record) *float64 { return r.LeaveAdjustment }, func(r *Record, v *float64) { r.LeaveAdjustment = v }},
	{"net_before_tax", func(r *Record) *float64 { return r.NetBeforeTax }, func(r *Record, v *float64) { r.NetBeforeTax = v }},
	{"income_tax", func(r *Record) *float64 { return r.IncomeTax }, func(r *Record, v *float64) { r.IncomeTax = v }},
	{"income_tax_rate", func(r *Record) *float64 { return r.IncomeTaxRate }, func(r *Record, v *float64) { r.IncomeTaxRate = v }},
	{"net_pay", func(r *Record) *float64 { return r.NetPay }, func(r *Record, v *float64) { r.NetPay = v }},
	{"net_social", func(r *Record) *float64 { return r.NetSocial }, func(r *Record, v *float64) { r.NetSocial = v }},
	{"employee_contributions", func(r *Record) *float64 { return r.EmployeeContributions }, func(r *Record, v *float64) { r.EmployeeContributions = v }},
	{"employer_contributions", func(r *Record) *float64 { return r.EmployerContributions }, func(r *Record, v *float64) { r.EmployerContributions = v }},
	{"meal_vouchers", func(r *Record) *float64 { return r.MealVouchers }, func(r *Record, v *float64) { r.MealVouchers = v }},
	{"other_deductions", func(r *Record) *float64 { return r.OtherDeductions }, func(r *Record, v *float64) { r.OtherDeductions = v }},
	{"expense_reimbursement", func(r *Record) *float64 { return r.ExpenseReimbursement }, func(r *Record, v *float64) { r.ExpenseReimbursement = v }},
	{"cp_n2", func(r *Record) *float64 { return r.CPN2 }, func(r *Record, v *float64) { r.CPN2 = v }},
	{"cp_n1", func(r *Record) *float64 { return r.CPN1 }, func(r *Record, v *float64) { r.CPN1 = v }},
	{"cp_n", func(r *Record) *float64 { return r.CPN }, func(r *Record, v *float64) { r.CPN = v }},
	{"rtt", func(r *Record) *float64 { return r.RTT }, func(r *Record, v *float64) { r.RTT = v }},
	{"ytd_net_taxable", func(r *Record) *float64 { return r.YTDNetTaxable }, func(r *Record, v *float64) { r.YTDNetTaxable = v }},
	{"ytd_gross", func(r *Record) *float64 { return r.YTDGross }, func(r *Record, v *float64) { r.YTDGross = v }},
	{"ytd_income_tax", func(r *Record) *float64 { return r.YTDIncomeTax }, func(r *Record, v *float64) { r.YTDIncomeTax = v }},
	{"ytd_days_worked", func(r *Record) *float64 { return r.YTDDaysWorked }, func(r *Record, v *float64) { r.YTDDaysWorked = v }},
}

// FieldByName looks up a field accessor.
func FieldByName(name string) (Field, bool) {
	for _, f := range Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// MissingFields returns the names of fields the document did not carry.
func (r *Record) MissingFields() []string {
	var missing []string
	for _, f := range Fields {
		if f.Get(r) == nil {
			missing = append(missing, f.Name)
		}
	}
	return missing
}

// Float returns a pointer to v.
func Float(v float64) *float64 {
	return &v
}
