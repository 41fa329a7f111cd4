package parser

import (
	"math"
	"regexp"
	"strings"

	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip"
	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip/normalizer"
)

// leaveBalanceTolerance is how close a third token must be to
// accrued - used to be read as the printed balance.
const leaveBalanceTolerance = 0.02

// TokenWindow reads fields by position from an unlabelled run of numbers.
// Its offsets are tied to one revision of one layout and live here as data.
type TokenWindow struct {
	// Start is matched at its first occurrence, End at its last.
	Start string
	End   string
	// SkipFirstLine drops the line holding Start.
	SkipFirstLine bool
	Token         *regexp.Regexp

	// Offsets maps token positions to record fields. They are only read
	// when at least MinTokens tokens were found.
	Offsets   map[int]string
	MinTokens int

	// LeaveStart is where (accrued, used, [balance]) groups begin; they are
	// assigned to LeaveFields in order.
	LeaveStart  int
	LeaveFields []string
}

// Tokens returns every number inside the window, in reading order.
func (w TokenWindow) Tokens(text string) []float64 {
	start := strings.Index(text, w.Start)
	end := strings.LastIndex(text, w.End)
	if start < 0 || end <= start {
		return nil
	}

	lines := strings.Split(text[start:end], "\n")
	if w.SkipFirstLine {
		lines = lines[1:]
	}

	var tokens []float64
	for _, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		for _, raw := range w.Token.FindAllString(line, -1) {
			if v := normalizer.ParseNumber(raw); v != nil {
				tokens = append(tokens, *v)
			}
		}
	}
	return tokens
}

// Apply fills the window's fields on rec. Positions the window does not
// reach are left absent.
func (w TokenWindow) Apply(text string, rec *payslip.Record) {
	tokens := w.Tokens(text)

	if len(tokens) >= w.MinTokens {
		for offset, name := range w.Offsets {
			if offset >= len(tokens) {
				continue
			}
			f, ok := payslip.FieldByName(name)
			if !ok {
				continue
			}
			f.Set(rec, payslip.Float(tokens[offset]))
		}
	}

	if len(w.LeaveFields) == 0 || len(tokens) <= w.LeaveStart {
		return
	}

	balances := LeaveBalances(tokens[w.LeaveStart:], len(w.LeaveFields))
	for i, b := range balances {
		if f, ok := payslip.FieldByName(w.LeaveFields[i]); ok {
			f.Set(rec, payslip.Float(b))
		}
	}
}

// LeaveGroup resolves one (accrued, used, [balance]) group starting at pos.
// When the token after the pair is within tolerance of accrued - used it is
// taken as the printed balance and consumed; otherwise the balance is
// computed and only the pair is consumed. ok is false when fewer than two
// tokens remain.
func LeaveGroup(tokens []float64, pos int) (balance float64, next int, ok bool) {
	if pos+1 >= len(tokens) {
		return 0, pos, false
	}

	accrued, used := tokens[pos], tokens[pos+1]
	next = pos + 2
	computed := normalizer.Round2(accrued - used)

	if next < len(tokens) && math.Abs(tokens[next]-computed) < leaveBalanceTolerance {
		return tokens[next], next + 1, true
	}
	return computed, next, true
}

// LeaveBalances resolves up to n groups left to right, consuming greedily.
func LeaveBalances(tokens []float64, n int) []float64 {
	balances := make([]float64, 0, n)
	pos := 0
	for len(balances) < n {
		balance, next, ok := LeaveGroup(tokens, pos)
		if !ok {
			break
		}
		balances = append(balances, balance)
		pos = next
	}
	return balances
}
