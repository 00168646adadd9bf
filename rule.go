package diaryfill

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"
)

// HolidayRule decides whether a holiday-column value marks the row as a holiday.
type HolidayRule interface {
	IsHoliday(v Value) (bool, error)
}

// HolidayRuleFunc adapts a plain function to HolidayRule.
type HolidayRuleFunc func(v Value) bool

// IsHoliday calls fn(v).
func (fn HolidayRuleFunc) IsHoliday(v Value) (bool, error) {
	return fn(v), nil
}

// DefaultHolidayRule treats the sentinel 50 as a holiday.
var DefaultHolidayRule HolidayRule = HolidayRuleFunc(IsFifty)

// exprRule implements HolidayRule using expr-lang/expr.
type exprRule struct {
	source  string
	program *vm.Program
}

// NewHolidayRule compiles a boolean expression evaluated against the holiday
// cell. The expression sees:
//
//	value    the raw cell value (nil, string, float64 or time.Time)
//	text     the cell as text, digits narrowed and whitespace trimmed
//	number   the numeric value (0 unless isNumber)
//	isNumber whether the cell holds a number
//	isBlank  whether the cell is empty or whitespace
//	isFifty  the default holiday test
//
// An empty expression returns DefaultHolidayRule.
func NewHolidayRule(expression string) (HolidayRule, error) {
	if strings.TrimSpace(expression) == "" {
		return DefaultHolidayRule, nil
	}
	program, err := expr.Compile(expression, expr.Env(ruleEnv(Empty())), expr.AsBool())
	if err != nil {
		return nil, fmt.Errorf("compile holiday rule %q: %w", expression, err)
	}
	return &exprRule{source: expression, program: program}, nil
}

func (r *exprRule) IsHoliday(v Value) (bool, error) {
	out, err := expr.Run(r.program, ruleEnv(v))
	if err != nil {
		return false, fmt.Errorf("evaluate holiday rule %q: %w", r.source, err)
	}
	b, ok := out.(bool)
	if !ok {
		return false, fmt.Errorf("holiday rule %q evaluated to %T, expected bool", r.source, out)
	}
	return b, nil
}

func (r *exprRule) String() string {
	return r.source
}

func ruleEnv(v Value) map[string]any {
	var text string
	switch v.Kind() {
	case KindText:
		text = strings.TrimSpace(NormalizeDigits(v.Text()))
	case KindNumber:
		text = strconv.FormatFloat(v.Number(), 'f', -1, 64)
	case KindTemporal:
		text = v.Time().Format("2006-01-02")
	}
	return map[string]any{
		"value":    v.Any(),
		"text":     text,
		"number":   v.Number(),
		"isNumber": v.Kind() == KindNumber,
		"isBlank":  IsBlank(v),
		"isFifty":  IsFifty(v),
	}
}
