package currency

import (
	"fmt"
	"math"
	"strings"
)

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"ILS": "₪",
}

// Format renders a whole-unit amount with its symbol and code, for example
// "$1,253 USD". Unknown currencies get the code only.
func Format(amount float64, code string) string {
	code = strings.ToUpper(code)
	rounded := math.Round(amount)

	negative := rounded < 0
	if negative {
		rounded = -rounded
	}

	formatted := symbols[code] + addThousandsSeparator(fmt.Sprintf("%.0f", rounded), ",")
	if code != "" {
		formatted += " " + code
	}
	if negative {
		formatted = "-" + formatted
	}
	return formatted
}

// Short renders an amount with its symbol only ("$453"), falling back to
// Format when the currency has no known symbol.
func Short(amount float64, code string) string {
	sym, ok := symbols[strings.ToUpper(code)]
	if !ok {
		return Format(amount, code)
	}
	rounded := math.Round(amount)
	if rounded < 0 {
		return "-" + sym + addThousandsSeparator(fmt.Sprintf("%.0f", -rounded), ",")
	}
	return sym + addThousandsSeparator(fmt.Sprintf("%.0f", rounded), ",")
}

func addThousandsSeparator(s string, sep string) string {
	n := len(s)
	if n <= 3 {
		return s
	}

	numSeps := (n - 1) / 3
	result := make([]byte, n+numSeps)

	j := len(result) - 1
	for i := n - 1; i >= 0; i-- {
		result[j] = s[i]
		j--

		pos := n - i
		if pos%3 == 0 && i > 0 {
			result[j] = sep[0]
			j--
		}
	}

	return string(result)
}
