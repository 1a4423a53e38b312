package common

import "strconv"

// Price is an optional price. The zero value is an absent price.
type Price struct {
	value float64
	set   bool
}

// NoPrice is the absent price.
var NoPrice = Price{}

func SomePrice(v float64) Price {
	return Price{value: v, set: true}
}

func (p Price) Get() (float64, bool) { return p.value, p.set }

func (p Price) IsSet() bool { return p.set }

// Or returns p if it is set and other otherwise.
func (p Price) Or(other Price) Price {
	if p.set {
		return p
	}
	return other
}

func (p Price) String() string {
	if !p.set {
		return "NULL"
	}
	return FormatPrice(p.value)
}

// FormatPrice renders the shortest decimal form of v, always keeping one
// fractional digit (100 renders as "100.0", 102.93 as "102.93").
func FormatPrice(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			return s
		}
	}
	return s + ".0"
}
