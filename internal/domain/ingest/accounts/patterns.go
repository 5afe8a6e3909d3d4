// Package accounts extracts account identity from raw statement text,
// groups rows by source account, and matches extracted identities against
// known bank accounts.
package accounts

import "regexp"

// Account type labels.
const (
	TypeChecking    = "checking"
	TypeSavings     = "savings"
	TypeCreditCard  = "credit_card"
	TypeMoneyMarket = "money_market"
)

// maskPatterns covers common account-number masking notations. The list is
// ordered: the first pattern that matches anywhere in the text wins and no
// later pattern is tried. All scans run against lowercased text.
var maskPatterns = []*regexp.Regexp{
	regexp.MustCompile(`\*{2,}\s*(\d{2,6})`),        // ****1234
	regexp.MustCompile(`\.{3}\s*(\d{2,6})`),         // ...1234
	regexp.MustCompile(`x{2,}\s*(\d{2,6})`),         // xxxx1234
	regexp.MustCompile(`ending\s+in\s+(\d{2,6})`),   // ending in 1234
	regexp.MustCompile(`account\s*(?:#|no\.?|number)?\s*:?\s*(\d{4})`), // account 1234
}

type institutionRule struct {
	keywords []string
	name     string
}

// institutionRules is scanned in table order; the first rule whose keyword
// appears as a substring wins. Precedence is positional, not cumulative.
var institutionRules = []institutionRule{
	{[]string{"chase", "jpmorgan"}, "Chase"},
	{[]string{"bank of america", "bofa"}, "Bank of America"},
	{[]string{"wells fargo"}, "Wells Fargo"},
	{[]string{"citibank", "citi"}, "Citibank"},
	{[]string{"capital one"}, "Capital One"},
	{[]string{"us bank", "u.s. bank"}, "US Bank"},
	{[]string{"pnc"}, "PNC"},
	{[]string{"td bank"}, "TD Bank"},
	{[]string{"american express", "amex"}, "American Express"},
	{[]string{"discover"}, "Discover"},
	{[]string{"mercury"}, "Mercury"},
	{[]string{"navy federal"}, "Navy Federal"},
	{[]string{"ally"}, "Ally"},
	{[]string{"square"}, "Square"},
	{[]string{"toast"}, "Toast"},
	{[]string{"stripe"}, "Stripe"},
}

type accountTypeRule struct {
	keywords    []string
	accountType string
}

// accountTypeRules deliberately omits the bare "credit" keyword so that
// "credit union" labels do not read as credit cards; the grouper applies
// its own credit fallback for otherwise untyped labels.
var accountTypeRules = []accountTypeRule{
	{[]string{"checking", "chequing"}, TypeChecking},
	{[]string{"savings", "saving"}, TypeSavings},
	{[]string{"credit card", "creditcard", "credit crd", "visa", "mastercard"}, TypeCreditCard},
	{[]string{"money market"}, TypeMoneyMarket},
}
