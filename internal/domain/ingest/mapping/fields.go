// Package mapping scores source column headers against the canonical
// transaction field registry and validates confirmed mapping sets.
package mapping

// Field is one of the fixed canonical transaction attributes an arbitrary
// source column may be mapped onto.
type Field string

const (
	FieldTransactionDate Field = "transactionDate"
	FieldPostedDate      Field = "postedDate"
	FieldDescription     Field = "description"
	FieldAmount          Field = "amount"
	FieldDebitAmount     Field = "debitAmount"
	FieldCreditAmount    Field = "creditAmount"
	FieldBalance         Field = "balance"
	FieldCheckNumber     Field = "checkNumber"
	FieldReferenceNumber Field = "referenceNumber"
	FieldCategory        Field = "category"
	FieldSourceAccount   Field = "sourceAccount"
	FieldIgnore          Field = "ignore"
)

// Confidence buckets a numeric match score, gating auto-acceptance
// versus human review.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
	ConfidenceNone   Confidence = "none"
)

// ColumnMapping links one source column to a canonical field. TargetField
// is empty when the column is unmapped.
type ColumnMapping struct {
	SourceColumn string     `json:"sourceColumn"`
	TargetField  Field      `json:"targetField,omitempty"`
	Confidence   Confidence `json:"confidence"`
}

// fieldRegistry fixes the canonical field iteration order. Suggestion
// tie-breaks follow this order, so it must never be reordered casually.
var fieldRegistry = []Field{
	FieldTransactionDate,
	FieldPostedDate,
	FieldDescription,
	FieldAmount,
	FieldDebitAmount,
	FieldCreditAmount,
	FieldBalance,
	FieldCheckNumber,
	FieldReferenceNumber,
	FieldCategory,
	FieldSourceAccount,
	FieldIgnore,
}

// KeywordPattern ties header keywords to a canonical field with a weight.
// Static configuration, read-only for the process lifetime.
type KeywordPattern struct {
	Field    Field
	Keywords []string
	Weight   float64
}

var keywordPatterns = []KeywordPattern{
	{FieldTransactionDate, []string{"transaction date", "trans date", "txn date", "transaction_date", "date"}, 10},
	{FieldPostedDate, []string{"posted date", "post date", "posting date", "settlement date"}, 8},
	{FieldDescription, []string{"description", "details", "memo", "payee", "narrative", "merchant"}, 10},
	{FieldAmount, []string{"amount", "transaction amount", "amt", "value"}, 10},
	{FieldDebitAmount, []string{"debit", "withdrawal", "withdrawals", "money out", "paid out", "charge"}, 9},
	{FieldCreditAmount, []string{"credit", "deposit", "deposits", "money in", "paid in"}, 9},
	{FieldBalance, []string{"balance", "running balance", "ending balance"}, 7},
	{FieldCheckNumber, []string{"check number", "check #", "check no", "cheque number"}, 6},
	{FieldReferenceNumber, []string{"reference number", "reference", "ref number", "ref", "transaction id"}, 6},
	{FieldCategory, []string{"category", "transaction type", "type"}, 7},
	{FieldSourceAccount, []string{"account number", "account name", "account", "card number", "card member", "card"}, 8},
}
