package accounts

import "strings"

// Info describes one distinct source account discovered in an import batch,
// together with the indices of the rows that belong to it. Transient per
// batch, never persisted.
type Info struct {
	RawLabel        string `json:"rawLabel"`
	AccountMask     string `json:"accountMask,omitempty"`
	AccountType     string `json:"accountType,omitempty"`
	InstitutionName string `json:"institutionName,omitempty"`
	RowIndices      []int  `json:"rowIndices"`
}

// ExtractUniqueAccounts partitions rows by the trimmed raw value of the
// source-account column and runs the identity scan once per distinct label.
// Rows with an empty value contribute to no group. Groups are returned in
// first-seen order.
func ExtractUniqueAccounts(rows []map[string]string, sourceAccountColumn string) []Info {
	byLabel := make(map[string]int)
	var out []Info

	for i, row := range rows {
		label := strings.TrimSpace(row[sourceAccountColumn])
		if label == "" {
			continue
		}

		if idx, ok := byLabel[label]; ok {
			out[idx].RowIndices = append(out[idx].RowIndices, i)
			continue
		}

		scan := Scan(label)
		if scan.AccountType == "" && strings.Contains(strings.ToLower(label), "credit") {
			scan.AccountType = TypeCreditCard
		}

		byLabel[label] = len(out)
		out = append(out, Info{
			RawLabel:        label,
			AccountMask:     scan.AccountMask,
			AccountType:     scan.AccountType,
			InstitutionName: scan.InstitutionName,
			RowIndices:      []int{i},
		})
	}

	return out
}
