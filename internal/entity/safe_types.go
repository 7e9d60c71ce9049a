package entity

// SafeMultisigTransaction is one entry from the Safe transaction service's
// multisig-transactions listing. Only the fields the oracle inspects are
// declared.
type SafeMultisigTransaction struct {
	SafeTxHash     string `json:"safeTxHash"`
	To             string `json:"to"`
	Data           string `json:"data"`
	Nonce          int64  `json:"nonce"`
	IsExecuted     bool   `json:"isExecuted"`
	SubmissionDate string `json:"submissionDate"`
}

// SafeInfo is the Safe's current on-chain state as reported by the
// transaction service.
type SafeInfo struct {
	Address   string   `json:"address"`
	Nonce     int64    `json:"nonce"`
	Threshold int      `json:"threshold"`
	Owners    []string `json:"owners"`
}

// SafeMultisigTransactionsPage is the paginated listing response.
type SafeMultisigTransactionsPage struct {
	Count   int                       `json:"count"`
	Next    string                    `json:"next"`
	Results []SafeMultisigTransaction `json:"results"`
}

// SafeProposeRequest is the body for proposing a new multisig transaction.
type SafeProposeRequest struct {
	To                      string `json:"to"`
	Value                   string `json:"value"`
	Data                    string `json:"data"`
	Operation               int    `json:"operation"`
	SafeTxGas               string `json:"safeTxGas"`
	BaseGas                 string `json:"baseGas"`
	GasPrice                string `json:"gasPrice"`
	Nonce                   int64  `json:"nonce"`
	ContractTransactionHash string `json:"contractTransactionHash"`
	Sender                  string `json:"sender"`
	Signature               string `json:"signature"`
}
