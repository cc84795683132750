package domain

const (
	OperationSign   = "sign"
	OperationVerify = "verify"
)

type PolicyInput struct {
	Operation    string `json:"operation"`
	Level        string `json:"level"`
	MessageBytes int64  `json:"message_bytes"`
}

type PolicyDeny struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type PolicyResult struct {
	Allow bool         `json:"allow"`
	Deny  []PolicyDeny `json:"deny,omitempty"`
}

type PolicyEvaluation struct {
	BundleID   string       `json:"bundle_id,omitempty"`
	BundleHash string       `json:"bundle_hash"`
	Result     PolicyResult `json:"result"`
}
