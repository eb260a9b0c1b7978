package domain

// Profile is the subset of the upstream identity document the service cares
// about. It is upstream-owned; the pipeline only extracts and forwards it.
type Profile struct {
	ID            string  `json:"id" validate:"required"`
	Username      string  `json:"username" validate:"required"`
	Discriminator string  `json:"discriminator"`
	Avatar        *string `json:"avatar"`
	Email         *string `json:"email"`
	Phone         *string `json:"phone"`
	MFAEnabled    *bool   `json:"mfa_enabled,omitempty"`
	Verified      *bool   `json:"verified,omitempty"`
	Flags         *int    `json:"flags,omitempty"`
	PremiumType   *int    `json:"premium_type,omitempty"`
	PublicFlags   *int    `json:"public_flags,omitempty"`
	Banner        *string `json:"banner,omitempty"`
	AccentColor   *int    `json:"accent_color,omitempty"`
	Locale        *string `json:"locale,omitempty"`
}

// TokenResult is the outcome of verifying one token. Exactly one of User
// (valid) or Error (invalid) is populated. Never mutated after creation.
type TokenResult struct {
	Token string   `json:"token"`
	Valid bool     `json:"valid"`
	User  *Profile `json:"user,omitempty"`
	Error string   `json:"error,omitempty"`
}

// BatchCount partitions a batch's results by validity.
type BatchCount struct {
	Total   int `json:"total"`
	Valid   int `json:"valid"`
	Invalid int `json:"invalid"`
}

// BulkCheckResult aggregates one bulk run. Results keep input order after
// truncation.
type BulkCheckResult struct {
	Results   []TokenResult `json:"results"`
	Count     BatchCount    `json:"count"`
	Truncated bool          `json:"truncated"`
}

// SavedToken is the persisted record of a successful check. Re-checking the
// same token overwrites the record with a fresh timestamp (last-seen
// semantics, not history).
type SavedToken struct {
	Token     string `json:"token" dynamodbav:"token"`
	UserID    string `json:"userId" dynamodbav:"user_id"`
	Username  string `json:"username" dynamodbav:"username"`
	Timestamp int64  `json:"timestamp" dynamodbav:"timestamp"` // epoch millis
	Valid     bool   `json:"valid" dynamodbav:"valid"`
}

// CheckTokenRequest is the single-check input. A token must be at least 50
// characters and contain a period.
type CheckTokenRequest struct {
	Token string `json:"token" validate:"required,min=50,contains=."`
}

// BulkCheckRequest carries a newline-delimited blob of candidate tokens.
type BulkCheckRequest struct {
	Tokens string `json:"tokens" validate:"required"`
}
