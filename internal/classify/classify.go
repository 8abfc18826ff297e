// Package classify maps raw submission failures into a closed taxonomy
// with user-facing title/message pairs. Matching is substring-based
// because the ledger's error encoding is opaque; the first matching rule
// wins and anything unmatched falls back to Unknown.
package classify

import "strings"

// Kind is one of the fixed failure kinds.
type Kind string

const (
	KindUserRejected             Kind = "USER_REJECTED"
	KindInsufficientFunds        Kind = "INSUFFICIENT_FUNDS"
	KindAccountNotFound          Kind = "ACCOUNT_NOT_FOUND"
	KindInvalidAmount            Kind = "INVALID_AMOUNT"
	KindUnauthorized             Kind = "UNAUTHORIZED"
	KindVaultNotActive           Kind = "VAULT_NOT_ACTIVE"
	KindInsufficientBalance      Kind = "INSUFFICIENT_BALANCE"
	KindInsufficientContribution Kind = "INSUFFICIENT_CONTRIBUTION"
	KindVaultNotEmpty            Kind = "VAULT_NOT_EMPTY"
	KindNetworkError             Kind = "NETWORK_ERROR"
	KindProtocolPaused           Kind = "PROTOCOL_PAUSED"
	KindTimeLockActive           Kind = "TIME_LOCK_ACTIVE"
	KindProposalNotPending       Kind = "PROPOSAL_NOT_PENDING"
	KindProposalNotApproved      Kind = "PROPOSAL_NOT_APPROVED"
	KindAlreadyVoted             Kind = "ALREADY_VOTED"
	KindUnknown                  Kind = "UNKNOWN"
)

// MaxMessageLen bounds the raw message carried into an Unknown result.
const MaxMessageLen = 200

// Classified is the display form of a failure. Informational only:
// nothing is retried or recovered here.
type Classified struct {
	Kind    Kind
	Title   string
	Message string
}

// rule matches a raw failure by substring. Matching is case-insensitive;
// needles are stored lowercased.
type rule struct {
	needle  string
	kind    Kind
	title   string
	message string
}

// Rules are ordered: more specific needles come before generic ones so
// first-match-wins stays stable. Program error codes 0-8 appear both by
// name (anchor-style logs) and by numeric form (raw transaction errors).
var rules = []rule{
	{"user rejected", KindUserRejected, "Request Cancelled", "You declined the request in your wallet."},
	{"rejected the request", KindUserRejected, "Request Cancelled", "You declined the request in your wallet."},

	{"insufficientcontribution", KindInsufficientContribution, "Insufficient Contribution", "Your burned amount has not reached the certificate threshold yet."},
	{"custom program error: 0x7", KindInsufficientContribution, "Insufficient Contribution", "Your burned amount has not reached the certificate threshold yet."},
	{"insufficientbalance", KindInsufficientBalance, "Insufficient Vault Balance", "The vault does not hold enough tokens for this operation."},
	{"custom program error: 0x3", KindInsufficientBalance, "Insufficient Vault Balance", "The vault does not hold enough tokens for this operation."},
	{"vaultnotempty", KindVaultNotEmpty, "Vault Not Empty", "A vault can only be closed once its balance is fully burned or withdrawn."},
	{"custom program error: 0x8", KindVaultNotEmpty, "Vault Not Empty", "A vault can only be closed once its balance is fully burned or withdrawn."},
	{"vaultnotactive", KindVaultNotActive, "Vault Not Active", "This vault is closed and no longer accepts operations."},
	{"custom program error: 0x2", KindVaultNotActive, "Vault Not Active", "This vault is closed and no longer accepts operations."},
	{"invalidamount", KindInvalidAmount, "Invalid Amount", "The amount must be a positive quantity."},
	{"custom program error: 0x1", KindInvalidAmount, "Invalid Amount", "The amount must be a positive quantity."},
	{"custom program error: 0x0", KindInvalidAmount, "Invalid Amount", "The amount overflows the vault accounting."},
	{"overflow", KindInvalidAmount, "Invalid Amount", "The amount overflows the vault accounting."},
	{"stringtoolong", KindInvalidAmount, "Invalid Input", "The metadata URI exceeds the maximum length."},
	{"custom program error: 0x4", KindInvalidAmount, "Invalid Input", "The metadata URI exceeds the maximum length."},
	{"notokensburned", KindInsufficientContribution, "Nothing Burned", "No tokens have been burned for this account yet."},
	{"custom program error: 0x5", KindInsufficientContribution, "Nothing Burned", "No tokens have been burned for this account yet."},
	{"unauthorized", KindUnauthorized, "Not Authorized", "Only the authority may perform this operation."},
	{"custom program error: 0x6", KindUnauthorized, "Not Authorized", "Only the authority may perform this operation."},

	{"protocolpaused", KindProtocolPaused, "Protocol Paused", "The protocol is paused. Try again once it resumes."},
	{"protocol is paused", KindProtocolPaused, "Protocol Paused", "The protocol is paused. Try again once it resumes."},
	{"timelockactive", KindTimeLockActive, "Time Lock Active", "A recent burn started the cooldown. Wait for it to expire."},
	{"time lock", KindTimeLockActive, "Time Lock Active", "A recent burn started the cooldown. Wait for it to expire."},
	{"proposalnotpending", KindProposalNotPending, "Proposal Not Pending", "This proposal is no longer accepting votes."},
	{"proposalnotapproved", KindProposalNotApproved, "Proposal Not Approved", "This proposal has not reached the vote threshold."},
	{"alreadyvoted", KindAlreadyVoted, "Already Voted", "You have already voted on this proposal."},

	{"accountnotfound", KindAccountNotFound, "Account Not Found", "The account does not exist on the ledger yet."},
	{"could not find account", KindAccountNotFound, "Account Not Found", "The account does not exist on the ledger yet."},
	{"insufficient funds", KindInsufficientFunds, "Insufficient Funds", "Your wallet does not hold enough tokens to cover this transaction."},
	{"insufficient lamports", KindInsufficientFunds, "Insufficient Funds", "Your wallet does not hold enough tokens to cover this transaction."},

	{"connection refused", KindNetworkError, "Network Error", "Could not reach the network. Check your connection and retry."},
	{"connection reset", KindNetworkError, "Network Error", "Could not reach the network. Check your connection and retry."},
	{"timeout", KindNetworkError, "Network Error", "The request timed out. It is safe to retry."},
	{"timed out", KindNetworkError, "Network Error", "The request timed out. It is safe to retry."},
	{"rate limited", KindNetworkError, "Network Error", "Too many requests. Wait a moment and retry."},
	{"429", KindNetworkError, "Network Error", "Too many requests. Wait a moment and retry."},
	{"fetch failed", KindNetworkError, "Network Error", "Could not reach the network. Check your connection and retry."},
}

// Classify maps a raw failure string to its classified form.
func Classify(raw string) Classified {
	lowered := strings.ToLower(raw)
	for _, r := range rules {
		if strings.Contains(lowered, r.needle) {
			return Classified{Kind: r.kind, Title: r.title, Message: r.message}
		}
	}
	return Classified{Kind: KindUnknown, Title: "Something Went Wrong", Message: Truncate(raw, MaxMessageLen)}
}

// ClassifyErr classifies err, returning Unknown with an empty message
// for nil.
func ClassifyErr(err error) Classified {
	if err == nil {
		return Classified{Kind: KindUnknown, Title: "Something Went Wrong"}
	}
	return Classify(err.Error())
}

// Truncate bounds s at max runes, appending an ellipsis when cut.
func Truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "…"
}
