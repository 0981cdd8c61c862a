package audithook

// Action constants for audit events.
const (
	// Account actions
	ActionAccountCreated = "account.created"

	// Ledger actions
	ActionTransactionRecorded = "transaction.recorded"
	ActionTransferExecuted    = "transfer.executed"
	ActionSaleSettled         = "sale.settled"
	ActionDepositRequested    = "deposit.requested"
	ActionDepositConfirmed    = "deposit.confirmed"

	// Entitlement actions
	ActionPassGranted  = "pass.granted"
	ActionPassConsumed = "pass.consumed"

	// Mining actions
	ActionSessionStarted = "session.started"
	ActionRewardClaimed  = "reward.claimed"
	ActionMined          = "mining.rewarded"

	// Messaging actions
	ActionNotificationSent = "notification.sent"
)

// Resource constants for audit events.
const (
	ResourceAccount      = "account"
	ResourceTransaction  = "transaction"
	ResourcePass         = "pass"
	ResourceSession      = "session"
	ResourceNotification = "notification"
)

// Category constants for audit events.
const (
	CategoryLedger      = "ledger"
	CategoryEntitlement = "entitlement"
	CategoryMining      = "mining"
	CategoryMessaging   = "messaging"
)

// Severity levels for audit events.
const (
	SeverityInfo     = "info"
	SeverityWarning  = "warning"
	SeverityError    = "error"
	SeverityCritical = "critical"
)

// Outcome values for audit events.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomePartial = "partial"
)
