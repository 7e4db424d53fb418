package apperror

// Code represents a unique error code for the application
type Code string

// General error codes
const (
	CodeRequiredField   Code = "REQUIRED_FIELD"
	CodeInvalidInput    Code = "INVALID_INPUT"
	CodeInvalidFormat   Code = "INVALID_FORMAT"
	CodeInvalidState    Code = "INVALID_STATE"
	CodeNotFound        Code = "NOT_FOUND"
	CodeValidationError Code = "VALIDATION_ERROR"

	CodeConfigurationError Code = "CONFIGURATION_ERROR"

	CodeExternalServiceError Code = "EXTERNAL_SERVICE_ERROR"
	CodeServiceTimeout       Code = "SERVICE_TIMEOUT"
	CodeServiceUnavailable   Code = "SERVICE_UNAVAILABLE"
	CodeRateLimitExceeded    Code = "RATE_LIMIT_EXCEEDED"

	CodeInternalError Code = "INTERNAL_ERROR"
	CodeUnknownError  Code = "UNKNOWN_ERROR"
)

// Venue error taxonomy. Adapters convert every internal failure into one of
// these before it reaches the coordinator.
const (
	CodeConnectionError      Code = "CONNECTION_ERROR"
	CodeAuthenticationFailed Code = "AUTHENTICATION_FAILED"
	CodeOrderRejected        Code = "ORDER_REJECTED"
	CodeMalformedResponse    Code = "MALFORMED_RESPONSE"
	CodeTransactionReverted  Code = "TRANSACTION_REVERTED"
	CodeMissingCredentials   Code = "MISSING_CREDENTIALS"
)

// Coordination errors
const (
	CodeLegTimeout        Code = "LEG_TIMEOUT"
	CodeUnknownProvider   Code = "UNKNOWN_PROVIDER"
	CodeAttemptInProgress Code = "ATTEMPT_IN_PROGRESS"
	CodeLockHeld          Code = "LOCK_HELD"
	CodeAttemptCancelled  Code = "ATTEMPT_CANCELLED"
	CodeNoOpportunity     Code = "NO_OPPORTUNITY"
	CodeOpportunitySource Code = "OPPORTUNITY_SOURCE_FAILED"
)

// Infrastructure errors
const (
	CodeEthereumConnectionFailed Code = "ETHEREUM_CONNECTION_FAILED"
	CodeEthereumRPCError         Code = "ETHEREUM_RPC_ERROR"
	CodeGasEstimationFailed      Code = "GAS_ESTIMATION_FAILED"
	CodeContractCallFailed       Code = "CONTRACT_CALL_FAILED"

	CodeWebSocketConnectionError Code = "WEBSOCKET_CONNECTION_ERROR"
	CodeWebSocketClosed          Code = "WEBSOCKET_CLOSED"
	CodeWebSocketSendError       Code = "WEBSOCKET_SEND_ERROR"

	CodeStoreError    Code = "STORE_ERROR"
	CodeNotifyFailed  Code = "NOTIFY_FAILED"
	CodeCacheMiss     Code = "CACHE_MISS"
	CodeCircuitOpen   Code = "CIRCUIT_OPEN"
	CodeInvalidAmount Code = "INVALID_AMOUNT"
)
