package apperror

// messages maps error codes to human-readable messages
var messages = map[Code]string{
	CodeRequiredField:   "Required field is missing",
	CodeInvalidInput:    "Invalid input provided",
	CodeInvalidFormat:   "Invalid data format",
	CodeInvalidState:    "Invalid state for this operation",
	CodeNotFound:        "Resource not found",
	CodeValidationError: "Validation error",

	CodeConfigurationError: "Configuration error",

	CodeExternalServiceError: "External service error",
	CodeServiceTimeout:       "Service request timeout",
	CodeServiceUnavailable:   "Service temporarily unavailable",
	CodeRateLimitExceeded:    "Rate limit exceeded",

	CodeInternalError: "Internal server error",
	CodeUnknownError:  "An unknown error occurred",

	CodeConnectionError:      "Could not reach trading venue",
	CodeAuthenticationFailed: "Venue authentication failed",
	CodeOrderRejected:        "Order was rejected or not filled",
	CodeMalformedResponse:    "Venue returned a malformed response",
	CodeTransactionReverted:  "On-chain transaction reverted",
	CodeMissingCredentials:   "Venue credentials are not configured",

	CodeLegTimeout:        "Trade leg exceeded its deadline",
	CodeUnknownProvider:   "No executor registered for provider",
	CodeAttemptInProgress: "Another arbitrage attempt is in progress",
	CodeLockHeld:          "Instrument is locked by another attempt",
	CodeAttemptCancelled:  "Attempt cancelled between legs",
	CodeNoOpportunity:     "No arbitrage opportunity available",
	CodeOpportunitySource: "Failed to load arbitrage opportunities",

	CodeEthereumConnectionFailed: "Failed to connect to Ethereum node",
	CodeEthereumRPCError:         "Ethereum RPC call failed",
	CodeGasEstimationFailed:      "Gas estimation failed",
	CodeContractCallFailed:       "Smart contract call failed",

	CodeWebSocketConnectionError: "WebSocket connection error",
	CodeWebSocketClosed:          "WebSocket connection closed",
	CodeWebSocketSendError:       "Failed to send WebSocket message",

	CodeStoreError:    "Trade store operation failed",
	CodeNotifyFailed:  "Failed to deliver notification",
	CodeCacheMiss:     "Cache miss",
	CodeCircuitOpen:   "Circuit breaker is open",
	CodeInvalidAmount: "Invalid amount",
}

// Message returns the default human-readable message for code.
func Message(code Code) string {
	if m, ok := messages[code]; ok {
		return m
	}
	return string(code)
}
