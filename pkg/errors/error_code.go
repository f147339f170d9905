package errors

// ErrorCode represents a unique error code for identifying different error types.
type ErrorCode int

const (
	// General errors (1-99)
	ErrCodeUnknown ErrorCode = 1

	// Validation errors (100-199)
	ErrCodeInvalidParameter     ErrorCode = 100
	ErrCodeInvalidConfiguration ErrorCode = 101
	ErrCodeInvalidOrder         ErrorCode = 102
	ErrCodeInvalidStopLoss      ErrorCode = 103
	ErrCodeInvalidPeriod        ErrorCode = 104
	ErrCodeInvalidPrice         ErrorCode = 105
	ErrCodeInvalidContractSpec  ErrorCode = 106
	ErrCodeMissingParameter     ErrorCode = 107
	ErrCodeInvalidVersion       ErrorCode = 108

	// Data errors (200-299)
	ErrCodeDataNotFound          ErrorCode = 200
	ErrCodeDataSourceUnavailable ErrorCode = 201
	ErrCodeQueryFailed           ErrorCode = 202
	ErrCodeInvalidBarSequence    ErrorCode = 203
	ErrCodeContractNotFound      ErrorCode = 204

	// Indicator errors (300-399)
	ErrCodeIndicatorNotFound      ErrorCode = 300
	ErrCodeIndicatorAlreadyExists ErrorCode = 301

	// Strategy errors (400-499)
	ErrCodeStrategyNotLoaded    ErrorCode = 400
	ErrCodeStrategyRuntimeError ErrorCode = 401
	ErrCodeVersionMismatch      ErrorCode = 402

	// Trading errors (500-599)
	ErrCodeOrderRejected      ErrorCode = 500
	ErrCodeInsufficientMargin ErrorCode = 501
	ErrCodeSizingDegenerate   ErrorCode = 502
	ErrCodeOrderNotFound      ErrorCode = 503
	ErrCodeInvalidFill        ErrorCode = 504

	// Backtest errors (600-699)
	ErrCodeBacktestStateNil     ErrorCode = 600
	ErrCodeBacktestInitFailed   ErrorCode = 601
	ErrCodeBacktestNoDatasource ErrorCode = 602
	ErrCodeBacktestNoContract   ErrorCode = 603
	ErrCodeArithmeticUndefined  ErrorCode = 604

	// Report errors (700-799)
	ErrCodeReportWriteFailed ErrorCode = 700

	// Callback errors (800-899)
	ErrCodeCallbackFailed ErrorCode = 800
)

// fatalCodes abort a run. Everything else is logged and the simulation continues.
var fatalCodes = map[ErrorCode]struct{}{
	ErrCodeInvalidParameter:      {},
	ErrCodeInvalidConfiguration:  {},
	ErrCodeInvalidContractSpec:   {},
	ErrCodeMissingParameter:      {},
	ErrCodeInvalidVersion:        {},
	ErrCodeVersionMismatch:       {},
	ErrCodeInvalidBarSequence:    {},
	ErrCodeContractNotFound:      {},
	ErrCodeDataSourceUnavailable: {},
	ErrCodeStrategyNotLoaded:     {},
	ErrCodeBacktestStateNil:      {},
	ErrCodeBacktestInitFailed:    {},
	ErrCodeBacktestNoDatasource:  {},
	ErrCodeBacktestNoContract:    {},
	ErrCodeCallbackFailed:        {},
}
