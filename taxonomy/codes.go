package taxonomy

// CommonCode is a bank-agnostic numeric classification. Specific codes
// published by different banking partners may map to the same CommonCode,
// which is what category dispatch keys on.
//
// The zero value means "no common mapping".
type CommonCode int

// Authentication (1xxx)
const (
	CodeInvalidCredentials  CommonCode = 1000
	CodeTokenExpired        CommonCode = 1001
	CodeTokenInvalid        CommonCode = 1002
	CodeSessionExpired      CommonCode = 1003
	CodeAccountLocked       CommonCode = 1004
	CodeAccountDisabled     CommonCode = 1005
	CodeMFARequired         CommonCode = 1006
	CodeMFAFailed           CommonCode = 1007
	CodeDeviceNotRegistered CommonCode = 1008
)

// Connection (2xxx)
const (
	CodeConnectionFailed   CommonCode = 2000
	CodeTimeout            CommonCode = 2001
	CodeServiceUnavailable CommonCode = 2002
	CodeRateLimitExceeded  CommonCode = 2003
	CodeMaintenanceMode    CommonCode = 2004
	CodeDNSError           CommonCode = 2005
	CodeSSLError           CommonCode = 2006
	CodeProxyError         CommonCode = 2007
)

// Validation (3xxx)
const (
	CodeInvalidInput          CommonCode = 3000
	CodeMissingField          CommonCode = 3001
	CodeInvalidFormat         CommonCode = 3002
	CodeInvalidLength         CommonCode = 3003
	CodeInvalidValue          CommonCode = 3004
	CodeDuplicateEntry        CommonCode = 3005
	CodeBusinessRuleViolation CommonCode = 3006
)

// Account (4xxx)
const (
	CodeAccountNotFound      CommonCode = 4000
	CodeInsufficientFunds    CommonCode = 4001
	CodeAccountTypeInvalid   CommonCode = 4002
	CodeAccountInactive      CommonCode = 4003
	CodeAccountBlocked       CommonCode = 4004
	CodeLimitExceeded        CommonCode = 4005
	CodeInvalidBranch        CommonCode = 4006
	CodeInvalidAccountNumber CommonCode = 4007
)

// Transaction (5xxx)
const (
	CodeTransactionFailed        CommonCode = 5000
	CodeTransactionNotFound      CommonCode = 5001
	CodeTransactionExpired       CommonCode = 5002
	CodeTransactionCancelled     CommonCode = 5003
	CodeTransactionDuplicate     CommonCode = 5004
	CodeTransactionLimitExceeded CommonCode = 5005
	CodeInvalidTransactionType   CommonCode = 5006
)

// Payment (6xxx)
const (
	CodePaymentFailed           CommonCode = 6000
	CodePaymentNotFound         CommonCode = 6001
	CodePaymentExpired          CommonCode = 6002
	CodePaymentCancelled        CommonCode = 6003
	CodePaymentRejected         CommonCode = 6004
	CodePaymentLimitExceeded    CommonCode = 6005
	CodeInvalidPaymentType      CommonCode = 6006
	CodeInvalidBarcode          CommonCode = 6007
	CodeInvalidRecipient        CommonCode = 6008
	CodePaymentAlreadyProcessed CommonCode = 6009
	CodePaymentScheduleInvalid  CommonCode = 6010
	CodePaymentDateInvalid      CommonCode = 6011
)

// Document (7xxx)
const (
	CodeDocumentNotFound      CommonCode = 7000
	CodeDocumentExpired       CommonCode = 7001
	CodeDocumentInvalid       CommonCode = 7002
	CodeDocumentProcessing    CommonCode = 7003
	CodeDocumentRejected      CommonCode = 7004
	CodeInvalidDocumentType   CommonCode = 7005
	CodeDocumentLimitExceeded CommonCode = 7006
)

// System (8xxx)
const (
	CodeSystemError        CommonCode = 8000
	CodeDatabaseError      CommonCode = 8001
	CodeCacheError         CommonCode = 8002
	CodeIntegrationError   CommonCode = 8003
	CodeConfigurationError CommonCode = 8004
	CodeVersionMismatch    CommonCode = 8005
	CodeFeatureDisabled    CommonCode = 8006
	CodeDependencyError    CommonCode = 8007
)

// Security (9xxx)
const (
	CodeSecurityViolation  CommonCode = 9000
	CodeAccessDenied       CommonCode = 9001
	CodeInvalidIP          CommonCode = 9002
	CodeBlockedRegion      CommonCode = 9003
	CodeSuspiciousActivity CommonCode = 9004
	CodeEncryptionError    CommonCode = 9005
	CodeInvalidSignature   CommonCode = 9006
	CodeFraudDetected      CommonCode = 9007
)

// Business rules (10xxx)
const (
	CodeBusinessHourInvalid   CommonCode = 10000
	CodeProductUnavailable    CommonCode = 10001
	CodeServiceDisabled       CommonCode = 10002
	CodeCustomerBlocked       CommonCode = 10003
	CodeContractExpired       CommonCode = 10004
	CodeInvalidStatus         CommonCode = 10005
	CodeOperationNotSupported CommonCode = 10006
)

// Severity is the urgency tier of a classified failure. It drives how long
// a user-facing notification stays on screen.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Category is the coarse classification of a failure and the key for
// dispatch in the global exception handler.
type Category string

const (
	CategoryConnection     Category = "CONNECTION"
	CategoryAuthentication Category = "AUTHENTICATION"
	CategoryValidation     Category = "VALIDATION"
	CategoryTimeout        Category = "TIMEOUT"
	CategoryAccount        Category = "ACCOUNT"
	CategoryTransaction    Category = "TRANSACTION"
	CategoryPayment        Category = "PAYMENT"
	CategorySystem         Category = "SYSTEM"
	CategorySecurity       Category = "SECURITY"
	CategoryBusiness       Category = "BUSINESS"
	CategoryUnknown        Category = "UNKNOWN"
)
