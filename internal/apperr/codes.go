package apperr

const (
	CodeSuccess200 = "SCSS200"
	CodeSuccess201 = "SCSS201"

	CodeUnknown400 = "UNKN400"
	CodeUnknown500 = "UNKN500"
)

// Auth
var (
	ErrTokenMissing       = New(KindUnauthorized, "UTBM_401", "Token was not provided")
	ErrTokenInvalid       = New(KindUnauthorized, "UTBT_401", "Invalid token")
	ErrInvalidCredentials = New(KindUnauthorized, "USIC_401", "Invalid alias or token")
	ErrUserExists         = New(KindConflict, "USAE_409", "User with this alias already exists")
	ErrUserNotFound       = New(KindNotFound, "USNF_404", "User not found")
)

// Account
var (
	ErrAccountNotFound       = New(KindNotFound, "ACNF_404", "Account not found")
	ErrAccountExists         = New(KindConflict, "AAEX_409", "Account already exists for this month and year")
	ErrAccountAlreadyDefault = New(KindConflict, "ACAD_409", "Account is already the default account")
	ErrAccountCurrency       = New(KindConflict, "ACCC_409", "Currency cannot be changed once the account has transactions")
	ErrAccountDeleteDefault  = New(KindConflict, "ACCD_409", "Default account cannot be deleted while other accounts exist")
	ErrAccountPeriod         = New(KindInvalidInput, "ACPR_400", "Month and year are required for monthly accounts")
)

// Transaction
var (
	ErrTransactionNotFound    = New(KindNotFound, "TNF_404", "Transaction not found")
	ErrCategoryNotFound       = New(KindNotFound, "TCNF_404", "Category not found")
	ErrServiceNotFound        = New(KindNotFound, "TSNF_404", "Service not found")
	ErrCurrencyMismatch       = New(KindConflict, "TCUR_409", "Please select an account with the same currency")
	ErrDateOutOfPeriod        = New(KindInvalidInput, "TDOD_400", "Transaction date should be in the same month and year as the account")
	ErrInvalidDate            = New(KindInvalidInput, "TIDT_400", "Invalid date")
	ErrInvalidAmount          = New(KindInvalidInput, "TIAM_400", "Amount must be a positive number within storage precision")
	ErrAmountOutOfRange       = New(KindInternal, "TAOR_500", "Amount is too large for storage precision")
	ErrTransactionAlreadyPaid = New(KindConflict, "TAPD_409", "Transaction is already paid")
	ErrNotDebtLoan            = New(KindInvalidInput, "TNDL_400", "Only DEBT and LOAN transactions can be paid")
	ErrPaymentOverAmount      = New(KindInvalidInput, "TPOV_400", "Payment amount exceeds the remaining amount")
	ErrPaymentUnderAmount     = New(KindInvalidInput, "TPUN_400", "Payment amount must be greater than zero")
)

// Tags
var (
	ErrCategoryExists = New(KindConflict, "TCAE_409", "Transaction category already exists")
	ErrServiceExists  = New(KindConflict, "TSAE_409", "Transaction service already exists")
)

// Analytics
var (
	ErrInvalidRange = New(KindInvalidInput, "ANDR_400", "Start date cannot be after end date")
	ErrRateMissing  = New(KindInvalidInput, "ANRM_400", "No exchange rate available for currency")
	ErrRatesFailed  = New(KindInternal, "ANRF_500", "Failed to load exchange rates")
)
