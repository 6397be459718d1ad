// Package taxonomy holds the static error taxonomy shared by all bank
// integrations: the bank-agnostic common codes and the registry of
// bank-specific error codes with their messages, categories and severities.
//
// The registry is immutable and loaded at init; lookups have no side
// effects and an absent entry is a valid, non-error result.
package taxonomy

import "fmt"

// Entry describes one bank-specific error code.
type Entry struct {
	Message    string
	Category   Category
	Severity   Severity
	CommonCode CommonCode // zero when the code has no common mapping
}

var bankCodes = map[string]map[string]Entry{
	"Banco do Brasil": {
		"BB-AUTH-001": {"Credenciais inválidas", CategoryAuthentication, SeverityHigh, CodeInvalidCredentials},
		"BB-AUTH-002": {"Sessão expirada", CategoryAuthentication, SeverityMedium, CodeSessionExpired},
		"BB-AUTH-003": {"Dispositivo não registrado", CategoryAuthentication, SeverityHigh, CodeDeviceNotRegistered},

		"BB-ACC-001": {"Conta não encontrada", CategoryAccount, SeverityHigh, CodeAccountNotFound},
		"BB-ACC-002": {"Saldo insuficiente", CategoryAccount, SeverityHigh, CodeInsufficientFunds},
		"BB-ACC-003": {"Conta bloqueada", CategoryAccount, SeverityHigh, CodeAccountBlocked},

		"BB-PAY-001": {"Pagamento não autorizado", CategoryPayment, SeverityHigh, CodePaymentRejected},
		"BB-PAY-002": {"Código de barras inválido", CategoryPayment, SeverityMedium, CodeInvalidBarcode},
		"BB-PAY-003": {"Data de pagamento inválida", CategoryPayment, SeverityMedium, CodePaymentDateInvalid},

		"BB-TRX-001": {"Transação não encontrada", CategoryTransaction, SeverityMedium, CodeTransactionNotFound},
		"BB-TRX-002": {"Limite diário excedido", CategoryTransaction, SeverityHigh, CodeTransactionLimitExceeded},
		"BB-TRX-003": {"Transação duplicada", CategoryTransaction, SeverityMedium, CodeTransactionDuplicate},
	},

	"Bradesco": {
		"BRA-AUTH-001": {"Usuário bloqueado", CategoryAuthentication, SeverityHigh, CodeAccountLocked},
		"BRA-AUTH-002": {"Token inválido", CategoryAuthentication, SeverityHigh, CodeTokenInvalid},
		"BRA-AUTH-003": {"MFA requerido", CategoryAuthentication, SeverityMedium, CodeMFARequired},

		"BRA-ACC-001": {"Agência inválida", CategoryAccount, SeverityHigh, CodeInvalidBranch},
		"BRA-ACC-002": {"Conta inativa", CategoryAccount, SeverityHigh, CodeAccountInactive},
		"BRA-ACC-003": {"Tipo de conta inválido", CategoryAccount, SeverityMedium, CodeAccountTypeInvalid},

		"BRA-PAY-001": {"Beneficiário inválido", CategoryPayment, SeverityHigh, CodeInvalidRecipient},
		"BRA-PAY-002": {"Pagamento vencido", CategoryPayment, SeverityMedium, CodePaymentExpired},
		"BRA-PAY-003": {"Tipo de pagamento inválido", CategoryPayment, SeverityMedium, CodeInvalidPaymentType},
	},

	"Itau": {
		"ITAU-AUTH-001": {"Senha expirada", CategoryAuthentication, SeverityHigh, CodeTokenExpired},
		"ITAU-AUTH-002": {"Acesso bloqueado", CategoryAuthentication, SeverityHigh, CodeAccessDenied},
		"ITAU-AUTH-003": {"Validação adicional necessária", CategoryAuthentication, SeverityMedium, CodeMFARequired},

		"ITAU-SYS-001": {"Sistema indisponível", CategorySystem, SeverityHigh, CodeServiceUnavailable},
		"ITAU-SYS-002": {"Erro de integração", CategorySystem, SeverityHigh, CodeIntegrationError},
		"ITAU-SYS-003": {"Manutenção programada", CategorySystem, SeverityMedium, CodeMaintenanceMode},

		"ITAU-BUS-001": {"Horário não permitido", CategoryBusiness, SeverityMedium, CodeBusinessHourInvalid},
		"ITAU-BUS-002": {"Serviço indisponível", CategoryBusiness, SeverityHigh, CodeServiceDisabled},
		"ITAU-BUS-003": {"Operação não suportada", CategoryBusiness, SeverityMedium, CodeOperationNotSupported},
	},

	"Santander": {
		"STD-AUTH-001": {"Credenciais inválidas", CategoryAuthentication, SeverityHigh, CodeInvalidCredentials},
		"STD-AUTH-002": {"Token expirado", CategoryAuthentication, SeverityMedium, CodeTokenExpired},
		"STD-AUTH-003": {"Conta desativada", CategoryAuthentication, SeverityHigh, CodeAccountDisabled},

		"STD-SEC-001": {"Atividade suspeita detectada", CategorySecurity, SeverityHigh, CodeSuspiciousActivity},
		"STD-SEC-002": {"IP não autorizado", CategorySecurity, SeverityHigh, CodeInvalidIP},
		"STD-SEC-003": {"Região bloqueada", CategorySecurity, SeverityHigh, CodeBlockedRegion},

		"STD-VAL-001": {"Campo obrigatório ausente", CategoryValidation, SeverityMedium, CodeMissingField},
		"STD-VAL-002": {"Formato inválido", CategoryValidation, SeverityMedium, CodeInvalidFormat},
		"STD-VAL-003": {"Valor inválido", CategoryValidation, SeverityMedium, CodeInvalidValue},
	},
}

// Lookup returns the registered entry for a (bank, code) pair. The second
// return is false when the bank or the code is unknown.
func Lookup(bank, code string) (Entry, bool) {
	entry, ok := bankCodes[bank][code]
	return entry, ok
}

// HasCode reports whether a bank publishes the given error code.
func HasCode(bank, code string) bool {
	_, ok := bankCodes[bank][code]
	return ok
}

// CommonCodeFor resolves the bank-agnostic common code for a (bank, code)
// pair. False when the pair is unknown or has no common mapping.
func CommonCodeFor(bank, code string) (CommonCode, bool) {
	entry, ok := bankCodes[bank][code]
	if !ok || entry.CommonCode == 0 {
		return 0, false
	}
	return entry.CommonCode, true
}

// FormatMessage renders "[code] message" for a known code. Unknown codes
// come back unmodified since there is no classification metadata to add.
func FormatMessage(bank, code string) string {
	entry, ok := Lookup(bank, code)
	if !ok {
		return code
	}
	return fmt.Sprintf("[%s] %s", code, entry.Message)
}

// Banks lists the banks present in the registry.
func Banks() []string {
	names := make([]string, 0, len(bankCodes))
	for name := range bankCodes {
		names = append(names, name)
	}
	return names
}

// Codes lists the registered error codes for a bank, nil when the bank is
// unknown.
func Codes(bank string) []string {
	table, ok := bankCodes[bank]
	if !ok {
		return nil
	}
	codes := make([]string, 0, len(table))
	for code := range table {
		codes = append(codes, code)
	}
	return codes
}
