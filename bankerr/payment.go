package bankerr

import "fmt"

// Payment statuses the bank reports back on a failed payment.
const (
	PaymentStatusRejected   = "REJECTED"
	PaymentStatusInvalid    = "INVALID"
	PaymentStatusDuplicate  = "DUPLICATE"
	PaymentStatusPending    = "PENDING"
	PaymentStatusProcessing = "PROCESSING"
)

// TransactionID is the bank-side transaction id, empty when the payment
// never reached the bank.
func (e *Exception) TransactionID() string {
	return e.detailString("transactionId")
}

// PaymentStatus is the status the bank reported, empty when unknown.
func (e *Exception) PaymentStatus() string {
	return e.detailString("paymentStatus")
}

// FailureReason is the bank's explanation for the failure, empty when
// unknown.
func (e *Exception) FailureReason() string {
	return e.detailString("failureReason")
}

// WasProcessed reports whether the payment reached the bank at all.
func (e *Exception) WasProcessed() bool {
	return e.TransactionID() != ""
}

// CanRetry reports whether resubmitting the payment can change the outcome.
// A payment is retryable when it never reached the bank, or when the
// reported status is present and not terminal. A transaction id with no
// status is treated as non-retryable until the status is known.
func (e *Exception) CanRetry() bool {
	if !e.WasProcessed() {
		return true
	}
	status := e.PaymentStatus()
	if status == "" {
		return false
	}
	switch status {
	case PaymentStatusRejected, PaymentStatusInvalid, PaymentStatusDuplicate:
		return false
	}
	return true
}

// RequiresStatusCheck reports whether the payment outcome is still open on
// the bank side and must be confirmed.
func (e *Exception) RequiresStatusCheck() bool {
	status := e.PaymentStatus()
	return status == PaymentStatusPending || status == PaymentStatusProcessing
}

// ResolutionSteps builds the ordered operator instructions for a failed
// payment. When no rule applies the single fallback is to contact bank
// support.
func (e *Exception) ResolutionSteps() []string {
	var steps []string
	status := e.PaymentStatus()

	if !e.WasProcessed() {
		steps = append(steps, "Tentar processar o pagamento novamente")
	}

	if status == PaymentStatusRejected {
		steps = append(steps, "Verificar os dados do pagamento")
		if reason := e.FailureReason(); reason != "" {
			steps = append(steps, fmt.Sprintf("Corrigir o problema: %s", reason))
		}
	}

	if status == PaymentStatusPending {
		steps = append(steps,
			"Aguardar processamento pelo banco",
			"Verificar status em alguns minutos",
		)
	}

	if e.RequiresStatusCheck() {
		steps = append(steps, "Consultar status atual no banco")
	}

	if len(steps) == 0 {
		steps = append(steps, "Entrar em contato com o suporte do banco")
	}

	return steps
}
