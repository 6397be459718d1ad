package handler

import (
	"context"
	"time"

	"github.com/corretorsys/bankcore/bankerr"
	"github.com/corretorsys/bankcore/taxonomy"
)

const (
	maxPaymentRetries    = 3
	maxStatusChecks      = 5
	maxReconnectAttempts = 3
)

func (h *Handler) handleAuthentication(rec bankerr.Record) {
	switch rec.CommonCode {
	case taxonomy.CodeTokenExpired, taxonomy.CodeSessionExpired:
		h.navigateTo("/login")
	case taxonomy.CodeAccountLocked, taxonomy.CodeAccountDisabled:
		h.notifySticky("Sua conta está bloqueada. Entre em contato com o suporte.")
	case taxonomy.CodeMFARequired:
		h.navigateTo("/mfa")
	}
}

func (h *Handler) handlePayment(ctx context.Context, rec bankerr.Record, exc *bankerr.Exception) {
	if exc != nil && exc.Kind == bankerr.KindPayment {
		if exc.CanRetry() {
			h.retryPaymentLoop(ctx, exc)
		} else {
			h.showResolutionSteps(exc)
		}

		if exc.RequiresStatusCheck() {
			h.scheduleStatusCheck(exc)
		}
	}

	h.logger.Info("payment error recorded",
		"bank", rec.BankName,
		"common_code", int(rec.CommonCode),
		"error_code", rec.ErrorCode,
	)
}

func (h *Handler) handleConnection(ctx context.Context, rec bankerr.Record, exc *bankerr.Exception) {
	switch rec.CommonCode {
	case taxonomy.CodeServiceUnavailable, taxonomy.CodeMaintenanceMode:
		h.showServiceUnavailable(rec)
	case taxonomy.CodeRateLimitExceeded:
		h.waitRateLimit(ctx, exc)
	default:
		h.attemptReconnection(ctx)
	}
}

func (h *Handler) handleValidation(rec bankerr.Record) {
	if fields := detailStrings(rec.Details, "invalidFields"); len(fields) > 0 {
		h.logger.Warn("validation rejected fields", "bank", rec.BankName, "fields", fields)
	}
	for _, message := range detailStrings(rec.Details, "validationMessages") {
		h.notifyWarning(message, 5*time.Second)
	}
}

func (h *Handler) handleSecurity(rec bankerr.Record) {
	switch rec.CommonCode {
	case taxonomy.CodeSuspiciousActivity, taxonomy.CodeFraudDetected:
		h.notifySticky("Detectamos uma atividade suspeita. Por segurança, algumas operações foram bloqueadas.")
	case taxonomy.CodeBlockedRegion, taxonomy.CodeInvalidIP:
		h.notifyError("Acesso bloqueado devido a restrições de localização.", 7*time.Second)
	}

	h.logger.Error("security event",
		"bank", rec.BankName,
		"common_code", int(rec.CommonCode),
		"details", rec.Details,
	)
}

func (h *Handler) handleGeneric(rec bankerr.Record) {
	h.notifyError("Ocorreu um erro inesperado. Tente novamente ou contate o suporte.", 5*time.Second)
	h.logger.Error("unclassified error",
		"message", rec.Message,
		"category", rec.Category,
	)
}

// retryPaymentLoop re-attempts a retryable payment up to three times with a
// fixed delay, aborting early when a retry itself fails with a
// non-retryable payment exception.
func (h *Handler) retryPaymentLoop(ctx context.Context, exc *bankerr.Exception) {
	if h.retryPayment == nil {
		return
	}

	for attempt := 1; attempt <= maxPaymentRetries; attempt++ {
		if err := sleepCtx(ctx, h.paymentRetryInterval); err != nil {
			return
		}

		err := h.retryPayment(ctx, exc)
		if err == nil {
			h.logger.Info("payment retry succeeded", "bank", exc.BankName, "attempt", attempt)
			return
		}

		if retryExc, ok := bankerr.AsException(err); ok &&
			retryExc.Kind == bankerr.KindPayment && !retryExc.CanRetry() {
			h.logger.Warn("payment retry hit terminal status", "bank", exc.BankName, "attempt", attempt)
			return
		}

		h.logger.Warn("payment retry failed", "bank", exc.BankName, "attempt", attempt, "error", err)
	}
}

func (h *Handler) showResolutionSteps(exc *bankerr.Exception) {
	for _, step := range exc.ResolutionSteps() {
		h.notifyInfo(step, 7*time.Second)
	}
}

// scheduleStatusCheck starts a poller confirming the payment outcome with
// the bank: every statusCheckInterval, at most five checks, stopping early
// on a failing check or via Close.
func (h *Handler) scheduleStatusCheck(exc *bankerr.Exception) {
	h.tasks.spawn(func(ctx context.Context) {
		ticker := time.NewTicker(h.statusCheckInterval)
		defer ticker.Stop()

		for checks := 0; checks < maxStatusChecks; {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				checks++
				if h.checkStatus == nil {
					continue
				}
				if err := h.checkStatus(ctx, exc); err != nil {
					h.logger.Warn("payment status check failed",
						"bank", exc.BankName, "check", checks, "error", err)
					return
				}
			}
		}
	})
}

// waitRateLimit blocks for the bank's advertised retry-after window before
// returning control to the pipeline.
func (h *Handler) waitRateLimit(ctx context.Context, exc *bankerr.Exception) {
	wait := time.Minute
	if exc != nil {
		wait = exc.RetryAfter()
	}
	h.logger.Info("rate limit exceeded, backing off", "wait", wait)
	_ = sleepCtx(ctx, wait)
}

// attemptReconnection probes the connection up to three times with a fixed
// delay, swallowing per-attempt failures.
func (h *Handler) attemptReconnection(ctx context.Context) {
	for attempt := 1; attempt <= maxReconnectAttempts; attempt++ {
		if err := sleepCtx(ctx, h.reconnectInterval); err != nil {
			return
		}

		if h.reconnect == nil {
			continue
		}
		if err := h.reconnect(ctx); err != nil {
			h.logger.Warn("reconnection attempt failed", "attempt", attempt, "error", err)
			continue
		}
		h.logger.Info("reconnected", "attempt", attempt)
		return
	}
}

func (h *Handler) navigateTo(path string) {
	if h.navigator != nil {
		h.navigator.NavigateTo(path)
	}
}

func (h *Handler) notifySticky(message string) {
	if h.notifier != nil {
		h.notifier.Notify(message, stickyErrorOptions())
	}
}

func (h *Handler) notifyError(message string, autoHide time.Duration) {
	if h.notifier != nil {
		h.notifier.NotifyError(message, autoHide)
	}
}

func (h *Handler) notifyWarning(message string, autoHide time.Duration) {
	if h.notifier != nil {
		h.notifier.NotifyWarning(message, autoHide)
	}
}

func (h *Handler) notifyInfo(message string, autoHide time.Duration) {
	if h.notifier != nil {
		h.notifier.NotifyInfo(message, autoHide)
	}
}

func (h *Handler) showServiceUnavailable(rec bankerr.Record) {
	message := "Serviço temporariamente indisponível. Tente novamente em alguns minutos."
	if rec.CommonCode == taxonomy.CodeMaintenanceMode {
		message = "Sistema em manutenção. Tente novamente mais tarde."
	}
	h.notifyWarning(message, 5*time.Second)
}

func detailStrings(details bankerr.Details, key string) []string {
	switch v := details[key].(type) {
	case []string:
		return v
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
		return out
	default:
		return nil
	}
}
