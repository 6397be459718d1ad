package bankerr

import (
	"time"

	"github.com/corretorsys/bankcore/taxonomy"
	"github.com/google/uuid"
)

// Record is the persisted projection of an exception. It is what the error
// store keeps and what handler callbacks receive.
type Record struct {
	ID         string              `json:"id"`
	Message    string              `json:"message"`
	BankName   string              `json:"bankName"`
	Category   taxonomy.Category   `json:"category"`
	Severity   taxonomy.Severity   `json:"severity"`
	Timestamp  time.Time           `json:"timestamp"`
	Details    Details             `json:"details,omitempty"`
	ErrorCode  string              `json:"errorCode,omitempty"`
	CommonCode taxonomy.CommonCode `json:"commonErrorCode,omitempty"`
	ResolvedAt *time.Time          `json:"resolvedAt"`
}

// ToRecord projects the exception into a Record with a freshly generated
// id. ResolvedAt starts nil; it is set later when the error is marked
// resolved.
func (e *Exception) ToRecord() Record {
	return Record{
		ID:         uuid.NewString(),
		Message:    e.Message,
		BankName:   e.BankName,
		Category:   e.Category,
		Severity:   e.Severity,
		Timestamp:  e.Timestamp,
		Details:    e.Details,
		ErrorCode:  e.ErrorCode,
		CommonCode: e.CommonCode,
		ResolvedAt: nil,
	}
}
