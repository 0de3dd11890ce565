package worker

// email_worker.go
// Processes QueueEmail jobs: mails a price-change notice to the configured
// alert address.

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/BulizzesRG/myownpos/internal/dto"

	"github.com/rs/zerolog/log"
)

// Mailer is satisfied by *infra.Mailer.
type Mailer interface {
	Send(to, subject, body string) error
}

type EmailWorker struct {
	mailer Mailer
	to     string
}

// NewEmailWorker creates an EmailWorker sending to alertTo. With an empty
// address, jobs are acknowledged without sending.
func NewEmailWorker(mailer Mailer, alertTo string) *EmailWorker {
	return &EmailWorker{mailer: mailer, to: alertTo}
}

func (w *EmailWorker) Process(_ context.Context, job Job) error {
	var ev dto.PriceChangedEvent
	if err := json.Unmarshal(job.Payload, &ev); err != nil {
		return fmt.Errorf("email_worker: invalid payload: %w", err)
	}
	if w.to == "" {
		log.Debug().Uint("product_id", ev.ProductID).Msg("email_worker: no alert address, skipping")
		return nil
	}

	subject, body := priceChangedMessage(ev)
	if err := w.mailer.Send(w.to, subject, body); err != nil {
		return fmt.Errorf("email_worker: send to %s: %w", w.to, err)
	}
	log.Info().Str("to", w.to).Uint("product_id", ev.ProductID).Msg("email_worker: price change notice sent")
	return nil
}

func priceChangedMessage(ev dto.PriceChangedEvent) (string, string) {
	subject := fmt.Sprintf("Price changed: %s (#%d)", ev.Description, ev.ProductID)
	var b strings.Builder
	fmt.Fprintf(&b, "Product #%d %s (barcode %s)\n\n", ev.ProductID, ev.Description, ev.Barcode)
	fmt.Fprintf(&b, "Purchase price: %.2f -> %.2f\n", ev.OldPurchasePrice, ev.NewPurchasePrice)
	fmt.Fprintf(&b, "Sale price:     %.2f -> %.2f\n\n", ev.OldSalePrice, ev.NewSalePrice)
	fmt.Fprintf(&b, "Changed by user %d at %s\n", ev.UserID, ev.ChangedAt)
	return subject, b.String()
}
