package summary

import (
	"context"
	"fmt"
	"strings"
	"time"

	amessages "github.com/airenas/async-api/pkg/messages"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/caredial/caredial/internal/pkg/messages"
	"github.com/caredial/caredial/internal/pkg/notify"
	"github.com/caredial/caredial/internal/pkg/persistence"
	"github.com/caredial/caredial/internal/pkg/status"
	"github.com/caredial/caredial/internal/pkg/utils"
	"github.com/jordan-wright/email"
)

// DB provides persistence functionality
type DB interface {
	LoadCallback(ctx context.Context, id string) (*persistence.Callback, error)
	UpdateSummary(ctx context.Context, item *persistence.Callback) error
}

// Summarizer provides text completion
type Summarizer interface {
	Summarize(ctx context.Context, data map[string]string) (string, error)
	Translate(ctx context.Context, text, language string) (string, error)
}

// EmailMaker prepares the email
type EmailMaker interface {
	Make(data *notify.Data) (*email.Email, error)
}

// Sender sends emails
type Sender interface {
	Send(email *email.Email) error
}

// LinkMaker builds one-time sign-in links
type LinkMaker interface {
	Make(email, callID string) (string, error)
}

// MsgSender provides send msg functionality
type MsgSender interface {
	SendMessage(context.Context, amessages.Message, string) error
}

// Data keeps dependencies for the summary-and-notify operation
type Data struct {
	DB          DB
	Summarizer  Summarizer
	EmailMaker  EmailMaker
	EmailSender Sender
	LinkMaker   LinkMaker
	MsgSender   MsgSender
}

// Validate checks all dependencies are set
func Validate(data *Data) error {
	if data.DB == nil {
		return fmt.Errorf("no DB")
	}
	if data.Summarizer == nil {
		return fmt.Errorf("no summarizer")
	}
	if data.EmailMaker == nil {
		return fmt.Errorf("no email maker")
	}
	if data.EmailSender == nil {
		return fmt.Errorf("no email sender")
	}
	if data.LinkMaker == nil {
		return fmt.Errorf("no link maker")
	}
	if data.MsgSender == nil {
		return fmt.Errorf("no msg sender")
	}
	return nil
}

// Process runs the summary-and-notify stage for one callback:
// summarize, translate if needed, persist, email the sign-in link.
// The summary is persisted strictly before the email goes out.
// A record that already reached summary_generated is left as is -
// redelivery of the triggering event sends no second email.
func Process(ctx context.Context, callID string, structuredData map[string]string, data *Data) error {
	goapp.Log.Info().Str("ID", callID).Msg("handling summary")
	if callID == "" {
		return fmt.Errorf("no callID")
	}
	if len(structuredData) == 0 {
		return fmt.Errorf("no structured data")
	}

	rec, err := data.DB.LoadCallback(ctx, callID)
	if err != nil {
		return fmt.Errorf("can't load callback: %w", err)
	}
	if rec == nil {
		return fmt.Errorf("no callback record for '%s'", callID)
	}
	if status.From(rec.Status) >= status.SummaryGenerated {
		goapp.Log.Info().Str("ID", callID).Msg("summary already generated, skip")
		return nil
	}

	summaryEN, err := data.Summarizer.Summarize(ctx, structuredData)
	if err != nil {
		return fmt.Errorf("can't summarize: %w", err)
	}

	translated := ""
	language := structuredData["language"]
	if language != "" && !strings.EqualFold(language, "english") {
		translated, err = data.Summarizer.Translate(ctx, summaryEN, language)
		if err != nil {
			goapp.Log.Warn().Err(err).Str("ID", callID).Str("language", language).Msg("translation failed, proceed without it")
			translated = ""
		}
	}

	rec.AISummary = utils.ToSQLStr(summaryEN)
	rec.AISummaryTranslated = utils.ToSQLStr(translated)
	rec.AISummaryAt = utils.ToSQLTime(time.Now())
	if err := data.DB.UpdateSummary(ctx, rec); err != nil {
		return fmt.Errorf("can't save summary: %w", err)
	}

	if rec.Email == "" {
		return fmt.Errorf("no notification target for '%s'", callID)
	}

	link, err := data.LinkMaker.Make(rec.Email, callID)
	if err != nil {
		return fmt.Errorf("can't make sign-in link: %w", err)
	}

	mail, err := data.EmailMaker.Make(&notify.Data{Email: rec.Email, CallID: callID,
		Summary: summaryEN, TranslatedSummary: translated, Link: link})
	if err != nil {
		return fmt.Errorf("can't prepare email: %w", err)
	}
	if err := data.EmailSender.Send(mail); err != nil {
		return fmt.Errorf("can't send email: %w", err)
	}

	if err := data.MsgSender.SendMessage(ctx, &messages.CallbackMessage{
		QueueMessage: amessages.QueueMessage{ID: callID}}, messages.StatusChange); err != nil {
		goapp.Log.Error().Err(err).Str("ID", callID).Msg("can't send status change msg")
	}
	goapp.Log.Info().Str("ID", callID).Msg("summary completed")
	return nil
}
