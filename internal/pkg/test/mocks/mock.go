package mocks

import (
	"context"
	"io"

	"github.com/airenas/async-api/pkg/messages"
	"github.com/caredial/caredial/internal/pkg/notify"
	"github.com/caredial/caredial/internal/pkg/persistence"
	"github.com/jordan-wright/email"
	"github.com/stretchr/testify/mock"
)

// DB is postgres DB mock
type DB struct{ mock.Mock }

func (m *DB) InsertCallback(ctx context.Context, item *persistence.Callback) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

func (m *DB) LoadCallback(ctx context.Context, id string) (*persistence.Callback, error) {
	args := m.Called(ctx, id)
	return to[*persistence.Callback](args.Get(0)), args.Error(1)
}

func (m *DB) LoadCallbacks(ctx context.Context) ([]*persistence.Callback, error) {
	args := m.Called(ctx)
	return to[[]*persistence.Callback](args.Get(0)), args.Error(1)
}

func (m *DB) MarkCallCompleted(ctx context.Context, id string, data map[string]string) (bool, error) {
	args := m.Called(ctx, id, data)
	return args.Bool(0), args.Error(1)
}

func (m *DB) UpdateSummary(ctx context.Context, item *persistence.Callback) error {
	args := m.Called(ctx, item)
	return args.Error(0)
}

// Sender is postgres queue mock
type Sender struct{ mock.Mock }

func (m *Sender) SendMessage(ctx context.Context, msg messages.Message, queue string) error {
	args := m.Called(ctx, msg, queue)
	return args.Error(0)
}

// Telephony is vapi client mock
type Telephony struct{ mock.Mock }

func (m *Telephony) Call(ctx context.Context, phone, email string) (string, error) {
	args := m.Called(ctx, phone, email)
	return args.String(0), args.Error(1)
}

// Summarizer is completion client mock
type Summarizer struct{ mock.Mock }

func (m *Summarizer) Summarize(ctx context.Context, data map[string]string) (string, error) {
	args := m.Called(ctx, data)
	return args.String(0), args.Error(1)
}

func (m *Summarizer) Translate(ctx context.Context, text, language string) (string, error) {
	args := m.Called(ctx, text, language)
	return args.String(0), args.Error(1)
}

// EmailMaker prepares emails mock
type EmailMaker struct{ mock.Mock }

func (m *EmailMaker) Make(data *notify.Data) (*email.Email, error) {
	args := m.Called(data)
	return to[*email.Email](args.Get(0)), args.Error(1)
}

// EmailSender mock
type EmailSender struct{ mock.Mock }

func (m *EmailSender) Send(e *email.Email) error {
	args := m.Called(e)
	return args.Error(0)
}

// LinkMaker mock
type LinkMaker struct{ mock.Mock }

func (m *LinkMaker) Make(email, callID string) (string, error) {
	args := m.Called(email, callID)
	return args.String(0), args.Error(1)
}

// LinkVerifier mock
type LinkVerifier struct{ mock.Mock }

func (m *LinkVerifier) Verify(token, callID string) (string, error) {
	args := m.Called(token, callID)
	return args.String(0), args.Error(1)
}

// Filer is minio mock
type Filer struct{ mock.Mock }

func (m *Filer) SaveFile(ctx context.Context, name string, r io.Reader, fileSize int64) error {
	args := m.Called(ctx, name, r, fileSize)
	return args.Error(0)
}

// LoadFile func mock
func (m *Filer) LoadFile(ctx context.Context, fileName string) (io.ReadSeekCloser, error) {
	args := m.Called(ctx, fileName)
	return to[io.ReadSeekCloser](args.Get(0)), args.Error(1)
}

func to[T interface{}](val interface{}) T {
	if val == nil {
		var res T
		return res
	}
	return val.(T)
}
