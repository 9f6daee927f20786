package callbackservice

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"io/fs"
	"log"
	"net/http"
	"strconv"
	"time"

	"github.com/facebookgo/grace/gracehttp"
	"github.com/gorilla/websocket"
	"github.com/minio/minio-go/v7"
	"github.com/pkg/errors"

	amessages "github.com/airenas/async-api/pkg/messages"
	"github.com/caredial/caredial/internal/pkg/api"
	"github.com/caredial/caredial/internal/pkg/messages"
	"github.com/caredial/caredial/internal/pkg/persistence"
	"github.com/caredial/caredial/internal/pkg/status"
	"github.com/caredial/caredial/internal/pkg/summary"
	"github.com/caredial/caredial/internal/pkg/utils"

	"github.com/airenas/go-app/pkg/goapp"

	"github.com/labstack/echo-contrib/prometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// Telephony places outbound calls
type Telephony interface {
	Call(ctx context.Context, phone, email string) (string, error)
}

// DB keeps callback records
type DB interface {
	InsertCallback(ctx context.Context, item *persistence.Callback) error
	LoadCallback(ctx context.Context, id string) (*persistence.Callback, error)
	LoadCallbacks(ctx context.Context) ([]*persistence.Callback, error)
	MarkCallCompleted(ctx context.Context, id string, data map[string]string) (bool, error)
}

// MsgSender provides send msg functionality
type MsgSender interface {
	SendMessage(context.Context, amessages.Message, string) error
}

// Filer archives and serves raw webhook payloads
type Filer interface {
	SaveFile(ctx context.Context, name string, r io.Reader, fileSize int64) error
	LoadFile(ctx context.Context, name string) (io.ReadSeekCloser, error)
}

// LinkVerifier checks a sign-in token and returns the email it was issued for
type LinkVerifier interface {
	Verify(token, callID string) (string, error)
}

// WSConnHandler is websocket connection wrapper
type WSConnHandler interface {
	HandleConnection(WsConn) error
	GetConnections(id string) ([]WsConn, bool)
}

// Data keeps data required for service work
type Data struct {
	Port         int
	Telephony    Telephony
	DB           DB
	MsgSender    MsgSender
	Filer        Filer
	LinkVerifier LinkVerifier
	WSHandler    WSConnHandler
	Summary      *summary.Data
}

// StartWebServer starts echo web service
func StartWebServer(data *Data) error {
	goapp.Log.Info().Msgf("Starting HTTP CareDial callback service at %d", data.Port)
	if err := validate(data); err != nil {
		return err
	}

	portStr := strconv.Itoa(data.Port)

	e := initRoutes(data)

	e.Server.Addr = ":" + portStr
	e.Server.ReadHeaderTimeout = 5 * time.Second
	e.Server.ReadTimeout = 60 * time.Second
	e.Server.WriteTimeout = 60 * time.Second

	gracehttp.SetLogger(log.New(goapp.Log, "", 0))

	return gracehttp.Serve(e.Server)
}

func validate(data *Data) error {
	if data.Telephony == nil {
		return errors.New("no telephony client")
	}
	if data.DB == nil {
		return fmt.Errorf("no DB")
	}
	if data.MsgSender == nil {
		return fmt.Errorf("no msg sender")
	}
	if data.Filer == nil {
		return fmt.Errorf("no filer")
	}
	if data.LinkVerifier == nil {
		return fmt.Errorf("no link verifier")
	}
	if data.WSHandler == nil {
		return fmt.Errorf("no WSHandler")
	}
	return summary.Validate(data.Summary)
}

var promMdlw *prometheus.Prometheus

func init() {
	promMdlw = prometheus.NewPrometheus("caredial_callback", nil)
}

func initRoutes(data *Data) *echo.Echo {
	e := echo.New()
	e.Use(middleware.Logger())
	promMdlw.Use(e)

	e.POST("/call-initiate", initiate(data))
	e.POST("/call-webhook", webhook(data))
	e.POST("/summary-notify", summaryNotify(data))
	e.GET("/callbacks", list(data))
	e.GET("/callbacks/:id", view(data))
	e.GET("/report/:id", report(data))
	e.GET("/live", live(data))
	e.GET("/subscribe", subscribeHandler(data))

	goapp.Log.Info().Msg("Routes:")
	for _, r := range e.Routes() {
		goapp.Log.Info().Msgf("  %s %s", r.Method, r.Path)
	}
	return e
}

func live(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		return c.JSONBlob(http.StatusOK, []byte(`{"service":"OK"}`))
	}
}

func initiate(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("initiate method")()
		ctx := c.Request().Context()

		var req api.InitiateRequest
		if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusBadRequest, "wrong input")
		}
		if req.Email == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "no email")
		}
		if req.Phone == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "no phone")
		}

		id, err := data.Telephony.Call(ctx, req.Phone, req.Email)
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			var errUp *utils.ErrUpstream
			if errors.As(err, &errUp) {
				return echo.NewHTTPError(http.StatusBadGateway, errUp.Message)
			}
			return echo.NewHTTPError(http.StatusBadGateway, "can't place call")
		}
		goapp.Log.Info().Str("ID", id).Msg("call placed")

		err = data.DB.InsertCallback(ctx, &persistence.Callback{ID: id, Email: req.Email, Phone: req.Phone,
			Status: status.Initiated.String(), Created: time.Now()})
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError)
		}

		return c.JSON(http.StatusOK, api.InitiateResponse{Success: true, CallID: id})
	}
}

// webhook acknowledges every provider event with 200 so the provider
// does not retry. All failures past parsing are logged, not returned.
func webhook(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("webhook method")()
		ctx := c.Request().Context()
		ack := func() error {
			return c.JSON(http.StatusOK, api.WebhookResponse{Received: true})
		}

		body, err := io.ReadAll(c.Request().Body)
		if err != nil {
			goapp.Log.Error().Err(err).Msg("can't read webhook body")
			return ack()
		}
		var event api.WebhookEvent
		if err := json.Unmarshal(body, &event); err != nil {
			goapp.Log.Error().Err(err).Msg("can't parse webhook body")
			return ack()
		}
		if event.Message == nil || event.Message.Type != api.EventTypeEndOfCallReport {
			goapp.Log.Debug().Msg("not an end-of-call-report event, skip")
			return ack()
		}
		if event.Message.Call == nil || event.Message.Call.ID == "" {
			goapp.Log.Warn().Msg("end-of-call-report without call ID, skip")
			return ack()
		}
		id := event.Message.Call.ID
		goapp.Log.Info().Str("ID", id).Msg("got end-of-call-report")

		if event.Message.Analysis == nil || len(event.Message.Analysis.StructuredData) == 0 {
			goapp.Log.Warn().Str("ID", id).Msg("no structured data, skip")
			return ack()
		}
		structured := event.Message.Analysis.StructuredData

		archivePayload(ctx, data, id, body)

		rec, err := data.DB.LoadCallback(ctx, id)
		if err != nil {
			goapp.Log.Error().Err(err).Str("ID", id).Send()
			return ack()
		}
		if rec == nil {
			goapp.Log.Warn().Str("ID", id).Msg("no callback record, skip")
			return ack()
		}
		if rec.Email == "" {
			goapp.Log.Warn().Str("ID", id).Msg("record without email, skip")
			return ack()
		}

		ok, err := data.DB.MarkCallCompleted(ctx, id, structured)
		if err != nil {
			goapp.Log.Error().Err(err).Str("ID", id).Send()
			return ack()
		}
		if !ok {
			goapp.Log.Info().Str("ID", id).Msg("summary already generated, skip")
			return ack()
		}

		msg := &messages.CallbackMessage{QueueMessage: amessages.QueueMessage{ID: id}, StructuredData: structured}
		if err := data.MsgSender.SendMessage(ctx, msg, messages.Notify); err != nil {
			goapp.Log.Error().Err(err).Str("ID", id).Msg("can't send notify msg")
			return ack()
		}
		if err := data.MsgSender.SendMessage(ctx, &messages.CallbackMessage{
			QueueMessage: amessages.QueueMessage{ID: id}}, messages.StatusChange); err != nil {
			goapp.Log.Error().Err(err).Str("ID", id).Msg("can't send status change msg")
		}
		return ack()
	}
}

func archivePayload(ctx context.Context, data *Data, id string, body []byte) {
	if err := data.Filer.SaveFile(ctx, id+".json", bytes.NewReader(body), int64(len(body))); err != nil {
		goapp.Log.Error().Err(err).Str("ID", id).Msg("can't archive webhook payload")
	}
}

func summaryNotify(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("summaryNotify method")()
		ctx := c.Request().Context()

		var req api.SummaryRequest
		if err := json.NewDecoder(c.Request().Body).Decode(&req); err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusBadRequest, "wrong input")
		}
		if req.CallID == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "no callId")
		}
		if len(req.StructuredData) == 0 {
			return echo.NewHTTPError(http.StatusBadRequest, "no structuredData")
		}

		if err := summary.Process(ctx, req.CallID, req.StructuredData, data.Summary); err != nil {
			goapp.Log.Error().Err(err).Str("ID", req.CallID).Send()
			return echo.NewHTTPError(http.StatusInternalServerError, "Service error")
		}
		return c.JSON(http.StatusOK, api.SummaryResponse{Success: true})
	}
}

func list(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("list method")()

		items, err := data.DB.LoadCallbacks(c.Request().Context())
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusInternalServerError, "Service error")
		}
		res := make([]*api.Callback, 0, len(items))
		for _, item := range items {
			res = append(res, mapCallback(item))
		}
		return c.JSON(http.StatusOK, res)
	}
}

func view(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("view method")()

		id := c.Param("id")
		if id == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "No ID")
		}
		rec, err := authorize(c, data, id)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, mapCallback(rec))
	}
}

func report(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		defer goapp.Estimate("report method")()

		id := c.Param("id")
		if id == "" {
			return echo.NewHTTPError(http.StatusBadRequest, "No ID")
		}
		if _, err := authorize(c, data, id); err != nil {
			return err
		}
		return serveFile(c, data, id+".json")
	}
}

// authorize validates the sign-in token against the record it was issued for
func authorize(c echo.Context, data *Data, id string) (*persistence.Callback, error) {
	token := c.QueryParam("token")
	if token == "" {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "no token")
	}
	email, err := data.LinkVerifier.Verify(token, id)
	if err != nil {
		goapp.Log.Error().Err(err).Str("ID", id).Send()
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "wrong token")
	}
	rec, err := data.DB.LoadCallback(c.Request().Context(), id)
	if err != nil {
		goapp.Log.Error().Err(err).Send()
		return nil, echo.NewHTTPError(http.StatusInternalServerError, "Service error")
	}
	if rec == nil {
		return nil, echo.NewHTTPError(http.StatusNotFound, "not found")
	}
	if rec.Email != email {
		return nil, echo.NewHTTPError(http.StatusUnauthorized, "wrong token")
	}
	return rec, nil
}

func serveFile(c echo.Context, data *Data, name string) error {
	goapp.Log.Info().Str("file", name).Msg("loading")
	file, err := data.Filer.LoadFile(c.Request().Context(), name)
	if err != nil {
		if isNotFound(err) {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusNotFound, "not found")
		}
		goapp.Log.Error().Err(err).Send()
		return echo.NewHTTPError(http.StatusInternalServerError, "Can't get file")
	}
	defer file.Close()
	stGetter, ok := file.(interface{ Stat() (fs.FileInfo, error) })
	if !ok {
		goapp.Log.Error().Msg(`file does implement "interface{ Stat() (fs.FileInfo, error)"`)
		return echo.NewHTTPError(http.StatusInternalServerError, "Can't get file stat")
	}
	stat, err := stGetter.Stat()
	if err != nil {
		if isNotFound(err) {
			goapp.Log.Error().Err(err).Send()
			return echo.NewHTTPError(http.StatusNotFound, "not found")
		}
		goapp.Log.Error().Err(err).Send()
		return echo.NewHTTPError(http.StatusInternalServerError, "Can't get file stat")
	}

	w := c.Response()
	w.Header().Set("Content-Type", "application/json")
	http.ServeContent(w, c.Request(), stat.Name(), stat.ModTime(), file)
	return nil
}

func isNotFound(err error) bool {
	var errTest minio.ErrorResponse
	return errors.As(err, &errTest) && errTest.StatusCode == http.StatusNotFound
}

func mapCallback(item *persistence.Callback) *api.Callback {
	return &api.Callback{ID: item.ID, Email: item.Email, Phone: item.Phone, Status: item.Status,
		StructuredData:      item.StructuredData,
		AISummary:           utils.FromSQLStr(item.AISummary),
		AISummaryTranslated: utils.FromSQLStr(item.AISummaryTranslated),
		AISummaryAt:         utils.FromSQLTimeStr(item.AISummaryAt),
		CreatedAt:           item.Created.Format(time.RFC3339),
		UpdatedAt:           utils.FromSQLTimeStr(item.Updated)}
}

var wsUpgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	}}

func subscribeHandler(data *Data) func(echo.Context) error {
	return func(c echo.Context) error {
		ws, err := wsUpgrader.Upgrade(c.Response(), c.Request(), nil)
		if err != nil {
			goapp.Log.Error().Err(err).Send()
			return err
		}
		defer ws.Close()

		return data.WSHandler.HandleConnection(ws)
	}
}
