package main

import (
	"context"
	"time"

	ainform "github.com/airenas/async-api/pkg/inform"
	"github.com/airenas/async-api/pkg/miniofs"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/caredial/caredial/internal/pkg/auth"
	"github.com/caredial/caredial/internal/pkg/callbackservice"
	"github.com/caredial/caredial/internal/pkg/notify"
	"github.com/caredial/caredial/internal/pkg/postgres"
	"github.com/caredial/caredial/internal/pkg/summarizer"
	"github.com/caredial/caredial/internal/pkg/summary"
	"github.com/caredial/caredial/internal/pkg/vapi"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/gommon/color"
	"github.com/vgarvardt/gue/v5"
	"github.com/vgarvardt/gue/v5/adapter/pgxv5"
)

func main() {
	goapp.StartWithDefault()

	printBanner()

	cfg := goapp.Config
	data := &callbackservice.Data{}
	data.Port = cfg.GetInt("port")
	var err error

	ctx := context.Background()

	dbConfig, err := pgxpool.ParseConfig(cfg.GetString("db.url"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}
	goapp.Log.Info().Int32("max_conn", dbConfig.MaxConns).Int32("min_conn", dbConfig.MinConns).Msg("db info")

	dbPool, err := pgxpool.NewWithConfig(ctx, dbConfig)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db pool")
	}
	defer dbPool.Close()

	db, err := postgres.NewDB(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db")
	}
	data.DB = db

	data.Telephony, err = vapi.NewClient(cfg.GetString("vapi.url"), cfg.GetString("vapi.key"),
		cfg.GetString("vapi.assistantID"), cfg.GetString("vapi.phoneNumberID"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init telephony client")
	}

	data.Filer, err = miniofs.NewFiler(ctx, miniofs.Options{Bucket: cfg.GetString("filer.bucket"),
		URL: cfg.GetString("filer.url"), User: cfg.GetString("filer.user"), Key: cfg.GetString("filer.key")})
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init filer")
	}

	data.MsgSender, err = postgres.NewSender(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init gue sender")
	}

	linkMaker, err := auth.NewLinkMaker(cfg.GetString("link.url"), cfg.GetString("link.key"),
		cfg.GetDuration("link.ttl"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init link maker")
	}
	data.LinkVerifier = linkMaker

	wsh := callbackservice.NewWSConnKeeper()
	data.WSHandler = wsh

	data.Summary, err = newSummaryData(db, data.MsgSender, linkMaker)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init summary data")
	}

	hData := &callbackservice.HandlerData{}
	hData.DB = db
	hData.WorkerCount = defaultV(cfg.GetInt("worker.count"), 5)
	hData.WSHandler = wsh
	hData.GueClient, err = gue.NewClient(pgxv5.NewConnPool(dbPool))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init gue")
	}

	goapp.Log.Info().Msg("starting handler")
	ctx, cancelFunc := context.WithCancel(context.Background())
	doneCh, err := callbackservice.StartStatusHandler(ctx, hData)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start status handler service")
	}

	goapp.Log.Info().Msg("starting web service")
	if err := callbackservice.StartWebServer(data); err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start web server")
	}
	goapp.Log.Info().Msg("exit web service")
	cancelFunc()
	select {
	case <-doneCh:
		goapp.Log.Info().Msg("All code returned. Now exit. Bye")
	case <-time.After(time.Second * 15):
		goapp.Log.Warn().Msg("Timeout gracefull shutdown")
	}
}

func newSummaryData(db *postgres.DB, msgSender summary.MsgSender, linkMaker *auth.LinkMaker) (*summary.Data, error) {
	cfg := goapp.Config
	res := &summary.Data{}
	res.DB = db
	res.MsgSender = msgSender
	res.LinkMaker = linkMaker
	var err error
	res.Summarizer, err = summarizer.NewClient(cfg.GetString("openai.url"), cfg.GetString("openai.key"),
		defaultV(cfg.GetString("openai.model"), "gpt-3.5-turbo"))
	if err != nil {
		return nil, err
	}
	res.EmailMaker, err = notify.NewTemplateEmailMaker(cfg)
	if err != nil {
		return nil, err
	}
	if cfg.GetString("smtp.fakeUrl") == "" {
		goapp.Log.Info().Str("sender", "real").Msg("smtp")
		res.EmailSender, err = ainform.NewSimpleEmailSender(cfg)
		if err != nil {
			return nil, err
		}
	} else {
		goapp.Log.Info().Str("sender", "fake").Msg("smtp")
		res.EmailSender, err = notify.NewFakeEmailSender(cfg)
		if err != nil {
			return nil, err
		}
	}
	return res, nil
}

func defaultV[T comparable](v, dv T) T {
	var empty T
	if v == empty {
		return dv
	}
	return v
}

var (
	version = "DEV"
)

func printBanner() {
	banner := `
    ______                ____  _       __
   / ____/___ _________  / __ \(_)___ _/ /
  / /   / __ ` + "`" + `/ ___/ _ \/ / / / / __ ` + "`" + `/ /
 / /___/ /_/ / /  /  __/ /_/ / / /_/ / /
 \____/\__,_/_/   \___/_____/_/\__,_/_/

             ________               __
  _________ / / / /_  ____ _ _____ / /__
 / ___/ __ ` + "`" + `/ / / __ \/ __ ` + "`" + `/ ___/ //_/
/ /__/ /_/ / / / /_/ / /_/ / /__/ ,<
\___/\__,_/_/_/_.___/\__,_/\___/_/|_|   v: %s

%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("https://github.com/caredial/caredial"))
}
