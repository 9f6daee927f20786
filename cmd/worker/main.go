package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	ainform "github.com/airenas/async-api/pkg/inform"
	"github.com/airenas/go-app/pkg/goapp"
	"github.com/caredial/caredial/internal/pkg/auth"
	"github.com/caredial/caredial/internal/pkg/notify"
	"github.com/caredial/caredial/internal/pkg/postgres"
	"github.com/caredial/caredial/internal/pkg/summarizer"
	"github.com/caredial/caredial/internal/pkg/summary"
	"github.com/caredial/caredial/internal/pkg/utils"
	"github.com/caredial/caredial/internal/pkg/worker"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/labstack/gommon/color"
	"github.com/vgarvardt/gue/v5"
	"github.com/vgarvardt/gue/v5/adapter/pgxv5"
)

func main() {
	goapp.StartWithDefault()
	cfg := goapp.Config

	go utils.RunPerfEndpoint()

	data := &worker.ServiceData{}
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

	data.GueClient, err = gue.NewClient(pgxv5.NewConnPool(dbPool))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init gue")
	}
	data.WorkerCount = defaultV(cfg.GetInt("worker.count"), 5)
	data.Testing = cfg.GetBool("worker.testing")

	db, err := postgres.NewDB(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init db")
	}

	msgSender, err := postgres.NewSender(dbPool)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init gue sender")
	}

	sData := &summary.Data{}
	sData.DB = db
	sData.MsgSender = msgSender
	sData.Summarizer, err = summarizer.NewClient(cfg.GetString("openai.url"), cfg.GetString("openai.key"),
		defaultV(cfg.GetString("openai.model"), "gpt-3.5-turbo"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init summarizer")
	}
	sData.LinkMaker, err = auth.NewLinkMaker(cfg.GetString("link.url"), cfg.GetString("link.key"),
		cfg.GetDuration("link.ttl"))
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init link maker")
	}
	sData.EmailMaker, err = notify.NewTemplateEmailMaker(cfg)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't init email maker")
	}
	if cfg.GetString("smtp.fakeUrl") == "" {
		goapp.Log.Info().Str("sender", "real").Msg("smtp")
		sData.EmailSender, err = ainform.NewSimpleEmailSender(cfg)
		if err != nil {
			goapp.Log.Fatal().Err(err).Msg("can't init email sender")
		}
	} else {
		goapp.Log.Info().Str("sender", "fake").Msg("smtp")
		sData.EmailSender, err = notify.NewFakeEmailSender(cfg)
		if err != nil {
			goapp.Log.Fatal().Err(err).Msg("can't init fake email sender")
		}
	}
	data.Summary = sData

	printBanner()

	ctx, cancelFunc := context.WithCancel(context.Background())
	doneCh, err := worker.StartWorkerService(ctx, data)
	if err != nil {
		goapp.Log.Fatal().Err(err).Msg("can't start worker service")
	}
	/////////////////////// Waiting for terminate
	waitCh := make(chan os.Signal, 2)
	signal.Notify(waitCh, os.Interrupt, syscall.SIGTERM)
	select {
	case <-waitCh:
		goapp.Log.Info().Msg("Got exit signal")
	case <-doneCh:
		goapp.Log.Info().Msg("Service exit")
	}
	cancelFunc()
	select {
	case <-doneCh:
		goapp.Log.Info().Msg("All code returned. Now exit. Bye")
	case <-time.After(time.Second * 15):
		goapp.Log.Warn().Msg("Timeout gracefull shutdown")
	}
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

                      __
 _      ______  _____/ /_____  _____
| | /| / / __ \/ ___/ //_/ _ \/ ___/
| |/ |/ / /_/ / /  / ,< /  __/ /
|__/|__/\____/_/  /_/|_|\___/_/     v: %s

%s
________________________________________________________

`
	cl := color.New()
	cl.Printf(banner, cl.Red(version), cl.Green("https://github.com/caredial/caredial"))
}
