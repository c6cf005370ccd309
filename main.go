package main

import (
	"context"
	"os"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/kod2ulz/gostart/app"
	"github.com/kod2ulz/gostart/storage"
	"github.com/kod2ulz/gostart/utils"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/kod2ulz/bigfish-paymentgateway/api"
	"github.com/kod2ulz/bigfish-paymentgateway/client"
	"github.com/kod2ulz/bigfish-paymentgateway/sql/db"
	"github.com/kod2ulz/bigfish-paymentgateway/stores"
	"github.com/kod2ulz/bigfish-paymentgateway/web"
)

func main() {
	_ = godotenv.Load()
	a := app.Init()
	ctx, log := a.Ctx(), a.Log()

	conf := client.NewGatewayConfig()
	utils.Error.Fail(log.Entry, conf.Validate(), "invalid gateway configuration")

	opts := []client.GatewayOption{
		client.WithConfig(conf),
		client.WithMetrics(prometheus.DefaultRegisterer),
	}
	if conf.KeyBucket != "" {
		keys, err := stores.Minio(log.Entry, stores.NewMinioConfig())
		utils.Error.Fail(log.Entry, err, "failed to initialise key storage")
		opts = append(opts, client.WithEncryptionKeyStore(keys, conf.KeyBucket, conf.KeyPath))
	}
	if conf.Journal {
		journal, err := db.InitSQL(ctx, log, storage.Config("BIGFISH_DB"))
		utils.Error.Fail(log.Entry, err, "failed to connect to database")
		defer utils.ErrorFunc[utils.ShFunc1](a, journal.Conn.Close, "failed to close database connection")
		purgeJournal(ctx, log.Entry.WithField("operation", "purgeJournal"), journal, conf.JournalRetention)
		opts = append(opts, client.WithJournal(journal))
	}

	gateway, err := client.NewGateway(ctx, log.Entry, opts...)
	utils.Error.Fail(log.Entry, err, "failed to initialise payment gateway client")

	args := os.Args[1:]
	if len(args) > 0 && args[0] == "serve" {
		serve(log.Entry, gateway, conf.ListenAddr)
		return
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, transactionId := range args {
		transactionId := transactionId
		g.Go(func() error {
			res, err := gateway.Request(gctx, api.NewLog(transactionId))
			if err != nil {
				return err
			}
			entry := log.WithField("transactionId", transactionId).WithField("resultCode", res.ResultCode())
			if remote := res.Err(); remote != nil {
				entry.WithError(remote).Warn("gateway refused the query")
				return nil
			}
			entry.WithField("res", res).Info("transaction log")
			return nil
		})
	}
	utils.Error.Log(log.Entry, g.Wait(), "transaction log query encountered error")
}

func serve(log *logrus.Entry, gateway *client.Gateway, addr string) {
	router := gin.New()
	router.Use(gin.Recovery())
	router.GET("/result", web.ResultHandler(gateway))
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))
	log.WithField("addr", addr).Info("serving payment results")
	utils.Error.Fail(log, router.Run(addr), "http server stopped")
}

// purgeJournal drops journal rows older than retention. Zero keeps them all.
func purgeJournal(ctx context.Context, log *logrus.Entry, journal *db.SqlDB, retention time.Duration) {
	if retention <= 0 {
		return
	}
	purged, err := journal.PurgeApiCalls(ctx, time.Now().Add(-retention))
	if err != nil {
		log.WithError(err).Warn("failed to purge api call journal")
		return
	}
	log.WithField("purged", purged).Info("purged api call journal")
}
