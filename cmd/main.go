package main

import (
	"context"
	"flash-alliance/internal/app"
	"flash-alliance/internal/config"
	"flash-alliance/internal/hashing"
	"flash-alliance/internal/journal"
	"flash-alliance/internal/model"
	"flash-alliance/internal/ports/http"
	"flash-alliance/internal/ports/http/middleware/auth"
	"flash-alliance/internal/repository/mongodb"
	"flash-alliance/internal/repository/sqlite"
	"flash-alliance/internal/signkeys"
	"log"
	"time"

	"github.com/sasha-s/go-deadlock"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	logger, err := getLogger()
	if err != nil {
		log.Fatalln("setting up the logger failed: ", err)
		return
	}
	defer logger.Sync()

	logger.Info("application started")

	hashing.Initialize(logger)
	configureLockDetection(logger)

	store, closeStore, err := openJournal(logger)
	if err != nil {
		logger.Fatal("failed to open the journal: " + err.Error())
	}
	defer closeStore()

	params := auth.JwtTokenParams{Issuer: auth.DefaultIssuer, Secret: config.GetAuthSecret()}

	a, err := newApp(logger, store, params)
	if err != nil {
		logger.Fatal("failed to set up the ledger: " + err.Error())
	}

	ser := http.NewServer(logger, a, config.GetPort(), http.Options{
		Auth:           params,
		RequestTimeout: config.GetRequestTimeout(),
		AllowedOrigins: config.GetCorsOrigins(),
	})
	if err := ser.Run(); err != nil {
		logger.Error("failed to run the server: " + err.Error())
	}

	logger.Info("application finished")
}

// newApp seeds the local environment when BOOTSTRAP_LOCAL is set, otherwise
// starts an empty ledger owned by a fresh deployer account.
func newApp(logger *zap.Logger, store journal.Store, params auth.JwtTokenParams) (*app.App, error) {
	bootstrap, err := config.LoadBootstrap()
	if err != nil {
		return nil, err
	}

	if !bootstrap.Enabled {
		deployer, err := signkeys.NewAccount("deployer")
		if err != nil {
			return nil, err
		}
		logger.Info("deployer account created", zap.String("address", deployer.Address().String()))

		return app.NewApp(logger, store, app.Config{
			Deployer:       deployer.Address(),
			TokenName:      bootstrap.TokenName,
			TokenSymbol:    bootstrap.TokenSymbol,
			Decimals:       bootstrap.Decimals,
			JournalTimeout: config.GetJournalTimeout(),
		})
	}

	ttl := config.GetTokenTTL()
	issue := func(subject model.Address) (string, error) {
		return auth.IssueToken(params, subject, time.Now(), ttl)
	}

	a, summary, err := app.Bootstrap(context.Background(), logger, store, bootstrap, issue,
		app.WithJournalTimeout(config.GetJournalTimeout()))
	if err != nil {
		return nil, err
	}
	if err := app.WriteSummary(bootstrap.SummaryPath, summary); err != nil {
		return nil, err
	}
	logger.Info("local environment bootstrapped", zap.String("summary", bootstrap.SummaryPath))
	return a, nil
}

// openJournal selects the event store. The memory journal needs no store.
func openJournal(logger *zap.Logger) (journal.Store, func(), error) {
	switch driver := config.GetJournalDriver(); driver {
	case config.JournalMongoDB:
		repo, err := mongodb.NewConnection(logger, config.GetDbConnectionURI(), config.GetDatabaseName())
		if err != nil {
			return nil, nil, err
		}
		return repo, repo.Disconnect, nil

	case config.JournalSqlite:
		store, err := sqlite.Open(config.GetSqlitePath())
		if err != nil {
			return nil, nil, err
		}
		return store, func() {
			if err := store.Close(); err != nil {
				logger.Error("failed to close the journal: " + err.Error())
			}
		}, nil

	case config.JournalMemory:
		return nil, func() {}, nil

	default:
		logger.Warn("unknown journal driver, events are kept in memory", zap.String("driver", driver))
		return nil, func() {}, nil
	}
}

// configureLockDetection reports locks held longer than a few journal writes
// instead of exiting the process.
func configureLockDetection(logger *zap.Logger) {
	deadlock.Opts.DeadlockTimeout = 2*config.GetRequestTimeout() + 4*config.GetJournalTimeout()
	deadlock.Opts.OnPotentialDeadlock = func() {
		logger.Error("potential deadlock detected", zap.Duration("timeout", deadlock.Opts.DeadlockTimeout))
	}
}

func getLogger() (*zap.Logger, error) {
	options := []zap.Option{
		zap.AddCaller(),
		zap.AddStacktrace(zap.FatalLevel),
	}

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(config.GetLogLevel())); err != nil {
		level = zapcore.DebugLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout(time.RFC3339)
	cfg.Development = true
	cfg.Level.SetLevel(level)

	logger, err := cfg.Build()
	if err != nil {
		return nil, err
	}
	return logger.WithOptions(options...), nil
}
