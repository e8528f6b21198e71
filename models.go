package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"log"

	"github.com/muhammadolammi/jobmatchclient/internal/api"
	"github.com/muhammadolammi/jobmatchclient/internal/auth"
	"github.com/muhammadolammi/jobmatchclient/internal/cache"
	"github.com/muhammadolammi/jobmatchclient/internal/config"
	"github.com/muhammadolammi/jobmatchclient/internal/database"
	"github.com/muhammadolammi/jobmatchclient/internal/gateway"
	"github.com/muhammadolammi/jobmatchclient/internal/models"
	"github.com/muhammadolammi/jobmatchclient/internal/resume"
	"github.com/muhammadolammi/jobmatchclient/internal/updates"
	"github.com/muhammadolammi/jobmatchclient/internal/upload"
	"github.com/streadway/amqp"
)

const credentialProfile = "default"

// ClientConfig holds everything a command needs. DB, Cache and RabbitConn
// are nil unless configured.
type ClientConfig struct {
	Cfg        *config.Config
	DB         *sql.DB
	Cache      *cache.Cache
	Session    *auth.Session
	Gateway    *gateway.Gateway
	API        *api.Client
	RabbitConn *amqp.Connection
	Out        io.Writer
	Logger     *log.Logger
}

func newClientConfig(ctx context.Context, cfg *config.Config, out io.Writer, logger *log.Logger) (*ClientConfig, error) {
	c := &ClientConfig{Cfg: cfg, Out: out, Logger: logger}

	var queries *database.Queries
	if cfg.Database.URL != "" {
		db, err := database.Open(ctx, cfg.Database.URL)
		if err != nil {
			return nil, err
		}
		c.DB = db
		queries = database.New(db)
		c.Cache = cache.New(queries, logger)
	}

	var store auth.Store
	switch cfg.Credential.Store {
	case "memory":
		store = auth.NewMemoryStore("")
	case "db":
		if queries == nil {
			return nil, fmt.Errorf("credential store db needs DB_URL")
		}
		store = auth.NewSQLStore(queries, credentialProfile)
	default:
		fileStore, err := auth.NewFileStore(cfg.Credential.File, cfg.Credential.Key)
		if err != nil {
			return nil, err
		}
		store = fileStore
	}
	c.Session = auth.NewSession(store)

	c.Gateway = gateway.New(gateway.Config{
		BaseURL:   cfg.API.BaseURL,
		ClientKey: cfg.API.ClientKey,
		Timeout:   cfg.API.Timeout,
		LoginPath: cfg.API.LoginPath,
		RedirectToLogin: func(string) {
			fmt.Fprintln(out, "🔑 Your session has expired. Run `jobmatch login` to sign in again.")
		},
		Logger: logger,
	}, c.Session)
	c.API = api.New(c.Gateway, logger)
	return c, nil
}

func (c *ClientConfig) Close() {
	if c.RabbitConn != nil {
		c.RabbitConn.Close()
	}
	if c.DB != nil {
		c.DB.Close()
	}
}

// requireUser restores the signed-in user, optionally restricted to roles.
func (c *ClientConfig) requireUser(ctx context.Context, roles ...models.Role) (*models.User, error) {
	user, err := c.API.Bootstrap(ctx)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, errNotSignedIn
	}
	if len(roles) > 0 {
		if err := models.RequireRole(user, roles...); err != nil {
			return nil, err
		}
	}
	return user, nil
}

func (c *ClientConfig) updatesSource() (updates.Source, error) {
	if c.Cfg.Updates.Transport != "amqp" {
		return updates.NewSSESource(c.Gateway, c.Cfg.Updates.RetryDelay), nil
	}
	if c.RabbitConn == nil {
		conn, err := amqp.Dial(c.Cfg.Updates.RabbitMQURL)
		if err != nil {
			return nil, fmt.Errorf("error connecting to RabbitMQ: %w", err)
		}
		c.RabbitConn = conn
	}
	return updates.NewAMQPSource(c.RabbitConn, c.Cfg.Updates.Exchange), nil
}

func (c *ClientConfig) newSubscriber(ctx context.Context) (*updates.Subscriber, error) {
	source, err := c.updatesSource()
	if err != nil {
		return nil, err
	}
	sub := updates.NewSubscriber(source,
		updates.WithErrorGrace(c.Cfg.Updates.ErrorGrace),
		updates.WithLogger(c.Logger),
	)
	if c.Cache != nil {
		sub.OnStatus = c.Cache.StatusHook(ctx)
	}
	return sub, nil
}

func (c *ClientConfig) maxFileSize() int64 {
	if c.Cfg.Upload.MaxFileSizeMB <= 0 {
		return resume.DefaultMaxSize
	}
	return int64(c.Cfg.Upload.MaxFileSizeMB) << 20
}

func (c *ClientConfig) newUploader(ctx context.Context) (*upload.Uploader, error) {
	opts := []upload.Option{
		upload.WithMaxSize(c.maxFileSize()),
		upload.WithLogger(c.Logger),
		upload.WithPutTimeout(c.Cfg.Upload.PutTimeout),
	}
	mode := upload.Mode(c.Cfg.Upload.Mode)
	if mode == upload.ModeDirect {
		store, err := upload.NewR2Store(ctx, c.Cfg.R2)
		if err != nil {
			return nil, err
		}
		opts = append(opts, upload.WithObjectStore(store))
	}
	u, err := upload.New(c.API, mode, opts...)
	if err != nil {
		return nil, err
	}
	u.OnProgress = func(file string, percent int) {
		fmt.Fprintf(c.Out, "\rUploading %s: %d%%", file, percent)
		if percent == 100 {
			fmt.Fprintln(c.Out)
		}
	}
	u.OnStatus = func(msg string) { fmt.Fprintln(c.Out, msg) }
	return u, nil
}
