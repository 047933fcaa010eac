package main

import (
	"context"
	"crypto/rand"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"hiddenplaces/internal/adminui"
	"hiddenplaces/internal/auth"
	"hiddenplaces/internal/config"
	"hiddenplaces/internal/email"
	"hiddenplaces/internal/geo"
	"hiddenplaces/internal/httpapi"
	"hiddenplaces/internal/ratelimit"
	"hiddenplaces/internal/service"
	"hiddenplaces/internal/storage"
	"hiddenplaces/internal/store/postgres"
	"hiddenplaces/internal/userui"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		_, _ = os.Stderr.WriteString(err.Error() + "\n")
		os.Exit(1)
	}

	logger := config.NewLogger(cfg, os.Stdout)
	ctx := context.Background()

	if cfg.DBDSN == "" {
		logger.Error("APP_DB_DSN is not set")
		os.Exit(1)
	}
	pgPool, err := postgres.Open(ctx, cfg.DBDSN, postgres.PoolOptions{})
	if err != nil {
		logger.Error("db open failed", "err", err)
		os.Exit(1)
	}
	defer pgPool.Close()

	applied, err := postgres.Migrate(ctx, pgPool)
	if err != nil {
		logger.Error("db migrate failed", "err", err)
		os.Exit(1)
	}
	for _, name := range applied {
		logger.Info("applied migration", "name", name)
	}

	secret := []byte(cfg.SecretKey)
	if len(secret) == 0 {
		secret = make([]byte, 32)
		_, _ = rand.Read(secret)
		logger.Warn("APP_SECRET_KEY is not set, sessions and tokens will not survive a restart")
	}

	redisClient := ratelimit.NewRedisClient(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	if cfg.Redis.Enabled() && redisClient == nil {
		logger.Warn("redis unreachable, using in-process rate limits and caches", "addr", cfg.Redis.Addr)
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	mailSender, closeMail := newMailSender(cfg, logger)
	defer closeMail()
	mailer := &service.Mailer{
		Sender:        mailSender,
		PublicURL:     cfg.BaseURL(),
		SubjectPrefix: cfg.MailSubjectPrefix,
		Logger:        logger,
	}

	files := &storage.Local{
		Root:        cfg.UploadDir,
		ImageMaxPx:  cfg.ImageMaxSizePx,
		ThumbnailPx: cfg.ThumbnailSizePx,
	}
	tokens := auth.NewTokenIssuer(secret)

	users := postgres.NewUsersStore(pgPool)
	sessions := postgres.NewSessionsStore(pgPool)
	bans := postgres.NewBansStore(pgPool)
	loginLogs := postgres.NewLoginLogsStore(pgPool)
	invitations := postgres.NewInvitationsStore(pgPool)
	locations := postgres.NewLocationsStore(pgPool)
	links := postgres.NewLinksStore(pgPool)
	pois := postgres.NewPOIsStore(pgPool)
	visits := postgres.NewVisitsStore(pgPool)
	bookmarks := postgres.NewBookmarksStore(pgPool)
	categories := postgres.NewCategoriesStore(pgPool)
	uploads := postgres.NewUploadsStore(pgPool)
	messages := postgres.NewMessagesStore(pgPool)
	pages := postgres.NewPagesStore(pgPool)
	events := postgres.NewEventsStore(pgPool)

	eventSvc := &service.EventService{Events: events, Logger: logger}

	var geoLocator service.GeoLocator
	if cfg.GeolocationEnabled() {
		geoLocator = geo.NewClient(cfg.GeolocationURL, newGeoCache(redisClient, logger), logger)
	}

	authSvc := &service.AuthService{
		Users:      users,
		Sessions:   sessions,
		Bans:       bans,
		Logins:     loginLogs,
		Geo:        geoLocator,
		Limiter:    newLimiter(redisClient, cfg.LoginRatePer5Min),
		SessionTTL: cfg.SessionTTL,
		Logger:     logger,
	}
	usersSvc := &service.UserService{
		Users:       users,
		Sessions:    sessions,
		Bans:        bans,
		Files:       files,
		Events:      eventSvc,
		Threads:     messages,
		NewLocation: locations,
		NewEvents:   events,
		Logins:      loginLogs,
		Logger:      logger,
	}
	inviteSvc := &service.InviteService{
		Invitations: invitations,
		Users:       users,
		Tokens:      tokens,
		Mail:        mailer,
		Events:      eventSvc,
		TTL:         cfg.InvitationTTL,
	}
	resetSvc := &service.PasswordResetService{
		Users:    users,
		Sessions: sessions,
		Tokens:   tokens,
		Mail:     mailer,
		Events:   eventSvc,
		Limiter:  newLimiter(redisClient, cfg.LoginRatePer5Min),
		TokenTTL: cfg.ResetTTL,
		Logger:   logger,
	}
	uploadSvc := &service.UploadService{
		Uploads:    uploads,
		Files:      files,
		Locations:  locations,
		Categories: categories,
		Visits:     visits,
		Logger:     logger,
	}
	locationSvc := &service.LocationService{
		Locations: locations,
		Links:     links,
		POIs:      pois,
		Visits:    visits,
		Bookmarks: bookmarks,
		Uploads:   uploadSvc,
		Events:    eventSvc,
		Logger:    logger,
	}
	categorySvc := &service.CategoryService{
		Categories: categories,
		Uploads:    uploadSvc,
		Events:     eventSvc,
		Logger:     logger,
	}
	visitSvc := &service.VisitService{
		Visits:    visits,
		Locations: locationSvc,
		Uploads:   uploadSvc,
		Events:    eventSvc,
	}
	linkSvc := &service.LinkService{Links: links, POIs: pois, Locations: locationSvc}
	bookmarkSvc := &service.BookmarkService{Bookmarks: bookmarks, Locations: locationSvc}
	messageSvc := &service.MessageService{Messages: messages, Users: users, Mail: mailer, Logger: logger}
	pageSvc := &service.PageService{Pages: pages, Users: users, Mail: mailer, Events: eventSvc}

	cookieCodec := auth.NewCookieCodec(secret)

	ui := userui.New(userui.Opts{
		Logger:           logger,
		Auth:             authSvc,
		Invites:          inviteSvc,
		Reset:            resetSvc,
		Users:            usersSvc,
		Locations:        locationSvc,
		Categories:       categorySvc,
		Visits:           visitSvc,
		Links:            linkSvc,
		Bookmarks:        bookmarkSvc,
		Uploads:          uploadSvc,
		Messages:         messageSvc,
		Pages:            pageSvc,
		Events:           eventSvc,
		Files:            files,
		CookieCodec:      cookieCodec,
		CookieSecure:     cfg.CookieSecure(),
		MaxUploadBytes:   int64(cfg.MaxUploadMB) << 20,
		LocationsPerPage: cfg.LocationsPerPage,
		ItemsPerPage:     cfg.ItemsPerPage,
	})
	admin := adminui.New(adminui.Opts{
		Logger:    logger,
		Auth:      authSvc,
		Users:     usersSvc,
		Locations: locationSvc,
		Invites:   inviteSvc,
		Messages:  messageSvc,
		Events:    eventSvc,
		PerPage:   cfg.ItemsPerPage,
	})

	root := httpapi.NewRouter(httpapi.RouterOpts{
		Logger:       logger,
		IsProd:       cfg.IsProd(),
		DBPing:       pgPool.Ping,
		Sessions:     authSvc,
		Locations:    locationSvc,
		CookieCodec:  cookieCodec,
		CookieSecure: cfg.CookieSecure(),
		UI:           ui,
		Admin:        admin,
	})

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           root,
		ReadHeaderTimeout: 5 * time.Second,
	}

	janitorCtx, stopJanitor := context.WithCancel(ctx)
	defer stopJanitor()
	go cleanSessions(janitorCtx, logger, sessions)

	errCh := make(chan error, 1)
	go func() {
		logger.Info("server listening", "env", cfg.Env, "addr", cfg.Addr)
		errCh <- srv.ListenAndServe()
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = srv.Shutdown(ctx)
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server error", "err", err)
			os.Exit(1)
		}
	}
}

// newMailSender publishes to the mail queue when APP_AMQP_URL is set and
// otherwise talks SMTP from a background goroutine. Without SMTP mail is
// only logged.
func newMailSender(cfg config.Config, logger *slog.Logger) (email.Sender, func()) {
	if cfg.AMQPURL != "" {
		pub := email.NewQueuePublisher(cfg.AMQPURL)
		logger.Info("mail goes through the queue")
		return pub, func() { _ = pub.Close() }
	}
	var next email.Sender
	if cfg.SMTP.Enabled() {
		next = email.NewSMTPSender(smtpSettings(cfg))
	} else {
		logger.Warn("APP_SMTP_HOST is not set, outgoing mail is only logged")
		next = email.SenderFunc(func(_ context.Context, msg email.Message) error {
			logger.Info("mail not sent", "to", msg.To, "subject", msg.Subject)
			return nil
		})
	}
	async := &email.Async{Next: next, Logger: logger, Timeout: 30 * time.Second}
	return async, async.Wait
}

func smtpSettings(cfg config.Config) email.SMTPSettings {
	return email.SMTPSettings{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		Username: cfg.SMTP.Username,
		Password: cfg.SMTP.Password,
		TLSMode:  cfg.SMTP.TLSMode,
		From:     cfg.MailFrom,
	}
}

func newLimiter(client *redis.Client, perFiveMinutes int) ratelimit.Limiter {
	if client != nil {
		return ratelimit.NewRedis(client, perFiveMinutes, 5*time.Minute)
	}
	return ratelimit.NewMemory(perFiveMinutes, 5*time.Minute)
}

func newGeoCache(client *redis.Client, logger *slog.Logger) geo.Cache {
	if client != nil {
		return geo.NewRedisCache(client, 24*time.Hour, logger)
	}
	return geo.NewMemoryCache(24 * time.Hour)
}

func cleanSessions(ctx context.Context, logger *slog.Logger, sessions *postgres.SessionsStore) {
	t := time.NewTicker(time.Hour)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-t.C:
			n, err := sessions.DeleteExpired(ctx, now)
			if err != nil {
				logger.Warn("delete expired sessions failed", "err", err)
				continue
			}
			if n > 0 {
				logger.Info("deleted expired sessions", "count", n)
			}
		}
	}
}
