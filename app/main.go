package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/fatih/color"
	"github.com/go-pkgz/fileutils"
	"github.com/go-pkgz/lgr"
	"github.com/jessevdk/go-flags"
	"golang.org/x/crypto/bcrypt"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/umputun/form-spam/app/config"
	"github.com/umputun/form-spam/app/filter"
	"github.com/umputun/form-spam/app/storage"
	"github.com/umputun/form-spam/app/storage/engine"
	"github.com/umputun/form-spam/app/webapi"
	"github.com/umputun/form-spam/lib/formspam"
	"github.com/umputun/form-spam/lib/formspam/lua"
)

type options struct {
	InstanceID string `long:"instance-id" env:"INSTANCE_ID" default:"form-spam" description:"instance id, also a group id in the database"`
	DataBase   string `long:"db" env:"DB" default:"form-spam.db" description:"database url, sqlite file or postgres://"`
	Listen     string `long:"listen" env:"LISTEN" description:"listen address, overrides settings"`

	Settings   string `long:"settings" env:"SETTINGS" description:"yaml settings file, defaults are used if not set"`
	ConfigDB   bool   `long:"confdb" env:"CONFDB" description:"load settings from the database"`
	SaveConfig bool   `long:"save-config" description:"save loaded settings to the database and exit"`
	EncryptKey string `long:"confdb-encrypt-key" env:"CONFDB_ENCRYPT_KEY" description:"master key to encrypt secrets stored in the database"`

	AuthPasswd string `long:"auth-passwd" env:"AUTH_PASSWD" description:"basic auth password for web api, 'auto' to generate"`
	RedisURL   string `long:"redis" env:"REDIS" description:"redis url for the shared remote rate limiter, overrides settings"`
	OpenAIKey  string `long:"openai-key" env:"OPENAI_KEY" description:"remote model api key, overrides settings"`
	Phrases    string `long:"phrases" env:"PHRASES" description:"extra spam phrases file, overrides settings"`

	ExportPostgres string `long:"export-postgres" description:"export sqlite database to postgres sql file and exit"`

	Dbg bool `long:"dbg" env:"DEBUG" description:"debug mode"`
}

var revision = "local"

func main() {
	fmt.Printf("form-spam %s\n", revision)
	var opts options
	p := flags.NewParser(&opts, flags.PrintErrors|flags.PassDoubleDash|flags.HelpFlag)
	if _, err := p.Parse(); err != nil {
		var flagsErr *flags.Error
		if !errors.As(err, &flagsErr) || flagsErr.Type != flags.ErrHelp {
			log.Printf("[ERROR] cli error: %v", err)
		}
		os.Exit(2)
	}

	setupLog(opts.Dbg, opts.OpenAIKey, opts.AuthPasswd, opts.EncryptKey, opts.RedisURL)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		// catch signal and invoke graceful termination
		stop := make(chan os.Signal, 1)
		signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
		<-stop
		log.Printf("[WARN] interrupt signal")
		cancel()
	}()

	if err := execute(ctx, opts); err != nil {
		log.Printf("[ERROR] %v", err)
		os.Exit(1)
	}
}

func execute(ctx context.Context, opts options) error {
	db, err := engine.New(ctx, opts.DataBase, opts.InstanceID)
	if err != nil {
		return fmt.Errorf("can't make db %s, %w", opts.DataBase, err)
	}
	defer db.Close()

	if opts.ExportPostgres != "" {
		return exportToPostgres(ctx, db, opts.ExportPostgres)
	}

	settingsStore, err := makeSettingsStore(ctx, db, opts)
	if err != nil {
		return fmt.Errorf("can't make settings store, %w", err)
	}
	settings, err := loadSettings(ctx, opts, settingsStore)
	if err != nil {
		return fmt.Errorf("can't load settings, %w", err)
	}
	log.Printf("[DEBUG] settings: %+v", settings.Masked())

	if opts.SaveConfig {
		if err := settingsStore.Save(ctx, settings); err != nil {
			return fmt.Errorf("can't save settings, %w", err)
		}
		log.Printf("[INFO] settings saved to %s", db.Type())
		return nil
	}

	detector, err := makeDetector(ctx, settings)
	if err != nil {
		return fmt.Errorf("can't make detector, %w", err)
	}
	defer detector.Close()

	var subStore *storage.Submissions
	if settings.Storage.Persist {
		if subStore, err = storage.NewSubmissions(ctx, db); err != nil {
			return fmt.Errorf("can't make submissions storage, %w", err)
		}
		go cleanupSubmissions(ctx, subStore, settings.Storage.RetentionDays, time.Hour)
	}

	spamLogWr, err := makeSpamLogWriter(settings.Logger)
	if err != nil {
		return fmt.Errorf("can't make spam log writer, %w", err)
	}
	defer spamLogWr.Close()

	filterCfg := filter.Config{SpamLog: spamLogWr, PhrasesFile: settings.Files.PhrasesFile, WatchDelay: time.Second}
	if subStore != nil {
		filterCfg.Store = subStore
	}
	spamFilter := filter.NewFilter(ctx, detector, settings.Detection, filterCfg)
	if err := spamFilter.ReloadPhrases(); err != nil {
		log.Printf("[WARN] can't load phrases, %v", err)
	}

	srvCfg := webapi.Config{
		Version:    revision,
		ListenAddr: settings.Server.ListenAddr,
		Filter:     spamFilter,
		Settings:   settings,
		AuthUser:   settings.Server.AuthUser,
		AuthHash:   settings.Server.AuthHash,
		AuthPasswd: settings.Transient.WebAuthPasswd,
		MaxBodyKB:  settings.Server.MaxBodyKB,
		RateLimit:  settings.Server.RateLimit,
		Dbg:        opts.Dbg,
	}
	if subStore != nil {
		srvCfg.Submissions = subStore
	}
	if opts.ConfigDB {
		srvCfg.SettingsStore = settingsStore // settings changed via api are persisted only in config-db mode
	}
	if err := webapi.NewServer(srvCfg).Run(ctx); err != nil {
		return fmt.Errorf("web server failed, %w", err)
	}
	return nil
}

// makeSettingsStore makes settings store, secrets are encrypted if the master key is set
func makeSettingsStore(ctx context.Context, db *engine.SQL, opts options) (*config.Store, error) {
	var crypter *config.Crypter
	if opts.EncryptKey != "" {
		c, err := config.NewCrypter(opts.EncryptKey, opts.InstanceID)
		if err != nil {
			return nil, fmt.Errorf("can't make crypter, %w", err)
		}
		crypter = c
	}
	return config.NewStore(ctx, db, crypter)
}

// loadSettings loads settings from the database or yaml file and applies cli overrides
func loadSettings(ctx context.Context, opts options, store *config.Store) (*config.Settings, error) {
	var settings *config.Settings
	var err error
	switch {
	case opts.ConfigDB && !opts.SaveConfig:
		if settings, err = store.Load(ctx); err != nil {
			return nil, fmt.Errorf("can't load settings from db, %w", err)
		}
		log.Printf("[INFO] settings loaded from %s", store.Type())
	case opts.Settings != "":
		if !fileutils.IsFile(opts.Settings) {
			return nil, fmt.Errorf("settings file %q not found", opts.Settings)
		}
		if settings, err = config.Load(opts.Settings); err != nil {
			return nil, err
		}
		log.Printf("[INFO] settings loaded from %s", opts.Settings)
	default:
		settings = config.New()
		log.Printf("[INFO] default settings used")
	}

	settings.InstanceID = opts.InstanceID
	if opts.Listen != "" {
		settings.Server.ListenAddr = opts.Listen
	}
	if opts.RedisURL != "" {
		settings.Remote.RedisURL = opts.RedisURL
	}
	if opts.OpenAIKey != "" {
		settings.Detection.OpenAIAPIKey = opts.OpenAIKey
	}
	if opts.Phrases != "" {
		settings.Files.PhrasesFile = opts.Phrases
	}

	settings.Transient = config.TransientSettings{DataBaseURL: opts.DataBase, ConfigDB: opts.ConfigDB,
		ConfigDBEncryptKey: opts.EncryptKey, Dbg: opts.Dbg}
	if err := applyAuth(settings, opts.AuthPasswd); err != nil {
		return nil, err
	}

	if err := settings.Validate(); err != nil {
		return nil, fmt.Errorf("invalid settings, %w", err)
	}
	return settings, nil
}

// applyAuth sets basic auth password, generated for "auto". The bcrypt hash is kept for persisted settings.
func applyAuth(settings *config.Settings, passwd string) error {
	if passwd == "" {
		return nil
	}
	if passwd == "auto" {
		p, err := webapi.GenerateRandomPassword(20)
		if err != nil {
			return fmt.Errorf("can't generate password, %w", err)
		}
		passwd = p
		log.Printf("[WARN] generated basic auth password for user %q: %q", authUser(settings), passwd)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(passwd), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("can't hash password, %w", err)
	}
	settings.Server.AuthHash = string(hash)
	settings.Server.AuthUser = authUser(settings)
	settings.Transient.WebAuthPasswd = passwd
	return nil
}

func authUser(settings *config.Settings) string {
	if settings.Server.AuthUser == "" {
		return "form-spam"
	}
	return settings.Server.AuthUser
}

// makeDetector makes scoring orchestrator with remote model and lua plugins, as configured
func makeDetector(ctx context.Context, settings *config.Settings) (*formspam.Detector, error) {
	detectorConfig := formspam.Config{HistorySize: settings.Storage.HistorySize}
	detectorConfig.LuaPlugins.Enabled = settings.LuaPlugins.Enabled
	detectorConfig.LuaPlugins.PluginsDir = settings.LuaPlugins.PluginsDir
	detectorConfig.LuaPlugins.EnabledPlugins = settings.LuaPlugins.EnabledPlugins
	detector := formspam.NewDetector(detectorConfig)
	log.Printf("[DEBUG] detector config: %+v", detectorConfig)

	completer, err := makeCompleter(settings.Remote)
	if err != nil {
		return nil, err
	}
	limiter, err := makeRateLimiter(ctx, settings.Remote)
	if err != nil {
		return nil, err
	}
	detector.WithRemote(completer, limiter, settings.RemoteConfig())
	if settings.Detection.OpenAIEnabled {
		log.Printf("[INFO] remote model enabled, provider %s, rate limit %d per %v", settings.Remote.Provider,
			settings.Remote.RateLimitMax, settings.Remote.RateLimitWindow)
	}

	if settings.LuaPlugins.Enabled {
		if !fileutils.IsDir(settings.LuaPlugins.PluginsDir) {
			return nil, fmt.Errorf("lua plugins directory %q not found", settings.LuaPlugins.PluginsDir)
		}
		checker := lua.NewChecker()
		if err := detector.WithPluginEngine(checker); err != nil {
			return nil, fmt.Errorf("can't set lua plugins, %w", err)
		}
		if settings.LuaPlugins.DynamicReload {
			watcher, err := lua.NewWatcher(checker, settings.LuaPlugins.PluginsDir)
			if err != nil {
				return nil, fmt.Errorf("can't make lua watcher, %w", err)
			}
			if err := watcher.Start(); err != nil {
				return nil, fmt.Errorf("can't start lua watcher, %w", err)
			}
			go func() {
				<-ctx.Done()
				watcher.Stop()
			}()
		}
	}
	return detector, nil
}

// makeCompleter makes remote model client for the provider
func makeCompleter(rs config.RemoteSettings) (formspam.Completer, error) {
	switch rs.Provider {
	case formspam.ProviderOpenAI, "":
		return formspam.NewOpenAI(rs.APIBase), nil
	case formspam.ProviderGemini:
		return formspam.NewGemini(), nil
	default:
		return nil, fmt.Errorf("unsupported remote provider %q", rs.Provider)
	}
}

// makeRateLimiter makes redis limiter shared by instances if redis url set, in-memory one otherwise
func makeRateLimiter(ctx context.Context, rs config.RemoteSettings) (formspam.RateLimiter, error) {
	if rs.RedisURL == "" {
		return formspam.NewMemoryLimiter(rs.RateLimitMax, rs.RateLimitWindow), nil
	}
	res, err := storage.NewRedisLimiter(ctx, rs.RedisURL, "form-spam", rs.RateLimitMax, rs.RateLimitWindow)
	if err != nil {
		return nil, fmt.Errorf("can't make redis rate limiter, %w", err)
	}
	log.Printf("[INFO] redis rate limiter enabled")
	return res, nil
}

// cleanupSubmissions removes submissions older than retention days, 0 keeps everything
func cleanupSubmissions(ctx context.Context, store *storage.Submissions, days int, interval time.Duration) {
	if days <= 0 {
		log.Printf("[DEBUG] submissions retention disabled")
		return
	}
	age := time.Duration(days) * 24 * time.Hour
	cleanup := func() {
		n, err := store.Cleanup(ctx, age)
		if err != nil {
			log.Printf("[WARN] can't cleanup submissions, %v", err)
			return
		}
		if n > 0 {
			log.Printf("[INFO] removed %d submissions older than %d days", n, days)
		}
	}

	cleanup()
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			log.Printf("[DEBUG] submissions cleanup stopped")
			return
		case <-ticker.C:
			cleanup()
		}
	}
}

// exportToPostgres writes sqlite submissions and settings as postgres sql script
func exportToPostgres(ctx context.Context, db *engine.SQL, fname string) error {
	if db.Type() != engine.Sqlite {
		return fmt.Errorf("export requires sqlite database, got %s", db.Type())
	}
	// make sure both tables exist, the script expects them
	if _, err := storage.NewSubmissions(ctx, db); err != nil {
		return fmt.Errorf("can't init submissions, %w", err)
	}
	if _, err := config.NewStore(ctx, db, nil); err != nil {
		return fmt.Errorf("can't init settings, %w", err)
	}

	fh, err := os.Create(fname) //nolint:gosec // file name from cli
	if err != nil {
		return fmt.Errorf("can't create export file, %w", err)
	}
	if err := engine.NewConverter(db).SqliteToPostgres(ctx, fh, "submissions", "config"); err != nil {
		_ = fh.Close()
		return fmt.Errorf("can't export to postgres, %w", err)
	}
	if err := fh.Close(); err != nil {
		return fmt.Errorf("can't close export file, %w", err)
	}
	log.Printf("[INFO] exported %s to %s", db.GID(), fname)
	return nil
}

// makeSpamLogWriter creates spam log writer to keep reports about spam submissions
// it parses options and makes lumberjack logger with rotation
func makeSpamLogWriter(ls config.LoggerSettings) (accessLog io.WriteCloser, err error) {
	if !ls.Enabled {
		return nopWriteCloser{io.Discard}, nil
	}

	sizeParse := func(inp string) (uint64, error) {
		if inp == "" {
			return 0, errors.New("empty value")
		}
		for i, sfx := range []string{"k", "m", "g", "t"} {
			if strings.HasSuffix(inp, strings.ToUpper(sfx)) || strings.HasSuffix(inp, strings.ToLower(sfx)) {
				val, err := strconv.Atoi(inp[:len(inp)-1])
				if err != nil {
					return 0, fmt.Errorf("can't parse %s: %w", inp, err)
				}
				return uint64(float64(val) * math.Pow(float64(1024), float64(i+1))), nil
			}
		}
		return strconv.ParseUint(inp, 10, 64)
	}

	maxSize, perr := sizeParse(ls.MaxSize)
	if perr != nil {
		return nil, fmt.Errorf("can't parse logger MaxSize: %w", perr)
	}

	maxSize /= 1048576

	log.Printf("[INFO] spam logger enabled for %s, max size %dM", ls.FileName, maxSize)
	return &lumberjack.Logger{
		Filename:   ls.FileName,
		MaxSize:    int(maxSize), //nolint:gosec // size in MB
		MaxBackups: ls.MaxBackups,
		Compress:   true,
		LocalTime:  true,
	}, nil
}

type nopWriteCloser struct{ io.Writer }

func (n nopWriteCloser) Close() error { return nil }

func setupLog(dbg bool, secrets ...string) {
	logOpts := []lgr.Option{lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	if dbg {
		logOpts = []lgr.Option{lgr.Debug, lgr.CallerFile, lgr.CallerFunc, lgr.Msec, lgr.LevelBraces, lgr.StackTraceOnError}
	}

	colorizer := lgr.Mapper{
		ErrorFunc:  func(s string) string { return color.New(color.FgHiRed).Sprint(s) },
		WarnFunc:   func(s string) string { return color.New(color.FgRed).Sprint(s) },
		InfoFunc:   func(s string) string { return color.New(color.FgYellow).Sprint(s) },
		DebugFunc:  func(s string) string { return color.New(color.FgWhite).Sprint(s) },
		CallerFunc: func(s string) string { return color.New(color.FgBlue).Sprint(s) },
		TimeFunc:   func(s string) string { return color.New(color.FgCyan).Sprint(s) },
	}
	logOpts = append(logOpts, lgr.Map(colorizer))

	nonEmpty := []string{}
	for _, s := range secrets {
		if s != "" && s != "auto" {
			nonEmpty = append(nonEmpty, s)
		}
	}
	if len(nonEmpty) > 0 {
		logOpts = append(logOpts, lgr.Secret(nonEmpty...))
	}
	lgr.SetupStdLogger(logOpts...)
	lgr.Setup(logOpts...)
}
