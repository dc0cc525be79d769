package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync/atomic"
	"time"

	"stackstore-be/internal/logger"
	"stackstore-be/internal/shopstate"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

const (
	deviceIDKey  = "stackstore_device_id"
	flushTimeout = 15 * time.Second
)

type settings struct {
	APIURL       string
	Token        string
	DataDir      string
	SyncDebounce time.Duration
	Verbose      bool
}

// session is the state one command invocation works on.
type session struct {
	out      io.Writer
	errOut   io.Writer
	remote   *shopstate.HTTPRemote
	manager  *shopstate.Manager
	signedIn bool
	expired  atomic.Bool
	warned   error
}

type cli struct {
	v       *viper.Viper
	session *session
}

func newRootCmd() *cobra.Command {
	c := &cli{v: viper.New()}

	root := &cobra.Command{
		Use:           "shopper",
		Short:         "Manage a StackStore cart and wishlist from the terminal",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return c.open(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return c.close(cmd)
		},
	}

	home, _ := os.UserHomeDir()

	flags := root.PersistentFlags()
	flags.String("config", "", "config file (default $HOME/.stackstore/config.yaml)")
	flags.String("api-url", "http://localhost:8080", "StackStore API base URL")
	flags.String("token", "", "access token; when set the cart and wishlist sync with the account")
	flags.String("data-dir", filepath.Join(home, ".stackstore", "data"), "directory for local cart and wishlist state")
	flags.Duration("sync-debounce", shopstate.DefaultDebounce, "quiet period before local changes are pushed")
	flags.BoolP("verbose", "v", false, "log sync activity")

	_ = c.v.BindPFlag("api_url", flags.Lookup("api-url"))
	_ = c.v.BindPFlag("token", flags.Lookup("token"))
	_ = c.v.BindPFlag("data_dir", flags.Lookup("data-dir"))
	_ = c.v.BindPFlag("sync_debounce", flags.Lookup("sync-debounce"))
	_ = c.v.BindPFlag("verbose", flags.Lookup("verbose"))

	root.AddCommand(c.cartCmd(), c.wishlistCmd(), c.syncCmd())
	return root
}

func (c *cli) loadSettings(cmd *cobra.Command) (settings, error) {
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		c.v.SetConfigFile(path)
	} else {
		if home, err := os.UserHomeDir(); err == nil {
			c.v.AddConfigPath(filepath.Join(home, ".stackstore"))
		}
		c.v.SetConfigName("config")
		c.v.SetConfigType("yaml")
	}

	c.v.SetEnvPrefix("stackstore")
	c.v.AutomaticEnv()

	if err := c.v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return settings{}, fmt.Errorf("read config: %w", err)
		}
	}

	s := settings{
		APIURL:       c.v.GetString("api_url"),
		Token:        c.v.GetString("token"),
		DataDir:      c.v.GetString("data_dir"),
		SyncDebounce: c.v.GetDuration("sync_debounce"),
		Verbose:      c.v.GetBool("verbose"),
	}
	if s.APIURL == "" {
		return s, errors.New("api_url is empty")
	}
	if s.DataDir == "" {
		return s, errors.New("data_dir is empty")
	}
	return s, nil
}

func (c *cli) open(cmd *cobra.Command) error {
	cfg, err := c.loadSettings(cmd)
	if err != nil {
		return err
	}
	logger.Replace(newCLILogger(cfg.Verbose))

	store, err := shopstate.NewFileStorage(cfg.DataDir)
	if err != nil {
		return err
	}

	deviceID, err := loadDeviceID(store)
	if err != nil {
		return err
	}

	s := &session{
		out:      cmd.OutOrStdout(),
		errOut:   cmd.ErrOrStderr(),
		remote:   shopstate.NewHTTPRemote(cfg.APIURL, shopstate.RemoteOptions{Token: cfg.Token, DeviceID: deviceID}),
		signedIn: cfg.Token != "",
	}

	var remote shopstate.Remote
	if s.signedIn {
		remote = s.remote
	}
	s.manager = shopstate.NewManager(store, remote, shopstate.Options{
		Debounce:         cfg.SyncDebounce,
		OnSessionExpired: func() { s.expired.Store(true) },
	})
	c.session = s

	if !s.signedIn {
		return nil
	}

	// settle the initial merge before the command mutates anything
	ctx, cancel := context.WithTimeout(cmd.Context(), flushTimeout)
	defer cancel()
	s.manager.SetAuthenticated(ctx, true)
	if err := s.manager.Flush(ctx); err != nil {
		s.warn(err)
	}
	return nil
}

func (c *cli) close(cmd *cobra.Command) error {
	s := c.session
	if s == nil || !s.signedIn {
		return nil
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), flushTimeout)
	defer cancel()
	if err := s.manager.Flush(ctx); err != nil {
		s.warn(err)
	}
	return nil
}

func (s *session) warn(err error) {
	if err == s.warned {
		return
	}
	s.warned = err

	if errors.Is(err, shopstate.ErrSessionExpired) || s.expired.Load() {
		fmt.Fprintln(s.errOut, "warning: session expired, local changes were kept; sign in again to sync")
		return
	}
	fmt.Fprintf(s.errOut, "warning: sync failed, local changes were kept: %v\n", err)
}

func loadDeviceID(store shopstate.Storage) (string, error) {
	raw, ok, err := store.Get(deviceIDKey)
	if err != nil {
		return "", err
	}
	if ok {
		var id string
		if json.Unmarshal(raw, &id) == nil && id != "" {
			return id, nil
		}
	}

	id := uuid.NewString()
	raw, err = json.Marshal(id)
	if err != nil {
		return "", err
	}
	return id, store.Set(deviceIDKey, raw)
}

func newCLILogger(verbose bool) *zap.Logger {
	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	if verbose {
		cfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	cfg.DisableStacktrace = true
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop()
	}
	return l
}
