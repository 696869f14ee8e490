package cli

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/twaters/radiant/internal/api"
	"github.com/twaters/radiant/internal/arbiter"
)

func init() {
	rootCmd.AddCommand(arbiterCmd)
	arbiterCmd.Flags().String("http", "", "HTTP status API listen address (e.g. 127.0.0.1:8555); empty disables it")
}

var arbiterCmd = &cobra.Command{
	Use:   "arbiter [node_request_bind [arbiter_ident [pub_state_bind]]]",
	Short: "Run the arbiter",
	Long: `Run the central arbiter. Positional arguments override the config
file: the node-request bind address, the arbiter identity, and the
state-publication bind address, in that order.`,
	Args: cobra.MaximumNArgs(3),
	RunE: runArbiter,
}

func runArbiter(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadConfig()
	if err != nil {
		return err
	}

	cfg := arbiter.DefaultConfig()
	cfg.NodeBind = fileCfg.Arbiter.NodeBind
	cfg.StateBind = fileCfg.Arbiter.StateBind
	cfg.Identity = fileCfg.Arbiter.Identity
	if len(args) > 0 {
		cfg.NodeBind = args[0]
	}
	if len(args) > 1 {
		cfg.Identity = args[1]
	}
	if len(args) > 2 {
		cfg.StateBind = args[2]
	}

	httpAddr := fileCfg.Arbiter.HTTPAddr
	if flagAddr, _ := cmd.Flags().GetString("http"); flagAddr != "" {
		httpAddr = flagAddr
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	srv := arbiter.New(cfg, slog.Default())

	if httpAddr != "" {
		status := api.NewServer(srv)
		status.EnableMetrics()
		httpSrv := &http.Server{Addr: httpAddr, Handler: status.Handler()}
		go func() {
			slog.Info("status API up", "addr", httpAddr)
			if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				slog.Error("status API failed", "err", err)
			}
		}()
		defer func() {
			shutCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
			defer cancel()
			httpSrv.Shutdown(shutCtx)
		}()
	}

	return srv.Run(ctx)
}
