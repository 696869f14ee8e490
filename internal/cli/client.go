package cli

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/twaters/radiant/internal/client"
	"github.com/twaters/radiant/internal/domain"
)

func init() {
	rootCmd.AddCommand(clientCmd)
	clientCmd.Flags().String("connect", "", "arbiter node-request endpoint")
	clientCmd.Flags().String("state", "", "arbiter state-publication endpoint")
	clientCmd.Flags().StringArray("command", nil, "command name this node accepts (repeatable)")
	clientCmd.Flags().StringArray("data", nil, "data-notification name this node emits (repeatable)")
}

var clientCmd = &cobra.Command{
	Use:   "client [NAME]",
	Short: "Run one node client",
	Long: `Run a node client: register with the arbiter, keep the heartbeat
going, and print every network-state broadcast. Without NAME, the config
file's client identity is used, or a generated one when that is empty too.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runClient,
}

func runClient(cmd *cobra.Command, args []string) error {
	fileCfg, err := loadConfig()
	if err != nil {
		return err
	}

	identity := fileCfg.Client.Identity
	if len(args) > 0 {
		identity = args[0]
	}
	connect := fileCfg.Client.Connect
	if v, _ := cmd.Flags().GetString("connect"); v != "" {
		connect = v
	}
	stateConnect := fileCfg.Client.StateConnect
	if v, _ := cmd.Flags().GetString("state"); v != "" {
		stateConnect = v
	}
	commands, _ := cmd.Flags().GetStringArray("command")
	data, _ := cmd.Flags().GetStringArray("data")

	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	sess := client.New(identity)
	for _, name := range commands {
		sess.AddMessage(domain.CapCommand, name)
	}
	for _, name := range data {
		sess.AddMessage(domain.CapData, name)
	}

	snaps, err := sess.SubscribeState(ctx, stateConnect)
	if err != nil {
		return err
	}
	if err := sess.Connect(ctx, connect); err != nil {
		return err
	}
	defer sess.Close()

	for {
		select {
		case <-ctx.Done():
			return nil
		case snap, ok := <-snaps:
			if !ok {
				return nil
			}
			fmt.Fprintf(os.Stdout, "network state v%d: [%s]\n",
				snap.Version, strings.Join(snap.Nodes, ", "))
		}
	}
}
