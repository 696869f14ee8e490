package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/twaters/radiant/internal/client"
	"github.com/twaters/radiant/internal/domain"
)

func init() {
	rootCmd.AddCommand(demoCmd)
	demoCmd.Flags().String("connect", "tcp://127.0.0.1:5555", "arbiter node-request endpoint")
	demoCmd.Flags().Duration("run-for", 10*time.Second, "how long the demo fleet stays up")
}

var demoCmd = &cobra.Command{
	Use:   "demo",
	Short: "Run a four-client demo fleet",
	Long: `Connect CLIENT1 through CLIENT4 to a local arbiter, each declaring
one command and one data notification, and keep them pinging for a while.`,
	Args: cobra.NoArgs,
	RunE: runDemo,
}

func runDemo(cmd *cobra.Command, args []string) error {
	connect, _ := cmd.Flags().GetString("connect")
	runFor, _ := cmd.Flags().GetDuration("run-for")

	sessions := make([]*client.Session, 0, 4)
	for i := 1; i <= 4; i++ {
		sess := client.New(fmt.Sprintf("CLIENT%d", i))
		sess.AddMessage(domain.CapCommand, fmt.Sprintf("c%d command", i))
		sess.AddMessage(domain.CapData, fmt.Sprintf("c%d notif", i))
		if err := sess.Connect(cmd.Context(), connect); err != nil {
			return fmt.Errorf("connect %s: %w", sess.Identity(), err)
		}
		sessions = append(sessions, sess)
	}

	select {
	case <-time.After(runFor):
	case <-cmd.Context().Done():
	}

	for _, sess := range sessions {
		sess.Close()
	}
	return nil
}
