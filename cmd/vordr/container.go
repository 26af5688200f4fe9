package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/cuemby/vordr/pkg/types"
)

var startCmd = &cobra.Command{
	Use:   "start <container>",
	Short: "Start a previously created container",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		c, err := a.lifecycle.Start(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("vordr: start: %w", err)
		}
		fmt.Println(c.ID)
		return nil
	},
}

var stopTimeout time.Duration

var stopCmd = &cobra.Command{
	Use:   "stop <container>",
	Short: "Gracefully stop a running container, killing it if the timeout elapses",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.lifecycle.Stop(context.Background(), args[0], stopTimeout); err != nil {
			return fmt.Errorf("vordr: stop: %w", err)
		}
		return nil
	},
}

func init() {
	stopCmd.Flags().DurationVarP(&stopTimeout, "timeout", "t", 10*time.Second, "time to wait for graceful exit before sending SIGKILL")
}

var killSignal string
var killAll bool

var killCmd = &cobra.Command{
	Use:   "kill <container>",
	Short: "Send a signal to a running container",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sig, err := parseSignal(killSignal)
		if err != nil {
			return err
		}

		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.lifecycle.Kill(context.Background(), args[0], sig, killAll); err != nil {
			return fmt.Errorf("vordr: kill: %w", err)
		}
		return nil
	},
}

func init() {
	killCmd.Flags().StringVarP(&killSignal, "signal", "s", "SIGKILL", "signal to send")
	killCmd.Flags().BoolVar(&killAll, "all", false, "send the signal to every process in the container, not just the init process")
}

func parseSignal(name string) (syscall.Signal, error) {
	switch name {
	case "SIGKILL", "KILL", "9":
		return syscall.SIGKILL, nil
	case "SIGTERM", "TERM", "15":
		return syscall.SIGTERM, nil
	case "SIGINT", "INT", "2":
		return syscall.SIGINT, nil
	case "SIGHUP", "HUP", "1":
		return syscall.SIGHUP, nil
	case "SIGUSR1", "USR1", "10":
		return syscall.SIGUSR1, nil
	case "SIGUSR2", "USR2", "12":
		return syscall.SIGUSR2, nil
	default:
		return 0, fmt.Errorf("vordr: kill: unsupported signal %q", name)
	}
}

var rmForce bool

var rmCmd = &cobra.Command{
	Use:   "rm <container>",
	Short: "Delete a container and its bundle",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.lifecycle.Delete(context.Background(), args[0], rmForce); err != nil {
			return fmt.Errorf("vordr: rm: %w", err)
		}
		return nil
	},
}

func init() {
	rmCmd.Flags().BoolVarP(&rmForce, "force", "f", false, "kill a running container before removing it")
}

var psAll bool

var psCmd = &cobra.Command{
	Use:   "ps",
	Short: "List containers",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		var stateFilter *types.ContainerState
		if !psAll {
			running := types.StateRunning
			stateFilter = &running
		}

		containers, err := a.store.ListContainers(context.Background(), stateFilter)
		if err != nil {
			return fmt.Errorf("vordr: ps: %w", err)
		}

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "CONTAINER ID\tNAME\tIMAGE\tSTATE\tCREATED")
		for _, c := range containers {
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", c.ID, c.Name, c.ImageID, c.State, c.CreatedAt.Format(time.RFC3339))
		}
		return tw.Flush()
	},
}

func init() {
	psCmd.Flags().BoolVarP(&psAll, "all", "a", false, "show containers in every state, not just running")
}

var inspectCmd = &cobra.Command{
	Use:   "inspect <container>",
	Short: "Print a container's full record as JSON",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		c, err := a.store.GetContainer(context.Background(), args[0])
		if err != nil {
			return fmt.Errorf("vordr: inspect: %w", err)
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(c)
	},
}

var pauseCmd = &cobra.Command{
	Use:   "pause <container>",
	Short: "Freeze every process in a running container",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.lifecycle.Pause(context.Background(), args[0]); err != nil {
			return fmt.Errorf("vordr: pause: %w", err)
		}
		return nil
	},
}

var unpauseCmd = &cobra.Command{
	Use:   "unpause <container>",
	Short: "Resume a paused container",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp()
		if err != nil {
			return err
		}
		defer a.Close()

		if err := a.lifecycle.Resume(context.Background(), args[0]); err != nil {
			return fmt.Errorf("vordr: unpause: %w", err)
		}
		return nil
	},
}
