package main

import (
	"cart-route-service/internal/adapters/repositories"
	"cart-route-service/internal/domain"
	"fmt"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create the snapshot history schema",
	RunE:  runInit,
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Record the seed snapshot as the first history entries",
	RunE:  runSeed,
}

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recorded snapshots, newest first",
	RunE:  runHistory,
}

var (
	seedPath      string
	historyCorral string
	historyLimit  int
)

func runInit(cmd *cobra.Command, args []string) error {
	conn, _, err := openHistory()
	if err != nil {
		return err
	}
	defer conn.Close()

	fmt.Printf("Schema ready (driver=%s)\n", dbDriver)
	return nil
}

func runSeed(cmd *cobra.Command, args []string) error {
	seed, err := repositories.LoadSeedSnapshot(seedPath)
	if err != nil {
		return err
	}

	conn, repo, err := openHistory()
	if err != nil {
		return err
	}
	defer conn.Close()

	n, err := repositories.SeedSnapshots(cmd.Context(), repo, seed, time.Now())
	if err != nil {
		return err
	}

	fmt.Printf("Recorded %d seed snapshots from %s\n", n, seedPath)
	return nil
}

func runHistory(cmd *cobra.Command, args []string) error {
	conn, repo, err := openHistory()
	if err != nil {
		return err
	}
	defer conn.Close()

	snaps, err := repo.ListSnapshots(cmd.Context(), domain.NormalizeID(historyCorral), historyLimit)
	if err != nil {
		return err
	}

	if len(snaps) == 0 {
		fmt.Println("No snapshots recorded")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "CORRAL\tCARTS\tSEVERITY\tRECORDED AT")
	for _, s := range snaps {
		fmt.Fprintf(w, "%s\t%v\t%s\t%s\n", s.CorralID, s.CartCount, domain.SeverityOf(s.CartCount), s.RecordedAt.Local().Format(time.RFC3339))
	}
	return w.Flush()
}
