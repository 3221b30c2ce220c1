// replay reconstructs draft state from an archived frame database.
// Useful for post-mortems: feed it the frames.db from a live session
// and it reports every pick, every rejection, and the final state.
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/draftops/draftops/internal/adapters/inbound/espn_ws"
	"github.com/draftops/draftops/internal/draft"
	"github.com/draftops/draftops/internal/protocol"
)

func main() {
	dbPath := flag.String("db", "frames.db", "path to frame archive")
	teams := flag.Int("teams", 10, "league size")
	rounds := flag.Int("rounds", 16, "draft rounds")
	verbose := flag.Bool("v", false, "print every frame, not just picks")
	flag.Parse()

	archive, err := espn_ws.OpenArchive(*dbPath, 1<<31-1)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open archive: %v\n", err)
		os.Exit(1)
	}
	defer archive.Close()

	initial, err := draft.NewSnapshot(*teams, *rounds, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "snapshot: %v\n", err)
		os.Exit(1)
	}
	store := draft.NewStore(initial, draft.DefaultMaxHistory)

	var frames, rejected int
	err = archive.Replay(func(f espn_ws.Frame) error {
		frames++
		ev := protocol.Decode(f.Text)
		if *verbose {
			fmt.Printf("%s  %q -> %T\n", f.ReceivedAt.Format("15:04:05.000"), f.Text, ev)
		}

		switch ev.(type) {
		case protocol.Heartbeat, protocol.Unrecognized:
			return nil
		}

		if _, err := store.Apply(ev); err != nil {
			rejected++
			fmt.Printf("rejected %q: %v\n", f.Text, err)
			return nil
		}
		if pick, ok := ev.(protocol.PickSelected); ok {
			round := draft.Round(pick.OverallPick, *teams)
			slot := draft.SlotInRound(pick.OverallPick, *teams)
			fmt.Printf("pick %3d (%2d.%02d)  team %2d  player %s\n", pick.OverallPick, round, slot, pick.TeamID, pick.PlayerID)
		}
		return nil
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "replay: %v\n", err)
		os.Exit(1)
	}

	final := store.Current()
	fmt.Printf("\nframes=%d  picks=%d  rejected=%d  seq=%d\n", frames, final.CurrentPick-1, rejected, final.SequenceNumber)
	for teamID, roster := range final.Rosters {
		fmt.Printf("team %2d: %d players\n", teamID, len(roster))
	}
}
