package output

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/pterm/pterm"

	"github.com/mikey-austin/spotctl/pkg/np"
)

// SentResult reports a fire-and-forget command.
type SentResult struct {
	Command string `json:"command"`
	Addr    string `json:"addr"`
}

// HumanPrinter prints human-readable output to Out, or stdout when Out is nil.
type HumanPrinter struct {
	Out io.Writer
}

// Print renders human output.
func (p HumanPrinter) Print(v any) error {
	out := p.Out
	if out == nil {
		out = os.Stdout
	}
	switch data := v.(type) {
	case np.Track:
		return printTrack(out, data)
	case SentResult:
		_, err := fmt.Fprintf(out, "sent %s to %s\n", data.Command, data.Addr)
		return err
	default:
		_, err := fmt.Fprintln(out, "ok")
		return err
	}
}

func printTrack(out io.Writer, track np.Track) error {
	if track.Name == "" && track.URI == "" {
		_, err := fmt.Fprintln(out, "nothing playing")
		return err
	}
	artists := strings.Join(track.Artists, ", ")
	if artists == "" {
		artists = "-"
	}
	data := pterm.TableData{
		{"TITLE", track.Name},
		{"ARTISTS", artists},
		{"ID", track.ID},
		{"URI", track.URI},
	}
	return pterm.DefaultTable.WithData(data).WithWriter(out).Render()
}
