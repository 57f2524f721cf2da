package cli

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/segmentio/encoding/json"

	"github.com/wmrmrx/MAC0352-EP2/internal/api/response"
	"github.com/wmrmrx/MAC0352-EP2/internal/protocol"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
	w      io.Writer
}

// NewOutput creates a new Output formatter writing to w
func NewOutput(format string, w io.Writer) *Output {
	return &Output{format: format, w: w}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(o.w)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case response.HealthResponse:
		fmt.Fprintf(o.w, "Status: %s\nSessions: %d\n", v.Status, v.Sessions)
	case response.UsersResponse:
		o.printUsers(v)
	case response.UserResponse:
		o.printUser(v)
	case response.LeaderboardResponse:
		o.printLeaderboard(v)
	default:
		o.printJSON(data)
	}
}

func (o *Output) printUsers(r response.UsersResponse) {
	if len(r.Users) == 0 {
		fmt.Fprintln(o.w, "No users online")
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "USER\tSTATE\tPARTNER")
	for _, u := range r.Users {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", u.User, u.State, partnerText(u))
	}
	_ = tw.Flush()
}

func (o *Output) printUser(r response.UserResponse) {
	if !r.Online {
		fmt.Fprintf(o.w, "%s: offline\n", r.User)
		return
	}
	fmt.Fprintf(o.w, "%s: %s", r.User, r.State)
	if r.Partner != "" {
		fmt.Fprintf(o.w, " (with %s)", r.Partner)
	}
	fmt.Fprintln(o.w)
}

func (o *Output) printLeaderboard(r response.LeaderboardResponse) {
	if len(r.Entries) == 0 {
		fmt.Fprintln(o.w, "No games finished yet")
		return
	}
	tw := tabwriter.NewWriter(o.w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tUSER\tSCORE")
	for i, e := range r.Entries {
		fmt.Fprintf(tw, "%d\t%s\t%d\n", i+1, e.User, e.Score)
	}
	_ = tw.Flush()
}

func partnerText(u protocol.UserStatus) string {
	if u.State == protocol.UserHosting && u.Partner == "" {
		return "-"
	}
	return u.Partner
}
