package client

import (
	"errors"

	"github.com/wmrmrx/MAC0352-EP2/internal/model"
)

var (
	cmdNew = Command{
		Name: "new", Usage: "new <user> <password>", Help: "create an account", Args: 2,
		Check: func(args []string) error {
			return errors.Join(model.ValidateUsername(args[0]), model.ValidatePassword(args[1]))
		},
	}
	cmdLogin  = Command{Name: "login", Usage: "login <user> <password>", Help: "log in", Args: 2}
	cmdBye    = Command{Name: "bye", Usage: "bye", Help: "disconnect and exit"}
	cmdPasswd = Command{
		Name: "passwd", Usage: "passwd <old> <new>", Help: "change your password", Args: 2,
		Check: func(args []string) error { return model.ValidatePassword(args[1]) },
	}
	cmdLeaders = Command{Name: "leaders", Usage: "leaders", Help: "show the leaderboard"}
	cmdUsers   = Command{Name: "users", Usage: "users", Help: "list online users"}
	cmdHost    = Command{Name: "host", Usage: "host", Help: "start a game and wait for a challenger"}
	cmdJoin    = Command{Name: "join", Usage: "join <user>", Help: "join a game as the second ghost", Args: 1}
	cmdLogout  = Command{Name: "logout", Usage: "logout", Help: "log out"}
	cmdMove    = Command{
		Name: "move", Usage: "move <w|a|s|d>", Help: "move one cell", Args: 1,
		Check: func(args []string) error {
			_, err := model.ParseDirection(args[0])
			return err
		},
	}
	cmdDelay = Command{Name: "delay", Usage: "delay", Help: "show the last round trip to the challenger"}
	cmdQuit  = Command{Name: "quit", Usage: "quit", Help: "leave the game"}
)

var (
	connectedCommands = []Command{cmdNew, cmdLogin, cmdBye}
	idleCommands      = []Command{cmdPasswd, cmdLeaders, cmdUsers, cmdHost, cmdJoin, cmdLogout, cmdBye}
	hostingCommands   = []Command{cmdMove, cmdDelay, cmdQuit}
	joinedCommands    = []Command{cmdMove, cmdQuit}
)

// direction parses an accepted move line
func direction(line Line) model.Direction {
	d, _ := model.ParseDirection(line.Args[0])
	return d
}
