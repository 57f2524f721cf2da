package client

import (
	"context"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/wmrmrx/MAC0352-EP2/internal/model"
	"github.com/wmrmrx/MAC0352-EP2/internal/testutil"
)

type ShellSuite struct {
	suite.Suite
	ctx context.Context
	out *testutil.LogBuffer
}

func TestShellSuite(t *testing.T) {
	suite.Run(t, new(ShellSuite))
}

func (s *ShellSuite) SetupTest() {
	s.ctx = context.Background()
	s.out = &testutil.LogBuffer{}
}

func (s *ShellSuite) terminal(input string) *Terminal {
	return NewTerminal(strings.NewReader(input), s.out)
}

func (s *ShellSuite) TestAcceptsCommand() {
	t := s.terminal("login ana secret\n")

	line, err := t.Prompt(s.ctx, "pacman", connectedCommands)
	s.Require().NoError(err)
	s.Equal(Line{Command: "login", Args: []string{"ana", "secret"}}, line)
	s.Equal("pacman> ", s.out.String())
}

func (s *ShellSuite) TestSkipsBlankLines() {
	t := s.terminal("\n   \nbye\n")

	line, err := t.Prompt(s.ctx, "pacman", connectedCommands)
	s.Require().NoError(err)
	s.Equal("bye", line.Command)
	s.Empty(line.Args)
}

func (s *ShellSuite) TestUnknownCommandReprompts() {
	t := s.terminal("host\nbye\n")

	line, err := t.Prompt(s.ctx, "pacman", connectedCommands)
	s.Require().NoError(err)
	s.Equal("bye", line.Command)
	s.Contains(s.out.String(), `unknown command "host"`)
}

func (s *ShellSuite) TestWrongArgumentCountPrintsUsage() {
	t := s.terminal("join\njoin ana\n")

	line, err := t.Prompt(s.ctx, "ana", idleCommands)
	s.Require().NoError(err)
	s.Equal([]string{"ana"}, line.Args)
	s.Contains(s.out.String(), "usage: join <user>")
}

func (s *ShellSuite) TestCheckRejectsArguments() {
	t := s.terminal("move x\nmove d\n")

	line, err := t.Prompt(s.ctx, "ana", hostingCommands)
	s.Require().NoError(err)
	s.Equal(model.East, direction(line))
	s.Contains(s.out.String(), "invalid direction")
}

func (s *ShellSuite) TestNewValidatesCredentials() {
	t := s.terminal("new averyveryverylongusername pw\nnew ana pw\n")

	line, err := t.Prompt(s.ctx, "pacman", connectedCommands)
	s.Require().NoError(err)
	s.Equal([]string{"ana", "pw"}, line.Args)
	s.Contains(s.out.String(), "invalid username")
}

func (s *ShellSuite) TestHelpListsCommands() {
	t := s.terminal("help\nquit\n")

	_, err := t.Prompt(s.ctx, "bob", joinedCommands)
	s.Require().NoError(err)
	s.Contains(s.out.String(), "move <w|a|s|d>")
	s.Contains(s.out.String(), "leave the game")
	s.NotContains(s.out.String(), "delay")
}

func (s *ShellSuite) TestEndOfInput() {
	t := s.terminal("")

	_, err := t.Prompt(s.ctx, "pacman", connectedCommands)
	s.ErrorIs(err, io.EOF)
}

func (s *ShellSuite) TestContextCancelled() {
	r, w := io.Pipe()
	defer w.Close()
	t := NewTerminal(r, s.out)

	ctx, cancel := context.WithTimeout(s.ctx, 20*time.Millisecond)
	defer cancel()
	_, err := t.Prompt(ctx, "pacman", connectedCommands)
	s.ErrorIs(err, context.DeadlineExceeded)
}
