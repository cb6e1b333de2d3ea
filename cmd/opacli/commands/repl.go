package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/opatomic/opago/cmdparse"
)

// runRepl connects to cfg.Host:cfg.Port and reads one command per
// line from stdin, printing each response in the same command-line
// syntax cmdparse reads (spec C11), until stdin closes.
func runRepl(cfg *Config) error {
	s, err := dial(cfg)
	if err != nil {
		return fmt.Errorf("opacli: connect: %w", err)
	}
	defer s.close()

	scanner := bufio.NewScanner(os.Stdin)
	scanner.Buffer(make([]byte, 4096), 1<<20)

	interactive := isTerminal(os.Stdin)
	for {
		if interactive {
			fmt.Print("opa> ")
		}
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if err := runOne(s, line, cfg); err != nil {
			fmt.Fprintf(os.Stderr, "opacli: %v\n", err)
		}
	}
	if err := scanner.Err(); err != nil && err != io.EOF {
		return err
	}
	return nil
}

func runOne(s *session, line string, cfg *Config) error {
	buf, err := cmdparse.Parse(line, s.nextMainID())
	if err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	req, err := s.send(buf)
	if err != nil {
		return fmt.Errorf("send: %w", err)
	}
	printResponse(req, cfg)
	req.FreeResponse()
	return nil
}

func isTerminal(f *os.File) bool {
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
